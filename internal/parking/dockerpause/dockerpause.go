// Package dockerpause parks containers through the Docker engine's pause
// facility. Pause requests are asynchronous from the coordinator's point of
// view: a watcher polls the container state until the engine reports it
// paused (or running again) and then invokes the report callback.
package dockerpause

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"

	"github.com/Paintersrp/cryo/internal/parking"
)

const defaultPollInterval = 250 * time.Millisecond

// Container identifies a container by name or ID.
type Container struct {
	Ref string
}

func (c Container) ID() string   { return c.Ref }
func (c Container) Exempt() bool { return false }

// TLSOptions configure a TLS connection to a remote Docker daemon.
type TLSOptions struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	InsecureSkipVerify bool
}

// Parker implements parking.Parker over ContainerPause/ContainerUnpause.
type Parker struct {
	report   parking.ReportFunc
	interval time.Duration
	host     string
	tls      *TLSOptions

	clientOnce sync.Once
	client     *client.Client
	clientErr  error

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Parker.
type Option func(*Parker)

// WithPollInterval overrides how often container state is sampled.
func WithPollInterval(d time.Duration) Option {
	return func(p *Parker) { p.interval = d }
}

// WithHost connects to a daemon other than the environment default.
func WithHost(host string) Option {
	return func(p *Parker) { p.host = host }
}

// WithTLS secures the daemon connection.
func WithTLS(opts TLSOptions) Option {
	return func(p *Parker) { p.tls = &opts }
}

// New constructs a Parker. report receives each container's observed pause
// transitions.
func New(report parking.ReportFunc, opts ...Option) *Parker {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Parker{
		report:   report,
		interval: defaultPollInterval,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close stops all outstanding watchers.
func (p *Parker) Close() {
	p.cancel()
}

func (p *Parker) getClient() (*client.Client, error) {
	p.clientOnce.Do(func() {
		opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
		if p.host != "" {
			opts = append(opts, client.WithHost(p.host))
		}
		if p.tls != nil {
			tlsc, err := tlsconfig.Client(tlsconfig.Options{
				CAFile:             p.tls.CAFile,
				CertFile:           p.tls.CertFile,
				KeyFile:            p.tls.KeyFile,
				InsecureSkipVerify: p.tls.InsecureSkipVerify,
			})
			if err != nil {
				p.clientErr = fmt.Errorf("configure docker tls: %w", err)
				return
			}
			opts = append(opts, client.WithHTTPClient(&http.Client{
				Transport: &http.Transport{TLSClientConfig: tlsc},
			}))
		}
		cli, err := client.NewClientWithOpts(opts...)
		if err != nil {
			p.clientErr = fmt.Errorf("create docker client: %w", err)
			return
		}
		p.client = cli
	})
	return p.client, p.clientErr
}

// Park pauses the container.
func (p *Parker) Park(ctx context.Context, task parking.Task) error {
	cli, err := p.getClient()
	if err != nil {
		return err
	}
	if err := cli.ContainerPause(ctx, task.ID()); err != nil {
		return fmt.Errorf("pause container %s: %w", task.ID(), err)
	}
	go p.watch(task, true)
	return nil
}

// Resume unpauses the container.
func (p *Parker) Resume(ctx context.Context, task parking.Task) error {
	cli, err := p.getClient()
	if err != nil {
		return err
	}
	if err := cli.ContainerUnpause(ctx, task.ID()); err != nil {
		return fmt.Errorf("unpause container %s: %w", task.ID(), err)
	}
	go p.watch(task, false)
	return nil
}

func (p *Parker) watch(task parking.Task, paused bool) {
	cli, err := p.getClient()
	if err != nil {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		info, err := cli.ContainerInspect(p.ctx, task.ID())
		if err != nil {
			return
		}
		if info.State != nil && info.State.Paused == paused {
			if p.report != nil {
				p.report(task, paused)
			}
			return
		}
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
