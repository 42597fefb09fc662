package cli

import (
	stdcontext "context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/Paintersrp/cryo/internal/api"
	httpapi "github.com/Paintersrp/cryo/internal/api/http"
	"github.com/Paintersrp/cryo/internal/cliutil"
	"github.com/Paintersrp/cryo/internal/config"
	"github.com/Paintersrp/cryo/internal/eventmux"
	"github.com/Paintersrp/cryo/internal/freezer"
	"github.com/Paintersrp/cryo/internal/metrics"
	"github.com/Paintersrp/cryo/internal/parking"
	"github.com/Paintersrp/cryo/internal/parking/dockerpause"
	"github.com/Paintersrp/cryo/internal/parking/unixsig"
)

const eventBuffer = 256

// daemon is the assembled runtime behind `cryo up`: the freeze tree, its
// parking backend, the event pipeline and the control API server.
type daemon struct {
	manifest *config.Manifest
	tree     *freezer.Tree
	legacy   *freezer.LegacyFreezer
	ctrl     *treeController
	mux      *eventmux.Mux
	server   *httpapi.Server

	closeParker func()
}

type daemonOptions struct {
	addr     string
	listener net.Listener
}

func newDaemon(manifest *config.Manifest, opts daemonOptions) (*daemon, error) {
	d := &daemon{manifest: manifest}

	// The parker reports park transitions back into the tree, but the
	// tree is constructed with the parker already in hand. Bridge the
	// cycle with a closure over the daemon's tree field.
	report := func(task parking.Task, parked bool) {
		if d.tree == nil {
			return
		}
		if parked {
			d.tree.ReportParked(task)
		} else {
			d.tree.ReportResumed(task)
		}
	}

	parker, closeParker, err := buildParker(manifest.Parking, report)
	if err != nil {
		return nil, err
	}
	d.closeParker = closeParker

	d.mux = eventmux.New(eventBuffer)
	d.tree = freezer.New(manifest.Hierarchy.Name, parker, freezer.WithNotifier(d.mux))
	if manifest.Legacy.Enabled {
		var legacyOpts []freezer.LegacyOption
		if manifest.Legacy.AutoThawFork {
			legacyOpts = append(legacyOpts, freezer.WithAutoThawFork())
		}
		d.legacy = freezer.NewLegacy(d.tree, legacyOpts...)
	}

	if err := d.buildHierarchy(); err != nil {
		d.close()
		return nil, err
	}

	d.ctrl = newTreeController(d.tree)

	addr := manifest.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	server, err := httpapi.NewServer(httpapi.Config{
		Addr:       addr,
		Controller: d.ctrl,
		Metrics:    metrics.Registry(),
		Listener:   opts.listener,
	})
	if err != nil {
		d.close()
		return nil, err
	}
	d.server = server

	return d, nil
}

func buildParker(spec config.ParkingSpec, report parking.ReportFunc) (parking.Parker, func(), error) {
	switch spec.Backend {
	case config.BackendSignal:
		var opts []unixsig.Option
		if spec.PollInterval.Duration > 0 {
			opts = append(opts, unixsig.WithPollInterval(spec.PollInterval.Duration))
		}
		p := unixsig.New(report, opts...)
		return p, p.Close, nil
	case config.BackendDocker:
		var opts []dockerpause.Option
		if spec.PollInterval.Duration > 0 {
			opts = append(opts, dockerpause.WithPollInterval(spec.PollInterval.Duration))
		}
		if spec.DockerHost != "" {
			opts = append(opts, dockerpause.WithHost(spec.DockerHost))
		}
		if spec.DockerCAFile != "" || spec.DockerCert != "" || spec.DockerSkipTLS {
			opts = append(opts, dockerpause.WithTLS(dockerpause.TLSOptions{
				CAFile:             spec.DockerCAFile,
				CertFile:           spec.DockerCert,
				KeyFile:            spec.DockerKey,
				InsecureSkipVerify: spec.DockerSkipTLS,
			}))
		}
		p := dockerpause.New(report, opts...)
		return p, p.Close, nil
	case config.BackendNone:
		return parking.NopParker{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown parking backend %q", spec.Backend)
	}
}

// buildHierarchy creates the declared groups, attaches the declared
// processes and applies any initial freeze requests from the manifest.
func (d *daemon) buildHierarchy() error {
	ctx := stdcontext.Background()
	rootName := d.tree.Root().Name()

	for _, path := range d.manifest.GroupPaths() {
		parent := d.tree.Root()
		name := path
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			parent = d.tree.Lookup(rootName + "/" + path[:i])
			name = path[i+1:]
		}
		if parent == nil {
			return fmt.Errorf("group %s: parent not found", path)
		}
		if _, err := d.tree.NewChild(parent, name); err != nil {
			return fmt.Errorf("group %s: %w", path, err)
		}
	}

	for _, proc := range d.manifest.Processes {
		node := d.tree.Root()
		if proc.Group != "" {
			node = d.tree.Lookup(rootName + "/" + proc.Group)
			if node == nil {
				return fmt.Errorf("process %s: group %s not found", processLabel(proc), proc.Group)
			}
		}
		task := processTask(proc)
		if err := d.tree.Attach(ctx, task, node); err != nil {
			return fmt.Errorf("process %s: %w", processLabel(proc), err)
		}
	}

	for _, path := range d.manifest.GroupPaths() {
		spec, ok := d.manifest.Group(path)
		if !ok || spec == nil || !spec.Frozen {
			continue
		}
		node := d.tree.Lookup(rootName + "/" + path)
		if node == nil {
			continue
		}
		metrics.IncrementFreezeRequest(true)
		d.tree.Freeze(ctx, node, true)
	}

	return nil
}

func processTask(spec config.ProcessSpec) parking.Task {
	if spec.Container != "" {
		return dockerpause.Container{Ref: spec.Container}
	}
	return unixsig.Process{Pid: spec.Pid, Kernel: spec.Exempt}
}

func processLabel(spec config.ProcessSpec) string {
	if spec.Container != "" {
		return spec.Container
	}
	return fmt.Sprintf("pid %d", spec.Pid)
}

// run serves the control API and consumes tree events until the context is
// cancelled. Events are recorded for status history, reflected into
// metrics and echoed to out.
func (d *daemon) run(ctx stdcontext.Context, out io.Writer) error {
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for evt := range d.mux.Output() {
			d.ctrl.Record(evt)
			d.updateMetrics(evt)
			if out != nil {
				fmt.Fprintln(out, cliutil.EventLine(evt))
			}
		}
	}()

	err := d.server.Run(ctx)
	d.close()
	<-consumerDone
	return err
}

func (d *daemon) updateMetrics(evt freezer.Event) {
	switch evt.Type {
	case freezer.EventTypeFrozen, freezer.EventTypeThawed:
		metrics.SetGroupFrozen(evt.Node, evt.Frozen)
	}
	if node := d.tree.Lookup(evt.Node); node != nil {
		metrics.SetTasksParked(evt.Node, d.tree.Stats(node).FrozenTasks)
	}
	if d.legacy != nil {
		metrics.SetFreezingSubtrees(d.legacy.FreezingCount())
	}
}

func (d *daemon) close() {
	if d.closeParker != nil {
		d.closeParker()
		d.closeParker = nil
	}
	if d.mux != nil {
		d.mux.Close()
	}
}

// Controller exposes the daemon's API controller for in-process callers.
func (d *daemon) Controller() api.Controller {
	return d.ctrl
}
