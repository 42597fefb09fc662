// Package unixsig parks operating system processes with stop signals. A
// park request sends SIGSTOP and a watcher goroutine observes the process
// state until the stop takes effect, reporting completion through the
// configured callback; resume does the inverse with SIGCONT.
package unixsig

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Paintersrp/cryo/internal/parking"
)

const defaultPollInterval = 50 * time.Millisecond

// Process identifies a process by PID.
type Process struct {
	Pid int

	// Kernel marks kernel-thread-equivalent processes, which are exempt
	// from parking.
	Kernel bool
}

func (p Process) ID() string   { return strconv.Itoa(p.Pid) }
func (p Process) Exempt() bool { return p.Kernel }

// Parker implements parking.Parker over stop signals.
type Parker struct {
	report   parking.ReportFunc
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	watches map[int]*watchHandle
}

type watchHandle struct {
	cancel context.CancelFunc
}

// Option configures a Parker.
type Option func(*Parker)

// WithPollInterval overrides how often the watcher samples process state.
func WithPollInterval(d time.Duration) Option {
	return func(p *Parker) { p.interval = d }
}

// New constructs a Parker. report receives each process's observed
// transition into and out of the stopped state.
func New(report parking.ReportFunc, opts ...Option) *Parker {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Parker{
		report:   report,
		interval: defaultPollInterval,
		ctx:      ctx,
		cancel:   cancel,
		watches:  make(map[int]*watchHandle),
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

// Park requests the process enter the stopped state.
func (p *Parker) Park(_ context.Context, task parking.Task) error {
	proc, err := asProcess(task)
	if err != nil {
		return err
	}
	if err := signalStop(proc.Pid); err != nil {
		return err
	}
	p.watch(proc, true)
	return nil
}

// Resume makes the process runnable again.
func (p *Parker) Resume(_ context.Context, task parking.Task) error {
	proc, err := asProcess(task)
	if err != nil {
		return err
	}
	if err := signalCont(proc.Pid); err != nil {
		return err
	}
	p.watch(proc, false)
	return nil
}

// watch polls the process until it reaches the desired stopped state, then
// reports. A newer request for the same PID supersedes the running watch.
func (p *Parker) watch(proc Process, stopped bool) {
	p.mu.Lock()
	if prev, ok := p.watches[proc.Pid]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(p.ctx)
	handle := &watchHandle{cancel: cancel}
	p.watches[proc.Pid] = handle
	p.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			p.mu.Lock()
			if p.watches[proc.Pid] == handle {
				delete(p.watches, proc.Pid)
			}
			p.mu.Unlock()
		}()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			if isStopped, err := processStopped(proc.Pid); err == nil && isStopped == stopped {
				if p.report != nil {
					p.report(proc, stopped)
				}
				return
			} else if err != nil {
				// Process gone; nothing left to report.
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func asProcess(task parking.Task) (Process, error) {
	proc, ok := task.(Process)
	if !ok {
		return Process{}, fmt.Errorf("task %s is not a pid-backed process", task.ID())
	}
	return proc, nil
}
