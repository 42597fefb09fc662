//go:build !windows

package unixsig

import (
	"context"
	"testing"
)

func TestStatState(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		data  string
		want  byte
		fails bool
	}{
		{name: "running", data: "1234 (sleep) S 1 1234 1234 0", want: 'S'},
		{name: "stopped", data: "1234 (sleep) T 1 1234 1234 0", want: 'T'},
		{name: "comm with spaces and parens", data: "99 (tmux: server (1)) R 1 99", want: 'R'},
		{name: "truncated", data: "1234 (sleep)", fails: true},
		{name: "garbage", data: "not a stat line", fails: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := statState([]byte(tc.data))
			if tc.fails {
				if err == nil {
					t.Fatalf("expected error, got state %c", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("statState: %v", err)
			}
			if got != tc.want {
				t.Fatalf("statState = %c, want %c", got, tc.want)
			}
		})
	}
}

func TestProcessIdentity(t *testing.T) {
	t.Parallel()

	p := Process{Pid: 4312}
	if got := p.ID(); got != "4312" {
		t.Fatalf("ID = %q, want 4312", got)
	}
	if p.Exempt() {
		t.Fatalf("plain process reported exempt")
	}
	if !(Process{Pid: 2, Kernel: true}).Exempt() {
		t.Fatalf("kernel process not exempt")
	}
}

type notAProcess struct{}

func (notAProcess) ID() string   { return "other" }
func (notAProcess) Exempt() bool { return false }

func TestParkRejectsForeignTasks(t *testing.T) {
	t.Parallel()

	p := New(nil)
	defer p.Close()
	if err := p.Park(context.Background(), notAProcess{}); err == nil {
		t.Fatalf("expected error parking a non-pid task")
	}
	if err := p.Resume(context.Background(), notAProcess{}); err == nil {
		t.Fatalf("expected error resuming a non-pid task")
	}
}
