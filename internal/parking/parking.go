package parking

import "context"

// Task identifies a schedulable unit of execution whose run state can be
// suspended. Implementations are provided by the backend that owns the
// underlying process or container.
type Task interface {
	// ID uniquely identifies the task within its backend.
	ID() string

	// Exempt reports whether the task belongs to a class that can never be
	// parked. Exempt tasks are skipped by freeze walks and excluded from
	// all freeze accounting.
	Exempt() bool
}

// Parker suspends and resumes individual tasks. Park is a request, not a
// completed transition: the task enters the parked state at its next safe
// point and the backend reports completion separately through whatever
// report callback it was configured with. Resume clears the request and
// makes the task runnable again.
type Parker interface {
	Park(ctx context.Context, task Task) error
	Resume(ctx context.Context, task Task) error
}

// ReportFunc receives a task's own observation that it entered or left the
// parked state. Backends invoke it from their watch paths.
type ReportFunc func(task Task, parked bool)

// NopParker discards park and resume requests. Useful for trees that only
// track topology, and in tests.
type NopParker struct{}

func (NopParker) Park(context.Context, Task) error   { return nil }
func (NopParker) Resume(context.Context, Task) error { return nil }
