package freezer

import (
	"context"
	"errors"
	"sync"

	"github.com/Paintersrp/cryo/internal/parking"
)

var errTestParkRefused = errors.New("park refused")

type fakeTask struct {
	id     string
	exempt bool
}

func (t fakeTask) ID() string   { return t.id }
func (t fakeTask) Exempt() bool { return t.exempt }

// fakeParker records park and resume requests. Completion is reported by
// the tests themselves via Tree.ReportParked/ReportResumed, mirroring the
// asynchronous contract of real backends.
type fakeParker struct {
	mu      sync.Mutex
	parks   map[string]int
	resumes map[string]int
	failFor map[string]error
}

func newFakeParker() *fakeParker {
	return &fakeParker{
		parks:   make(map[string]int),
		resumes: make(map[string]int),
		failFor: make(map[string]error),
	}
}

func (p *fakeParker) Park(_ context.Context, task parking.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failFor[task.ID()]; err != nil {
		return err
	}
	p.parks[task.ID()]++
	return nil
}

func (p *fakeParker) Resume(_ context.Context, task parking.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failFor[task.ID()]; err != nil {
		return err
	}
	p.resumes[task.ID()]++
	return nil
}

func (p *fakeParker) parkCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parks[id]
}

func (p *fakeParker) resumeCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumes[id]
}

// recorder collects events in arrival order.
type recorder struct {
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) flips() []Event {
	var out []Event
	for _, e := range r.events {
		if e.Type == EventTypeFrozen || e.Type == EventTypeThawed {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.events = nil
}

type fixture struct {
	tree   *Tree
	parker *fakeParker
	rec    *recorder
}

func newFixture() *fixture {
	parker := newFakeParker()
	rec := &recorder{}
	return &fixture{
		tree:   New("root", parker, WithNotifier(rec)),
		parker: parker,
		rec:    rec,
	}
}

func (f *fixture) mustChild(t testingT, parent *Node, name string) *Node {
	node, err := f.tree.NewChild(parent, name)
	if err != nil {
		t.Fatalf("NewChild(%s): %v", name, err)
	}
	return node
}

func (f *fixture) mustAttach(t testingT, task parking.Task, node *Node) {
	if err := f.tree.Attach(context.Background(), task, node); err != nil {
		t.Fatalf("Attach(%s): %v", task.ID(), err)
	}
}

// testingT is the subset of *testing.T the fixture helpers need.
type testingT interface {
	Fatalf(format string, args ...any)
}
