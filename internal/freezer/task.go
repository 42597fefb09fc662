package freezer

import (
	"context"
	"fmt"

	"github.com/Paintersrp/cryo/internal/parking"
)

// Attach registers task as a direct member of node. A task attached under a
// standing freeze obligation is immediately asked to park; exempt tasks are
// tracked for membership only and never enter freeze accounting.
func (t *Tree) Attach(ctx context.Context, task parking.Task, node *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.dying {
		return fmt.Errorf("attach %s to %s: %w", task.ID(), node.Path(), errNodeDying)
	}
	if _, ok := t.tasks[task.ID()]; ok {
		return fmt.Errorf("attach %s: task already attached", task.ID())
	}

	ts := &taskState{task: task, node: node}
	t.tasks[task.ID()] = ts
	node.tasks[task.ID()] = ts

	if task.Exempt() {
		return nil
	}

	node.totalTasks++
	// An unparked newcomer invalidates a frozen node until it parks.
	t.recomputeLocked(node)

	if node.effFreeze > 0 {
		if err := t.parker.Park(ctx, task); err != nil {
			t.notify(node, EventTypeError, task.ID(), err)
		}
	}

	if t.legacy != nil {
		t.legacy.forkLocked(ctx, ts)
	}
	return nil
}

// Detach removes a terminating task from its node, with the same count
// adjustments as a migration out.
func (t *Tree) Detach(task parking.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts, ok := t.tasks[task.ID()]
	if !ok {
		return fmt.Errorf("detach %s: unknown task", task.ID())
	}
	delete(t.tasks, task.ID())
	delete(ts.node.tasks, task.ID())

	if task.Exempt() {
		return nil
	}

	ts.node.totalTasks--
	if ts.parked {
		ts.node.frozenTasks--
	}
	ts.node.checkCounters()
	t.recomputeLocked(ts.node)
	return nil
}

// Migrate moves task from one node to another and reconciles its parked
// state with the destination's obligation: parked into an unobligated node
// it is resumed, unparked into an obligated node it is parked. Exempt tasks
// move membership only.
func (t *Tree) Migrate(ctx context.Context, task parking.Task, from, to *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts, ok := t.tasks[task.ID()]
	if !ok {
		return fmt.Errorf("migrate %s: unknown task", task.ID())
	}
	if ts.node != from {
		return fmt.Errorf("migrate %s: task is in %s, not %s", task.ID(), ts.node.Path(), from.Path())
	}
	if to.dying {
		return fmt.Errorf("migrate %s to %s: %w", task.ID(), to.Path(), errNodeDying)
	}

	delete(from.tasks, task.ID())
	to.tasks[task.ID()] = ts
	ts.node = to

	if task.Exempt() {
		return nil
	}

	// If the task is parked but the destination is not frozen, both
	// frozen counters move so the tree-wide totals stay balanced even
	// mid-transition.
	if ts.parked {
		to.frozenTasks++
		from.frozenTasks--
	}
	from.totalTasks--
	to.totalTasks++
	from.checkCounters()
	to.checkCounters()

	t.recomputeLocked(to)
	t.recomputeLocked(from)

	// Force the task toward the destination's obligation.
	var err error
	switch {
	case to.effFreeze > 0 && !ts.parked:
		err = t.parker.Park(ctx, task)
	case to.effFreeze == 0 && ts.parked:
		err = t.parker.Resume(ctx, task)
	}
	if err != nil {
		t.notify(to, EventTypeError, task.ID(), err)
	}
	return nil
}

// ReportParked records a task's own observation that it reached the parked
// state, and revisits its node's frozen status. Invoked by the parking
// backend's watch path.
func (t *Tree) ReportParked(task parking.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts, ok := t.tasks[task.ID()]
	if !ok || ts.parked || task.Exempt() {
		return
	}
	ts.parked = true
	ts.node.frozenTasks++
	ts.node.checkCounters()
	t.recomputeLocked(ts.node)
}

// ReportResumed records that a task left the parked state. If the task's
// node is still under obligation the report lost a race with a newer
// freeze request: the parked accounting is kept so the node does not flash
// unfrozen while the task is on its way back to parking.
func (t *Tree) ReportResumed(task parking.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts, ok := t.tasks[task.ID()]
	if !ok || !ts.parked || task.Exempt() {
		return
	}
	if ts.node.effFreeze > 0 {
		return
	}
	ts.parked = false
	ts.node.frozenTasks--
	ts.node.checkCounters()
	t.recomputeLocked(ts.node)
}
