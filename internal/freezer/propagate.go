package freezer

import "context"

// Freeze installs or removes node's own freeze request and propagates the
// resulting obligation through node's subtree. The call returns once the
// obligation is installed; it never waits for tasks to actually park.
// "Fully frozen" is discovered later through ReportParked.
//
// Repeating the current request is a no-op. A request that toggles the bit
// but changes no node's effective obligation (for example freezing a
// subtree an ancestor already covers) still fires an acknowledgement event
// on node, so callers blocking on "did my request take effect" always hear
// back.
func (t *Tree) Freeze(ctx context.Context, node *Node, freeze bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.dying || node.selfFreeze == freeze {
		return
	}
	node.selfFreeze = freeze

	applied := false
	t.walkPre(node, func(d *Node) {
		if freeze {
			d.effFreeze++
			// Already obligated by an ancestor's request? The
			// counter is all that needs to move.
			if d.effFreeze > 1 {
				return
			}
		} else {
			d.effFreeze--
			// Still covered by another ancestor's standing
			// request: stay parked.
			if d.effFreeze > 0 {
				return
			}
			d.checkCounters()
		}
		t.applyFreezeLocked(ctx, d, freeze)
		applied = true
	})

	if !applied {
		t.notify(node, EventTypeAcknowledged, "", nil)
	}
}

// applyFreezeLocked performs the actual 0<->1 obligation transition for a
// single node: it parks or resumes every directly owned task and then
// revisits the node's frozen status when nothing asynchronous is left to
// wait for. That covers empty leaves and nodes whose descendants already
// sit in the desired state.
func (t *Tree) applyFreezeLocked(ctx context.Context, n *Node, freeze bool) {
	for _, ts := range n.tasks {
		if ts.task.Exempt() {
			continue
		}
		var err error
		if freeze {
			err = t.parker.Park(ctx, ts.task)
		} else {
			err = t.parker.Resume(ctx, ts.task)
		}
		if err != nil {
			t.notify(n, EventTypeError, ts.task.ID(), err)
		}
	}

	if n.totalDescendants == n.frozenDescendants {
		t.recomputeLocked(n)
	}
}
