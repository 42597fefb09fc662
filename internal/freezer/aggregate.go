package freezer

// recomputeLocked revisits node's frozen status and, when it flips,
// propagates the change upward. A node is frozen iff a freeze obligation
// covers it, every directly owned task is parked and every descendant node
// is itself frozen. Idempotent: when the derived status matches the stored
// one nothing is walked and nothing fires.
func (t *Tree) recomputeLocked(n *Node) {
	frozen := n.effFreeze > 0 &&
		n.frozenTasks == n.totalTasks &&
		n.frozenDescendants == n.totalDescendants

	if frozen == n.frozen {
		return
	}
	n.frozen = frozen
	t.notifyFrozen(n)
	t.propagateFrozenLocked(n, frozen)
}

// propagateFrozenLocked pushes a node's frozen flip up the ancestor chain.
//
// Descendant counts are transitive, so every ancestor's frozenDescendants
// moves on every flip. The delta starts at one and grows each time an
// ancestor itself flips, since that ancestor is a newly frozen (or thawed)
// descendant of everything above it. On thaw the flip is forced: an
// ancestor cannot remain frozen over an unfrozen descendant. On freeze an
// ancestor flips only once its own obligation, tasks and remaining
// descendants are all satisfied, which bounds status churn to the
// ancestors genuinely affected.
func (t *Tree) propagateFrozenLocked(n *Node, frozen bool) {
	desc := 1
	for a := n.parent; a != nil; a = a.parent {
		if frozen {
			a.frozenDescendants += desc
			a.checkCounters()
			if !a.frozen && a.effFreeze > 0 &&
				a.frozenTasks == a.totalTasks &&
				a.frozenDescendants == a.totalDescendants {
				a.frozen = true
				t.notifyFrozen(a)
				desc++
			}
		} else {
			a.frozenDescendants -= desc
			a.checkCounters()
			if a.frozen {
				a.frozen = false
				t.notifyFrozen(a)
				desc++
			}
		}
	}
}
