package freezer

import "context"

// legacyState is the flag word of the older per-subtree freezer model. A
// node is freezing while either freezing bit is set: freezingSelf records a
// request made directly on the node, freezingParent that some ancestor is
// freezing. The frozen bit is a cached observation, cleared eagerly on thaw
// and re-derived on demand.
type legacyState uint8

const (
	legacyOnline legacyState = 1 << iota
	legacyFreezingSelf
	legacyFreezingParent
	legacyFrozen

	legacyFreezing = legacyFreezingSelf | legacyFreezingParent
)

// LegacyState is the externally visible legacy model state of a node.
type LegacyState string

const (
	LegacyThawed   LegacyState = "thawed"
	LegacyFreezing LegacyState = "freezing"
	LegacyFrozen   LegacyState = "frozen"
)

// LegacyFreezer layers the older flag-based freeze model over a Tree. It
// shares the tree's update lock and parking backend but keeps its own state
// representation: overlapping requests are resolved by re-deriving
// parent-inherited flags on a full pre-order walk of the requested subtree,
// which is correct only because each request holds the update lock for its
// entire traversal.
//
// Unlike the depth-counter model it maintains a single tree-wide count of
// subtrees currently freezing, stepped at each node's freezing/not-freezing
// edge, for coarse system-wide visibility.
type LegacyFreezer struct {
	tree *Tree

	// autoThawFork, when set, thaws a subtree's legacy freeze as soon as
	// a new task is attached into a node whose subtree root was marked
	// by a legacy freeze request. Off by default; the thaw goes through
	// the regular request path so it cooperates with flag re-derivation
	// and never touches the depth-counter model.
	autoThawFork bool

	freezingCount int
}

// LegacyOption configures a LegacyFreezer.
type LegacyOption func(*LegacyFreezer)

// WithAutoThawFork enables the fork auto-thaw extension.
func WithAutoThawFork() LegacyOption {
	return func(l *LegacyFreezer) { l.autoThawFork = true }
}

// NewLegacy attaches a legacy freezer to tree.
func NewLegacy(tree *Tree, opts ...LegacyOption) *LegacyFreezer {
	l := &LegacyFreezer{tree: tree}
	for _, opt := range opts {
		opt(l)
	}
	tree.mu.Lock()
	tree.legacy = l
	tree.mu.Unlock()
	return l
}

// SetFreezing requests or withdraws a legacy freeze on node's subtree. The
// whole subtree is walked in pre-order; each descendant inherits its
// parent's combined freezing state through the freezingParent bit, so
// overlapping requests from different ancestors resolve to the union of
// their obligations.
func (l *LegacyFreezer) SetFreezing(ctx context.Context, node *Node, freeze bool) {
	t := l.tree
	t.mu.Lock()
	defer t.mu.Unlock()

	node.legacyMark = freeze
	l.changeStateLocked(ctx, node, freeze)
}

func (l *LegacyFreezer) changeStateLocked(ctx context.Context, node *Node, freeze bool) {
	l.tree.walkPre(node, func(d *Node) {
		if d == node {
			l.applyStateLocked(ctx, d, freeze, legacyFreezingSelf)
			return
		}
		l.applyStateLocked(ctx, d, d.parent.legacy&legacyFreezing != 0, legacyFreezingParent)
	})
}

// applyStateLocked sets or clears one freezing bit on a single node and
// performs the freeze or thaw side effects at the freezing edge. The
// resume pass is strictly scoped to the node's own membership.
func (l *LegacyFreezer) applyStateLocked(ctx context.Context, n *Node, freeze bool, bit legacyState) {
	if n.legacy&legacyOnline == 0 {
		return
	}

	if freeze {
		if n.legacy&legacyFreezing == 0 {
			l.freezingCount++
		}
		n.legacy |= bit
		l.parkAllLocked(ctx, n, true)
		return
	}

	wasFreezing := n.legacy&legacyFreezing != 0
	n.legacy &^= bit
	if n.legacy&legacyFreezing == 0 {
		if wasFreezing {
			l.freezingCount--
		}
		n.legacy &^= legacyFrozen
		l.parkAllLocked(ctx, n, false)
	}
}

func (l *LegacyFreezer) parkAllLocked(ctx context.Context, n *Node, freeze bool) {
	t := l.tree
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
}

// State reports node's legacy state, refreshing the frozen bit from the
// current parked set: a freezing node whose subtree has no unparked,
// non-exempt tasks left is considered frozen.
func (l *LegacyFreezer) State(node *Node) LegacyState {
	t := l.tree
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.legacy&legacyFreezing == 0 {
		return LegacyThawed
	}
	if node.legacy&legacyFrozen != 0 {
		return LegacyFrozen
	}

	frozen := true
	t.walkPre(node, func(d *Node) {
		for _, ts := range d.tasks {
			if !ts.task.Exempt() && !ts.parked {
				frozen = false
			}
		}
	})
	if !frozen {
		return LegacyFreezing
	}
	node.legacy |= legacyFrozen
	return LegacyFrozen
}

// FreezingCount returns the number of nodes currently in a legacy freezing
// state, for system-wide coordination such as power management.
func (l *LegacyFreezer) FreezingCount() int {
	l.tree.mu.Lock()
	defer l.tree.mu.Unlock()
	return l.freezingCount
}

// onlineLocked brings a freshly created node under legacy management,
// inheriting a freezing parent's obligation.
func (l *LegacyFreezer) onlineLocked(n *Node) {
	if n.parent != nil && n.parent.legacy&legacyFreezing != 0 {
		l.applyStateLocked(context.Background(), n, true, legacyFreezingParent)
	}
}

// offlineLocked withdraws a dying node from legacy management.
func (l *LegacyFreezer) offlineLocked(n *Node) {
	if n.legacy&legacyFreezing != 0 {
		l.freezingCount--
	}
	n.legacy = 0
}

// forkLocked implements the fork auto-thaw extension: attaching a task into
// a subtree whose root still carries a legacy freeze mark thaws that
// subtree.
func (l *LegacyFreezer) forkLocked(ctx context.Context, ts *taskState) {
	if !l.autoThawFork {
		return
	}
	for n := ts.node; n != nil; n = n.parent {
		if n.legacyMark {
			n.legacyMark = false
			l.changeStateLocked(ctx, n, false)
			return
		}
	}
}
