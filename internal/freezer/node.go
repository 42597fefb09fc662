package freezer

import (
	"fmt"
	"strings"

	"github.com/Paintersrp/cryo/internal/parking"
)

// Node is a vertex in the containment hierarchy. It groups directly owned
// tasks and child nodes and carries the counters from which its frozen
// status is derived. All fields are guarded by the owning Tree's update
// lock; Nodes are only ever mutated through Tree methods.
type Node struct {
	name     string
	parent   *Node
	children []*Node
	dying    bool

	// selfFreeze is this node's own freeze request, independent of any
	// ancestor's. effFreeze counts the currently-requesting
	// ancestors-or-self covering this node; a node must keep its tasks
	// parked while effFreeze > 0. A counter rather than a flag, so that
	// one ancestor's thaw cannot resume a node still covered by another.
	selfFreeze bool
	effFreeze  int

	// frozen is true iff effFreeze > 0, every directly owned task is
	// parked and every descendant node is frozen.
	frozen bool

	frozenTasks int
	totalTasks  int

	// Descendant node counts are transitive: every ancestor of a node
	// counts it. frozenDescendants tracks how many of those descendants
	// are currently fully frozen.
	frozenDescendants int
	totalDescendants  int

	tasks map[string]*taskState

	legacy legacyState
	// legacyMark remembers the last legacy request made directly on
	// this node, for the fork auto-thaw extension.
	legacyMark bool
}

type taskState struct {
	task   parking.Task
	node   *Node
	parked bool
}

// Name returns the node's name, unique among its siblings.
func (n *Node) Name() string { return n.name }

// Path returns the slash-separated path from the root to this node. The
// root's path is its own name.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.name
	}
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Stats is a point-in-time snapshot of a node's freeze accounting.
type Stats struct {
	Path              string
	RequestedFreeze   bool
	EffectiveFreeze   int
	Frozen            bool
	FrozenTasks       int
	TotalTasks        int
	FrozenDescendants int
	TotalDescendants  int
}

func (n *Node) statsLocked() Stats {
	return Stats{
		Path:              n.Path(),
		RequestedFreeze:   n.selfFreeze,
		EffectiveFreeze:   n.effFreeze,
		Frozen:            n.frozen,
		FrozenTasks:       n.frozenTasks,
		TotalTasks:        n.totalTasks,
		FrozenDescendants: n.frozenDescendants,
		TotalDescendants:  n.totalDescendants,
	}
}

func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// checkCounters panics when an update drove a counter out of its legal
// range. A negative or overflowing count is a contract violation in the
// caller's accounting; clamping it would only mask the bug.
func (n *Node) checkCounters() {
	if n.frozenTasks < 0 || n.frozenTasks > n.totalTasks {
		panic(fmt.Sprintf("freezer: node %s frozen task count %d out of range [0,%d]",
			n.Path(), n.frozenTasks, n.totalTasks))
	}
	if n.frozenDescendants < 0 || n.frozenDescendants > n.totalDescendants {
		panic(fmt.Sprintf("freezer: node %s frozen descendant count %d out of range [0,%d]",
			n.Path(), n.frozenDescendants, n.totalDescendants))
	}
	if n.effFreeze < 0 {
		panic(fmt.Sprintf("freezer: node %s effective freeze depth went negative", n.Path()))
	}
}
