// Package freezer implements a hierarchical freeze/thaw coordinator over a
// tree of process groups. A freeze request on a node installs a freeze
// obligation on its entire subtree; individual tasks are then parked
// cooperatively through a parking backend, and "fully frozen" is discovered
// asynchronously as tasks report completion.
package freezer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Paintersrp/cryo/internal/parking"
)

var (
	errNodeDying    = errors.New("node is being removed")
	errNodeNotEmpty = errors.New("node still has tasks or children")
	errNodeIsRoot   = errors.New("cannot remove the root node")
)

// Tree owns the group hierarchy and all freeze state. Every mutation and
// every snapshot goes through the tree's update lock, which serializes
// freeze propagation, frozen aggregation and task migration tree-wide.
type Tree struct {
	mu     sync.Mutex
	root   *Node
	parker parking.Parker
	sink   Notifier
	tasks  map[string]*taskState
	legacy *LegacyFreezer
}

// Option configures a Tree.
type Option func(*Tree)

// WithNotifier installs the sink receiving node state events.
func WithNotifier(sink Notifier) Option {
	return func(t *Tree) { t.sink = sink }
}

// New constructs a tree with a single root node named name. Tasks are
// parked and resumed through parker.
func New(name string, parker parking.Parker, opts ...Option) *Tree {
	if parker == nil {
		parker = parking.NopParker{}
	}
	t := &Tree{
		root:   &Node{name: name, tasks: make(map[string]*taskState), legacy: legacyOnline},
		parker: parker,
		tasks:  make(map[string]*taskState),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// NewChild creates an empty child of parent. The child inherits the freeze
// obligations covering its parent: every request that covers the parent's
// subtree also covers the child. An empty node under obligation is born
// frozen, so ancestor frozen-descendant accounting stays balanced without
// an extra aggregation pass.
func (t *Tree) NewChild(parent *Node, name string) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent.dying {
		return nil, fmt.Errorf("create %s under %s: %w", name, parent.Path(), errNodeDying)
	}
	if parent.child(name) != nil {
		return nil, fmt.Errorf("create %s under %s: name already in use", name, parent.Path())
	}

	child := &Node{
		name:      name,
		parent:    parent,
		effFreeze: parent.effFreeze,
		tasks:     make(map[string]*taskState),
		legacy:    legacyOnline,
	}
	child.frozen = child.effFreeze > 0
	parent.children = append(parent.children, child)

	for a := parent; a != nil; a = a.parent {
		a.totalDescendants++
		if child.frozen {
			a.frozenDescendants++
		}
	}

	if t.legacy != nil {
		t.legacy.onlineLocked(child)
	}
	return child, nil
}

// Remove detaches an empty node from the tree. Walks already in progress
// observe the node as dying and skip it.
func (t *Tree) Remove(node *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if node.parent == nil {
		return errNodeIsRoot
	}
	if len(node.tasks) > 0 || len(node.children) > 0 {
		return fmt.Errorf("remove %s: %w", node.Path(), errNodeNotEmpty)
	}

	node.dying = true
	if t.legacy != nil {
		t.legacy.offlineLocked(node)
	}

	for a := node.parent; a != nil; a = a.parent {
		a.totalDescendants--
		if node.frozen {
			a.frozenDescendants--
		}
		a.checkCounters()
	}

	parent := node.parent
	for i, c := range parent.children {
		if c == node {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	node.parent = nil

	// Losing an unfrozen descendant may be exactly what a waiting
	// ancestor chain needed to become frozen.
	if !node.frozen {
		t.recomputeLocked(parent)
	}
	return nil
}

// IsFrozen reports whether node is currently fully frozen.
func (t *Tree) IsFrozen(node *Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return node.frozen
}

// Stats returns a snapshot of node's freeze accounting.
func (t *Tree) Stats(node *Node) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return node.statsLocked()
}

// Snapshot returns stats for every live node, in pre-order.
func (t *Tree) Snapshot() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Stats
	t.walkPre(t.root, func(n *Node) {
		out = append(out, n.statsLocked())
	})
	return out
}

// Lookup resolves a slash-separated path (as produced by Node.Path) to a
// node, or nil when no such node exists.
func (t *Tree) Lookup(path string) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(path)
}

func (t *Tree) lookupLocked(path string) *Node {
	cur := t.root
	rest := path
	if rest == cur.name {
		return cur
	}
	prefix := cur.name + "/"
	if !strings.HasPrefix(rest, prefix) {
		return nil
	}
	for _, name := range strings.Split(rest[len(prefix):], "/") {
		cur = cur.child(name)
		if cur == nil || cur.dying {
			return nil
		}
	}
	return cur
}

// walkPre visits node and its descendants in pre-order, skipping subtrees
// rooted at dying nodes. Children are visited in creation order.
func (t *Tree) walkPre(node *Node, visit func(*Node)) {
	if node.dying {
		return
	}
	visit(node)
	for _, c := range node.children {
		t.walkPre(c, visit)
	}
}
