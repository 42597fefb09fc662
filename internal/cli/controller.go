package cli

import (
	stdcontext "context"
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/cryo/internal/api"
	"github.com/Paintersrp/cryo/internal/freezer"
	"github.com/Paintersrp/cryo/internal/metrics"
)

const defaultEventHistory = 64

// treeController adapts a running freezer tree to the API controller
// surface. It also keeps a bounded history of recent notifications so
// status responses can show what happened lately.
type treeController struct {
	tree *freezer.Tree

	mu      sync.Mutex
	history []api.EventRecord
	limit   int
	// pending maps a group path to the time its freeze was requested,
	// until the group's frozen event closes the latency measurement.
	pending map[string]time.Time
}

func newTreeController(tree *freezer.Tree) *treeController {
	return &treeController{
		tree:    tree,
		limit:   defaultEventHistory,
		pending: make(map[string]time.Time),
	}
}

// Record appends an event to the bounded history and closes out any
// pending freeze-latency measurement for the node. It is called from the
// event consumer goroutine, never from inside tree operations.
func (c *treeController) Record(evt freezer.Event) {
	rec := api.EventRecord{
		Timestamp: evt.Timestamp,
		Node:      evt.Node,
		Type:      evt.Type,
		Frozen:    evt.Frozen,
		Task:      evt.Task,
	}
	if evt.Err != nil {
		rec.Message = evt.Err.Error()
	}

	c.mu.Lock()
	if evt.Type == freezer.EventTypeFrozen {
		if start, ok := c.pending[evt.Node]; ok {
			delete(c.pending, evt.Node)
			metrics.ObserveFreezeLatency(evt.Node, evt.Timestamp.Sub(start))
		}
	}
	c.history = append(c.history, rec)
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	c.mu.Unlock()
}

func (c *treeController) recentEvents() []api.EventRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.EventRecord(nil), c.history...)
}

func (c *treeController) Status(_ stdcontext.Context) (*api.StatusReport, error) {
	if c.tree == nil {
		return nil, api.ErrNoActiveTree
	}
	snapshot := c.tree.Snapshot()
	report := &api.StatusReport{
		Hierarchy:   c.tree.Root().Name(),
		GeneratedAt: time.Now().UTC(),
		Groups:      make([]api.GroupReport, 0, len(snapshot)),
		Events:      c.recentEvents(),
	}
	for _, stats := range snapshot {
		report.Groups = append(report.Groups, groupReport(stats))
	}
	return report, nil
}

func (c *treeController) Freeze(ctx stdcontext.Context, group string) (*api.FreezeResult, error) {
	return c.request(ctx, group, true)
}

func (c *treeController) Thaw(ctx stdcontext.Context, group string) (*api.FreezeResult, error) {
	return c.request(ctx, group, false)
}

func (c *treeController) request(ctx stdcontext.Context, group string, freeze bool) (*api.FreezeResult, error) {
	if c.tree == nil {
		return nil, api.ErrNoActiveTree
	}
	node := c.lookup(group)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownGroup, group)
	}

	metrics.IncrementFreezeRequest(freeze)
	path := node.Path()
	c.mu.Lock()
	if freeze {
		// Parking is asynchronous: the measurement closes when the
		// group's frozen event arrives. A repeated request keeps the
		// original start.
		if _, ok := c.pending[path]; !ok && !c.tree.IsFrozen(node) {
			c.pending[path] = time.Now()
		}
	} else {
		delete(c.pending, path)
	}
	c.mu.Unlock()

	c.tree.Freeze(ctx, node, freeze)

	return &api.FreezeResult{
		Group:       node.Path(),
		Freeze:      freeze,
		Frozen:      c.tree.IsFrozen(node),
		CompletedAt: time.Now().UTC(),
	}, nil
}

// lookup resolves a group either as a full path or relative to the root.
func (c *treeController) lookup(group string) *freezer.Node {
	if node := c.tree.Lookup(group); node != nil {
		return node
	}
	return c.tree.Lookup(c.tree.Root().Name() + "/" + group)
}

func groupReport(stats freezer.Stats) api.GroupReport {
	return api.GroupReport{
		Path:              stats.Path,
		RequestedFreeze:   stats.RequestedFreeze,
		EffectiveFreeze:   stats.EffectiveFreeze,
		Frozen:            stats.Frozen,
		ParkedTasks:       stats.FrozenTasks,
		TotalTasks:        stats.TotalTasks,
		FrozenDescendants: stats.FrozenDescendants,
		TotalDescendants:  stats.TotalDescendants,
	}
}
