package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Paintersrp/cryo/internal/api"
)

const defaultRefreshInterval = time.Second

// Client is the slice of the control API the viewer needs.
type Client interface {
	Status(ctx context.Context) (*api.StatusReport, error)
	Freeze(ctx context.Context, group string) (*api.FreezeResult, error)
	Thaw(ctx context.Context, group string) (*api.FreezeResult, error)
}

// Option configures the UI.
type Option func(*UI)

// WithRefreshInterval overrides how often the hierarchy is re-polled.
func WithRefreshInterval(d time.Duration) Option {
	return func(u *UI) {
		if d > 0 {
			u.interval = d
		}
	}
}

// UI renders the group hierarchy as an interactive tree backed by tview.
type UI struct {
	app    *tview.Application
	tree   *tview.TreeView
	status *tview.TextView

	client   Client
	interval time.Duration

	mu       sync.Mutex
	report   *api.StatusReport
	selected string

	stopOnce sync.Once
	done     chan struct{}
}

// New builds a UI over the given client.
func New(client Client, opts ...Option) *UI {
	app := tview.NewApplication()

	tree := tview.NewTreeView()
	tree.SetBorder(true).SetTitle(" Hierarchy (f freeze, t thaw, q quit) ")

	status := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	status.SetBorder(true).SetTitle(" Selection ")

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tree, 0, 4, true).
		AddItem(status, 4, 0, false)

	ui := &UI{
		app:      app,
		tree:     tree,
		status:   status,
		client:   client,
		interval: defaultRefreshInterval,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ui)
	}

	tree.SetChangedFunc(func(node *tview.TreeNode) {
		if node == nil {
			return
		}
		path, _ := node.GetReference().(string)
		ui.mu.Lock()
		ui.selected = path
		ui.renderStatusLocked()
		ui.mu.Unlock()
	})

	app.SetRoot(flex, true)
	app.SetInputCapture(ui.handleKey)

	return ui
}

// Run builds a UI over client and drives it until the context is
// cancelled or the user quits.
func Run(ctx context.Context, client Client, opts ...Option) error {
	return New(client, opts...).Run(ctx)
}

// Run polls the daemon and drives the application loop until the context
// is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()
		for {
			report, err := u.client.Status(ctx)
			if err == nil {
				u.Apply(report)
			}
			select {
			case <-ctx.Done():
				return
			case <-u.done:
				return
			case <-ticker.C:
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			u.Stop()
		case <-u.done:
		}
	}()

	err := u.app.Run()
	u.Stop()
	return err
}

// Stop terminates the application loop.
func (u *UI) Stop() {
	u.stopOnce.Do(func() {
		u.app.Stop()
		close(u.done)
	})
}

// Apply installs a fresh status report and redraws the tree.
func (u *UI) Apply(report *api.StatusReport) {
	u.mu.Lock()
	u.report = report
	root := buildTreeNodes(report)
	if u.selected == "" && root != nil {
		u.selected, _ = root.GetReference().(string)
	}
	u.mu.Unlock()

	u.app.QueueUpdateDraw(func() {
		u.tree.SetRoot(root)
		if root != nil {
			u.restoreSelection(root)
		}
		u.mu.Lock()
		u.renderStatusLocked()
		u.mu.Unlock()
	})
}

func (u *UI) restoreSelection(root *tview.TreeNode) {
	u.mu.Lock()
	want := u.selected
	u.mu.Unlock()

	current := root
	root.Walk(func(node, parent *tview.TreeNode) bool {
		if ref, _ := node.GetReference().(string); ref == want {
			current = node
		}
		return true
	})
	u.tree.SetCurrentNode(current)
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case 'q':
		u.Stop()
		return nil
	case 'f':
		u.requestSelected(true)
		return nil
	case 't':
		u.requestSelected(false)
		return nil
	}
	return event
}

func (u *UI) requestSelected(freeze bool) {
	u.mu.Lock()
	group := u.selected
	u.mu.Unlock()
	if group == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		if freeze {
			_, err = u.client.Freeze(ctx, group)
		} else {
			_, err = u.client.Thaw(ctx, group)
		}
		if err != nil {
			return
		}
		if report, statusErr := u.client.Status(ctx); statusErr == nil {
			u.Apply(report)
		}
	}()
}

func (u *UI) renderStatusLocked() {
	if u.report == nil || u.selected == "" {
		u.status.SetText("no selection")
		return
	}
	for _, group := range u.report.Groups {
		if group.Path != u.selected {
			continue
		}
		u.status.SetText(fmt.Sprintf(
			"%s\nrequested=%s effective=%d frozen=%s\nparked %d/%d  descendants %d/%d",
			group.Path,
			yesNo(group.RequestedFreeze), group.EffectiveFreeze, yesNo(group.Frozen),
			group.ParkedTasks, group.TotalTasks,
			group.FrozenDescendants, group.TotalDescendants))
		return
	}
	u.status.SetText(u.selected + " (gone)")
}

// buildTreeNodes converts the flat status report to a tview node tree.
// Report paths always include every ancestor, so children are recovered
// by prefix.
func buildTreeNodes(report *api.StatusReport) *tview.TreeNode {
	if report == nil || len(report.Groups) == 0 {
		return nil
	}

	children := make(map[string][]api.GroupReport)
	var root *api.GroupReport
	for i, group := range report.Groups {
		if idx := strings.LastIndexByte(group.Path, '/'); idx >= 0 {
			parent := group.Path[:idx]
			children[parent] = append(children[parent], group)
		} else if root == nil {
			root = &report.Groups[i]
		}
	}
	for _, kids := range children {
		sort.Slice(kids, func(i, j int) bool { return kids[i].Path < kids[j].Path })
	}
	if root == nil {
		return nil
	}

	var build func(group api.GroupReport) *tview.TreeNode
	build = func(group api.GroupReport) *tview.TreeNode {
		node := tview.NewTreeNode(nodeLabel(group)).
			SetReference(group.Path).
			SetColor(nodeColor(group)).
			SetExpanded(true)
		for _, child := range children[group.Path] {
			node.AddChild(build(child))
		}
		return node
	}
	return build(*root)
}

func nodeLabel(group api.GroupReport) string {
	name := group.Path
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	label := name
	switch {
	case group.Frozen:
		label += " [frozen]"
	case group.EffectiveFreeze > 0:
		label += fmt.Sprintf(" [freezing %d/%d]", group.ParkedTasks, group.TotalTasks)
	}
	return label
}

func nodeColor(group api.GroupReport) tcell.Color {
	switch {
	case group.Frozen:
		return tcell.ColorLightBlue
	case group.EffectiveFreeze > 0:
		return tcell.ColorYellow
	default:
		return tcell.ColorWhite
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
