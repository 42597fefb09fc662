package freezer

import "time"

// EventType captures the notifications emitted by the coordinator as nodes
// change state.
type EventType string

const (
	// EventTypeFrozen fires when a node's frozen status flips to true.
	EventTypeFrozen EventType = "frozen"
	// EventTypeThawed fires when a node's frozen status flips to false.
	EventTypeThawed EventType = "thawed"
	// EventTypeAcknowledged fires on the requested node when a freeze or
	// thaw request changed nothing effective, so callers waiting on the
	// request are not left hanging.
	EventTypeAcknowledged EventType = "acknowledged"
	// EventTypeError fires when the parking backend rejects a park or
	// resume request for a task. The walk continues past the failure.
	EventTypeError EventType = "error"
	// EventTypeDropped is synthesized by delivery plumbing when slow
	// consumers forced events to be discarded.
	EventTypeDropped EventType = "dropped"
)

// Event is a single state notification for a node.
type Event struct {
	Timestamp time.Time
	Node      string
	Type      EventType
	Frozen    bool
	Task      string
	Err       error
}

// Notifier receives events from the coordinator. Notify is invoked with the
// tree's update lock held and must not block or call back into the tree.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

func (t *Tree) notify(n *Node, typ EventType, task string, err error) {
	if t.sink == nil {
		return
	}
	t.sink.Notify(Event{
		Timestamp: time.Now(),
		Node:      n.Path(),
		Type:      typ,
		Frozen:    n.frozen,
		Task:      task,
		Err:       err,
	})
}

func (t *Tree) notifyFrozen(n *Node) {
	typ := EventTypeThawed
	if n.frozen {
		typ = EventTypeFrozen
	}
	t.notify(n, typ, "", nil)
}
