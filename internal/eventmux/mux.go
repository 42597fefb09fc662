// Package eventmux delivers freezer events to a consumer over a bounded
// channel. The tree emits events with its update lock held, so delivery
// must never block: when the consumer cannot keep up, events are dropped
// per node and a synthesized warning surfaces the number of discarded
// entries once the channel drains.
package eventmux

import (
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/cryo/internal/freezer"
)

// Mux is a non-blocking freezer.Notifier backed by a bounded channel.
type Mux struct {
	out chan freezer.Event

	mu     sync.Mutex
	drops  map[string]int
	closed bool
}

// New constructs a mux backed by a channel of the provided size. A size of
// zero results in a minimally buffered channel.
func New(size int) *Mux {
	if size <= 0 {
		size = 1
	}
	return &Mux{
		out:   make(chan freezer.Event, size),
		drops: make(map[string]int),
	}
}

// Output exposes the muxed event channel.
func (m *Mux) Output() <-chan freezer.Event {
	return m.out
}

// Notify implements freezer.Notifier. It never blocks.
func (m *Mux) Notify(evt freezer.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if !m.flushPendingLocked(evt.Node) {
		m.drops[evt.Node]++
		return
	}
	if !m.trySend(evt) {
		m.drops[evt.Node]++
	}
}

// Close flushes pending drop records and closes the output channel. No
// further events are accepted.
func (m *Mux) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for node, count := range m.drops {
		if !m.trySend(synthesizeDropEvent(node, count)) {
			break
		}
	}
	m.drops = make(map[string]int)
	close(m.out)
}

// flushPendingLocked re-injects a drop warning for node ahead of its next
// event, preserving the "you missed something here" ordering.
func (m *Mux) flushPendingLocked(node string) bool {
	count := m.drops[node]
	if count == 0 {
		return true
	}
	if !m.trySend(synthesizeDropEvent(node, count)) {
		return false
	}
	delete(m.drops, node)
	return true
}

func (m *Mux) trySend(evt freezer.Event) bool {
	select {
	case m.out <- evt:
		return true
	default:
		return false
	}
}

func synthesizeDropEvent(node string, count int) freezer.Event {
	return freezer.Event{
		Timestamp: time.Now(),
		Node:      node,
		Type:      freezer.EventTypeDropped,
		Err:       fmt.Errorf("%d event(s) dropped", count),
	}
}
