package eventmux

import (
	"testing"
	"time"

	"github.com/Paintersrp/cryo/internal/freezer"
)

func event(node string, typ freezer.EventType) freezer.Event {
	return freezer.Event{Timestamp: time.Now(), Node: node, Type: typ}
}

func TestMuxDeliversInOrder(t *testing.T) {
	t.Parallel()

	m := New(4)
	m.Notify(event("root/a", freezer.EventTypeFrozen))
	m.Notify(event("root/b", freezer.EventTypeFrozen))
	m.Close()

	var got []string
	for evt := range m.Output() {
		got = append(got, evt.Node)
	}
	if len(got) != 2 || got[0] != "root/a" || got[1] != "root/b" {
		t.Fatalf("delivered nodes = %v", got)
	}
}

func TestMuxDropsWhenFullAndSynthesizesWarning(t *testing.T) {
	t.Parallel()

	m := New(2)
	m.Notify(event("root/a", freezer.EventTypeFrozen))
	m.Notify(event("root/a", freezer.EventTypeThawed))
	// Channel full: this one is dropped.
	m.Notify(event("root/a", freezer.EventTypeFrozen))

	// Drain, then the next event must be preceded by a drop warning.
	if first := <-m.Output(); first.Type != freezer.EventTypeFrozen {
		t.Fatalf("first event type = %s", first.Type)
	}
	if second := <-m.Output(); second.Type != freezer.EventTypeThawed {
		t.Fatalf("second event type = %s", second.Type)
	}

	m.Notify(event("root/a", freezer.EventTypeFrozen))
	warn := <-m.Output()
	if warn.Type != freezer.EventTypeDropped || warn.Node != "root/a" {
		t.Fatalf("expected drop warning for root/a, got %+v", warn)
	}
	if warn.Err == nil {
		t.Fatalf("drop warning missing count detail")
	}
	if next := <-m.Output(); next.Type != freezer.EventTypeFrozen {
		t.Fatalf("expected frozen after warning, got %s", next.Type)
	}
}

func TestMuxRejectsAfterClose(t *testing.T) {
	t.Parallel()

	m := New(2)
	m.Close()
	m.Notify(event("root/a", freezer.EventTypeFrozen))

	if _, ok := <-m.Output(); ok {
		t.Fatalf("event delivered after close")
	}
}
