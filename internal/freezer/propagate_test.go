package freezer

import (
	"context"
	"reflect"
	"testing"
)

func TestFreezeInstallsObligationAcrossSubtree(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	b := f.mustChild(t, a, "b")
	c := f.mustChild(t, a, "c")
	f.mustAttach(t, fakeTask{id: "p1"}, b)
	f.mustAttach(t, fakeTask{id: "p2"}, c)

	f.tree.Freeze(context.Background(), a, true)

	for _, n := range []*Node{a, b, c} {
		if got := f.tree.Stats(n).EffectiveFreeze; got != 1 {
			t.Fatalf("node %s effective freeze = %d, want 1", n.Path(), got)
		}
	}
	if got := f.tree.Stats(f.tree.Root()).EffectiveFreeze; got != 0 {
		t.Fatalf("root effective freeze = %d, want 0", got)
	}
	if f.parker.parkCount("p1") != 1 || f.parker.parkCount("p2") != 1 {
		t.Fatalf("expected one park request per task, got p1=%d p2=%d",
			f.parker.parkCount("p1"), f.parker.parkCount("p2"))
	}
}

func TestFreezeIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	f.mustAttach(t, fakeTask{id: "p1"}, a)

	f.tree.Freeze(context.Background(), a, true)
	f.tree.Freeze(context.Background(), a, true)

	if got := f.tree.Stats(a).EffectiveFreeze; got != 1 {
		t.Fatalf("effective freeze after repeated request = %d, want 1", got)
	}
	if got := f.parker.parkCount("p1"); got != 1 {
		t.Fatalf("park requests after repeated freeze = %d, want 1", got)
	}
}

func TestOverlappingRequestsKeepCoverage(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	b := f.mustChild(t, a, "b")
	f.mustAttach(t, fakeTask{id: "p1"}, b)

	ctx := context.Background()
	f.tree.Freeze(ctx, b, true)
	f.tree.Freeze(ctx, a, true)
	f.tree.Freeze(ctx, b, false)

	// b stays covered by a's standing request.
	if got := f.tree.Stats(b).EffectiveFreeze; got != 1 {
		t.Fatalf("b effective freeze = %d, want 1", got)
	}
	if got := f.parker.resumeCount("p1"); got != 0 {
		t.Fatalf("p1 resumed %d times while still covered, want 0", got)
	}

	f.tree.Freeze(ctx, a, false)
	if got := f.tree.Stats(b).EffectiveFreeze; got != 0 {
		t.Fatalf("b effective freeze after full thaw = %d, want 0", got)
	}
	if got := f.parker.resumeCount("p1"); got != 1 {
		t.Fatalf("p1 resume requests after full thaw = %d, want 1", got)
	}
}

func TestRoundTripRestoresState(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	b := f.mustChild(t, a, "b")
	f.mustChild(t, b, "c")
	f.mustAttach(t, fakeTask{id: "p1"}, b)

	before := f.tree.Snapshot()
	ctx := context.Background()
	f.tree.Freeze(ctx, a, true)
	f.tree.Freeze(ctx, a, false)
	after := f.tree.Snapshot()

	if !reflect.DeepEqual(before, after) {
		t.Fatalf("freeze/unfreeze round trip changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestNoopRequestStillNotifies(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	b := f.mustChild(t, a, "b")
	f.mustAttach(t, fakeTask{id: "p1"}, b)

	ctx := context.Background()
	f.tree.Freeze(ctx, a, true)
	f.rec.reset()

	// b is already obligated through a; the request changes nothing
	// effective but must still be acknowledged.
	f.tree.Freeze(ctx, b, true)

	var acked bool
	for _, e := range f.rec.events {
		if e.Type == EventTypeAcknowledged && e.Node == "root/a/b" {
			acked = true
		}
	}
	if !acked {
		t.Fatalf("no acknowledgement fired for no-op freeze, events: %+v", f.rec.events)
	}
	if got := f.parker.parkCount("p1"); got != 1 {
		t.Fatalf("park requests = %d, want 1 (no re-issue for covered node)", got)
	}
}

func TestEmptyLeafFreezesImmediately(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")

	f.tree.Freeze(context.Background(), a, true)

	if !f.tree.IsFrozen(a) {
		t.Fatalf("empty leaf not frozen immediately after request")
	}
	flips := f.rec.flips()
	if len(flips) != 1 || flips[0].Type != EventTypeFrozen || flips[0].Node != "root/a" {
		t.Fatalf("unexpected flip events: %+v", flips)
	}
}

func TestFreezeSkipsExemptTasks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	f.mustAttach(t, fakeTask{id: "kthread", exempt: true}, a)

	f.tree.Freeze(context.Background(), a, true)

	if got := f.parker.parkCount("kthread"); got != 0 {
		t.Fatalf("exempt task received %d park requests, want 0", got)
	}
	// Exempt tasks never enter the accounting, so the node is frozen as
	// if it were empty.
	if !f.tree.IsFrozen(a) {
		t.Fatalf("node with only exempt tasks should freeze immediately")
	}
}

func TestFreezeRemovedNodeIsSilentlySkipped(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	if err := f.tree.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	f.tree.Freeze(context.Background(), a, true)

	if len(f.rec.flips()) != 0 {
		t.Fatalf("freeze of removed node produced flips: %+v", f.rec.flips())
	}
}

func TestParkFailureDoesNotAbortWalk(t *testing.T) {
	t.Parallel()

	f := newFixture()
	a := f.mustChild(t, f.tree.Root(), "a")
	b := f.mustChild(t, a, "b")
	c := f.mustChild(t, a, "c")
	f.mustAttach(t, fakeTask{id: "p1"}, b)
	f.mustAttach(t, fakeTask{id: "p2"}, c)
	f.parker.failFor["p1"] = errTestParkRefused

	f.tree.Freeze(context.Background(), a, true)

	if got := f.parker.parkCount("p2"); got != 1 {
		t.Fatalf("walk stopped at failing task: p2 park requests = %d, want 1", got)
	}
	var sawErr bool
	for _, e := range f.rec.events {
		if e.Type == EventTypeError && e.Task == "p1" {
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatalf("park failure not surfaced as error event: %+v", f.rec.events)
	}
}
