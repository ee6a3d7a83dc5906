package runloop

import (
	"testing"
	"time"
)

type fakeAction struct {
	n actionNode
}

func (a *fakeAction) node() *actionNode                             { return &a.n }
func (a *fakeAction) process(now time.Time) (time.Time, bool)       { return time.Time{}, false }

func checkHeapInvariant(t *testing.T, h *timerHeap) {
	t.Helper()
	for i, act := range h.data {
		if act.node().index != i {
			t.Fatalf("data[%d].index = %d, want %d", i, act.node().index, i)
		}
		if i == 0 {
			continue
		}
		parent := (i - 1) / 2
		if act.node().deadline.Before(h.data[parent].node().deadline) {
			t.Fatalf("data[%d].deadline %v before parent data[%d].deadline %v", i, act.node().deadline, parent, h.data[parent].node().deadline)
		}
	}
}

func TestTimerHeapPushMaintainsMinHeapOrder(t *testing.T) {
	base := time.Now()
	var h timerHeap
	deadlines := []time.Duration{50, 10, 40, 20, 5, 30, 15}
	for _, d := range deadlines {
		h.push(&fakeAction{}, base.Add(d*time.Millisecond))
		checkHeapInvariant(t, &h)
	}

	root, ok := h.peekTime()
	if !ok {
		t.Fatal("peekTime: heap unexpectedly empty")
	}
	if want := base.Add(5 * time.Millisecond); !root.Equal(want) {
		t.Fatalf("root deadline = %v, want %v", root, want)
	}
}

func TestTimerHeapAdjustRestoresOrder(t *testing.T) {
	base := time.Now()
	var h timerHeap
	acts := make([]*fakeAction, 5)
	for i, d := range []time.Duration{10, 20, 30, 40, 50} {
		acts[i] = &fakeAction{}
		h.push(acts[i], base.Add(d*time.Millisecond))
	}

	// Push the last element's deadline far earlier than the root.
	h.adjust(acts[4].node(), base.Add(1*time.Millisecond))
	checkHeapInvariant(t, &h)
	root, _ := h.peekTime()
	if !root.Equal(base.Add(1 * time.Millisecond)) {
		t.Fatalf("root deadline after adjust = %v, want base+1ms", root)
	}

	// Push the root's deadline far later; it should sift down.
	h.adjust(acts[4].node(), base.Add(100*time.Millisecond))
	checkHeapInvariant(t, &h)
	root, _ = h.peekTime()
	if !root.Equal(base.Add(10 * time.Millisecond)) {
		t.Fatalf("root deadline after second adjust = %v, want base+10ms", root)
	}
}

func TestTimerHeapRemoveRestoresOrder(t *testing.T) {
	base := time.Now()
	var h timerHeap
	acts := make([]*fakeAction, 6)
	for i, d := range []time.Duration{10, 20, 30, 40, 50, 60} {
		acts[i] = &fakeAction{}
		h.push(acts[i], base.Add(d*time.Millisecond))
	}

	h.remove(acts[0].node()) // remove the root
	checkHeapInvariant(t, &h)
	if h.len() != 5 {
		t.Fatalf("len after remove = %d, want 5", h.len())
	}
	root, _ := h.peekTime()
	if !root.Equal(base.Add(20 * time.Millisecond)) {
		t.Fatalf("root deadline after removing old root = %v, want base+20ms", root)
	}

	h.remove(acts[5].node()) // remove a non-root element (index 3, not the tail)
	checkHeapInvariant(t, &h)
	if h.len() != 4 {
		t.Fatalf("len after second remove = %d, want 4", h.len())
	}
}

func TestTimerHeapPeekRespectsNow(t *testing.T) {
	base := time.Now()
	var h timerHeap
	h.push(&fakeAction{}, base.Add(10*time.Millisecond))

	if act := h.peek(base); act != nil {
		t.Fatal("peek before deadline returned an action")
	}
	if act := h.peek(base.Add(10 * time.Millisecond)); act == nil {
		t.Fatal("peek at deadline returned nil")
	}
	if act := h.peek(base.Add(time.Second)); act == nil {
		t.Fatal("peek well after deadline returned nil")
	}
}

func TestTimerHeapPeekTimeEmpty(t *testing.T) {
	var h timerHeap
	if _, ok := h.peekTime(); ok {
		t.Fatal("peekTime on empty heap reported a deadline")
	}
	if act := h.peek(time.Now()); act != nil {
		t.Fatal("peek on empty heap returned an action")
	}
}
