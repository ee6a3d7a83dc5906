package runloop

import "time"

// actionNode is the intrusive heap-position bookkeeping embedded in every
// timedAction (Timer and Schedule). deadline and index are owned exclusively
// by the timerHeap that currently holds the action; both fields are only
// ever touched on the loop goroutine, same as the heap itself.
type actionNode struct {
	deadline time.Time
	index    int
}

// timedAction is anything the timer heap can order by deadline and fire:
// Timer and Schedule both implement it. process is called with the heap
// lock (the loop's ownership, not a real mutex — see timerHeap's doc
// comment) already released, so it may safely re-enter the heap to adjust
// or remove itself.
type timedAction interface {
	node() *actionNode
	// process fires the action. If it returns ok == true, next is the
	// action's new deadline and the caller adjusts it in place in the heap;
	// otherwise the action is done and the caller removes it from the heap.
	process(now time.Time) (next time.Time, ok bool)
}

// timerHeap is a binary min-heap of timedActions ordered by deadline, with
// each element's heap index mirrored into its actionNode so adjust and
// remove run in O(log n) instead of requiring a linear scan. It is owned
// exclusively by the loop goroutine — nothing here is synchronized, by
// design: the Loop Engine never touches it from any other goroutine.
type timerHeap struct {
	data []timedAction
}

// push inserts act at deadline time and restores the heap property.
func (h *timerHeap) push(act timedAction, deadline time.Time) {
	index := len(h.data)
	node := act.node()
	node.deadline = deadline
	node.index = index
	h.data = append(h.data, act)
	h.siftUp(index)
}

// peek returns the root action if its deadline has passed now, else nil.
func (h *timerHeap) peek(now time.Time) timedAction {
	if len(h.data) == 0 {
		return nil
	}
	act := h.data[0]
	if !act.node().deadline.After(now) {
		return act
	}
	return nil
}

// peekTime returns the root's deadline and true, or the zero time and
// false if the heap is empty — used by the loop to compute how long to
// wait on the message queue's condvar.
func (h *timerHeap) peekTime() (time.Time, bool) {
	if len(h.data) == 0 {
		return time.Time{}, false
	}
	return h.data[0].node().deadline, true
}

// adjust changes node's deadline in place and restores the heap property.
// node must currently be present in this heap.
func (h *timerHeap) adjust(node *actionNode, deadline time.Time) {
	node.deadline = deadline
	index := node.index
	if h.siftUp(index) == index {
		h.siftDown(index)
	}
}

// remove extracts the action owning node from the heap. node must
// currently be present in this heap.
func (h *timerHeap) remove(node *actionNode) {
	index := node.index
	last := len(h.data) - 1
	if index == last {
		h.data = h.data[:last]
		return
	}
	h.swap(index, last)
	h.data = h.data[:last]
	h.siftDown(index)
}

func (h *timerHeap) len() int { return len(h.data) }

func (h *timerHeap) siftUp(index int) int {
	for index != 0 {
		parent := (index - 1) / 2
		if !h.data[index].node().deadline.Before(h.data[parent].node().deadline) {
			break
		}
		h.swap(index, parent)
		index = parent
	}
	return index
}

func (h *timerHeap) siftDown(index int) int {
	end := len(h.data)
	for {
		child := index*2 + 1
		if child >= end {
			break
		}
		if right := child + 1; right < end && h.data[right].node().deadline.Before(h.data[child].node().deadline) {
			child = right
		}
		if !h.data[index].node().deadline.After(h.data[child].node().deadline) {
			break
		}
		h.swap(index, child)
		index = child
	}
	return index
}

func (h *timerHeap) swap(a, b int) {
	h.data[a], h.data[b] = h.data[b], h.data[a]
	h.data[a].node().index = a
	h.data[b].node().index = b
}
