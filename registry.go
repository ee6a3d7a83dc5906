package runloop

import (
	"math"
	"sync/atomic"
)

// maxRefCount bounds strong/weak counts the same way the original bounds
// them against isize::MAX: an increment that would carry a count above
// this is almost certainly a use-after-free or a runaway clone loop, and
// the only safe response is to bring the process down before a wraparound
// back to a small number makes the corruption look like a normal refcount.
const maxRefCount = math.MaxInt64

// registryNode is the non-generic half of the intrusive doubly-linked list
// that holds every live object created on a Loop. Go generics can't share
// one concrete linked-list implementation across different T, so the list
// operates on this interface instead; objectNode[T] (object.go) is its
// only implementation.
type registryNode interface {
	setNext(registryNode)
	getNext() registryNode
	setPrev(registryNode)
	getPrev() registryNode
}

// objectRegistry is the intrusive list of loop-affine objects, owned
// exclusively by the loop goroutine — insert and remove are never called
// from any other goroutine.
type objectRegistry struct {
	head registryNode
}

// insert links n at the head of the list.
func (r *objectRegistry) insert(n registryNode) {
	n.setPrev(nil)
	n.setNext(r.head)
	if r.head != nil {
		r.head.setPrev(n)
	}
	r.head = n
}

// remove unlinks n from the list. n must currently be linked into r.
func (r *objectRegistry) remove(n registryNode) {
	next := n.getNext()
	prev := n.getPrev()
	if prev != nil {
		prev.setNext(next)
	} else {
		r.head = next
	}
	if next != nil {
		next.setPrev(prev)
	}
}

// objHandle is the control block shared by every ObjectHandle[T] and
// ObjectWeak[T] cloned from the same created object — the Go analogue of
// the original's ObjH<T>, minus the manual deallocation bookkeeping Go's
// GC already performs (see DESIGN.md). strong/weak are atomic because,
// unlike the registry list itself, handles are explicitly meant to be
// cloned and released from any goroutine. Go's atomic package gives every
// operation sequential consistency rather than the original's deliberately
// relaxed orderings — a strictly safe substitute, just not the cheapest
// possible one.
type objHandle struct {
	strongCount atomic.Int64
	weakCount   atomic.Int64
	loop        *Loop
	node        registryNode
	destroyed   bool
}

// incStrong increments the strong count, aborting the process on overflow.
func (h *objHandle) incStrong() {
	// Add wraps to a negative count once it passes maxRefCount.
	if h.strongCount.Add(1) < 0 {
		overflowGuard("object strong")
	}
}

// decStrong decrements the strong count and reports whether it was the
// last strong reference (in which case the caller must arrange for the
// object to be unlinked from its registry on the owning loop's goroutine).
// Per spec.md's split-refcount rule, the last strong release also releases
// the implicit weak reference strong holds.
func (h *objHandle) decStrong() (last bool) {
	if h.strongCount.Add(-1) != 0 {
		return false
	}
	h.decWeak()
	return true
}

// incWeak increments the weak count, aborting the process on overflow.
func (h *objHandle) incWeak() {
	if h.weakCount.Add(1) < 0 {
		overflowGuard("object weak")
	}
}

// decWeak decrements the weak count. Unlike the original, reaching zero
// triggers no deallocation here — Go's GC reclaims the control block once
// nothing references it — so decWeak is purely bookkeeping, kept so the
// `strong > 0 ⇒ weak ≥ 1` invariant remains observable for tests.
func (h *objHandle) decWeak() {
	h.weakCount.Add(-1)
}

// destroyLocked unlinks h's node from the registry. Must only be called
// on the registry's owning loop goroutine.
func (h *objHandle) destroyLocked() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	h.loop.registry.remove(h.node)
}
