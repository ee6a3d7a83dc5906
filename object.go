package runloop

// objectNode is the generic node stored in a Loop's intrusive object list:
// the user value T plus the prev/next pointers that make registryNode
// operations possible without a shared concrete list type per T.
type objectNode[T any] struct {
	handle *objHandle
	next   registryNode
	prev   registryNode
	obj    T
}

func (n *objectNode[T]) setNext(o registryNode) { n.next = o }
func (n *objectNode[T]) getNext() registryNode  { return n.next }
func (n *objectNode[T]) setPrev(o registryNode) { n.prev = o }
func (n *objectNode[T]) getPrev() registryNode  { return n.prev }

// ObjectHandle is a strong, reference-counted, cross-goroutine-safe handle
// to a value of type T that lives on l's object registry. T itself need
// not be goroutine-safe: it is only ever read (via GetRef) or destroyed on
// the owning Loop's goroutine. Go has no generic methods, so creation is
// the package-level function NewObject rather than a method on Loop.
type ObjectHandle[T any] struct {
	h    *objHandle
	node *objectNode[T]
}

// NewObject creates a new object on l's registry, at the head of its
// intrusive list, and returns a strong handle to it. Must be called from
// l's own goroutine (the registry is never mutated from elsewhere).
func NewObject[T any](l *Loop, value T) *ObjectHandle[T] {
	l.assertOwnGoroutine("NewObject")
	node := &objectNode[T]{obj: value}
	h := &objHandle{loop: l, node: node}
	h.strongCount.Store(1)
	h.weakCount.Store(1)
	node.handle = h
	l.registry.insert(node)
	return &ObjectHandle[T]{h: h, node: node}
}

// Clone returns a new strong handle sharing the same underlying object,
// safe to call from any goroutine.
func (o *ObjectHandle[T]) Clone() *ObjectHandle[T] {
	o.h.incStrong()
	return &ObjectHandle[T]{h: o.h, node: o.node}
}

// Release drops this strong handle. If it was the last one, the object is
// unlinked from its registry and becomes eligible for collection —
// immediately if Release runs on the owning loop's goroutine, otherwise by
// posting the teardown back to that goroutine, exactly mirroring the
// original's cross-thread-drop rule. Safe to call from any goroutine;
// idempotent only in the sense that calling it twice on the same
// *ObjectHandle is a double-release bug (as with any refcounted handle) —
// callers that Cloned get their own handle to Release independently.
func (o *ObjectHandle[T]) Release() {
	if !o.h.decStrong() {
		return
	}
	l := o.h.loop
	if l.isOwnGoroutine() {
		o.h.destroyLocked()
	} else {
		l.handle().Post(func() { o.h.destroyLocked() })
	}
}

// Post increments the strong count, then posts a closure to the owning
// loop that invokes fn with a reference to the object and releases the
// strong count again — so fn always runs on the owning goroutine, and the
// object is guaranteed alive for the duration of fn even if every other
// handle is released concurrently from elsewhere.
func (o *ObjectHandle[T]) Post(fn func(value *T)) {
	o.h.incStrong()
	node := o.node
	h := o.h
	l := o.h.loop
	l.handle().Post(func() {
		fn(&node.obj)
		if h.decStrong() {
			h.destroyLocked()
		}
	})
}

// GetRef returns a pointer to the underlying value if called from the
// owning loop's goroutine, or nil otherwise — the Go analogue of the
// original's thread-gated borrow.
func (o *ObjectHandle[T]) GetRef() *T {
	if !o.h.loop.isOwnGoroutine() {
		return nil
	}
	return &o.node.obj
}

// Downgrade returns a new weak handle to the same object.
func (o *ObjectHandle[T]) Downgrade() *ObjectWeak[T] {
	o.h.incWeak()
	return &ObjectWeak[T]{h: o.h, node: o.node}
}

// ObjectWeak is a weak, non-owning handle to a value created by NewObject.
// It does not keep the value alive; Upgrade succeeds only while at least
// one strong ObjectHandle for the same object still exists.
type ObjectWeak[T any] struct {
	h    *objHandle
	node *objectNode[T]
}

// Clone returns a new weak handle sharing the same underlying object.
func (w *ObjectWeak[T]) Clone() *ObjectWeak[T] {
	w.h.incWeak()
	return &ObjectWeak[T]{h: w.h, node: w.node}
}

// Release drops this weak handle.
func (w *ObjectWeak[T]) Release() {
	w.h.decWeak()
}

// Upgrade produces a new strong ObjectHandle if the object is still alive
// (some strong handle exists at the moment of the check), or nil.
func (w *ObjectWeak[T]) Upgrade() *ObjectHandle[T] {
	for {
		n := w.h.strongCount.Load()
		if n == 0 {
			return nil
		}
		if n >= maxRefCount {
			overflowGuard("object strong")
		}
		if w.h.strongCount.CompareAndSwap(n, n+1) {
			return &ObjectHandle[T]{h: w.h, node: w.node}
		}
	}
}
