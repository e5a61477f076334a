// Package callbacks provides the append-only callback registry used by hubs
// to remember attached listeners.
package callbacks

// node is a single link in the registry
type node[F any] struct {
	fn   F
	next *node[F]
}

// List is an ordered, append-only collection of callbacks.
//
// The list always starts with a sentinel node that carries no callback and is
// never handed to visitors, so an empty list and a reset list look the same.
// List is not safe for concurrent use; owners guard it with their own
// critical section.
type List[F any] struct {
	root node[F]
	tail *node[F]
	size int
}

// New creates an empty list
func New[F any]() *List[F] {
	l := &List[F]{}
	l.tail = &l.root
	return l
}

// Append adds fn after the last appended callback
func (l *List[F]) Append(fn F) {
	if l.tail == nil {
		l.tail = &l.root
	}
	n := &node[F]{fn: fn}
	l.tail.next = n
	l.tail = n
	l.size++
}

// ForEach visits every appended callback in arrival order.
// Callbacks appended by visit during the traversal are visited as well.
func (l *List[F]) ForEach(visit func(F)) {
	for n := l.root.next; n != nil; n = n.next {
		visit(n.fn)
	}
}

// Snapshot returns the callbacks in arrival order
func (l *List[F]) Snapshot() []F {
	if l.size == 0 {
		return nil
	}
	out := make([]F, 0, l.size)
	l.ForEach(func(fn F) {
		out = append(out, fn)
	})
	return out
}

// Reset trims the list back to the sentinel
func (l *List[F]) Reset() {
	l.root.next = nil
	l.tail = &l.root
	l.size = 0
}

// Len returns the number of appended callbacks
func (l *List[F]) Len() int {
	return l.size
}
