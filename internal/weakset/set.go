// Package weakset provides an insertion-ordered set that tracks members
// without keeping them alive.
//
// Members that have been garbage collected are skipped during traversal and
// their slots are compacted away by the same pass, so a set with heavy
// subscriber churn does not grow without bound.
package weakset

import "weak"

// Set holds weak references to members of type T.
// Set is not safe for concurrent use.
type Set[T any] struct {
	slots []weak.Pointer[T]
}

// New creates an empty set
func New[T any]() *Set[T] {
	return &Set[T]{}
}

// Insert adds v to the set. Nil values are ignored.
func (s *Set[T]) Insert(v *T) {
	if v == nil {
		return
	}
	// Reclaim dead slots before growing the backing array
	if len(s.slots) == cap(s.slots) && len(s.slots) > 0 {
		s.compact(nil)
	}
	s.slots = append(s.slots, weak.Make(v))
}

// ForEach calls visit for every live member in insertion order.
// Collected members are dropped from the set during the traversal.
func (s *Set[T]) ForEach(visit func(*T)) {
	live := s.slots[:0]
	for _, wp := range s.slots {
		v := wp.Value()
		if v == nil {
			continue
		}
		live = append(live, wp)
		visit(v)
	}
	clear(s.slots[len(live):])
	s.slots = live
}

// PruneIf removes every live member for which match returns true, along with
// any collected members. It returns the number of live members removed.
func (s *Set[T]) PruneIf(match func(*T) bool) int {
	return s.compact(match)
}

// RemoveAll empties the set and returns the members that were still alive
func (s *Set[T]) RemoveAll() []*T {
	var out []*T
	for _, wp := range s.slots {
		if v := wp.Value(); v != nil {
			out = append(out, v)
		}
	}
	clear(s.slots)
	s.slots = s.slots[:0]
	return out
}

// Len returns the number of live members
func (s *Set[T]) Len() int {
	n := 0
	for _, wp := range s.slots {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

// compact drops collected slots and slots whose member matches
func (s *Set[T]) compact(match func(*T) bool) int {
	removed := 0
	live := s.slots[:0]
	for _, wp := range s.slots {
		v := wp.Value()
		if v == nil {
			continue
		}
		if match != nil && match(v) {
			removed++
			continue
		}
		live = append(live, wp)
	}
	clear(s.slots[len(live):])
	s.slots = live
	return removed
}
