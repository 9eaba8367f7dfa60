// Package ds provides the small generic containers used by the extensions.
package ds

import "fmt"

// Set is an insertion-ordered set with O(1) membership testing.
// Iteration follows insertion order, which keeps fan-out deterministic.
//
// A Set is not safe for concurrent use.
type Set[T comparable] struct {
	items map[T]int // value -> index into order
	order []T
}

// NewSet creates a new set with the given items.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{items: make(map[T]int, len(items)), order: make([]T, 0, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s *Set[T]) String() string {
	return fmt.Sprintf("%v", s.order)
}

// Add adds v and reports whether it was not present yet. (mutates)
func (s *Set[T]) Add(v T) bool {
	if _, ok := s.items[v]; ok {
		return false
	}
	s.items[v] = len(s.order)
	s.order = append(s.order, v)
	return true
}

// Remove removes v and reports whether it was present. (mutates)
// This operation is O(n) where n is the set size.
func (s *Set[T]) Remove(v T) bool {
	i, ok := s.items[v]
	if !ok {
		return false
	}
	delete(s.items, v)
	s.order = append(s.order[:i], s.order[i+1:]...)
	for j := i; j < len(s.order); j++ {
		s.items[s.order[j]] = j
	}
	return true
}

// Contains returns true if v is present in the set.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int { return len(s.order) }

// IsEmpty returns true if the set contains no elements.
func (s *Set[T]) IsEmpty() bool { return len(s.order) == 0 }

// ForEach calls fn for every element in insertion order.
func (s *Set[T]) ForEach(fn func(T)) {
	for _, v := range s.order {
		fn(v)
	}
}

// Values returns a copy of the elements in insertion order.
func (s *Set[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

// Merge adds all elements from other to s. (mutates)
func (s *Set[T]) Merge(other *Set[T]) {
	for _, v := range other.order {
		s.Add(v)
	}
}
