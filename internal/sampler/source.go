package sampler

import "io"

// SliceSource yields the elements of a slice in order.
type SliceSource[T any] struct {
	items []T
	pos   int
}

// FromSlice wraps items as a Source. The slice is not copied.
func FromSlice[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// Next implements Source.
func (s *SliceSource[T]) Next() (T, error) {
	var zero T
	if s.pos >= len(s.items) {
		return zero, io.EOF
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

// Consumed reports how many items have been handed out.
func (s *SliceSource[T]) Consumed() int { return s.pos }

// FuncSource adapts a plain function to Source.
type FuncSource[T any] func() (T, error)

// Next implements Source.
func (f FuncSource[T]) Next() (T, error) { return f() }
