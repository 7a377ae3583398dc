package refresh

import "sync/atomic"

// Cell is a single value shared between writers (e.g. shrink/grow
// callbacks) and a generator that reads it once per tick
type Cell[T any] struct {
	v atomic.Pointer[T]
}

func NewCell[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.Store(initial)
	return c
}

func (c *Cell[T]) Load() T {
	return *c.v.Load()
}

func (c *Cell[T]) Store(v T) {
	c.v.Store(&v)
}
