package eventhub

import "sync/atomic"

// Counter produces monotonically increasing sequence numbers (spec C1).
// Every call to IncrementAndGet returns a value strictly greater than any
// previously returned value, with total order across concurrent callers.
type Counter struct {
	v atomic.Int64
}

// IncrementAndGet returns the next sequence number. Sequence 0 is reserved
// by the spec to mean "before any event"; the first call returns 1.
func (c *Counter) IncrementAndGet() int64 {
	return c.v.Add(1)
}

// Peek returns the most recently issued value without incrementing, mostly
// useful for tests and introspection.
func (c *Counter) Peek() int64 {
	return c.v.Load()
}
