package store

import "sync/atomic"

// Clock is the logical clock that orders audit records.
//
// Every recorded evaluation is stamped with a strictly increasing seq from
// this clock instead of a wall-clock timestamp, so replay reads records in
// the order they were evaluated regardless of host time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// Concurrent HTTP handlers share one Clock through the Recorder.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// Used when reopening a database that already holds records.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
