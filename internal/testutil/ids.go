package testutil

import (
	"fmt"
	"sync"
)

// Counter is a resettable logical counter for tests.
//
// The first call to Next returns 1. Safe for concurrent use.
type Counter struct {
	mu sync.Mutex
	n  int64
}

// Next increments and returns the counter.
func (c *Counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Current returns the counter without incrementing.
func (c *Counter) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset sets the counter back to 0.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}

// SequentialIDs generates run IDs of the form "<prefix>-001", "<prefix>-002", ...
//
// Unlike engine.FixedGenerator it never runs out, which suits scenarios that
// do not list their run IDs. The same prefix always yields the same sequence,
// so golden traces stay byte-identical.
//
// Implements engine.IDGenerator.
type SequentialIDs struct {
	prefix string
	seq    Counter
}

// NewSequentialIDs creates a generator. An empty prefix becomes "run".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	return fmt.Sprintf("%s-%03d", g.prefix, g.seq.Next())
}
