package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator yields deterministic prefix-N identifiers for tests.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator builds a generator for identifiers carrying the supplied
// prefix. An empty prefix defaults to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence, starting from prefix-1.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}

// NextFunc adapts the generator for injection as an id func. A nil generator
// yields empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset rewinds the sequence so a fresh fixture set starts from one.
func (g *IDGenerator) Reset() {
	g.counter.Store(0)
}
