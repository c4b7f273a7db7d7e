// Package testutil holds deterministic stand-ins used by tests across packages.
package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined IDs for testing.
//
// This enables deterministic snapshot IDs and golden comparison of store
// output. Once the listed IDs are used up it continues with "snapshot-<n>".
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("snap-a", "snap-b")
//	gen.Generate() // "snap-a"
//	gen.Generate() // "snap-b"
//	gen.Generate() // "snapshot-3"
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next ID. Implements store.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("snapshot-%d", g.idx)
}

// Reset rewinds the generator to the first ID.
func (g *FixedIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idx = 0
}
