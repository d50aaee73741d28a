package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates UUID-shaped identifiers with an increasing
// suffix, so that stored records are byte-identical across runs.
//
//	00000000-0000-7000-8000-000000000001
type SequentialIDs struct {
	mu sync.Mutex
	n  int64
}

// NewID returns the next identifier.
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n)
}
