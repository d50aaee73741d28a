package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/wherec/internal/testutil"
)

// createTestStore creates a new store in a temporary directory with a
// deterministic clock and identifiers.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithClock(testutil.NewDeterministicClock(time0, 0)),
		WithIDGenerator(&testutil.SequentialIDs{}),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCompilation builds a compilation record for a filter.
func createTestCompilation(t *testing.T, dialect, filter, sql string, args []any) Compilation {
	t.Helper()
	c, err := NewCompilation(dialect, "User", filter, sql, args)
	if err != nil {
		t.Fatalf("NewCompilation() failed: %v", err)
	}
	return c
}
