package store

import (
	"fmt"
	"time"

	"github.com/roach88/wherec/internal/ir"
)

// Compilation is one logged compilation.
type Compilation struct {
	// ID is ir.CompilationID(Dialect, Model, Filter).
	ID      string
	Dialect string
	Model   string
	// Filter is the canonical description of the where-tree.
	Filter string
	SQL    string
	Args   []any
	// Fingerprint is ir.StatementFingerprint(SQL, Args).
	Fingerprint string
	Seq         int64
	CreatedAt   time.Time
}

// NewCompilation builds a record with its content-addressed ID and
// statement fingerprint filled in.
func NewCompilation(dialect, model, filter, sql string, args []any) (Compilation, error) {
	id, err := ir.CompilationID(dialect, model, filter)
	if err != nil {
		return Compilation{}, fmt.Errorf("new compilation: %w", err)
	}
	fp, err := ir.StatementFingerprint(sql, args)
	if err != nil {
		return Compilation{}, fmt.Errorf("new compilation: %w", err)
	}
	return Compilation{
		ID:          id,
		Dialect:     dialect,
		Model:       model,
		Filter:      filter,
		SQL:         sql,
		Args:        args,
		Fingerprint: fp,
	}, nil
}

// NamedFilter binds a name to a compilation.
type NamedFilter struct {
	ID            string
	Name          string
	CompilationID string
	CreatedAt     time.Time
}
