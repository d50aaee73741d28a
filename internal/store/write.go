package store

import (
	"context"
	"fmt"
)

// Save logs a compilation and returns it as stored. Uses ON CONFLICT(id)
// DO NOTHING: a request that was already logged keeps its first row, which
// is returned with inserted=false.
func (s *Store) Save(ctx context.Context, c Compilation) (stored Compilation, inserted bool, err error) {
	argsJSON, err := marshalArgs(c.Args)
	if err != nil {
		return Compilation{}, false, fmt.Errorf("save compilation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Compilation{}, false, fmt.Errorf("save compilation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM compilations`).Scan(&seq); err != nil {
		return Compilation{}, false, fmt.Errorf("save compilation: next seq: %w", err)
	}

	createdAt := s.clock.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO compilations
		(id, dialect, model, filter, sql, args, fingerprint, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.Dialect,
		c.Model,
		c.Filter,
		c.SQL,
		argsJSON,
		c.Fingerprint,
		seq,
		formatTime(createdAt),
	)
	if err != nil {
		return Compilation{}, false, fmt.Errorf("save compilation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Compilation{}, false, fmt.Errorf("save compilation: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Compilation{}, false, fmt.Errorf("save compilation: commit: %w", err)
	}

	if affected == 0 {
		existing, err := s.Get(ctx, c.ID)
		if err != nil {
			return Compilation{}, false, fmt.Errorf("save compilation: %w", err)
		}
		s.logger.Debug("compilation already logged", "id", c.ID, "seq", existing.Seq)
		return existing, false, nil
	}

	stored = c
	stored.Seq = seq
	stored.CreatedAt = createdAt.UTC()
	if stored.Args == nil {
		stored.Args = []any{}
	}
	s.logger.Debug("compilation logged", "id", c.ID, "seq", seq, "dialect", c.Dialect)
	return stored, true, nil
}

// SaveNamed binds name to an existing compilation. Naming a filter again
// moves the name to the new compilation and keeps its identifier.
func (s *Store) SaveNamed(ctx context.Context, name, compilationID string) (NamedFilter, error) {
	if name == "" {
		return NamedFilter{}, fmt.Errorf("save named filter: name is required")
	}
	if _, err := s.Get(ctx, compilationID); err != nil {
		return NamedFilter{}, fmt.Errorf("save named filter %s: %w", name, err)
	}

	nf := NamedFilter{
		ID:            s.ids.NewID(),
		Name:          name,
		CompilationID: compilationID,
		CreatedAt:     s.clock.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO named_filters (id, name, compilation_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET compilation_id = excluded.compilation_id
	`, nf.ID, nf.Name, nf.CompilationID, formatTime(nf.CreatedAt))
	if err != nil {
		return NamedFilter{}, fmt.Errorf("save named filter %s: %w", name, err)
	}

	stored, _, err := s.GetNamed(ctx, name)
	if err != nil {
		return NamedFilter{}, err
	}
	return stored, nil
}
