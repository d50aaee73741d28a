package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const compilationColumns = `id, dialect, model, filter, sql, args, fingerprint, seq, created_at`

// Get returns the compilation with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+compilationColumns+` FROM compilations WHERE id = ?`, id)
	c, err := scanCompilation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("compilation %s: %w", id, ErrNotFound)
	}
	return c, err
}

// List returns logged compilations in log order. A positive limit keeps
// the most recent ones.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) List(ctx context.Context, limit int) ([]Compilation, error) {
	query := `SELECT ` + compilationColumns + ` FROM compilations ORDER BY seq ASC, id ASC COLLATE BINARY`
	var args []any
	if limit > 0 {
		query = `SELECT * FROM (SELECT ` + compilationColumns + ` FROM compilations
			ORDER BY seq DESC, id DESC COLLATE BINARY LIMIT ?)
			ORDER BY seq ASC, id ASC COLLATE BINARY`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

// GetNamed returns a named filter and the compilation it refers to.
func (s *Store) GetNamed(ctx context.Context, name string) (NamedFilter, Compilation, error) {
	var nf NamedFilter
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, compilation_id, created_at FROM named_filters WHERE name = ?
	`, name).Scan(&nf.ID, &nf.Name, &nf.CompilationID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return NamedFilter{}, Compilation{}, fmt.Errorf("named filter %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return NamedFilter{}, Compilation{}, fmt.Errorf("query named filter: %w", err)
	}
	if nf.CreatedAt, err = parseTime(createdAt); err != nil {
		return NamedFilter{}, Compilation{}, err
	}

	c, err := s.Get(ctx, nf.CompilationID)
	if err != nil {
		return NamedFilter{}, Compilation{}, err
	}
	return nf, c, nil
}

// ListNamed returns all named filters ordered by name.
func (s *Store) ListNamed(ctx context.Context) ([]NamedFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, compilation_id, created_at
		FROM named_filters
		ORDER BY name ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query named filters: %w", err)
	}
	defer rows.Close()

	out := []NamedFilter{}
	for rows.Next() {
		var nf NamedFilter
		var createdAt string
		if err := rows.Scan(&nf.ID, &nf.Name, &nf.CompilationID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan named filter: %w", err)
		}
		if nf.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, nf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate named filters: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var c Compilation
	var argsJSON, createdAt string
	err := row.Scan(&c.ID, &c.Dialect, &c.Model, &c.Filter, &c.SQL, &argsJSON, &c.Fingerprint, &c.Seq, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Compilation{}, err
		}
		return Compilation{}, fmt.Errorf("scan compilation: %w", err)
	}
	if c.Args, err = unmarshalArgs(argsJSON); err != nil {
		return Compilation{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Compilation{}, err
	}
	return c, nil
}
