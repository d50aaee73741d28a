// Package verify checks that compiled where fragments are syntactically
// valid SQL for their dialect.
//
// PostgreSQL fragments are parsed with the PostgreSQL parser. SQLite
// fragments are prepared with EXPLAIN against an in-memory database whose
// tables are generated from the model registry. Other dialects are not
// supported.
package verify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	pg_query "github.com/pganalyze/pg_query_go/v5"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/model"
	"github.com/roach88/wherec/internal/types"
)

// ErrUnsupportedDialect is returned for dialects without a checker.
var ErrUnsupportedDialect = errors.New("verification is not supported for this dialect")

// maxJoinDepth bounds how far association aliases are expanded when
// building the SQLite FROM clause.
const maxJoinDepth = 3

// SyntaxError reports a fragment the dialect rejected.
type SyntaxError struct {
	Dialect dialect.Name
	SQL     string
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s rejected %q: %v", e.Dialect, e.SQL, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Verifier checks fragments compiled against models of one registry.
type Verifier struct {
	registry *model.Registry
	logger   *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

// New creates a Verifier. reg may be nil when fragments reference no model.
func New(reg *model.Registry, opts ...Option) *Verifier {
	v := &Verifier{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check verifies the fragment where, compiled for d against m (which may be
// nil), with its bind arguments.
func (v *Verifier) Check(ctx context.Context, d dialect.Dialect, m *model.Model, where string, args []any) error {
	if strings.TrimSpace(where) == "" {
		return nil
	}

	var err error
	switch d.Name() {
	case dialect.Postgres:
		err = checkPostgres(where)
	case dialect.SQLite:
		err = v.checkSQLite(ctx, d, m, where, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDialect, d.Name())
	}
	if err != nil {
		var se *SyntaxError
		if !errors.As(err, &se) {
			return err
		}
		v.logger.Debug("fragment rejected", "dialect", d.Name(), "sql", where, "error", se.Err)
		return err
	}
	v.logger.Debug("fragment verified", "dialect", d.Name(), "sql", where)
	return nil
}

func checkPostgres(where string) error {
	if _, err := pg_query.Parse("SELECT 1 WHERE " + where); err != nil {
		return &SyntaxError{Dialect: dialect.Postgres, SQL: where, Err: err}
	}
	return nil
}

func (v *Verifier) checkSQLite(ctx context.Context, d dialect.Dialect, m *model.Model, where string, args []any) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("open scratch database: %w", err)
	}
	defer db.Close()
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if v.registry != nil {
		for _, rm := range v.registry.Models() {
			if _, err := db.ExecContext(ctx, createTable(d, rm)); err != nil {
				return fmt.Errorf("create table for model %s: %w", rm.Name(), err)
			}
		}
	}
	if m != nil && !v.registered(m) {
		if _, err := db.ExecContext(ctx, createTable(d, m)); err != nil {
			return fmt.Errorf("create table for model %s: %w", m.Name(), err)
		}
	}

	query := "EXPLAIN SELECT 1" + v.fromClause(d, m, where) + " WHERE " + where
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return &SyntaxError{Dialect: dialect.SQLite, SQL: where, Err: err}
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return &SyntaxError{Dialect: dialect.SQLite, SQL: where, Err: err}
	}
	return nil
}

func (v *Verifier) registered(m *model.Model) bool {
	rm, ok := v.registry.Get(m.Name())
	return ok && rm == m
}

// fromClause selects from the model table under the model name, and joins
// each association alias the fragment references ("profile",
// "profile->address").
func (v *Verifier) fromClause(d dialect.Dialect, m *model.Model, where string) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, " FROM %s AS %s", d.QuoteIdentifier(m.Table()), d.QuoteIdentifier(m.Name()))
	v.joins(&b, d, m, "", where, 1)
	return b.String()
}

func (v *Verifier) joins(b *strings.Builder, d dialect.Dialect, m *model.Model, prefix, where string, depth int) {
	if depth > maxJoinDepth || v.registry == nil {
		return
	}
	for _, as := range m.Associations() {
		target, ok := v.registry.Get(as.Target)
		if !ok {
			continue
		}
		alias := as.As
		if prefix != "" {
			alias = prefix + "->" + as.As
		}
		quoted := d.QuoteIdentifier(alias)
		if strings.Contains(where, quoted+".") {
			fmt.Fprintf(b, " LEFT JOIN %s AS %s ON 1 = 1", d.QuoteIdentifier(target.Table()), quoted)
		}
		v.joins(b, d, target, alias, where, depth+1)
	}
}

// createTable renders DDL for m using SQLite type affinities.
func createTable(d dialect.Dialect, m *model.Model) string {
	cols := make([]string, 0, len(m.Attributes()))
	for _, a := range m.Attributes() {
		cols = append(cols, d.QuoteIdentifier(a.Column())+" "+affinity(a.Type))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdentifier(m.Table()), strings.Join(cols, ", "))
}

func affinity(t types.Type) string {
	if t == nil {
		return "BLOB"
	}
	switch t.Kind() {
	case types.KindInteger, types.KindBoolean:
		return "INTEGER"
	case types.KindFloat:
		return "REAL"
	case types.KindDecimal:
		return "NUMERIC"
	case types.KindBlob:
		return "BLOB"
	case types.KindNamed:
		return "BLOB"
	}
	return "TEXT"
}
