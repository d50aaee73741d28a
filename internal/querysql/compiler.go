// Package querysql compiles where-trees into boolean SQL expressions.
//
// A Compiler is bound to one dialect. CompileWhere walks a queryir tree in
// two passes: the connective pass handles lists, AND/OR/NOT and attribute
// keys; the attribute pass handles the value under an attribute, including
// implicit IN, operator maps and JSON path descent. Each leaf comparison is
// resolved to (left, operator, right), typed through the model and rendered
// by the operator's handler.
//
// Values are inlined as escaped literals unless a Binder is supplied, in
// which case they become placeholders and the Binder collects the
// arguments.
package querysql

import (
	"io"
	"log/slog"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/model"
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// Compiler compiles where-trees for one dialect.
//
// A Compiler is immutable after NewCompiler and safe for concurrent use.
type Compiler struct {
	dialect  dialect.Dialect
	logger   *slog.Logger
	validate bool
	handlers map[queryir.Op]opHandler
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithoutValidation skips type validation of escaped values. A value that
// does not fit its declared type is rendered by its runtime shape instead.
func WithoutValidation() Option {
	return func(c *Compiler) {
		c.validate = false
	}
}

// NewCompiler creates a Compiler for d.
func NewCompiler(d dialect.Dialect, opts ...Option) *Compiler {
	c := &Compiler{
		dialect:  d,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.handlers = operatorHandlers()
	return c
}

// Dialect returns the dialect the compiler renders for.
func (c *Compiler) Dialect() dialect.Dialect {
	return c.dialect
}

// Binder turns a value into a bind placeholder and records it.
type Binder interface {
	Bind(v any) string
}

// Args is a Binder that numbers placeholders with the dialect's syntax.
type Args struct {
	dialect dialect.Dialect
	offset  int
	values  []any
}

// NewArgs creates a Binder whose first placeholder is number offset+1.
func NewArgs(d dialect.Dialect, offset int) *Args {
	return &Args{dialect: d, offset: offset}
}

// Bind records v and returns its placeholder.
func (a *Args) Bind(v any) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(a.offset + len(a.values))
}

// Values returns the recorded arguments in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// CompileOptions is the read-only context of one compilation.
type CompileOptions struct {
	// Model types attributes and resolves associations. Optional.
	Model model.Metadata

	// Prefix qualifies bare attribute columns ("User" gives "User"."name").
	Prefix string

	// Bind, when set, receives every escaped value.
	Bind Binder

	// BindParams asks Compile to allocate an Args binder when Bind is nil.
	BindParams bool

	// ParamOffset shifts placeholder numbering of the allocated binder.
	ParamOffset int

	// Replacements are injected into ":name" placeholders of raw fragments.
	Replacements map[string]any

	// PositionalReplacements are rejected: raw fragments are compiled in
	// tree order, which gives "?" no dependable meaning.
	PositionalReplacements []any
}

// EscapeOptions configures a standalone escape.
type EscapeOptions struct {
	// Type is the declared type; nil infers it from the value.
	Type types.Type

	// Bind, when set, receives the value and a placeholder is returned.
	Bind Binder
}

// Statement is a compiled fragment with its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

// CompileWhere compiles a where-tree into a boolean SQL expression.
// A nil tree, or one whose every branch is a no-op, compiles to "".
func (c *Compiler) CompileWhere(n queryir.Node, opts CompileOptions) (string, error) {
	if n == nil {
		return "", nil
	}
	if err := queryir.Validate(n); err != nil {
		cerr := &CompileError{Code: ErrMalformedInput, Message: "invalid where tree", Err: err}
		if se, ok := err.(*queryir.StructureError); ok {
			cerr.Node = describe(se.Node)
		}
		return "", cerr
	}

	p := c.newPass(opts)
	sql, err := p.conjunction(n, queryir.OpAnd)
	if err != nil {
		c.logger.Debug("where compilation failed",
			"dialect", c.dialect.Name(),
			"error", err)
		return "", err
	}

	c.logger.Debug("where compiled",
		"dialect", c.dialect.Name(),
		"sql", sql)
	return sql, nil
}

// Compile is CompileWhere that also returns the bind arguments. With
// BindParams set and no Bind, a fresh Args binder is used.
func (c *Compiler) Compile(n queryir.Node, opts CompileOptions) (Statement, error) {
	var args *Args
	if opts.Bind == nil && opts.BindParams {
		args = NewArgs(c.dialect, opts.ParamOffset)
		opts.Bind = args
	}

	sql, err := c.CompileWhere(n, opts)
	if err != nil {
		return Statement{}, err
	}

	stmt := Statement{SQL: sql}
	if args != nil {
		stmt.Args = args.Values()
		c.logger.Debug("bind arguments collected", "count", len(stmt.Args))
	}
	return stmt, nil
}

// pass is the state of one compilation.
type pass struct {
	c    *Compiler
	d    dialect.Dialect
	opts CompileOptions
}

func (c *Compiler) newPass(opts CompileOptions) *pass {
	return &pass{c: c, d: c.dialect, opts: opts}
}
