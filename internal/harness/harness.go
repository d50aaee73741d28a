package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/model"
	"github.com/roach88/wherec/internal/querysql"
	"github.com/roach88/wherec/internal/verify"
	"github.com/roach88/wherec/internal/wheredoc"
)

// Harness runs suites against a model registry.
type Harness struct {
	registry *model.Registry
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithRegistry sets the registry used by suites that do not name a models
// directory.
func WithRegistry(r *model.Registry) Option {
	return func(h *Harness) { h.registry = r }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a suite with a default Harness.
func Run(ctx context.Context, s *Suite) (*Result, error) {
	return New().Run(ctx, s)
}

// Run executes every case of s in order and returns the per-case results.
//
// An error is returned only when the suite cannot run at all (its models
// fail to load). Case failures are reported in the Result.
func (h *Harness) Run(ctx context.Context, s *Suite) (*Result, error) {
	reg, err := h.suiteRegistry(s)
	if err != nil {
		return nil, err
	}
	verifier := verify.New(reg, verify.WithLogger(h.logger))

	result := NewResult(s.Name)
	for i := range s.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cr := h.runCase(ctx, s, &s.Cases[i], reg, verifier)
		if cr.Pass() {
			h.logger.Debug("case passed", "suite", s.Name, "case", cr.Name, "dialect", cr.Dialect)
		} else {
			h.logger.Info("case failed", "suite", s.Name, "case", cr.Name, "dialect", cr.Dialect,
				"failures", len(cr.Failures))
		}
		result.Add(cr)
	}

	passed, failed := result.Counts()
	h.logger.Debug("suite finished", "suite", s.Name, "passed", passed, "failed", failed)
	return result, nil
}

// suiteRegistry loads the suite's models directory, or falls back to the
// harness registry.
func (h *Harness) suiteRegistry(s *Suite) (*model.Registry, error) {
	if s.Models == "" {
		if h.registry == nil {
			return model.NewRegistry(), nil
		}
		return h.registry, nil
	}

	res, errs := model.LoadDir(s.Models, model.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("suite %s: loading models: %w", s.Name, errors.Join(errs...))
	}
	if verrs := model.Validate(res.Registry); len(verrs) > 0 {
		joined := make([]error, len(verrs))
		for i := range verrs {
			joined[i] = verrs[i]
		}
		return nil, fmt.Errorf("suite %s: invalid models: %w", s.Name, errors.Join(joined...))
	}
	h.logger.Debug("suite models loaded", "suite", s.Name, "dir", s.Models, "files", res.FileCount)
	return res.Registry, nil
}

func (h *Harness) runCase(ctx context.Context, s *Suite, c *Case, reg *model.Registry, v *verify.Verifier) CaseResult {
	cr := CaseResult{Name: c.Name, Dialect: c.DialectName(s)}

	d, err := dialect.ByName(cr.Dialect)
	if err != nil {
		cr.Err = err
		cr.fail("%v", err)
		return cr
	}
	cr.Dialect = string(d.Name())

	opts := querysql.CompileOptions{
		Prefix:       c.Prefix,
		BindParams:   c.Bind,
		Replacements: c.Replacements,
	}
	var m *model.Model
	if name := c.ModelName(s); name != "" {
		var ok bool
		if m, ok = reg.Get(name); !ok {
			cr.Err = fmt.Errorf("unknown model %q", name)
			cr.fail("%v", cr.Err)
			return cr
		}
		opts.Model = m
	}

	tree, err := wheredoc.DecodeYAMLNode(&c.Where)
	if err != nil {
		cr.Err = err
		cr.fail("decoding where: %v", err)
		return cr
	}

	compilerOpts := []querysql.Option{querysql.WithLogger(h.logger)}
	if c.NoValidate {
		compilerOpts = append(compilerOpts, querysql.WithoutValidation())
	}
	stmt, compileErr := querysql.NewCompiler(d, compilerOpts...).Compile(tree, opts)

	cr.SQL = stmt.SQL
	cr.Args = stmt.Args
	if compileErr != nil {
		cr.Err = compileErr
		var ce *querysql.CompileError
		if errors.As(compileErr, &ce) {
			cr.ErrorCode = string(ce.Code)
		}
	}

	for _, err := range checkExpectations(c, stmt, compileErr) {
		if err != nil {
			cr.fail("%v", err)
		}
	}

	if c.Verify && compileErr == nil {
		if err := v.Check(ctx, d, m, stmt.SQL, stmt.Args); err != nil {
			cr.fail("%v", &AssertionError{Field: "verify", Expected: "valid " + cr.Dialect + " SQL", Actual: err.Error()})
		}
	}
	return cr
}
