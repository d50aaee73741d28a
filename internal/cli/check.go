package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/verify"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	CompileFlags
}

// CheckOutput is the result of the check command.
type CheckOutput struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
	Args    []any  `json:"args,omitempty"`
	Valid   bool   `json:"valid"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <where-file>",
		Short: "Compile a where document and verify the SQL",
		Long: `Compile a where document and check that the fragment is valid SQL.

PostgreSQL fragments are parsed with the PostgreSQL parser. SQLite fragments
are prepared against an in-memory database created from the models. Other
dialects cannot be checked.

Exit codes:
  0 - Compiled and verified
  1 - Compile error or the dialect rejected the fragment
  2 - Command error (invalid flags, unsupported dialect, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.CompileFlags.register(cmd)
	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	in, err := loadCompileInput(&opts.CompileFlags, path, cmd.InOrStdin(), formatter)
	if err != nil {
		return err
	}

	stmt, err := newCompiler(&opts.CompileFlags, in.dialect, logger).Compile(in.tree, compileOptions(&opts.CompileFlags, in))
	if err != nil {
		return formatter.CompileError(err)
	}

	v := verify.New(in.registry, verify.WithLogger(logger))
	if err := v.Check(ctx, in.dialect, in.model, stmt.SQL, stmt.Args); err != nil {
		if errors.Is(err, verify.ErrUnsupportedDialect) {
			return formatter.CommandError(ErrCodeBadFlag, err.Error())
		}
		var se *verify.SyntaxError
		if errors.As(err, &se) {
			_ = formatter.Error(ErrCodeVerify, se.Error(), map[string]string{"sql": stmt.SQL})
			return WrapExitError(ExitFailure, "verification failed", err)
		}
		return formatter.CommandError(ErrCodeGeneric, err.Error())
	}

	out := CheckOutput{
		Dialect: string(in.dialect.Name()),
		SQL:     stmt.SQL,
		Args:    stmt.Args,
		Valid:   true,
	}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintln(formatter.Writer, out.SQL)
	fmt.Fprintf(formatter.Writer, "✓ valid %s SQL\n", out.Dialect)
	return nil
}
