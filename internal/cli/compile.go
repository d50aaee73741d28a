package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/ir"
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/querysql"
	"github.com/roach88/wherec/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	CompileFlags
	Database string // compilation log to record into
	Name     string // named filter to bind the compilation to
}

// CompileOutput is the result of the compile command.
type CompileOutput struct {
	Dialect string `json:"dialect"`
	Model   string `json:"model,omitempty"`
	SQL     string `json:"sql"`
	Args    []any  `json:"args,omitempty"`

	// Set with --db.
	ID       string `json:"id,omitempty"`
	Seq      int64  `json:"seq,omitempty"`
	Recorded bool   `json:"recorded,omitempty"` // false when already logged
	Name     string `json:"name,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <where-file>",
		Short: "Compile a where document to SQL",
		Long: `Compile a where document (.json, .yaml or .cue; "-" reads stdin) into a
boolean SQL fragment for the chosen dialect.

Values are inlined as escaped literals unless --bind is given, in which case
they become placeholders and the arguments are printed after the fragment.
With --db the compilation is recorded in a SQLite compilation log, keyed by
dialect, model and filter.

Exit codes:
  0 - Compiled
  1 - The document does not compile (error code in the output)
  2 - Command error (invalid flags, unreadable files, etc.)

Examples:
  wherec compile filter.yaml
  wherec compile filter.json --dialect sqlite --bind
  wherec compile filter.cue --models ./models --model User --prefix User
  wherec compile filter.yaml --db ./wherec.db --name active-users`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.CompileFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the compilation in this SQLite database")
	cmd.Flags().StringVar(&opts.Name, "name", "", "bind the recorded compilation to a name (requires --db)")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Name != "" {
		if opts.Database == "" {
			return formatter.CommandError(ErrCodeBadFlag, "--name requires --db")
		}
		name := slug.Make(opts.Name)
		if name == "" {
			return formatter.CommandError(ErrCodeBadFlag, fmt.Sprintf("--name %q has no usable characters", opts.Name))
		}
		opts.Name = name
	}

	in, err := loadCompileInput(&opts.CompileFlags, path, cmd.InOrStdin(), formatter)
	if err != nil {
		return err
	}

	compiler := newCompiler(&opts.CompileFlags, in.dialect, logger)
	stmt, err := compiler.Compile(in.tree, compileOptions(&opts.CompileFlags, in))
	if err != nil {
		return formatter.CompileError(err)
	}

	out := CompileOutput{
		Dialect: string(in.dialect.Name()),
		Model:   in.modelName(),
		SQL:     stmt.SQL,
		Args:    stmt.Args,
	}

	if opts.Database != "" {
		if err := recordCompilation(ctx, opts, in, stmt, &out, logger); err != nil {
			return formatter.CommandError(ErrCodeStore, err.Error())
		}
	}

	return outputCompileSuccess(formatter, out, opts.Bind)
}

// recordCompilation saves the compilation (and its name) to the log.
func recordCompilation(ctx context.Context, opts *CompileOptions, in *compileInput, stmt querysql.Statement, out *CompileOutput, logger *slog.Logger) error {
	st, err := store.Open(opts.Database, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("opening compilation log: %w", err)
	}
	defer st.Close()

	filter, err := filterDescription(in.tree, &opts.CompileFlags)
	if err != nil {
		return err
	}
	c, err := store.NewCompilation(out.Dialect, out.Model, filter, stmt.SQL, stmt.Args)
	if err != nil {
		return err
	}
	saved, inserted, err := st.Save(ctx, c)
	if err != nil {
		return err
	}
	out.ID, out.Seq, out.Recorded = saved.ID, saved.Seq, inserted
	logger.Debug("compilation recorded", "id", saved.ID, "seq", saved.Seq, "new", inserted)

	if opts.Name != "" {
		nf, err := st.SaveNamed(ctx, opts.Name, saved.ID)
		if err != nil {
			return err
		}
		out.Name = nf.Name
	}
	return nil
}

// outputCompileSuccess prints the fragment, then the arguments and the
// log entry as SQL comments.
func outputCompileSuccess(formatter *OutputFormatter, out CompileOutput, bind bool) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintln(w, out.SQL)
	if bind {
		if err := formatter.Args(out.Args); err != nil {
			return err
		}
	}
	if out.ID != "" {
		state := "recorded"
		if !out.Recorded {
			state = "already recorded"
		}
		fmt.Fprintf(w, "-- %s %s (seq %d)\n", state, out.ID, out.Seq)
	}
	if out.Name != "" {
		fmt.Fprintf(w, "-- named %s\n", out.Name)
	}
	return nil
}

// filterDescription is the canonical text a compilation is keyed by: the
// tree description, followed by the settings that change the output.
func filterDescription(tree queryir.Node, f *CompileFlags) (string, error) {
	desc := queryir.Describe(tree)

	settings := map[string]any{}
	if f.Prefix != "" {
		settings["prefix"] = f.Prefix
	}
	if f.Bind {
		settings["bind"] = true
	}
	if f.Offset != 0 {
		settings["offset"] = f.Offset
	}
	if f.NoValidate {
		settings["no_validate"] = true
	}
	if len(f.Replacements) > 0 {
		settings["replace"] = f.Replacements
	}
	if len(settings) == 0 {
		return desc, nil
	}

	data, err := ir.MarshalCanonical(settings)
	if err != nil {
		return "", err
	}
	return desc + " " + string(data), nil
}
