package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/querysql"
	"github.com/roach88/wherec/internal/types"
	"github.com/roach88/wherec/internal/wheredoc"
)

// EscapeOptions holds flags for the escape command.
type EscapeOptions struct {
	*RootOptions
	Dialect    string
	Type       string
	List       bool
	Bind       bool
	NoValidate bool
	Raw        bool
}

// EscapeOutput is the result of the escape command.
type EscapeOutput struct {
	Dialect string `json:"dialect"`
	Type    string `json:"type,omitempty"`
	SQL     string `json:"sql"`
	Args    []any  `json:"args,omitempty"`
}

// NewEscapeCommand creates the escape command.
func NewEscapeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EscapeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "escape <value>",
		Short: "Escape a value as an SQL literal",
		Long: `Render a value as an SQL literal for the chosen dialect.

The value is read as JSON when it parses (42, true, null, "text", [1,2],
{"a":1}); anything else is taken as a string. Use --raw to always take
the argument as a string. --type names the declared type the value is
validated and rendered against.

Examples:
  wherec escape "O'Brien"
  wherec escape 5 --type INTEGER
  wherec escape '[1,2,3]' --list --dialect mysql
  wherec escape '{"b":1,"a":2}' --type JSONB --bind`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEscape(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "postgres", "SQL dialect")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "declared type (e.g. INTEGER, TEXT[], JSONB)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "render a JSON array as a parenthesized list")
	cmd.Flags().BoolVar(&opts.Bind, "bind", false, "emit a placeholder and print the bind argument")
	cmd.Flags().BoolVar(&opts.NoValidate, "no-validate", false, "skip type validation")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "take the argument as a string")

	return cmd
}

func runEscape(opts *EscapeOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	d, err := dialect.ByName(opts.Dialect)
	if err != nil {
		return formatter.CommandError(ErrCodeBadFlag, err.Error())
	}

	var typ types.Type
	if opts.Type != "" {
		if typ, err = types.Parse(opts.Type); err != nil {
			return formatter.CommandError(ErrCodeBadFlag, fmt.Sprintf("--type: %v", err))
		}
	}

	value := parseEscapeValue(arg, opts.Raw)
	formatter.VerboseLog("Escaping %T value for %s", value, d.Name())

	compilerOpts := []querysql.Option{querysql.WithLogger(logger)}
	if opts.NoValidate {
		compilerOpts = append(compilerOpts, querysql.WithoutValidation())
	}
	compiler := querysql.NewCompiler(d, compilerOpts...)

	escOpts := querysql.EscapeOptions{Type: typ}
	var args *querysql.Args
	if opts.Bind {
		args = querysql.NewArgs(d, 0)
		escOpts.Bind = args
	}

	var sql string
	if opts.List {
		list, ok := value.([]any)
		if !ok {
			return formatter.CommandError(ErrCodeBadFlag, "--list expects a JSON array")
		}
		sql, err = compiler.EscapeList(list, escOpts)
	} else {
		sql, err = compiler.EscapeValue(value, escOpts)
	}
	if err != nil {
		return formatter.CompileError(err)
	}

	out := EscapeOutput{Dialect: string(d.Name()), Type: opts.Type, SQL: sql}
	if args != nil {
		out.Args = args.Values()
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintln(formatter.Writer, out.SQL)
	if opts.Bind {
		return formatter.Args(out.Args)
	}
	return nil
}

// parseEscapeValue reads arg as a JSON value, falling back to the string
// itself.
func parseEscapeValue(arg string, raw bool) any {
	if raw {
		return arg
	}
	n, err := wheredoc.Decode(wheredoc.FormatJSON, []byte(arg))
	if err != nil {
		return arg
	}
	if v, ok := queryir.Plain(n); ok {
		return v
	}
	return arg
}
