package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/model"
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/querysql"
	"github.com/roach88/wherec/internal/wheredoc"
)

// Command error codes. Compile errors use the compiler's own codes
// (MALFORMED_INPUT, TYPE_VALIDATION, ...) and model errors the loader's
// (E001-E109).
const (
	ErrCodeGeneric      = "E001"
	ErrCodeBadFlag      = "E010" // invalid flag value or combination
	ErrCodeReadFailed   = "E011" // where document cannot be read or decoded
	ErrCodeUnknownModel = "E012" // --model not in the registry
	ErrCodeStore        = "E020" // compilation log error
	ErrCodeVerify       = "E030" // fragment rejected by the dialect
	ErrCodeTestFailed   = "E040" // one or more suites failed
)

// CompileFlags are the flags shared by compile and check.
type CompileFlags struct {
	Dialect      string
	Models       string
	Model        string
	Prefix       string
	Bind         bool
	Offset       int
	NoValidate   bool
	InputFormat  string
	Replacements map[string]string
}

func (f *CompileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Dialect, "dialect", "d", "postgres", "SQL dialect ("+strings.Join(dialect.Names(), "|")+")")
	cmd.Flags().StringVar(&f.Models, "models", "", "directory of CUE model definitions")
	cmd.Flags().StringVarP(&f.Model, "model", "m", "", "model the document filters (requires --models)")
	cmd.Flags().StringVar(&f.Prefix, "prefix", "", "qualify bare attribute columns with this table alias")
	cmd.Flags().BoolVar(&f.Bind, "bind", false, "emit placeholders and print bind arguments")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "shift placeholder numbering (with --bind)")
	cmd.Flags().BoolVar(&f.NoValidate, "no-validate", false, "render values that do not fit their type instead of failing")
	cmd.Flags().StringVar(&f.InputFormat, "input-format", "", "document format when reading stdin (json|yaml|cue)")
	cmd.Flags().StringToStringVar(&f.Replacements, "replace", nil, "named replacement for :name in raw fragments (name=value)")
}

// compileInput is everything needed to compile one where document.
type compileInput struct {
	dialect  dialect.Dialect
	registry *model.Registry
	model    *model.Model
	tree     queryir.Node
}

// modelName returns the name recorded for the compilation, or "".
func (in *compileInput) modelName() string {
	if in.model == nil {
		return ""
	}
	return in.model.Name()
}

// loadCompileInput resolves the dialect, models and where document named
// by the flags. Errors are ExitErrors with the code already reported
// through formatter.
func loadCompileInput(f *CompileFlags, path string, stdin io.Reader, formatter *OutputFormatter) (*compileInput, error) {
	d, err := dialect.ByName(f.Dialect)
	if err != nil {
		return nil, formatter.CommandError(ErrCodeBadFlag, err.Error())
	}
	if f.Offset != 0 && !f.Bind {
		return nil, formatter.CommandError(ErrCodeBadFlag, "--offset requires --bind")
	}

	in := &compileInput{dialect: d, registry: model.NewRegistry()}
	if f.Models != "" {
		reg, err := loadRegistry(f.Models, formatter)
		if err != nil {
			return nil, err
		}
		in.registry = reg
	}
	if f.Model != "" {
		if f.Models == "" {
			return nil, formatter.CommandError(ErrCodeBadFlag, "--model requires --models")
		}
		m, ok := in.registry.Get(f.Model)
		if !ok {
			return nil, formatter.CommandError(ErrCodeUnknownModel,
				fmt.Sprintf("model %q not found; known models: %v", f.Model, in.registry.Names()))
		}
		in.model = m
	}

	tree, err := readWhere(path, f.InputFormat, stdin)
	if err != nil {
		return nil, formatter.CommandError(ErrCodeReadFailed, err.Error())
	}
	in.tree = tree
	formatter.VerboseLog("Decoded where document %s: %s", path, queryir.Describe(tree))
	return in, nil
}

// readWhere decodes the document at path, or stdin when path is "-".
func readWhere(path, format string, stdin io.Reader) (queryir.Node, error) {
	if path != "-" {
		if format != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading where document: %w", err)
			}
			return wheredoc.Decode(wheredoc.Format(format), data)
		}
		return wheredoc.DecodeFile(path)
	}
	if format == "" {
		return nil, errors.New("--input-format is required when reading stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return wheredoc.Decode(wheredoc.Format(format), data)
}

// loadRegistry loads and validates the models in dir.
func loadRegistry(dir string, formatter *OutputFormatter) (*model.Registry, error) {
	res, errs := model.LoadDir(dir, model.LoadModeCollectAll)
	if len(errs) > 0 {
		code, message := loadErrorCode(errs[0])
		if len(errs) > 1 {
			message = fmt.Sprintf("%s (and %d more error(s))", message, len(errs)-1)
		}
		return nil, formatter.CommandError(code, message)
	}
	if verrs := model.Validate(res.Registry); len(verrs) > 0 {
		_ = formatter.Error(verrs[0].Code, verrs[0].Error(), verrs)
		return nil, NewExitError(ExitFailure, fmt.Sprintf("models in %s are invalid: %d error(s)", dir, len(verrs)))
	}
	formatter.VerboseLog("Loaded %d model(s) from %d CUE file(s) in %s", len(res.Registry.Names()), res.FileCount, dir)
	return res.Registry, nil
}

func loadErrorCode(err error) (string, string) {
	var loadErr *model.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// newCompiler builds the compiler for the flags.
func newCompiler(f *CompileFlags, d dialect.Dialect, logger *slog.Logger) *querysql.Compiler {
	opts := []querysql.Option{querysql.WithLogger(logger)}
	if f.NoValidate {
		opts = append(opts, querysql.WithoutValidation())
	}
	return querysql.NewCompiler(d, opts...)
}

// compileOptions builds the per-call options for the flags.
func compileOptions(f *CompileFlags, in *compileInput) querysql.CompileOptions {
	opts := querysql.CompileOptions{
		Prefix:      f.Prefix,
		BindParams:  f.Bind,
		ParamOffset: f.Offset,
	}
	if in.model != nil {
		opts.Model = in.model
	}
	if len(f.Replacements) > 0 {
		opts.Replacements = make(map[string]any, len(f.Replacements))
		for k, v := range f.Replacements {
			opts.Replacements[k] = v
		}
	}
	return opts
}
