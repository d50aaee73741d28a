package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/model"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Models []ModelSummary          `json:"models,omitempty"`
	Errors []model.ValidationError `json:"errors,omitempty"`
}

// ModelSummary describes one loaded model.
type ModelSummary struct {
	Name         string `json:"name"`
	Table        string `json:"table"`
	Attributes   int    `json:"attributes"`
	Associations int    `json:"associations"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <models-dir>",
		Short: "Validate CUE model definitions",
		Long: `Load the CUE model definitions in a directory and check them: table
names, attribute types, column clashes, association kinds and targets.

Exit codes:
  0 - All models valid
  1 - One or more validation errors
  2 - Command error (directory not found, CUE does not load, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, modelsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	// Collect every definition error, not just the first
	loadResult, loadErrors := model.LoadDir(modelsDir, model.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := loadErrorCode(loadErrors[0])
		return formatter.CommandError(code, message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, modelsDir)

	var validationErrors []model.ValidationError
	for _, err := range loadErrors {
		code, message := loadErrorCode(err)
		validationErrors = append(validationErrors, model.ValidationError{
			Field:   "definition",
			Message: message,
			Code:    code,
		})
	}

	reg := loadResult.Registry
	if reg != nil {
		for _, m := range reg.Models() {
			formatter.VerboseLog("Validating model: %s (%s)", m.Name(), m.Table())
		}
		validationErrors = append(validationErrors, model.Validate(reg)...)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter, summarize(reg))
}

func summarize(reg *model.Registry) []ModelSummary {
	if reg == nil {
		return nil
	}
	models := reg.Models()
	out := make([]ModelSummary, 0, len(models))
	for _, m := range models {
		out = append(out, ModelSummary{
			Name:         m.Name(),
			Table:        m.Table(),
			Attributes:   len(m.Attributes()),
			Associations: len(m.Associations()),
		})
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, models []ModelSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Models: models})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d model(s) valid\n", len(models))
	for _, m := range models {
		fmt.Fprintf(formatter.Writer, "  %s (%s): %d attribute(s), %d association(s)\n",
			m.Name, m.Table, m.Attributes, m.Associations)
	}
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, errs []model.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		if err := formatter.Report(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
