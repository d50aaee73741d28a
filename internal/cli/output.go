package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wherec/internal/ir"
	"github.com/roach88/wherec/internal/querysql"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Input rejected (compile error, invalid models, failed suites)
	ExitCommandError = 2 // Command error (bad flags, missing files, unreadable log)
)

// ExitError carries the process exit code for a command error. Commands
// have already written the error to their output when they return one.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload, or partial results on failure
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E010", "TYPE_VALIDATION", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Report writes a full response indented, for results that carry data
// alongside an error (validation errors, suite runs).
func (f *OutputFormatter) Report(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// CommandError outputs a command-level error and returns it with exit
// code 2.
func (f *OutputFormatter) CommandError(code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// CompileError outputs a querysql.CompileError with its code and the node
// it failed on, and returns it with exit code 1. Other errors are command
// errors.
func (f *OutputFormatter) CompileError(err error) error {
	var ce *querysql.CompileError
	if !errors.As(err, &ce) {
		return f.CommandError(ErrCodeGeneric, err.Error())
	}
	var details any
	if ce.Node != "" {
		details = map[string]string{"node": ce.Node}
	}
	_ = f.Error(string(ce.Code), ce.Error(), details)
	return WrapExitError(ExitFailure, "compilation failed", err)
}

// Args prints bind arguments as an SQL comment holding canonical JSON.
func (f *OutputFormatter) Args(args []any) error {
	if args == nil {
		args = []any{}
	}
	data, err := ir.MarshalCanonical(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "-- args: %s\n", data)
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// JSON output stays parseable because verbose lines go to ErrWriter.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
