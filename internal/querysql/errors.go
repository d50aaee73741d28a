package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// ErrorCode categorizes compilation errors.
type ErrorCode string

const (
	// ErrMalformedInput indicates a where-tree shape the grammar rejects.
	ErrMalformedInput ErrorCode = "MALFORMED_INPUT"

	// ErrUnsupportedOperator indicates an operator missing from the
	// dialect's operator table.
	ErrUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrUnsupportedFeature indicates a JSON, array or range operation the
	// dialect cannot express.
	ErrUnsupportedFeature ErrorCode = "UNSUPPORTED_FEATURE"

	// ErrUndefinedValue indicates an absent value reached the escaper.
	ErrUndefinedValue ErrorCode = "UNDEFINED_VALUE"

	// ErrTypeValidation indicates a value that does not fit its type.
	ErrTypeValidation ErrorCode = "TYPE_VALIDATION"
)

// CompileError is returned by every compiler entry point.
//
// Node describes the offending sub-structure (see queryir.Describe) so the
// caller can point at the part of the filter that failed.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the description of the sub-structure being compiled.
	Node string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Node != "" {
		msg += " in " + e.Node
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a CompileError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newError(code ErrorCode, n queryir.Node, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...), Node: describe(n)}
}

func malformed(n queryir.Node, format string, args ...any) *CompileError {
	return newError(ErrMalformedInput, n, format, args...)
}

// valueError converts an error raised by a semantic type into a
// CompileError. Errors that already are CompileErrors pass through.
func valueError(err error, n queryir.Node) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}

	code := ErrMalformedInput
	msg := "cannot render value"

	var vErr *types.ValidationError
	var fErr *types.FeatureError
	switch {
	case errors.As(err, &vErr):
		code = ErrTypeValidation
		msg = "value failed type validation"
	case errors.As(err, &fErr):
		code = ErrUnsupportedFeature
		msg = "value type is not supported by the dialect"
	}
	return &CompileError{Code: code, Message: msg, Node: describe(n), Err: err}
}

func describe(n queryir.Node) string {
	if n == nil {
		return ""
	}
	return queryir.Describe(n)
}
