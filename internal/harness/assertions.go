package harness

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/wherec/internal/ir"
	"github.com/roach88/wherec/internal/querysql"
)

// AssertionError describes one unmet expectation.
type AssertionError struct {
	Field    string // sql, args, error or verify
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s mismatch\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual:   %s", e.Actual)
	return buf.String()
}

// checkExpectations compares the compiled outcome with the case.
func checkExpectations(c *Case, stmt querysql.Statement, compileErr error) []error {
	if c.Error != "" {
		return []error{assertErrorCode(c.Error, compileErr)}
	}
	if compileErr != nil {
		return []error{&AssertionError{
			Field:    "error",
			Expected: "successful compilation",
			Actual:   compileErr.Error(),
		}}
	}

	var errs []error
	if err := assertSQL(*c.SQL, stmt.SQL); err != nil {
		errs = append(errs, err)
	}
	if c.Bind && c.Args != nil {
		if err := assertArgs(c.Args, stmt.Args); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func assertErrorCode(want string, err error) error {
	if err == nil {
		return &AssertionError{Field: "error", Expected: want, Actual: "no error"}
	}
	var ce *querysql.CompileError
	if !errors.As(err, &ce) {
		return &AssertionError{Field: "error", Expected: want, Actual: err.Error()}
	}
	if string(ce.Code) != want {
		return &AssertionError{Field: "error", Expected: want, Actual: ce.Error()}
	}
	return nil
}

func assertSQL(want, got string) error {
	if want == got {
		return nil
	}
	return &AssertionError{Field: "sql", Expected: want, Actual: got}
}

// assertArgs compares arguments by canonical JSON, so 18 from YAML equals
// int64(18) from the compiler.
func assertArgs(want, got []any) error {
	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return fmt.Errorf("expected args: %w", err)
	}
	gotJSON, err := ir.MarshalCanonical(nonNil(got))
	if err != nil {
		return fmt.Errorf("compiled args: %w", err)
	}
	if bytes.Equal(wantJSON, gotJSON) {
		return nil
	}
	return &AssertionError{Field: "args", Expected: string(wantJSON), Actual: string(gotJSON)}
}

func nonNil(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}
