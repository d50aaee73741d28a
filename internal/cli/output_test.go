package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wherec/internal/querysql"
)

func TestOutputFormatter_Success(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Success(CompileOutput{Dialect: "postgres", SQL: `"a" = 1`}))

		var resp struct {
			Status string        `json:"status"`
			Data   CompileOutput `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, `"a" = 1`, resp.Data.SQL)
	})

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}

		require.NoError(t, f.Success("compiled"))
		assert.Equal(t, "compiled\n", buf.String())
	})
}

func TestOutputFormatter_Error(t *testing.T) {
	testCases := []struct {
		name    string
		format  string
		verbose bool
		details any
		check   func(t *testing.T, out string)
	}{
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				resp := decodeResponse(t, out)
				assert.Equal(t, "error", resp.Status)
				require.NotNil(t, resp.Error)
				assert.Equal(t, "TYPE_VALIDATION", resp.Error.Code)
				assert.Equal(t, "bad value", resp.Error.Message)
				assert.Nil(t, resp.Error.Details)
			},
		},
		{
			name:    "json with details",
			format:  "json",
			details: map[string]string{"node": "views"},
			check: func(t *testing.T, out string) {
				resp := decodeResponse(t, out)
				require.NotNil(t, resp.Error)
				assert.Equal(t, map[string]any{"node": "views"}, resp.Error.Details)
			},
		},
		{
			name:    "text hides details",
			format:  "text",
			details: "hidden",
			check: func(t *testing.T, out string) {
				assert.Equal(t, "Error [TYPE_VALIDATION]: bad value\n", out)
			},
		},
		{
			name:    "text verbose shows details",
			format:  "text",
			verbose: true,
			details: "shown",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Error [TYPE_VALIDATION]: bad value\n")
				assert.Contains(t, out, "Details: shown\n")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: tc.format, Writer: buf, Verbose: tc.verbose}
			require.NoError(t, f.Error("TYPE_VALIDATION", "bad value", tc.details))
			tc.check(t, buf.String())
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("loaded %d model(s)", 2)
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("loaded %d model(s)", 2)
	assert.Equal(t, "loaded 2 model(s)\n", errOut.String())
	assert.Empty(t, out.String(), "diagnostics must not corrupt JSON output")

	fallback := &OutputFormatter{Format: "text", Writer: out, Verbose: true}
	fallback.VerboseLog("no err writer")
	assert.Equal(t, "no err writer\n", out.String())
	assert.Same(t, out, fallback.GetErrWriter())
}

func TestExitCodes(t *testing.T) {
	base := errors.New("boom")

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", base, ExitFailure},
		{"failure", NewExitError(ExitFailure, "compilation failed"), ExitFailure},
		{"command error", NewExitError(ExitCommandError, "E010: bad flag"), ExitCommandError},
		{"wrapped", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "store", base)), ExitCommandError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetExitCode(tc.err))
		})
	}

	wrapped := WrapExitError(ExitFailure, "verification failed", base)
	assert.Equal(t, "verification failed: boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "only message", NewExitError(ExitFailure, "only message").Error())
}

func TestOutputFormatter_CommandError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	err := f.CommandError(ErrCodeBadFlag, "--offset requires --bind")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "E010: --offset requires --bind", err.Error())
	assert.Equal(t, "Error [E010]: --offset requires --bind\n", buf.String())
}

func TestOutputFormatter_CompileError(t *testing.T) {
	ce := &querysql.CompileError{Code: querysql.ErrTypeValidation, Message: `"x" is not an integer`, Node: "age"}

	t.Run("json carries the node", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		err := f.CompileError(fmt.Errorf("compiling: %w", ce))
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.ErrorIs(t, err, ce)

		resp := decodeResponse(t, buf.String())
		require.NotNil(t, resp.Error)
		assert.Equal(t, "TYPE_VALIDATION", resp.Error.Code)
		assert.Equal(t, map[string]any{"node": "age"}, resp.Error.Details)
	})

	t.Run("other errors are command errors", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}

		err := f.CompileError(errors.New("disk on fire"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, buf.String(), "Error [E001]: disk on fire")
	})
}

func TestOutputFormatter_Args(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Args(nil))
	require.NoError(t, f.Args([]any{int64(1), "a", nil, map[string]any{"b": 1, "a": 2}}))
	assert.Equal(t, "-- args: []\n-- args: [1,\"a\",null,{\"a\":2,\"b\":1}]\n", buf.String())
}

func TestOutputFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Report(CLIResponse{
		Status: "error",
		Data:   TestResult{Suites: []SuiteResult{}, Failed: 1, Total: 1},
		Error:  &CLIError{Code: ErrCodeTestFailed, Message: "1 suite(s) failed"},
	}))

	assert.Contains(t, buf.String(), "\n  \"status\": \"error\"")
	resp := decodeResponse(t, buf.String())
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}
