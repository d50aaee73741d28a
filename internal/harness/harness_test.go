package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wherec/internal/testutil"
)

func TestRun_UsersSuite(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/users.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), suite)
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures())
	require.Len(t, result.Cases, len(suite.Cases))

	passed, failed := result.Counts()
	assert.Equal(t, len(suite.Cases), passed)
	assert.Zero(t, failed)

	regexp := result.Cases[8]
	assert.Equal(t, "sqlite", regexp.Dialect)
	assert.Equal(t, "UNSUPPORTED_OPERATOR", regexp.ErrorCode)
	assert.Error(t, regexp.Err)
}

func TestRun_WithRegistry(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/dialects.yaml")
	require.NoError(t, err)

	h := New(WithRegistry(testutil.Registry(t)))
	result, err := h.Run(context.Background(), suite)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Failures())

	ansi := result.Cases[3]
	assert.Equal(t, `"active" = ?`, ansi.SQL)
	assert.Equal(t, []any{true}, ansi.Args)
}

func TestRun_ReportsFailures(t *testing.T) {
	suite := &Suite{
		Name: "failing",
		Cases: []Case{
			newCase(t, "wrong sql", "{name: John}", withSQL(`"name" = 'Jane'`)),
			newCase(t, "unexpected success", "{name: John}", withError("MALFORMED_INPUT")),
			newCase(t, "wrong code", `{$or: "x"}`, withError("TYPE_VALIDATION")),
			newCase(t, "unexpected error", `{"": 1}`, withSQL("")),
			newCase(t, "wrong args", "{name: John}", withSQL(`"name" = $1`), withBind("Jane")),
			newCase(t, "ok", "{name: John}", withSQL(`"name" = 'John'`)),
		},
	}

	result, err := Run(context.Background(), suite)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	for _, c := range result.Cases[:5] {
		assert.False(t, c.Pass(), c.Name)
	}
	assert.True(t, result.Cases[5].Pass())

	failures := result.Failures()
	require.Len(t, failures, 5)
	assert.Contains(t, failures[0], "failing/wrong sql: sql mismatch")
	assert.Contains(t, failures[1], "Actual:   no error")
	assert.Contains(t, failures[2], "Expected: TYPE_VALIDATION")
	assert.Contains(t, failures[3], "Expected: successful compilation")
	assert.Contains(t, failures[4], `Expected: ["Jane"]`)
	assert.Contains(t, failures[4], `Actual:   ["John"]`)
}

func TestRun_UnknownModel(t *testing.T) {
	suite := &Suite{
		Name:  "models",
		Model: "Ghost",
		Cases: []Case{newCase(t, "a", "{name: John}", withSQL(`"name" = 'John'`))},
	}

	result, err := Run(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Cases, 1)
	assert.Contains(t, result.Cases[0].Failures[0], `unknown model "Ghost"`)
}

func TestRun_BadModelsDir(t *testing.T) {
	suite := &Suite{
		Name:   "broken",
		Models: t.TempDir(),
		Cases:  []Case{newCase(t, "a", "{name: John}", withSQL(`"name" = 'John'`))},
	}

	_, err := Run(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suite broken: loading models")
}

func TestRun_VerifyFailure(t *testing.T) {
	c := newCase(t, "raw", `{$raw: "name = )"}`, withSQL("name = )"))
	c.Verify = true
	suite := &Suite{Name: "verify", Cases: []Case{c}}

	result, err := Run(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Cases[0].Failures, 1)
	assert.Contains(t, result.Cases[0].Failures[0], "verify mismatch")
}

func TestRun_CanceledContext(t *testing.T) {
	suite := &Suite{Name: "c", Cases: []Case{newCase(t, "a", "{name: John}", withSQL(`"name" = 'John'`))}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, suite)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	suite := &Suite{
		Name: "logged",
		Cases: []Case{
			newCase(t, "good", "{name: John}", withSQL(`"name" = 'John'`)),
			newCase(t, "bad", "{name: John}", withSQL("nope")),
		},
	}
	_, err := New(WithLogger(logger)).Run(context.Background(), suite)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "case passed")
	assert.Contains(t, out, "case failed")
	assert.Contains(t, out, "suite finished")
}

type caseOption func(*Case)

func withSQL(sql string) caseOption {
	return func(c *Case) { c.SQL = &sql }
}

func withError(code string) caseOption {
	return func(c *Case) { c.Error = code }
}

func withBind(args ...any) caseOption {
	return func(c *Case) {
		c.Bind = true
		c.Args = args
	}
}

func newCase(t *testing.T, name, where string, opts ...caseOption) Case {
	t.Helper()
	c := Case{Name: name}
	require.NoError(t, yaml.Unmarshal([]byte(where), &c.Where))
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
