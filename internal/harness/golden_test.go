package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Users(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/users.yaml")
	require.NoError(t, err)

	// Regenerate with: go test ./internal/harness -run TestRunWithGolden_Users -update
	result, err := RunWithGolden(t, suite)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Failures())
}

func TestMarshalSnapshot(t *testing.T) {
	suite := &Suite{
		Name: "snap",
		Cases: []Case{
			newCase(t, "bound", "{name: John}", withSQL(`"name" = $1`), withBind("John")),
			newCase(t, "broken", "{age: {$in: 5}}", withError("MALFORMED_INPUT")),
		},
	}
	result, err := Run(context.Background(), suite)
	require.NoError(t, err)
	require.True(t, result.Pass, "failures: %v", result.Failures())

	data, err := MarshalSnapshot(result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"cases":[{"args":["John"],"dialect":"postgres","name":"bound","sql":"\"name\" = $1"},`+
			`{"dialect":"postgres","error":"MALFORMED_INPUT","name":"broken","sql":""}],"suite":"snap"}`,
		string(data))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/users.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), suite)
	require.NoError(t, err)
	second, err := Run(context.Background(), suite)
	require.NoError(t, err)

	a, err := MarshalSnapshot(first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
