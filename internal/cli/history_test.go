package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wherec/internal/store"
)

// recordHistory compiles two filters into a fresh log and names the first.
func recordHistory(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "wherec.db")

	_, _, err := execute(t, nil, "compile", filepath.Join(whereDir, "popular.yaml"), "--db", db, "--name", "popular")
	require.NoError(t, err)
	_, _, err = execute(t, nil, "compile", filepath.Join(whereDir, "by_author.json"),
		"--db", db, "--models", modelsDir, "--model", "Post", "--bind")
	require.NoError(t, err)
	return db
}

func TestHistory_List(t *testing.T) {
	db := recordHistory(t)

	out, _, err := execute(t, nil, "history", "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	assert.Regexp(t, `^SEQ\s+ID\s+DIALECT\s+MODEL\s+SQL$`, lines[0])
	assert.Regexp(t, `^1\s+[0-9a-f]{12}\s+postgres\s+-\s+"views" >= 100`, lines[1])
	assert.Regexp(t, `^2\s+[0-9a-f]{12}\s+postgres\s+Post\s+"author_id" = \$1`, lines[2])
}

func TestHistory_Limit(t *testing.T) {
	db := recordHistory(t)

	out, _, err := execute(t, nil, "--format", "json", "history", "--db", db, "--limit", "1")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	entries, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	latest := entries[0].(map[string]any)
	assert.Equal(t, float64(2), latest["seq"])
	assert.Equal(t, []any{float64(7), float64(0)}, latest["args"])
	assert.NotEmpty(t, latest["fingerprint"])
}

func TestHistory_Named(t *testing.T) {
	db := recordHistory(t)

	out, _, err := execute(t, nil, "history", "--db", db, "--named")
	require.NoError(t, err)
	assert.Regexp(t, `NAME\s+COMPILATION\s+CREATED`, out)
	assert.Regexp(t, `popular\s+[0-9a-f]{12}`, out)

	out, _, err = execute(t, nil, "history", "--db", db, "--show", "popular")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:    popular\n")
	assert.Contains(t, out, "Dialect: postgres\n")
	assert.Contains(t, out, `SQL:     "views" >= 100 AND "title" LIKE 'Go%'`)
	assert.NotContains(t, out, "Model:")
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "wherec.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, nil, "history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No compilations recorded.\n", out)

	out, _, err = execute(t, nil, "history", "--db", db, "--named")
	require.NoError(t, err)
	assert.Equal(t, "No named filters.\n", out)
}

func TestHistory_MissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")

	_, _, err := execute(t, nil, "history", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
	assert.NoFileExists(t, db, "reading history must not create a log")
}

func TestHistory_Errors(t *testing.T) {
	db := recordHistory(t)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown name", []string{"--show", "nope"}, `no named filter "nope"`},
		{"negative limit", []string{"--limit", "-1"}, "--limit must not be negative"},
		{"named and show", []string{"--named", "--show", "popular"}, "mutually exclusive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, nil, append([]string{"history", "--db", db}, tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tc.want)
		})
	}
}
