package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wherec/internal/queryir"
)

func TestCompile_Text(t *testing.T) {
	popular := filepath.Join(whereDir, "popular.yaml")
	byAuthor := filepath.Join(whereDir, "by_author.json")

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "inline values",
			args: []string{"compile", popular},
			want: `"views" >= 100 AND "title" LIKE 'Go%'` + "\n",
		},
		{
			name: "sqlite",
			args: []string{"compile", popular, "-d", "sqlite"},
			want: "`views` >= 100 AND `title` LIKE 'Go%'\n",
		},
		{
			name: "prefix",
			args: []string{"compile", popular, "--prefix", "p"},
			want: `"p"."views" >= 100 AND "p"."title" LIKE 'Go%'` + "\n",
		},
		{
			name: "model columns with bind",
			args: []string{"compile", byAuthor, "--models", modelsDir, "--model", "Post", "--bind"},
			want: `"author_id" = $1 AND "views" > $2` + "\n-- args: [7,0]\n",
		},
		{
			name: "bind with offset",
			args: []string{"compile", byAuthor, "--models", modelsDir, "-m", "Post", "--bind", "--offset", "3"},
			want: `"author_id" = $4 AND "views" > $5` + "\n-- args: [7,0]\n",
		},
		{
			name: "mysql placeholders",
			args: []string{"compile", byAuthor, "--models", modelsDir, "-m", "Post", "--bind", "-d", "mysql"},
			want: "`author_id` = ? AND `views` > ?\n-- args: [7,0]\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, nil, tc.args...)
			require.NoError(t, err, out)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestCompile_JSON(t *testing.T) {
	out, _, err := execute(t, nil, "--format", "json", "compile",
		filepath.Join(whereDir, "by_author.json"), "--models", modelsDir, "--model", "Post", "--bind")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "postgres", data["dialect"])
	assert.Equal(t, "Post", data["model"])
	assert.Equal(t, `"author_id" = $1 AND "views" > $2`, data["sql"])
	assert.Equal(t, []any{float64(7), float64(0)}, data["args"])
	assert.NotContains(t, data, "id", "nothing is recorded without --db")
}

func TestCompile_Stdin(t *testing.T) {
	stdin := strings.NewReader(`{"title": {"$in": ["a", "b"]}}`)
	out, _, err := execute(t, stdin, "compile", "-", "--input-format", "json")
	require.NoError(t, err)
	assert.Equal(t, `"title" IN ('a', 'b')`+"\n", out)

	_, _, err = execute(t, strings.NewReader(`{}`), "compile", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeReadFailed)
}

func TestCompile_CompileError(t *testing.T) {
	out, _, err := execute(t, nil, "compile", filepath.Join(whereDir, "bad_views.yaml"),
		"--models", modelsDir, "--model", "Post")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [TYPE_VALIDATION]")

	// Without validation the value is rendered as given.
	out, _, err = execute(t, nil, "compile", filepath.Join(whereDir, "bad_views.yaml"),
		"--models", modelsDir, "--model", "Post", "--no-validate")
	require.NoError(t, err)
	assert.Equal(t, `"views" = 'lots'`+"\n", out)
}

func TestCompile_CompileErrorJSON(t *testing.T) {
	out, _, err := execute(t, nil, "--format", "json", "compile", filepath.Join(whereDir, "bad_views.yaml"),
		"--models", modelsDir, "--model", "Post")
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TYPE_VALIDATION", resp.Error.Code)
}

func TestCompile_CommandErrors(t *testing.T) {
	popular := filepath.Join(whereDir, "popular.yaml")

	testCases := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"unknown dialect", []string{"compile", popular, "-d", "oracle"}, ErrCodeBadFlag, ExitCommandError},
		{"offset without bind", []string{"compile", popular, "--offset", "2"}, ErrCodeBadFlag, ExitCommandError},
		{"model without models", []string{"compile", popular, "--model", "Post"}, ErrCodeBadFlag, ExitCommandError},
		{"unknown model", []string{"compile", popular, "--models", modelsDir, "--model", "Comment"}, ErrCodeUnknownModel, ExitCommandError},
		{"missing models dir", []string{"compile", popular, "--models", "testdata/nope"}, "E005", ExitCommandError},
		{"missing document", []string{"compile", filepath.Join(whereDir, "nope.yaml")}, ErrCodeReadFailed, ExitCommandError},
		{"name without db", []string{"compile", popular, "--name", "popular"}, ErrCodeBadFlag, ExitCommandError},
		{"unusable name", []string{"compile", popular, "--db", filepath.Join(t.TempDir(), "w.db"), "--name", "!!!"}, ErrCodeBadFlag, ExitCommandError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, nil, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.wantExit, GetExitCode(err))
			assert.Contains(t, err.Error(), tc.wantCode)
			assert.Contains(t, out, "Error ["+tc.wantCode+"]")
		})
	}
}

func TestCompile_Record(t *testing.T) {
	db := filepath.Join(t.TempDir(), "wherec.db")
	popular := filepath.Join(whereDir, "popular.yaml")

	out, _, err := execute(t, nil, "compile", popular, "--db", db, "--name", "popular")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"views" >= 100 AND "title" LIKE 'Go%'`, lines[0])
	assert.Regexp(t, `^-- recorded [0-9a-f]+ \(seq 1\)$`, lines[1])
	assert.Equal(t, "-- named popular", lines[2])

	// Same dialect, model and filter: the log keeps the first entry.
	out, _, err = execute(t, nil, "compile", popular, "--db", db)
	require.NoError(t, err)
	assert.Regexp(t, `-- already recorded [0-9a-f]+ \(seq 1\)`, out)

	// Different settings are a different compilation.
	out, _, err = execute(t, nil, "compile", popular, "--db", db, "--prefix", "p")
	require.NoError(t, err)
	assert.Regexp(t, `-- recorded [0-9a-f]+ \(seq 2\)`, out)

	// Names are normalized before they are stored.
	out, _, err = execute(t, nil, "compile", popular, "--db", db, "--name", "Popular Posts")
	require.NoError(t, err)
	assert.Contains(t, out, "-- named popular-posts\n")
}

func TestFilterDescription(t *testing.T) {
	tree := queryir.M(queryir.E("views", 1))

	plain, err := filterDescription(tree, &CompileFlags{})
	require.NoError(t, err)
	assert.Equal(t, queryir.Describe(tree), plain)

	withSettings, err := filterDescription(tree, &CompileFlags{Prefix: "p", Bind: true, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, plain+` {"bind":true,"offset":2,"prefix":"p"}`, withSettings)

	replaced, err := filterDescription(tree, &CompileFlags{Replacements: map[string]string{"b": "2", "a": "1"}})
	require.NoError(t, err)
	assert.Equal(t, plain+` {"replace":{"a":"1","b":"2"}}`, replaced)
}
