package querysql

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/model"
	q "github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/testutil"
)

func TestCompileWhere_Postgres(t *testing.T) {
	user := testutil.UserModel(t)
	c := NewCompiler(dialect.NewPostgres())

	testCases := []struct {
		name  string
		where q.Node
		noMdl bool
		want  string
	}{
		{
			name:  "conjunction in declaration order",
			where: q.M(q.E("name", "John"), q.E("age", 30)),
			want:  `"name" = 'John' AND "age" = 30`,
		},
		{
			name:  "conjunction without model",
			where: q.M(q.E("name", "John"), q.E("age", 30)),
			noMdl: true,
			want:  `"name" = 'John' AND "age" = 30`,
		},
		{
			name: "attribute keys before operator keys",
			where: q.M(
				q.OpE(q.OpOr, q.List{q.M(q.E("age", 1)), q.M(q.E("age", 2))}),
				q.E("name", "x"),
			),
			want: `"name" = 'x' AND ("age" = 1 OR "age" = 2)`,
		},
		{
			name:  "not",
			where: q.M(q.OpE(q.OpNot, q.M(q.E("age", 1)))),
			want:  `NOT ("age" = 1)`,
		},
		{
			name:  "not over a parenthesized fragment",
			where: q.M(q.OpE(q.OpNot, q.Raw("(x > 1)"))),
			want:  `NOT (x > 1)`,
		},
		{
			name:  "not over two groups",
			where: q.M(q.OpE(q.OpNot, q.Raw("(x > 1) OR (y > 2)"))),
			want:  `NOT ((x > 1) OR (y > 2))`,
		},
		{
			name: "not over or",
			where: q.M(q.OpE(q.OpNot, q.M(
				q.OpE(q.OpOr, q.List{q.M(q.E("age", 1)), q.M(q.E("name", "x"))}),
			))),
			want: `NOT ("age" = 1 OR "name" = 'x')`,
		},
		{
			name:  "or over a map",
			where: q.M(q.OpE(q.OpOr, q.M(q.E("age", 1), q.E("name", "x")))),
			want:  `"age" = 1 OR "name" = 'x'`,
		},
		{
			name:  "empty not",
			where: q.M(q.OpE(q.OpNot, q.M())),
			want:  ``,
		},
		{
			name:  "implicit in",
			where: q.M(q.E("age", []int{1, 2, 3})),
			want:  `"age" IN (1, 2, 3)`,
		},
		{
			name:  "array column equality",
			where: q.M(q.E("tags", []string{"a", "b"})),
			want:  `"tags" = ARRAY['a','b']::TEXT[]`,
		},
		{
			name:  "empty in is always false",
			where: q.M(q.E("age", q.M(q.OpE(q.OpIn, []int{})))),
			want:  `"age" IN (NULL)`,
		},
		{
			name:  "empty not in is omitted",
			where: q.M(q.E("age", q.M(q.OpE(q.OpNotIn, []int{}))), q.E("name", "x")),
			want:  `"name" = 'x'`,
		},
		{
			name:  "in with a literal",
			where: q.M(q.E("id", q.M(q.OpE(q.OpIn, q.Raw("(SELECT owner_id FROM tasks)"))))),
			want:  `"id" IN (SELECT owner_id FROM tasks)`,
		},
		{
			name:  "null",
			where: q.M(q.E("name", nil)),
			want:  `"name" IS NULL`,
		},
		{
			name:  "ne null",
			where: q.M(q.E("name", q.M(q.OpE(q.OpNe, nil)))),
			want:  `"name" IS NOT NULL`,
		},
		{
			name:  "eq null",
			where: q.M(q.E("name", q.M(q.OpE(q.OpEq, nil)))),
			want:  `"name" IS NULL`,
		},
		{
			name:  "is boolean",
			where: q.M(q.E("active", q.M(q.OpE(q.OpIsNot, false)))),
			want:  `"active" IS NOT false`,
		},
		{
			name:  "json path accumulation",
			where: q.M(q.E("meta", q.M(q.E("x", q.M(q.E("y", 1)))))),
			want:  `"meta"->'x'->'y' = '1'`,
		},
		{
			name:  "json path key syntax",
			where: q.M(q.E("meta.x.y", 1)),
			want:  `"meta"->'x'->'y' = '1'`,
		},
		{
			name:  "json index",
			where: q.M(q.E("meta.list[0]", "a")),
			want:  `"meta"->'list'->0 = '"a"'`,
		},
		{
			name:  "json unquote",
			where: q.M(q.E("meta.name:unquote", "x")),
			want:  `"meta"->>'name' = 'x'`,
		},
		{
			name:  "json unquote and cast",
			where: q.M(q.E("meta.count:unquote::integer", q.M(q.OpE(q.OpGt, 5)))),
			want:  `CAST("meta"->>'count' AS INTEGER) > 5`,
		},
		{
			name:  "nested json key with cast",
			where: q.M(q.E("meta", q.M(q.E("count:unquote::integer", q.M(q.OpE(q.OpLte, 3)))))),
			want:  `CAST("meta"->>'count' AS INTEGER) <= 3`,
		},
		{
			name:  "lower modifier",
			where: q.M(q.E("name:lower", "john")),
			want:  `lower("name") = 'john'`,
		},
		{
			name: "ambiguous sub-expression is parenthesized",
			where: q.M(q.E("active",
				q.WhereOp(q.Func("lower", q.Column("name")), q.OpIs, nil))),
			want: `"active" = (lower("name") IS NULL)`,
		},
		{
			name:  "between",
			where: q.M(q.E("age", q.M(q.OpE(q.OpBetween, []int{18, 65})))),
			want:  `"age" BETWEEN 18 AND 65`,
		},
		{
			name:  "not between with a literal",
			where: q.M(q.E("age", q.M(q.OpE(q.OpNotBetween, q.Raw("1 AND 2"))))),
			want:  `"age" NOT BETWEEN 1 AND 2`,
		},
		{
			name:  "between is parenthesized when joined",
			where: q.M(q.E("age", q.M(q.OpE(q.OpBetween, []int{18, 65}))), q.E("name", "x")),
			want:  `("age" BETWEEN 18 AND 65) AND "name" = 'x'`,
		},
		{
			name:  "range contains point",
			where: q.M(q.E("period", q.M(q.OpE(q.OpContains, 5)))),
			want:  `"period" @> 5`,
		},
		{
			name:  "range contains range",
			where: q.M(q.E("period", q.M(q.OpE(q.OpContains, []int{1, 5})))),
			want:  `"period" @> '[1,5)'::int4range`,
		},
		{
			name:  "array contains",
			where: q.M(q.E("tags", q.M(q.OpE(q.OpContains, []string{"go"})))),
			want:  `"tags" @> ARRAY['go']::TEXT[]`,
		},
		{
			name:  "contained in a range",
			where: q.M(q.E("age", q.M(q.OpE(q.OpContained, []int{1, 10})))),
			want:  `"age" <@ '[1,10)'::int4range`,
		},
		{
			name:  "overlap",
			where: q.M(q.E("tags", q.M(q.OpE(q.OpOverlap, []string{"a"})))),
			want:  `"tags" && ARRAY['a']::TEXT[]`,
		},
		{
			name:  "starts with",
			where: q.M(q.E("name", q.M(q.OpE(q.OpStartsWith, "Jo")))),
			want:  `"name" LIKE 'Jo%'`,
		},
		{
			name:  "ends with",
			where: q.M(q.E("name", q.M(q.OpE(q.OpEndsWith, "hn")))),
			want:  `"name" LIKE '%hn'`,
		},
		{
			name:  "not substring",
			where: q.M(q.E("name", q.M(q.OpE(q.OpNotSubstring, "oh")))),
			want:  `"name" NOT LIKE '%oh%'`,
		},
		{
			name:  "starts with a column",
			where: q.M(q.E("name", q.M(q.OpE(q.OpStartsWith, q.Column("email"))))),
			want:  `"name" LIKE CONCAT("email", '%')`,
		},
		{
			name:  "substring of a column",
			where: q.M(q.E("name", q.M(q.OpE(q.OpSubstring, q.Column("email"))))),
			want:  `"name" LIKE CONCAT('%', "email", '%')`,
		},
		{
			name:  "any key exists",
			where: q.M(q.E("meta", q.M(q.OpE(q.OpAnyKeyExists, []string{"a", "b"})))),
			want:  `"meta" ?| ARRAY['a','b']::TEXT[]`,
		},
		{
			name:  "column shorthand",
			where: q.M(q.E("name", q.M(q.OpE(q.OpCol, "email")))),
			want:  `"name" = "email"`,
		},
		{
			name:  "column shorthand under an operator",
			where: q.M(q.E("age", q.M(q.OpE(q.OpGt, q.M(q.OpE(q.OpCol, "users.score")))))),
			want:  `"age" > "users"."score"`,
		},
		{
			name:  "any as operator",
			where: q.M(q.E("age", q.M(q.OpE(q.OpAny, []int{1, 2})))),
			want:  `"age" = ANY (ARRAY[1,2]::INTEGER[])`,
		},
		{
			name:  "all under an operator",
			where: q.M(q.E("age", q.M(q.OpE(q.OpGt, q.M(q.OpE(q.OpAll, []int{1, 2})))))),
			want:  `"age" > ALL (ARRAY[1,2]::INTEGER[])`,
		},
		{
			name:  "any with a literal",
			where: q.M(q.E("age", q.M(q.OpE(q.OpAny, q.Raw("SELECT 1"))))),
			want:  `"age" = ANY (SELECT 1)`,
		},
		{
			name:  "association path",
			where: q.M(q.E("$profile.bio$", "x")),
			want:  `"profile"."bio" = 'x'`,
		},
		{
			name:  "nested association path",
			where: q.M(q.E("$profile.address.zip$", "12345")),
			want:  `"profile->address"."zip_code" = '12345'`,
		},
		{
			name:  "attribute field mapping",
			where: q.M(q.E("email", "a@b.c")),
			want:  `"email_address" = 'a@b.c'`,
		},
		{
			name:  "or under an attribute",
			where: q.M(q.E("age", q.M(q.OpE(q.OpOr, q.List{q.M(q.OpE(q.OpLt, 18)), q.M(q.OpE(q.OpGt, 65))})))),
			want:  `"age" < 18 OR "age" > 65`,
		},
		{
			name:  "or over an operator map",
			where: q.M(q.E("age", q.M(q.OpE(q.OpOr, q.M(q.OpE(q.OpLt, 18), q.OpE(q.OpGt, 65))))), q.E("active", true)),
			want:  `("age" < 18 OR "age" > 65) AND "active" = true`,
		},
		{
			name:  "not under an attribute",
			where: q.M(q.E("age", q.M(q.OpE(q.OpNot, q.M(q.OpE(q.OpGt, 5)))))),
			want:  `NOT ("age" > 5)`,
		},
		{
			name:  "where operands in a list",
			where: q.List{q.WhereOp(q.Attr("age"), q.OpGt, 5), q.M(q.E("name", "x"))},
			want:  `"age" > 5 AND "name" = 'x'`,
		},
		{
			name:  "where value",
			where: q.WhereValue(q.Attr("age"), []int{1, 2}),
			want:  `"age" IN (1, 2)`,
		},
		{
			name:  "null list elements are skipped",
			where: q.From([]any{nil, map[string]any{"age": 1}}),
			want:  `"age" = 1`,
		},
		{
			name:  "timestamp",
			where: q.M(q.E("createdAt", q.M(q.OpE(q.OpGte, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))))),
			want:  `"created_at" >= '2024-01-02 03:04:05.000 +00:00'`,
		},
		{
			name:  "regexp",
			where: q.M(q.E("name", q.M(q.OpE(q.OpRegexp, "^J")))),
			want:  `"name" ~ '^J'`,
		},
		{
			name:  "typed value",
			where: q.M(q.E("name", q.Val("42", "integer"))),
			want:  `"name" = 42`,
		},
		{
			name:  "cast operand",
			where: q.List{q.WhereOp(q.CastTo(q.Attr("age"), "text"), q.OpEq, "30")},
			want:  `CAST("age" AS TEXT) = '30'`,
		},
		{
			name:  "raw top-level fragment",
			where: q.Raw("1 = 1"),
			want:  `1 = 1`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := CompileOptions{Model: user}
			if tc.noMdl {
				opts.Model = nil
			}
			got, err := c.CompileWhere(tc.where, opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompileWhere_Dialects(t *testing.T) {
	user := testutil.UserModel(t)

	testCases := []struct {
		name    string
		dialect dialect.Dialect
		where   q.Node
		want    string
	}{
		{"sqlite boolean", dialect.NewSQLite(), q.M(q.E("active", true)), "`active` = 1"},
		{"sqlite json", dialect.NewSQLite(), q.M(q.E("meta.a.b", 1)), "`meta`->'$.a.b' = '1'"},
		{"sqlite json unquote", dialect.NewSQLite(), q.M(q.E("meta.a:unquote", "x")), "`meta`->>'$.a' = 'x'"},
		{"sqlite concat", dialect.NewSQLite(), q.M(q.E("name", q.M(q.OpE(q.OpEndsWith, q.Column("email"))))), "`name` LIKE ('%' || `email`)"},
		{"mysql string escape", dialect.NewMySQL(), q.M(q.E("name", "O'Brien")), "`name` = 'O\\'Brien'"},
		{"mysql json unquote", dialect.NewMySQL(), q.M(q.E("meta.a:unquote", "x")), "json_unquote(json_extract(`meta`,'$.a')) = 'x'"},
		{"mysql regexp", dialect.NewMySQL(), q.M(q.E("name", q.M(q.OpE(q.OpRegexp, "^J")))), "`name` REGEXP '^J'"},
		{"ansi not equal", dialect.NewANSI(), q.M(q.E("age", q.M(q.OpE(q.OpNe, 1)))), `"age" <> 1`},
		{
			"mysql not over groups with escaped quotes",
			dialect.NewMySQL(),
			q.M(q.OpE(q.OpNot, q.List{
				q.M(q.OpE(q.OpOr, q.List{q.M(q.E("name", "'(")), q.M(q.E("name", "z"))})),
				q.M(q.OpE(q.OpOr, q.List{q.M(q.E("name", ")'")), q.M(q.E("name", "y"))})),
			})),
			"NOT ((`name` = '\\'(' OR `name` = 'z') AND (`name` = ')\\'' OR `name` = 'y'))",
		},
		{
			"postgres not over groups with quotes",
			dialect.NewPostgres(),
			q.M(q.OpE(q.OpNot, q.List{
				q.M(q.OpE(q.OpOr, q.List{q.M(q.E("name", "\\'(")), q.M(q.E("name", "z"))})),
				q.M(q.OpE(q.OpOr, q.List{q.M(q.E("name", ")")), q.M(q.E("name", "y"))})),
			})),
			`NOT (("name" = '\''(' OR "name" = 'z') AND ("name" = ')' OR "name" = 'y'))`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewCompiler(tc.dialect).CompileWhere(tc.where, CompileOptions{Model: user})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompileWhere_Errors(t *testing.T) {
	user := testutil.UserModel(t)

	testCases := []struct {
		name    string
		dialect dialect.Dialect
		where   q.Node
		code    ErrorCode
	}{
		{"top-level string", dialect.NewPostgres(), q.From("1=1"), ErrMalformedInput},
		{"top-level number", dialect.NewPostgres(), q.From(1), ErrMalformedInput},
		{"operator at connective level", dialect.NewPostgres(), q.M(q.OpE(q.OpGt, 1)), ErrMalformedInput},
		{"unknown operator key", dialect.NewPostgres(), q.M(q.E("$nope", 1)), ErrMalformedInput},
		{"unknown modifier", dialect.NewPostgres(), q.M(q.E("name:bogus", 1)), ErrMalformedInput},
		{"unquote without path", dialect.NewPostgres(), q.M(q.E("name:unquote", "x")), ErrMalformedInput},
		{"in with a scalar", dialect.NewPostgres(), q.M(q.E("age", q.M(q.OpE(q.OpIn, 5)))), ErrMalformedInput},
		{"is with a string", dialect.NewPostgres(), q.M(q.E("active", q.M(q.OpE(q.OpIs, "yes")))), ErrMalformedInput},
		{"between with one bound", dialect.NewPostgres(), q.M(q.E("age", q.M(q.OpE(q.OpBetween, []int{1})))), ErrMalformedInput},
		{"starts with a number", dialect.NewPostgres(), q.M(q.E("name", q.M(q.OpE(q.OpStartsWith, 5)))), ErrMalformedInput},
		{"empty attribute key", dialect.NewPostgres(), q.M(q.E("", 1)), ErrMalformedInput},
		{"invalid integer", dialect.NewPostgres(), q.M(q.E("age", "abc")), ErrTypeValidation},
		{"invalid enum", dialect.NewPostgres(), q.M(q.E("status", "deleted")), ErrTypeValidation},
		{"undefined value", dialect.NewPostgres(), q.M(q.E("age", q.Undefined)), ErrUndefinedValue},
		{"json on ansi", dialect.NewANSI(), q.M(q.E("meta.a", 1)), ErrUnsupportedFeature},
		{"array literal on sqlite", dialect.NewSQLite(), q.M(q.E("tags", []string{"a"})), ErrUnsupportedFeature},
		{"contains on sqlite", dialect.NewSQLite(), q.M(q.E("name", q.M(q.OpE(q.OpContains, "a")))), ErrUnsupportedOperator},
		{"regexp on sqlite", dialect.NewSQLite(), q.M(q.E("name", q.M(q.OpE(q.OpRegexp, "^J")))), ErrUnsupportedOperator},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCompiler(tc.dialect).CompileWhere(tc.where, CompileOptions{Model: user})
			require.Error(t, err)
			assert.True(t, IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestCompileError_DescribesNode(t *testing.T) {
	c := NewCompiler(dialect.NewPostgres())

	_, err := c.CompileWhere(q.From("1=1"), CompileOptions{})
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrMalformedInput, ce.Code)
	assert.Equal(t, `"1=1"`, ce.Node)
	assert.Equal(t, `MALFORMED_INPUT: a filter must be a list, an object or a boolean expression in "1=1"`, err.Error())

	_, err = c.CompileWhere(q.M(q.E("a", 1), q.OpE(q.OpGt, 2)), CompileOptions{})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, `{"a":1,"$gt":2}`, ce.Node)
	assert.Contains(t, ce.Message, "unsupported operator $gt at this position")
}

func TestCompileWhere_TypeValidationWrapsCause(t *testing.T) {
	c := NewCompiler(dialect.NewPostgres())
	_, err := c.CompileWhere(q.M(q.E("age", "abc")), CompileOptions{Model: testutil.UserModel(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"abc" is not a valid integer`)
}

func TestCompileWhere_WithoutValidation(t *testing.T) {
	c := NewCompiler(dialect.NewPostgres(), WithoutValidation())
	got, err := c.CompileWhere(q.M(q.E("age", "abc")), CompileOptions{Model: testutil.UserModel(t)})
	require.NoError(t, err)
	assert.Equal(t, `"age" = 'abc'`, got)
}

func TestCompileWhere_Prefix(t *testing.T) {
	c := NewCompiler(dialect.NewPostgres())
	got, err := c.CompileWhere(q.M(q.E("email", "a@b.c"), q.E("$profile.bio$", nil)), CompileOptions{
		Model:  testutil.UserModel(t),
		Prefix: "User",
	})
	require.NoError(t, err)
	assert.Equal(t, `"User"."email_address" = 'a@b.c' AND "profile"."bio" IS NULL`, got)
}

func TestCompileWhere_OpaqueValue(t *testing.T) {
	doc := model.New("Doc", "docs")
	require.NoError(t, doc.AddAttribute(model.Attribute{Name: "attrs", TypeName: "HSTORE"}))

	c := NewCompiler(dialect.NewPostgres())
	got, err := c.CompileWhere(q.M(q.E("attrs", q.M(q.E("a", 1)))), CompileOptions{Model: doc})
	require.NoError(t, err)
	assert.Equal(t, `"attrs" = '{"a":1}'`, got)
}

func TestCompileWhere_NilTree(t *testing.T) {
	got, err := NewCompiler(dialect.NewPostgres()).CompileWhere(nil, CompileOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompile_BindParams(t *testing.T) {
	user := testutil.UserModel(t)
	where := q.M(
		q.E("name", "John"),
		q.E("age", q.M(q.OpE(q.OpIn, []int{1, 2}))),
		q.E("email", nil),
	)

	t.Run("postgres", func(t *testing.T) {
		stmt, err := NewCompiler(dialect.NewPostgres()).Compile(where, CompileOptions{Model: user, BindParams: true})
		require.NoError(t, err)
		assert.Equal(t, `"name" = $1 AND "age" IN ($2, $3) AND "email_address" IS NULL`, stmt.SQL)
		assert.Equal(t, []any{"John", int64(1), int64(2)}, stmt.Args)
	})

	t.Run("offset", func(t *testing.T) {
		stmt, err := NewCompiler(dialect.NewPostgres()).Compile(where, CompileOptions{Model: user, BindParams: true, ParamOffset: 2})
		require.NoError(t, err)
		assert.Equal(t, `"name" = $3 AND "age" IN ($4, $5) AND "email_address" IS NULL`, stmt.SQL)
	})

	t.Run("sqlite", func(t *testing.T) {
		stmt, err := NewCompiler(dialect.NewSQLite()).Compile(where, CompileOptions{Model: user, BindParams: true})
		require.NoError(t, err)
		assert.Equal(t, "`name` = ? AND `age` IN (?, ?) AND `email_address` IS NULL", stmt.SQL)
		assert.Len(t, stmt.Args, 3)
	})

	t.Run("caller binder", func(t *testing.T) {
		args := NewArgs(dialect.NewPostgres(), 0)
		stmt, err := NewCompiler(dialect.NewPostgres()).Compile(where, CompileOptions{Model: user, Bind: args})
		require.NoError(t, err)
		assert.Nil(t, stmt.Args)
		assert.Equal(t, []any{"John", int64(1), int64(2)}, args.Values())
	})
}

func TestCompileWhere_Idempotent(t *testing.T) {
	c := NewCompiler(dialect.NewPostgres())
	where := q.From(map[string]any{
		"$or":  []any{map[string]any{"age": map[string]any{"$gt": 3}}, map[string]any{"name": nil}},
		"meta": map[string]any{"a": map[string]any{"b": []any{1, 2}}},
	})
	opts := CompileOptions{Model: testutil.UserModel(t)}

	first, err := c.CompileWhere(where, opts)
	require.NoError(t, err)
	second, err := c.CompileWhere(where, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, `"meta"->'a'->'b' IN ('1', '2') AND ("age" > 3 OR "name" IS NULL)`, first)
}

func TestCompiler_ConcurrentUse(t *testing.T) {
	c := NewCompiler(dialect.NewPostgres())
	user := testutil.UserModel(t)
	where := q.M(q.E("name", "John"), q.E("age", []int{1, 2}))

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stmt, err := c.Compile(where, CompileOptions{Model: user, BindParams: true})
			if err == nil {
				results[i] = stmt.SQL
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, `"name" = $1 AND "age" IN ($2, $3)`, got)
	}
}

func TestCompiler_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := NewCompiler(dialect.NewPostgres(), WithLogger(logger))
	_, err := c.CompileWhere(q.M(q.E("a", 1)), CompileOptions{})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `msg="where compiled"`)
	assert.Contains(t, buf.String(), "dialect=postgres")
}

func TestJoinWithLogicalOperator(t *testing.T) {
	assert.Equal(t, "", joinWithLogicalOperator(nil, q.OpAnd))
	assert.Equal(t, "", joinWithLogicalOperator([]string{"", ""}, q.OpAnd))
	assert.Equal(t, "a = 1 OR b = 2", joinWithLogicalOperator([]string{"a = 1 OR b = 2"}, q.OpAnd))
	assert.Equal(t, "(a = 1 or b = 2) AND c = 3", joinWithLogicalOperator([]string{"a = 1 or b = 2", "", "c = 3"}, q.OpAnd))
	assert.Equal(t, "a OR b", joinWithLogicalOperator([]string{"a", "b"}, q.OpOr))
}

func TestWrapWithNot(t *testing.T) {
	testCases := []struct {
		in        string
		backslash bool
		want      string
	}{
		{"", false, ""},
		{"a = 1", false, "NOT (a = 1)"},
		{"(a = 1)", false, "NOT (a = 1)"},
		{"(a) AND (b)", false, "NOT ((a) AND (b))"},
		{"(a = ')')", false, "NOT (a = ')')"},
		{"(a = '(') OR (b)", false, "NOT ((a = '(') OR (b))"},
		{`(a = '\') OR (b = ')')`, false, `NOT ((a = '\') OR (b = ')'))`},
		{`(a = '\'(') AND (b = ')\'')`, true, `NOT ((a = '\'(') AND (b = ')\''))`},
		{`(a = '\\') OR (b)`, true, `NOT ((a = '\\') OR (b))`},
		{"(`a\\` = 1)", true, "NOT (`a\\` = 1)"},
		{`(a = 'x\')`, true, `NOT ((a = 'x\'))`},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, wrapWithNot(tc.in, tc.backslash), tc.in)
	}
}
