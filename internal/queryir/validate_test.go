package queryir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	n := M(
		E("a", 1),
		OpE(OpAnd, []any{
			WhereOp(CastTo(Attr("b"), "integer"), OpGt, 2),
			M(E("c", AnyOf([]int{1, 2}))),
		}),
		E("d", Assoc("owner", "name")),
	)
	assert.NoError(t, Validate(n))
}

func TestValidate_Invalid(t *testing.T) {
	testCases := []struct {
		name     string
		node     Node
		wantPath string
		wantMsg  string
	}{
		{
			name:     "empty function name",
			node:     M(E("a", Fn{})),
			wantPath: "a",
			wantMsg:  "function name is required",
		},
		{
			name:     "cast without type",
			node:     List{Cast{Expr: Attr("x")}},
			wantPath: "[0]",
			wantMsg:  "cast target type is required",
		},
		{
			name:     "json path without segments",
			node:     M(OpE(OpOr, []any{JSONPath{Base: Attr("m")}})),
			wantPath: "$or[0]",
			wantMsg:  "json path needs at least one segment",
		},
		{
			name:     "association path without associations",
			node:     AssocPath{Attribute: "x"},
			wantMsg:  "association path needs at least one association",
		},
		{
			name:     "bad quantifier",
			node:     M(E("a", Quantified{Quantifier: OpEq, Values: List{}})),
			wantPath: "a",
			wantMsg:  "quantifier must be $any or $all, got $eq",
		},
		{
			name:     "where without left",
			node:     Where{Op: OpEq, Right: Null},
			wantMsg:  "where expression needs a left operand",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.node)
			require.Error(t, err)

			var structErr *StructureError
			require.True(t, errors.As(err, &structErr))
			assert.Equal(t, tc.wantPath, structErr.Path)
			assert.Equal(t, tc.wantMsg, structErr.Message)
		})
	}
}
