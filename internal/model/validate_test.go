package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "valid",
			src:  `model: A: {table: "a", attributes: {id: "INTEGER", period: "RANGE(DATE)"}}`,
		},
		{
			name: "empty table",
			src:  `model: A: {table: "", attributes: id: "INTEGER"}`,
			want: []string{ErrEmptyTable},
		},
		{
			name: "no attributes",
			src:  `model: A: {attributes: {}}`,
			want: []string{ErrNoAttributes},
		},
		{
			name: "unknown type",
			src:  `model: A: {attributes: {id: "INTEGER", x: "HSTORE"}}`,
			want: []string{ErrUnknownType},
		},
		{
			name: "opaque type",
			src:  `model: A: {attributes: {id: "INTEGER", x: {type: "HSTORE", opaque: true}}}`,
		},
		{
			name: "duplicate column",
			src:  `model: A: {attributes: {email: "TEXT", mail: {type: "TEXT", field: "EMAIL"}}}`,
			want: []string{ErrDuplicateColumn},
		},
		{
			name: "unknown target",
			src:  `model: A: {attributes: id: "INTEGER", associations: b: {kind: "hasOne", target: "B"}}`,
			want: []string{ErrUnknownTarget},
		},
		{
			name: "invalid kind",
			src: `model: A: {attributes: id: "INTEGER", associations: a: {kind: "manyToSome", target: "A"}}`,
			want: []string{ErrInvalidKind},
		},
		{
			name: "unorderable range",
			src:  `model: A: {attributes: flags: "RANGE(BOOLEAN)"}`,
			want: []string{ErrUnorderableRange},
		},
		{
			name: "attribute name with key syntax",
			src:  `model: A: {attributes: "a.b": "TEXT"}`,
			want: []string{ErrInvalidAttribute},
		},
		{
			name: "duplicate table",
			src: `
model: A: {table: "things", attributes: id: "INTEGER"}
model: B: {table: "Things", attributes: id: "INTEGER"}`,
			want: []string{ErrDuplicateTable},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg, errs := LoadSource("models.cue", tc.src, LoadModeCollectAll)
			require.Empty(t, errs)
			got := Validate(reg)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, codes(got))
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	reg, errs := LoadSource("models.cue", `model: A: {attributes: x: "HSTORE"}`, LoadModeCollectAll)
	require.Empty(t, errs)

	got := Validate(reg)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "[E103] models.cue:1: A.attributes.x:")

	plain := ValidationError{Model: "A", Field: "table", Message: "table name is required", Code: ErrEmptyTable}
	assert.Equal(t, "[E101] A.table: table name is required", plain.Error())
}
