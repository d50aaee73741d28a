package ir

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"uint8", uint8(7), "7"},
		{"bool", true, "true"},
		{"float", 1.5, "1.5"},
		{"integral float", 100.0, "100"},
		{"large float", 1e21, "1e+21"},
		{"tiny float", 1e-7, "1e-7"},
		{"json number int", json.Number("12"), "12"},
		{"json number float", json.Number("1.50"), "1.5"},
		{"empty array", []any{}, "[]"},
		{"typed slice", []int{1, 2, 3}, "[1,2,3]"},
		{"empty object", map[string]any{}, "{}"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600)), `"2024-01-02T02:04:05Z"`},
		{"uuid", uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), `"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  []any{"x", nil},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":["x",null],"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 is a surrogate pair (0xD83D...) and sorts before U+FF5E in UTF-16,
	// although its UTF-8 encoding sorts after.
	obj := map[string]any{"～": 1, "\U0001F600": 2}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"～\":1}", string(result))
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control characters", "a\nb\x01", `"a\nb\u0001"`},
		{"line separator stays literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc normalization", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalStructsUseJSONTags(t *testing.T) {
	type point struct {
		Y int `json:"y"`
		X int `json:"x"`
	}

	result, err := MarshalCanonical(point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"x":1,"y":2}`, string(result))
}

func TestMarshalCanonicalErrors(t *testing.T) {
	_, err := MarshalCanonical(math.NaN())
	require.Error(t, err)

	_, err = MarshalCanonical(map[int]any{1: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map key")
}
