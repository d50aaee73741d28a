package types

import (
	"fmt"
	"strings"

	"github.com/roach88/wherec/internal/dialect"
)

// Array is an array of Elem. Only dialects with array support render it.
type Array struct {
	Elem Type
}

func (Array) Kind() Kind { return KindArray }

func (t Array) SQL(d dialect.Dialect) string {
	return t.elem().SQL(d) + "[]"
}

func (t Array) elem() Type {
	if t.Elem == nil {
		return Text{}
	}
	return t.Elem
}

func (t Array) typeName() string {
	return "array"
}

func (t Array) Validate(v any) error {
	items, ok := elements(v)
	if !ok {
		return invalid(v, t.typeName(), "expected a list")
	}
	for i, item := range items {
		if item == nil {
			continue
		}
		if err := t.elem().Validate(item); err != nil {
			return invalid(v, t.typeName(), fmt.Sprintf("element %d: %v", i, err))
		}
	}
	return nil
}

func (t Array) Literal(v any, d dialect.Dialect) (string, error) {
	if !d.Supports(dialect.FeatureArrays) {
		return "", &FeatureError{Type: "ARRAY", Dialect: d.Name(), Feature: dialect.FeatureArrays}
	}
	items, ok := elements(v)
	if !ok {
		return "", invalid(v, t.typeName(), "expected a list")
	}
	parts := make([]string, len(items))
	for i, item := range items {
		if item == nil {
			parts[i] = "NULL"
			continue
		}
		s, err := t.elem().Literal(item, d)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "ARRAY[" + strings.Join(parts, ",") + "]::" + t.SQL(d), nil
}

func (t Array) BindValue(v any, d dialect.Dialect) (any, error) {
	if !d.Supports(dialect.FeatureArrays) {
		return nil, &FeatureError{Type: "ARRAY", Dialect: d.Name(), Feature: dialect.FeatureArrays}
	}
	items, ok := elements(v)
	if !ok {
		return nil, invalid(v, t.typeName(), "expected a list")
	}
	out := make([]any, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		bv, err := t.elem().BindValue(item, d)
		if err != nil {
			return nil, err
		}
		out[i] = bv
	}
	return out, nil
}

// Bound is one end of a range. A nil Value is unbounded.
type Bound struct {
	Value     any
	Inclusive bool
}

// RangeValue is a range with explicit bounds.
type RangeValue struct {
	Lower Bound
	Upper Bound
}

// NewRange returns the half-open range [lower, upper).
func NewRange(lower, upper any) RangeValue {
	return RangeValue{
		Lower: Bound{Value: lower, Inclusive: lower != nil},
		Upper: Bound{Value: upper},
	}
}

// Range is a range over Elem. Values are RangeValue, or a two-element list
// taken as [lower, upper).
type Range struct {
	Elem Type
}

func (Range) Kind() Kind { return KindRange }

func (t Range) elem() Type {
	if t.Elem == nil {
		return Integer{}
	}
	return t.Elem
}

func (t Range) SQL(dialect.Dialect) string {
	switch e := t.elem().(type) {
	case Integer:
		if e.Big {
			return "int8range"
		}
		return "int4range"
	case Decimal, Float:
		return "numrange"
	case Date:
		return "tstzrange"
	case DateOnly:
		return "daterange"
	}
	return "numrange"
}

func toRange(v any) (RangeValue, bool) {
	switch r := v.(type) {
	case RangeValue:
		return r, true
	case *RangeValue:
		if r != nil {
			return *r, true
		}
		return RangeValue{}, false
	}
	items, ok := elements(v)
	if !ok || len(items) != 2 {
		return RangeValue{}, false
	}
	return NewRange(items[0], items[1]), true
}

func (t Range) Validate(v any) error {
	r, ok := toRange(v)
	if !ok {
		return invalid(v, "range", "expected a two-element list or range value")
	}
	for _, b := range []Bound{r.Lower, r.Upper} {
		if b.Value == nil {
			continue
		}
		if err := t.elem().Validate(b.Value); err != nil {
			return invalid(v, "range", err.Error())
		}
	}
	return nil
}

// text renders the range in postgres input syntax: [1,10)
func (t Range) text(v any, d dialect.Dialect) (string, error) {
	r, ok := toRange(v)
	if !ok {
		return "", invalid(v, "range", "expected a two-element list or range value")
	}
	var b strings.Builder
	if r.Lower.Inclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	lower, err := t.boundText(r.Lower.Value, d)
	if err != nil {
		return "", err
	}
	upper, err := t.boundText(r.Upper.Value, d)
	if err != nil {
		return "", err
	}
	b.WriteString(lower)
	b.WriteByte(',')
	b.WriteString(upper)
	if r.Upper.Inclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String(), nil
}

func (t Range) boundText(v any, d dialect.Dialect) (string, error) {
	if v == nil {
		return "", nil
	}
	switch t.elem().(type) {
	case Integer, Decimal, Float:
		return t.elem().Literal(v, d)
	case Date:
		ts, ok := parseTimestamp(v)
		if !ok {
			return "", invalid(v, "date", "")
		}
		return `"` + formatTimestamp(ts, d) + `"`, nil
	case DateOnly:
		s, ok := parseDateOnly(v)
		if !ok {
			return "", invalid(v, "dateonly", "")
		}
		return s, nil
	}
	return `"` + strings.ReplaceAll(fmt.Sprint(v), `"`, `\"`) + `"`, nil
}

func (t Range) Literal(v any, d dialect.Dialect) (string, error) {
	if !d.Supports(dialect.FeatureRanges) {
		return "", &FeatureError{Type: "RANGE", Dialect: d.Name(), Feature: dialect.FeatureRanges}
	}
	s, err := t.text(v, d)
	if err != nil {
		return "", err
	}
	lit, err := stringLiteral(s, "range", d)
	if err != nil {
		return "", err
	}
	return lit + "::" + t.SQL(d), nil
}

func (t Range) BindValue(v any, d dialect.Dialect) (any, error) {
	if !d.Supports(dialect.FeatureRanges) {
		return nil, &FeatureError{Type: "RANGE", Dialect: d.Name(), Feature: dialect.FeatureRanges}
	}
	return t.text(v, d)
}
