package types

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/wherec/internal/dialect"
)

var (
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	decimalPattern = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?$`)
)

// Integer is INTEGER, or BIGINT when Big is set.
type Integer struct {
	Big bool
}

func (Integer) Kind() Kind { return KindInteger }

func (t Integer) name() string {
	if t.Big {
		return "BIGINT"
	}
	return "INTEGER"
}

func (t Integer) SQL(d dialect.Dialect) string {
	if d.Name() == dialect.MySQL {
		return "SIGNED"
	}
	return t.name()
}

func (t Integer) Validate(v any) error {
	if _, ok := integerText(v); !ok {
		return invalid(v, strings.ToLower(t.name()), "")
	}
	return nil
}

func (t Integer) Literal(v any, _ dialect.Dialect) (string, error) {
	s, ok := integerText(v)
	if !ok {
		return "", invalid(v, strings.ToLower(t.name()), "")
	}
	return s, nil
}

func (t Integer) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, ok := integerText(v)
	if !ok {
		return nil, invalid(v, strings.ToLower(t.name()), "")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return s, nil
}

// integerText returns the decimal text of an integral value.
func integerText(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return integerText(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case json.Number:
		return integerText(string(n))
	case string:
		s := strings.TrimSpace(n)
		if integerPattern.MatchString(s) {
			return s, true
		}
	}
	return "", false
}

// Float is REAL, or DOUBLE PRECISION when Double is set.
type Float struct {
	Double bool
}

func (Float) Kind() Kind { return KindFloat }

func (t Float) SQL(d dialect.Dialect) string {
	switch {
	case d.Name() == dialect.SQLite:
		return "REAL"
	case d.Name() == dialect.MySQL && t.Double:
		return "DOUBLE"
	case d.Name() == dialect.MySQL:
		return "FLOAT"
	case t.Double:
		return "DOUBLE PRECISION"
	default:
		return "REAL"
	}
}

func (t Float) Validate(v any) error {
	if _, _, ok := floatText(v); !ok {
		return invalid(v, "float", "")
	}
	return nil
}

func (t Float) Literal(v any, d dialect.Dialect) (string, error) {
	s, special, ok := floatText(v)
	if !ok {
		return "", invalid(v, "float", "")
	}
	if special {
		return d.EscapeString(s), nil
	}
	return s, nil
}

func (t Float) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, _, ok := floatText(v)
	if !ok {
		return nil, invalid(v, "float", "")
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f, nil
}

// floatText returns the text of a numeric value. special is set for NaN
// and the infinities, which render as quoted strings.
func floatText(v any) (s string, special bool, ok bool) {
	switch n := v.(type) {
	case float32:
		return floatText(float64(n))
	case float64:
		switch {
		case math.IsNaN(n):
			return "NaN", true, true
		case math.IsInf(n, 1):
			return "Infinity", true, true
		case math.IsInf(n, -1):
			return "-Infinity", true, true
		}
		return strconv.FormatFloat(n, 'g', -1, 64), false, true
	case json.Number:
		return floatText(string(n))
	case string:
		s := strings.TrimSpace(n)
		switch s {
		case "NaN", "Infinity", "-Infinity":
			return s, true, true
		}
		if decimalPattern.MatchString(s) {
			return s, false, true
		}
		return "", false, false
	}
	if s, ok := integerText(v); ok {
		return s, false, true
	}
	return "", false, false
}

// Decimal is DECIMAL(Precision, Scale); zero precision means unconstrained.
type Decimal struct {
	Precision int
	Scale     int
}

func (Decimal) Kind() Kind { return KindDecimal }

func (t Decimal) SQL(dialect.Dialect) string {
	if t.Precision > 0 {
		return "DECIMAL(" + strconv.Itoa(t.Precision) + "," + strconv.Itoa(t.Scale) + ")"
	}
	return "DECIMAL"
}

func (t Decimal) Validate(v any) error {
	if _, ok := decimalText(v); !ok {
		return invalid(v, "decimal", "")
	}
	return nil
}

func (t Decimal) Literal(v any, _ dialect.Dialect) (string, error) {
	s, ok := decimalText(v)
	if !ok {
		return "", invalid(v, "decimal", "")
	}
	return s, nil
}

func (t Decimal) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, ok := decimalText(v)
	if !ok {
		return nil, invalid(v, "decimal", "")
	}
	return s, nil
}

func decimalText(v any) (string, bool) {
	switch n := v.(type) {
	case float32:
		return decimalText(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case json.Number:
		return decimalText(string(n))
	case string:
		s := strings.TrimSpace(n)
		return s, decimalPattern.MatchString(s)
	}
	return integerText(v)
}

// Text is TEXT, VARCHAR(Length), CHAR(Length) or CITEXT.
type Text struct {
	Length          int
	Fixed           bool
	CaseInsensitive bool
}

func (Text) Kind() Kind { return KindText }

func (t Text) SQL(d dialect.Dialect) string {
	switch {
	case d.Name() == dialect.MySQL && t.Length > 0:
		return "CHAR(" + strconv.Itoa(t.Length) + ")"
	case d.Name() == dialect.MySQL:
		return "CHAR"
	case t.Fixed && t.Length > 0:
		return "CHAR(" + strconv.Itoa(t.Length) + ")"
	case t.Length > 0:
		return "VARCHAR(" + strconv.Itoa(t.Length) + ")"
	case t.CaseInsensitive && d.Name() == dialect.Postgres:
		return "CITEXT"
	default:
		return "TEXT"
	}
}

func (t Text) Validate(v any) error {
	if _, ok := v.(string); !ok {
		return invalid(v, "string", "")
	}
	return nil
}

func (t Text) Literal(v any, d dialect.Dialect) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(v, "string", "")
	}
	return stringLiteral(s, "string", d)
}

// stringLiteral escapes s for d. Dialects without backslash escapes have no
// way to write a NUL byte in a string literal, so such values are rejected
// rather than altered.
func stringLiteral(s, typ string, d dialect.Dialect) (string, error) {
	if !d.BackslashEscapes() && strings.IndexByte(s, 0) >= 0 {
		return "", invalid(s, typ, fmt.Sprintf("NUL bytes cannot be written as a %s string literal", d.Name()))
	}
	return d.EscapeString(s), nil
}

func (t Text) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, invalid(v, "string", "")
	}
	return s, nil
}

// Boolean is BOOLEAN.
type Boolean struct{}

func (Boolean) Kind() Kind { return KindBoolean }

func (Boolean) SQL(dialect.Dialect) string { return "BOOLEAN" }

func (Boolean) Validate(v any) error {
	if _, ok := parseBool(v); !ok {
		return invalid(v, "boolean", "")
	}
	return nil
}

func (Boolean) Literal(v any, d dialect.Dialect) (string, error) {
	b, ok := parseBool(v)
	if !ok {
		return "", invalid(v, "boolean", "")
	}
	return d.BooleanLiteral(b), nil
}

func (Boolean) BindValue(v any, _ dialect.Dialect) (any, error) {
	b, ok := parseBool(v)
	if !ok {
		return nil, invalid(v, "boolean", "")
	}
	return b, nil
}

func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "1":
			return true, true
		case "false", "f", "0":
			return false, true
		}
		return false, false
	}
	if s, ok := integerText(v); ok {
		switch s {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}
	return false, false
}
