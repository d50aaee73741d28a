// Package types defines the semantic types that drive value escaping and
// casting: how a value is validated, rendered as a literal and passed as a
// bind parameter for a given dialect.
package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/wherec/internal/dialect"
)

// Kind classifies a Type.
type Kind int

const (
	KindNamed Kind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindText
	KindBoolean
	KindDate
	KindDateOnly
	KindTime
	KindUUID
	KindJSON
	KindBlob
	KindEnum
	KindArray
	KindRange
)

// Type is a semantic type. Implementations are immutable values.
type Type interface {
	Kind() Kind
	// SQL returns the type name used in CAST expressions and DDL.
	SQL(d dialect.Dialect) string
	// Validate reports whether v is acceptable for the type.
	Validate(v any) error
	// Literal renders v as an inline SQL literal.
	Literal(v any, d dialect.Dialect) (string, error)
	// BindValue converts v into the value handed to the driver.
	BindValue(v any, d dialect.Dialect) (any, error)
}

// IsJSON reports whether t is JSON or JSONB.
func IsJSON(t Type) bool { return t != nil && t.Kind() == KindJSON }

// IsArray reports whether t is an array type.
func IsArray(t Type) bool { return t != nil && t.Kind() == KindArray }

// IsRange reports whether t is a range type.
func IsRange(t Type) bool { return t != nil && t.Kind() == KindRange }

// HasRules reports whether t carries escaping rules of its own. Nil and
// Named types do not: values are escaped by their runtime shape.
func HasRules(t Type) bool { return t != nil && t.Kind() != KindNamed }

// Element returns the element type of an array or range, or nil.
func Element(t Type) Type {
	switch tt := t.(type) {
	case Array:
		return tt.Elem
	case Range:
		return tt.Elem
	}
	return nil
}

// Parse resolves a type name: INTEGER, BIGINT, FLOAT, DOUBLE, DECIMAL(10,2),
// TEXT, VARCHAR(255), CHAR(3), CITEXT, BOOLEAN, TIMESTAMP, DATE, TIME, UUID,
// JSON, JSONB, BLOB, ENUM('a','b'), T[], ARRAY(T), RANGE(T) and the postgres
// range names (int4range, daterange...). Matching is case-insensitive.
func Parse(name string) (Type, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return nil, fmt.Errorf("empty type name")
	}

	if strings.HasSuffix(s, "[]") {
		elem, err := Parse(s[:len(s)-2])
		if err != nil {
			return nil, err
		}
		return Array{Elem: elem}, nil
	}

	base, args := splitArgs(s)
	switch strings.ToUpper(base) {
	case "ARRAY", "RANGE":
		if args == "" {
			return nil, fmt.Errorf("type %q needs an element type", name)
		}
		elem, err := Parse(args)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(base, "ARRAY") {
			return Array{Elem: elem}, nil
		}
		return Range{Elem: elem}, nil
	case "ENUM":
		values, err := parseEnumValues(args)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", name, err)
		}
		return Enum{Values: values}, nil
	case "INTEGER", "INT", "INT4", "SMALLINT", "INT2", "TINYINT", "MEDIUMINT", "SERIAL", "SIGNED":
		return Integer{}, nil
	case "BIGINT", "INT8", "BIGSERIAL":
		return Integer{Big: true}, nil
	case "FLOAT", "REAL", "FLOAT4":
		return Float{}, nil
	case "DOUBLE", "DOUBLE PRECISION", "FLOAT8":
		return Float{Double: true}, nil
	case "DECIMAL", "NUMERIC":
		return parseDecimal(name, args)
	case "TEXT", "STRING", "VARCHAR", "CHARACTER VARYING":
		n, err := parseLength(name, args)
		return Text{Length: n}, err
	case "CHAR", "CHARACTER":
		n, err := parseLength(name, args)
		return Text{Length: n, Fixed: true}, err
	case "CITEXT":
		return Text{CaseInsensitive: true}, nil
	case "BOOLEAN", "BOOL":
		return Boolean{}, nil
	case "TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "DATETIME":
		return Date{}, nil
	case "DATE", "DATEONLY":
		return DateOnly{}, nil
	case "TIME":
		return Time{}, nil
	case "UUID":
		return UUID{}, nil
	case "JSON":
		return JSON{}, nil
	case "JSONB":
		return JSON{Binary: true}, nil
	case "BLOB", "BYTEA", "BINARY", "VARBINARY":
		return Blob{}, nil
	case "INT4RANGE":
		return Range{Elem: Integer{}}, nil
	case "INT8RANGE":
		return Range{Elem: Integer{Big: true}}, nil
	case "NUMRANGE":
		return Range{Elem: Decimal{}}, nil
	case "TSRANGE", "TSTZRANGE":
		return Range{Elem: Date{}}, nil
	case "DATERANGE":
		return Range{Elem: DateOnly{}}, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

// ParseOrNamed is Parse with unknown names kept as Named types. Cast targets
// use it so that any dialect type name can be written.
func ParseOrNamed(name string) Type {
	t, err := Parse(name)
	if err != nil {
		return Named{Name: strings.TrimSpace(name)}
	}
	return t
}

func splitArgs(s string) (base, args string) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return s, ""
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : len(s)-1])
}

func parseLength(name, args string) (int, error) {
	if args == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("type %q: invalid length %q", name, args)
	}
	return n, nil
}

func parseDecimal(name, args string) (Type, error) {
	if args == "" {
		return Decimal{}, nil
	}
	p, s, _ := strings.Cut(args, ",")
	precision, err := strconv.Atoi(strings.TrimSpace(p))
	if err != nil {
		return nil, fmt.Errorf("type %q: invalid precision %q", name, p)
	}
	scale := 0
	if s != "" {
		if scale, err = strconv.Atoi(strings.TrimSpace(s)); err != nil {
			return nil, fmt.Errorf("type %q: invalid scale %q", name, s)
		}
	}
	return Decimal{Precision: precision, Scale: scale}, nil
}

func parseEnumValues(args string) ([]string, error) {
	if args == "" {
		return nil, fmt.Errorf("enum needs at least one value")
	}
	var values []string
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		if len(part) < 2 || part[0] != '\'' || part[len(part)-1] != '\'' {
			return nil, fmt.Errorf("enum value %s must be single-quoted", part)
		}
		values = append(values, strings.ReplaceAll(part[1:len(part)-1], "''", "'"))
	}
	return values, nil
}
