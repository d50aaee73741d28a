package types

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/ir"
)

// UUID is a UUID stored in its canonical text form.
type UUID struct{}

func (UUID) Kind() Kind { return KindUUID }

func (UUID) SQL(d dialect.Dialect) string {
	switch d.Name() {
	case dialect.Postgres:
		return "UUID"
	case dialect.SQLite:
		return "TEXT"
	default:
		return "CHAR(36)"
	}
}

func parseUUID(v any) (uuid.UUID, bool) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, true
	case [16]byte:
		return uuid.UUID(u), true
	case string:
		parsed, err := uuid.Parse(strings.TrimSpace(u))
		return parsed, err == nil
	}
	return uuid.Nil, false
}

func (UUID) Validate(v any) error {
	if _, ok := parseUUID(v); !ok {
		return invalid(v, "uuid", "")
	}
	return nil
}

func (UUID) Literal(v any, d dialect.Dialect) (string, error) {
	u, ok := parseUUID(v)
	if !ok {
		return "", invalid(v, "uuid", "")
	}
	return d.EscapeString(u.String()), nil
}

func (UUID) BindValue(v any, _ dialect.Dialect) (any, error) {
	u, ok := parseUUID(v)
	if !ok {
		return nil, invalid(v, "uuid", "")
	}
	return u.String(), nil
}

// JSON is JSON, or JSONB when Binary is set. Values are serialized as
// canonical JSON text.
type JSON struct {
	Binary bool
}

func (JSON) Kind() Kind { return KindJSON }

func (t JSON) SQL(d dialect.Dialect) string {
	if t.Binary && d.Name() == dialect.Postgres {
		return "JSONB"
	}
	return "JSON"
}

func (JSON) Validate(v any) error {
	if _, err := ir.MarshalCanonical(v); err != nil {
		return invalid(v, "json", err.Error())
	}
	return nil
}

func (JSON) Literal(v any, d dialect.Dialect) (string, error) {
	raw, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", invalid(v, "json", err.Error())
	}
	return d.EscapeString(string(raw)), nil
}

func (JSON) BindValue(v any, _ dialect.Dialect) (any, error) {
	raw, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, invalid(v, "json", err.Error())
	}
	return string(raw), nil
}

// Blob is binary data.
type Blob struct{}

func (Blob) Kind() Kind { return KindBlob }

func (Blob) SQL(d dialect.Dialect) string {
	if d.Name() == dialect.Postgres {
		return "BYTEA"
	}
	return "BLOB"
}

func toBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	return nil, false
}

func (Blob) Validate(v any) error {
	if _, ok := toBytes(v); !ok {
		return invalid(v, "blob", "")
	}
	return nil
}

func (Blob) Literal(v any, d dialect.Dialect) (string, error) {
	b, ok := toBytes(v)
	if !ok {
		return "", invalid(v, "blob", "")
	}
	return d.BlobLiteral(b), nil
}

func (Blob) BindValue(v any, _ dialect.Dialect) (any, error) {
	b, ok := toBytes(v)
	if !ok {
		return nil, invalid(v, "blob", "")
	}
	return b, nil
}

// Enum is a string restricted to Values.
type Enum struct {
	Values []string
}

func (Enum) Kind() Kind { return KindEnum }

func (t Enum) SQL(d dialect.Dialect) string {
	if d.Name() != dialect.MySQL {
		return "TEXT"
	}
	quoted := make([]string, len(t.Values))
	for i, v := range t.Values {
		quoted[i] = d.EscapeString(v)
	}
	return "ENUM(" + strings.Join(quoted, ",") + ")"
}

func (t Enum) Validate(v any) error {
	s, ok := v.(string)
	if !ok {
		return invalid(v, "enum", "")
	}
	for _, allowed := range t.Values {
		if s == allowed {
			return nil
		}
	}
	return invalid(v, "enum", fmt.Sprintf("expected one of %s", strings.Join(t.Values, ", ")))
}

func (t Enum) Literal(v any, d dialect.Dialect) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(v, "enum", "")
	}
	return stringLiteral(s, "enum", d)
}

func (t Enum) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, invalid(v, "enum", "")
	}
	return s, nil
}

// Named is a type known only by name. It carries no escaping rules: values
// are rendered by their runtime shape, and the name is used verbatim in
// casts.
type Named struct {
	Name string
}

func (Named) Kind() Kind { return KindNamed }

func (t Named) SQL(dialect.Dialect) string { return t.Name }

func (Named) Validate(any) error { return nil }

func (Named) Literal(v any, d dialect.Dialect) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	return Infer(v).Literal(v, d)
}

func (Named) BindValue(v any, d dialect.Dialect) (any, error) {
	if v == nil {
		return nil, nil
	}
	return Infer(v).BindValue(v, d)
}

// elements returns the items of a slice or array value.
func elements(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
