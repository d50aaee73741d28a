// Package dialect provides the SQL dialect services the where-tree compiler
// consumes: identifier quoting, string escaping, placeholders, the operator
// table, capability flags and JSON extraction syntax.
package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/wherec/internal/queryir"
)

// Name identifies a dialect.
type Name string

const (
	Postgres Name = "postgres"
	SQLite   Name = "sqlite"
	MySQL    Name = "mysql"
	ANSI     Name = "ansi"
)

// Feature is an optional capability.
type Feature int

const (
	FeatureJSON Feature = iota + 1
	FeatureArrays
	FeatureRanges
)

func (f Feature) String() string {
	switch f {
	case FeatureJSON:
		return "JSON operations"
	case FeatureArrays:
		return "array types"
	case FeatureRanges:
		return "range types"
	default:
		return "feature(" + strconv.Itoa(int(f)) + ")"
	}
}

// Dialect renders dialect-specific SQL text.
type Dialect interface {
	Name() Name

	// QuoteIdentifier quotes a single identifier part.
	QuoteIdentifier(name string) string
	// EscapeString renders s as a string literal, quotes included. Without
	// backslash escapes a NUL byte has no literal form and is omitted;
	// callers holding user values reject those first.
	EscapeString(s string) string
	// BackslashEscapes reports whether a backslash escapes the next
	// character inside string literals.
	BackslashEscapes() bool
	BooleanLiteral(b bool) string
	BlobLiteral(b []byte) string
	// Placeholder returns the bind placeholder for the n-th argument (1-based).
	Placeholder(n int) string

	// Operator returns the SQL text for op, or false when the dialect has none.
	Operator(op queryir.Op) (string, bool)
	Supports(f Feature) bool

	// JSONExtract traverses expr along path. unquote yields text instead of JSON.
	JSONExtract(expr string, path []queryir.PathSegment, unquote bool) string
	// Concat joins already rendered expressions as a string concatenation.
	Concat(parts ...string) string
}

// ByName returns the dialect registered under name.
func ByName(name string) (Dialect, error) {
	switch Name(strings.ToLower(name)) {
	case Postgres, "postgresql", "pg":
		return NewPostgres(), nil
	case SQLite, "sqlite3":
		return NewSQLite(), nil
	case MySQL, "mariadb":
		return NewMySQL(), nil
	case ANSI, "generic":
		return NewANSI(), nil
	}
	return nil, fmt.Errorf("unknown dialect %q: must be one of %v", name, Names())
}

// Names lists the canonical dialect names.
func Names() []string {
	names := []string{string(Postgres), string(SQLite), string(MySQL), string(ANSI)}
	sort.Strings(names)
	return names
}

// All returns one instance of every dialect, ordered by name.
func All() []Dialect {
	out := make([]Dialect, 0, 4)
	for _, n := range Names() {
		d, _ := ByName(n)
		out = append(out, d)
	}
	return out
}

// QuoteQualified quotes every dot-separated part of name with d. A "*" part
// is left bare.
func QuoteQualified(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

var baseOperators = map[queryir.Op]string{
	queryir.OpEq:         "=",
	queryir.OpNe:         "!=",
	queryir.OpGt:         ">",
	queryir.OpGte:        ">=",
	queryir.OpLt:         "<",
	queryir.OpLte:        "<=",
	queryir.OpIs:         "IS",
	queryir.OpIsNot:      "IS NOT",
	queryir.OpIn:         "IN",
	queryir.OpNotIn:      "NOT IN",
	queryir.OpLike:       "LIKE",
	queryir.OpNotLike:    "NOT LIKE",
	queryir.OpBetween:    "BETWEEN",
	queryir.OpNotBetween: "NOT BETWEEN",
}

func withOperators(extra map[queryir.Op]string) map[queryir.Op]string {
	ops := make(map[queryir.Op]string, len(baseOperators)+len(extra))
	for op, text := range baseOperators {
		ops[op] = text
	}
	for op, text := range extra {
		ops[op] = text
	}
	return ops
}

// dialect is the shared implementation; each constructor fills in the
// dialect-specific rendering choices.
type dialect struct {
	name            Name
	identQuote      byte
	backslashEscape bool
	numberedParams  bool
	numericBooleans bool
	concatFunc      bool
	jsonStyle       jsonStyle
	features        map[Feature]bool
	operators       map[queryir.Op]string
}

type jsonStyle int

const (
	jsonNone jsonStyle = iota
	jsonArrows
	jsonArrowsPath
	jsonExtractFunc
)

func (d *dialect) Name() Name { return d.name }

func (d *dialect) QuoteIdentifier(name string) string {
	q := string(d.identQuote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func (d *dialect) EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 0 && !d.backslashEscape:
			continue
		case c == '\'' && !d.backslashEscape:
			b.WriteString("''")
		case d.backslashEscape:
			switch c {
			case 0:
				b.WriteString(`\0`)
			case '\b':
				b.WriteString(`\b`)
			case '\t':
				b.WriteString(`\t`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case 0x1a:
				b.WriteString(`\Z`)
			case '\\', '\'', '"':
				b.WriteByte('\\')
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func (d *dialect) BackslashEscapes() bool { return d.backslashEscape }

func (d *dialect) BooleanLiteral(v bool) string {
	switch {
	case d.numericBooleans && v:
		return "1"
	case d.numericBooleans:
		return "0"
	case v:
		return "true"
	default:
		return "false"
	}
}

func (d *dialect) BlobLiteral(b []byte) string {
	hex := fmt.Sprintf("%X", b)
	if d.name == Postgres {
		return `'\x` + hex + `'`
	}
	return "X'" + hex + "'"
}

func (d *dialect) Placeholder(n int) string {
	if d.numberedParams {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d *dialect) Operator(op queryir.Op) (string, bool) {
	text, ok := d.operators[op]
	return text, ok
}

func (d *dialect) Supports(f Feature) bool {
	return d.features[f]
}

func (d *dialect) JSONExtract(expr string, path []queryir.PathSegment, unquote bool) string {
	switch d.jsonStyle {
	case jsonArrows:
		var b strings.Builder
		b.WriteString(expr)
		for i, seg := range path {
			if unquote && i == len(path)-1 {
				b.WriteString("->>")
			} else {
				b.WriteString("->")
			}
			if seg.IsIndex {
				b.WriteString(strconv.Itoa(seg.Index))
			} else {
				b.WriteString(d.EscapeString(seg.Key))
			}
		}
		return b.String()
	case jsonArrowsPath:
		op := "->"
		if unquote {
			op = "->>"
		}
		return expr + op + d.EscapeString(JSONPathString(path))
	case jsonExtractFunc:
		extract := fmt.Sprintf("json_extract(%s,%s)", expr, d.EscapeString(JSONPathString(path)))
		if unquote {
			return "json_unquote(" + extract + ")"
		}
		return extract
	default:
		return expr
	}
}

func (d *dialect) Concat(parts ...string) string {
	if d.concatFunc {
		return "CONCAT(" + strings.Join(parts, ", ") + ")"
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

// JSONPathString renders path in SQL/JSON path syntax: $.a."b c"[0]
func JSONPathString(path []queryir.PathSegment) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range path {
		if seg.IsIndex {
			fmt.Fprintf(&b, "[%d]", seg.Index)
			continue
		}
		b.WriteByte('.')
		if isPlainKey(seg.Key) {
			b.WriteString(seg.Key)
		} else {
			b.WriteString(strconv.Quote(seg.Key))
		}
	}
	return b.String()
}

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
