package queryir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Describe renders n as compact, deterministic text for error messages.
// Maps keep declaration order and operands use a call-like notation:
//
//	{"name":"John","$or":[{"age":{"$gt":3}},where(attr(flag) $is null)]}
func Describe(n Node) string {
	var b strings.Builder
	describe(&b, n)
	return b.String()
}

func describe(b *strings.Builder, n Node) {
	switch t := n.(type) {
	case nil:
		b.WriteString("null")
	case Scalar:
		describeScalar(b, t.V)
	case List:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			describe(b, e)
		}
		b.WriteByte(']')
	case *Map:
		b.WriteByte('{')
		for i, e := range t.Entries() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(e.Key.String()))
			b.WriteByte(':')
			describe(b, e.Value)
		}
		b.WriteByte('}')
	case undefined:
		b.WriteString("undefined")
	case Attribute:
		fmt.Fprintf(b, "attr(%s)", t.Name)
	case Col:
		fmt.Fprintf(b, "col(%s)", t.Name)
	case Literal:
		fmt.Fprintf(b, "literal(%s)", strconv.Quote(t.SQL))
	case Fn:
		fmt.Fprintf(b, "fn(%s", t.Name)
		for _, a := range t.Args {
			b.WriteString(", ")
			describe(b, a)
		}
		b.WriteByte(')')
	case Cast:
		b.WriteString("cast(")
		describe(b, t.Expr)
		fmt.Fprintf(b, " AS %s)", t.Type)
	case Value:
		b.WriteString("value(")
		describeScalar(b, t.V)
		if t.Type != "" {
			fmt.Fprintf(b, "::%s", t.Type)
		}
		b.WriteByte(')')
	case JSONPath:
		b.WriteString("json(")
		describe(b, t.Base)
		b.WriteString(", ")
		b.WriteString(FormatPath(t.Path))
		if t.Unquote {
			b.WriteString(":unquote")
		}
		b.WriteByte(')')
	case AssocPath:
		fmt.Fprintf(b, "assoc(%s)", strings.Join(append(append([]string(nil), t.Associations...), t.Attribute), "."))
	case Where:
		b.WriteString("where(")
		describe(b, t.Left)
		if t.Op != OpInvalid {
			fmt.Fprintf(b, " %s ", t.Op)
		} else {
			b.WriteString(", ")
		}
		describe(b, t.Right)
		b.WriteByte(')')
	case Quantified:
		fmt.Fprintf(b, "%s(", t.Quantifier)
		describe(b, t.Values)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%T", n)
	}
}

func describeScalar(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(t))
	case time.Time:
		b.WriteString(strconv.Quote(t.UTC().Format(time.RFC3339Nano)))
	case []byte:
		fmt.Fprintf(b, "bytes(%d)", len(t))
	case json.Number:
		b.WriteString(t.String())
	case fmt.Stringer:
		b.WriteString(strconv.Quote(t.String()))
	default:
		fmt.Fprintf(b, "%v", t)
	}
}

// FormatPath renders a JSON path in dotted form: a.b[0].c
func FormatPath(path []PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		if seg.IsIndex {
			fmt.Fprintf(&b, "[%d]", seg.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}
