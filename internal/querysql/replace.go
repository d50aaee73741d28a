package querysql

import (
	"strings"

	"github.com/roach88/wherec/internal/queryir"
)

// injectReplacements substitutes ":name" placeholders in a raw fragment
// with escaped literals. Quoted strings, quoted identifiers and "::" casts
// are left untouched. A list value renders as a comma-separated list
// without parentheses.
func (p *pass) injectReplacements(lit queryir.Literal) (string, error) {
	if len(p.opts.PositionalReplacements) > 0 {
		return "", malformed(lit, "positional replacements are not supported in where fragments; use named replacements")
	}
	if len(p.opts.Replacements) == 0 {
		return lit.SQL, nil
	}

	sql := lit.SQL
	var b strings.Builder
	b.Grow(len(sql))

	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			b.WriteString("::")
			i++
		case c == ':' && i+1 < len(sql) && isNameStart(sql[i+1]) && (i == 0 || !isNameChar(sql[i-1])):
			j := i + 1
			for j < len(sql) && isNameChar(sql[j]) {
				j++
			}
			name := sql[i+1 : j]
			v, ok := p.opts.Replacements[name]
			if !ok {
				return "", malformed(lit, "named replacement :%s has no value", name)
			}
			s, err := p.replacement(v, lit)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// replacement renders a replacement value inline; replacements are never
// bound.
func (p *pass) replacement(v any, lit queryir.Literal) (string, error) {
	inline := &pass{c: p.c, d: p.d}
	n := queryir.From(v)
	if list, ok := n.(queryir.List); ok {
		parts := make([]string, len(list))
		for i, e := range list {
			s, err := inline.escapeNode(e, nil)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ", "), nil
	}
	if queryir.IsUndefined(n) {
		return "", newError(ErrUndefinedValue, lit, "replacement value is undefined")
	}
	return inline.escapeNode(n, nil)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
