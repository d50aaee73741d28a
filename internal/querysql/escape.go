package querysql

import (
	"strings"

	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// EscapeValue renders v as a literal, or as a placeholder when opts.Bind is
// set. v may be a plain Go value or a queryir node; boolean expression
// operands are formatted instead of escaped.
func (c *Compiler) EscapeValue(v any, opts EscapeOptions) (string, error) {
	p := c.newPass(CompileOptions{Bind: opts.Bind})
	return p.escapeNode(queryir.From(v), opts.Type)
}

// EscapeList renders values as a parenthesized list, escaping each element
// with opts.Type.
func (c *Compiler) EscapeList(values []any, opts EscapeOptions) (string, error) {
	p := c.newPass(CompileOptions{Bind: opts.Bind})
	list := make(queryir.List, len(values))
	for i, v := range values {
		list[i] = queryir.From(v)
	}
	return p.escapeList(list, opts.Type)
}

// escapeNode renders a node in value position.
func (p *pass) escapeNode(n queryir.Node, hint types.Type) (string, error) {
	switch t := n.(type) {
	case nil:
		return p.escapeValue(nil, hint, n)
	case queryir.Scalar:
		return p.escapeValue(t.V, hint, n)
	case queryir.Value:
		if t.Type != "" {
			hint = types.ParseOrNamed(t.Type)
		}
		return p.escapeValue(t.V, hint, n)
	case queryir.List:
		if types.IsArray(hint) || types.IsRange(hint) {
			v, ok := queryir.Plain(t)
			if !ok {
				return "", malformed(n, "an %s value cannot contain expressions", hint.SQL(p.d))
			}
			return p.escapeValue(v, hint, n)
		}
		return p.escapeList(t, hint)
	case *queryir.Map:
		v, ok := queryir.Plain(t)
		if !ok {
			return "", malformed(n, "an object value cannot contain expressions")
		}
		return p.escapeValue(v, hint, n)
	case queryir.Quantified:
		return p.quantified(t, hint)
	}
	if queryir.IsUndefined(n) {
		return "", newError(ErrUndefinedValue, n, "value is undefined")
	}
	return p.formatOperand(n, hint)
}

// escapeValue is the value escaper proper: NULL, type selection,
// validation, then a placeholder or an inline literal.
func (p *pass) escapeValue(v any, hint types.Type, n queryir.Node) (string, error) {
	if v == nil {
		if p.opts.Bind != nil {
			return p.opts.Bind.Bind(nil), nil
		}
		return "NULL", nil
	}

	typ := hint
	if !types.HasRules(typ) {
		typ = types.Infer(v)
	}
	if err := typ.Validate(v); err != nil {
		if p.c.validate {
			return "", valueError(err, n)
		}
		typ = types.Infer(v)
	}

	if p.opts.Bind != nil {
		bv, err := typ.BindValue(v, p.d)
		if err != nil {
			return "", valueError(err, n)
		}
		return p.opts.Bind.Bind(bv), nil
	}

	lit, err := typ.Literal(v, p.d)
	if err != nil {
		return "", valueError(err, n)
	}
	return lit, nil
}

// escapeList renders (e1, e2, ...). An array hint types the elements with
// its element type. An empty list has no SQL form and is rejected.
func (p *pass) escapeList(list queryir.List, hint types.Type) (string, error) {
	if len(list) == 0 {
		return "", malformed(list, "an empty list cannot be rendered as a value list")
	}
	if types.IsArray(hint) {
		hint = types.Element(hint)
	}
	parts := make([]string, len(list))
	for i, e := range list {
		s, err := p.escapeNode(e, hint)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}
