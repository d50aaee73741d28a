package querysql

import (
	"strings"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// format renders an operand. Scalars and lists are escaped, maps compiled
// as boolean expressions.
func (p *pass) format(n queryir.Node, hint types.Type) (string, error) {
	switch t := n.(type) {
	case queryir.Attribute:
		return p.column(t.Name), nil
	case queryir.Col:
		return dialect.QuoteQualified(p.d, t.Name), nil
	case queryir.Literal:
		return p.injectReplacements(t)
	case queryir.Fn:
		return p.function(t)
	case queryir.Cast:
		return p.cast(t)
	case queryir.JSONPath:
		return p.jsonPath(t)
	case queryir.AssocPath:
		return p.assocColumn(t), nil
	case queryir.Where:
		return p.where(t)
	case *queryir.Map:
		return p.conjunction(t, queryir.OpAnd)
	}
	return p.escapeNode(n, hint)
}

// formatOperand is format for an operand embedded in a larger
// expression: a boolean sub-expression containing whitespace is
// parenthesized so that "a = (b IS NULL)" cannot read as "(a = b) IS NULL".
func (p *pass) formatOperand(n queryir.Node, hint types.Type) (string, error) {
	sql, err := p.format(n, hint)
	if err != nil {
		return "", err
	}
	if _, ok := n.(queryir.Where); ok && strings.ContainsAny(sql, " \t\n") && !isWrapped(sql, p.d.BackslashEscapes()) {
		return "(" + sql + ")", nil
	}
	return sql, nil
}

// column renders a model attribute, mapped to its column and qualified
// with the prefix.
func (p *pass) column(name string) string {
	col := name
	if p.opts.Model != nil {
		col = p.opts.Model.ColumnName(name)
	}
	quoted := p.d.QuoteIdentifier(col)
	if p.opts.Prefix != "" {
		return dialect.QuoteQualified(p.d, p.opts.Prefix) + "." + quoted
	}
	return quoted
}

// assocColumn renders "owner->team"."column".
func (p *pass) assocColumn(a queryir.AssocPath) string {
	col := a.Attribute
	if p.opts.Model != nil {
		if target, ok := p.opts.Model.Association(a.Associations...); ok {
			col = target.ColumnName(a.Attribute)
		}
	}
	return p.d.QuoteIdentifier(strings.Join(a.Associations, "->")) + "." + p.d.QuoteIdentifier(col)
}

func (p *pass) function(fn queryir.Fn) (string, error) {
	args := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		s, err := p.formatOperand(a, nil)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	return fn.Name + "(" + strings.Join(args, ", ") + ")", nil
}

func (p *pass) cast(c queryir.Cast) (string, error) {
	typ := types.ParseOrNamed(c.Type)
	expr, err := p.formatOperand(c.Expr, nil)
	if err != nil {
		return "", err
	}
	return "CAST(" + expr + " AS " + typ.SQL(p.d) + ")", nil
}

func (p *pass) jsonPath(jp queryir.JSONPath) (string, error) {
	if !p.d.Supports(dialect.FeatureJSON) {
		return "", newError(ErrUnsupportedFeature, jp,
			"JSON paths are not supported by dialect %s", p.d.Name())
	}
	base, err := p.formatOperand(jp.Base, nil)
	if err != nil {
		return "", err
	}
	return p.d.JSONExtract(base, jp.Path, jp.Unquote), nil
}

// where renders a boolean sub-expression. Without an operator the right
// side is compiled as the value of the left operand.
func (p *pass) where(w queryir.Where) (string, error) {
	if w.Op == queryir.OpInvalid {
		return p.attribute(w.Left, w.Right)
	}
	return p.leaf(w.Left, p.resolveType(w.Left), w.Op, w.Right)
}

// quantified renders ANY (...) or ALL (...). A list becomes an array
// literal typed by hint.
func (p *pass) quantified(q queryir.Quantified, hint types.Type) (string, error) {
	keyword := "ANY"
	if q.Quantifier == queryir.OpAll {
		keyword = "ALL"
	}

	var inner string
	var err error
	switch v := q.Values.(type) {
	case queryir.Literal:
		inner, err = p.format(v, nil)
	case queryir.List:
		arr := hint
		if !types.IsArray(arr) {
			arr = nil
			if types.HasRules(hint) {
				arr = types.Array{Elem: hint}
			}
		}
		plain, ok := queryir.Plain(v)
		if !ok {
			return "", malformed(q, "%s values cannot contain expressions", keyword)
		}
		inner, err = p.escapeValue(plain, arr, q)
	default:
		inner, err = p.formatOperand(v, hint)
	}
	if err != nil {
		return "", err
	}
	return keyword + " (" + inner + ")", nil
}
