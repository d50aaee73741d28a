package querysql

import (
	"strings"

	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// conjunction is the connective pass. joiner is the connective applied to
// the members of a list or map: AND by default, OR under $or.
func (p *pass) conjunction(n queryir.Node, joiner queryir.Op) (string, error) {
	switch t := n.(type) {
	case queryir.List:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if isNull(e) {
				continue
			}
			sql, err := p.conjunction(e, queryir.OpAnd)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		return joinWithLogicalOperator(parts, joiner), nil
	case *queryir.Map:
		return p.connectiveMap(t, joiner)
	}

	if queryir.IsBooleanExpression(n) {
		return p.format(n, nil)
	}
	return "", malformed(n, "a filter must be a list, an object or a boolean expression")
}

func (p *pass) connectiveMap(m *queryir.Map, joiner queryir.Op) (string, error) {
	entries := orderedEntries(m)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var sql string
		var err error

		switch {
		case !e.Key.IsOp():
			var left queryir.Operand
			left, err = p.attributeKey(e.Key.Name)
			if err != nil {
				return "", err
			}
			sql, err = p.attribute(left, e.Value)
		case e.Key.Op == queryir.OpNot:
			sql, err = p.conjunction(e.Value, queryir.OpAnd)
			sql = wrapWithNot(sql, p.d.BackslashEscapes())
		case e.Key.Op == queryir.OpAnd, e.Key.Op == queryir.OpOr:
			sql, err = p.conjunction(e.Value, e.Key.Op)
		default:
			return "", malformed(m, "unsupported operator %s at this position", e.Key.Op)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return joinWithLogicalOperator(parts, joiner), nil
}

// attribute compiles the value of an attribute. JSON path descent is
// allowed when the left type is JSON or unknown.
func (p *pass) attribute(left queryir.Operand, value queryir.Node) (string, error) {
	leftType := p.resolveType(left)
	return p.attributeValue(left, leftType, value, queryir.OpAnd)
}

// attributeValue is the attribute pass.
func (p *pass) attributeValue(left queryir.Operand, leftType types.Type, value queryir.Node, joiner queryir.Op) (string, error) {
	allowPath := leftType == nil || types.IsJSON(leftType)

	m, ok := value.(*queryir.Map)
	if !ok || (!allowPath && m.HasAttributeKeys()) {
		return p.leaf(left, leftType, queryir.OpInvalid, value)
	}

	entries := orderedEntries(m)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var sql string
		var err error

		switch {
		case !e.Key.IsOp():
			var nested queryir.Operand
			nested, err = p.nestedKey(left, e.Key.Name)
			if err != nil {
				return "", err
			}
			sql, err = p.attributeValue(nested, p.resolveType(nested), e.Value, queryir.OpAnd)
		case e.Key.Op == queryir.OpNot:
			sql, err = p.attributeValue(left, leftType, e.Value, queryir.OpAnd)
			sql = wrapWithNot(sql, p.d.BackslashEscapes())
		case e.Key.Op == queryir.OpAnd, e.Key.Op == queryir.OpOr:
			sql, err = p.attributeConnective(left, leftType, e.Key.Op, e.Value)
		default:
			sql, err = p.leaf(left, leftType, e.Key.Op, e.Value)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return joinWithLogicalOperator(parts, joiner), nil
}

func (p *pass) attributeConnective(left queryir.Operand, leftType types.Type, op queryir.Op, value queryir.Node) (string, error) {
	list, ok := value.(queryir.List)
	if !ok {
		return p.attributeValue(left, leftType, value, op)
	}
	parts := make([]string, 0, len(list))
	for _, e := range list {
		sql, err := p.attributeValue(left, leftType, e, queryir.OpAnd)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return joinWithLogicalOperator(parts, op), nil
}

// leafExpr is one resolved comparison.
type leafExpr struct {
	left      queryir.Operand
	leftType  types.Type
	op        queryir.Op
	right     queryir.Node
	rightType types.Type
}

// leaf resolves and renders one comparison. op is OpInvalid when the
// operator is to be inferred from the value.
func (p *pass) leaf(left queryir.Operand, leftType types.Type, op queryir.Op, right queryir.Node) (string, error) {
	if right == nil {
		right = queryir.Null
	}

	if op == queryir.OpInvalid {
		switch {
		case isList(right) && !types.IsArray(leftType):
			op = queryir.OpIn
		case isNull(right):
			op = queryir.OpIs
		default:
			op = queryir.OpEq
		}
	}

	if isNull(right) {
		switch op {
		case queryir.OpEq:
			op = queryir.OpIs
		case queryir.OpNe:
			op = queryir.OpIsNot
		}
	}

	switch op {
	case queryir.OpCol:
		name, ok := stringValue(right)
		if !ok {
			return "", malformed(right, "%s expects a column name", op)
		}
		op, right = queryir.OpEq, queryir.Column(name)
	case queryir.OpAny, queryir.OpAll:
		op, right = queryir.OpEq, queryir.Quantified{Quantifier: op, Values: right}
	}

	if m, ok := right.(*queryir.Map); ok && m.Len() == 1 {
		e := m.Entries()[0]
		switch e.Key.Op {
		case queryir.OpAny, queryir.OpAll:
			right = queryir.Quantified{Quantifier: e.Key.Op, Values: e.Value}
		case queryir.OpCol:
			name, ok := stringValue(e.Value)
			if !ok {
				return "", malformed(right, "%s expects a column name", e.Key.Op)
			}
			right = queryir.Column(name)
		}
	}

	l := leafExpr{
		left:      left,
		leftType:  leftType,
		op:        op,
		right:     right,
		rightType: p.resolveType(right),
	}
	if h, ok := p.c.handlers[op]; ok {
		return h(p, l)
	}
	return p.binary(l)
}

// orderedEntries returns attribute keys first, then operator keys, each
// in declaration order.
func orderedEntries(m *queryir.Map) []queryir.Entry {
	all := m.Entries()
	out := make([]queryir.Entry, 0, len(all))
	for _, e := range all {
		if !e.Key.IsOp() {
			out = append(out, e)
		}
	}
	for _, e := range all {
		if e.Key.IsOp() {
			out = append(out, e)
		}
	}
	return out
}

// joinWithLogicalOperator drops empty fragments and joins the rest with
// AND or OR. With more than one fragment, any fragment containing AND or
// OR is parenthesized.
func joinWithLogicalOperator(parts []string, op queryir.Op) string {
	kept := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			kept = append(kept, s)
		}
	}

	switch len(kept) {
	case 0:
		return ""
	case 1:
		return kept[0]
	}

	sep := " AND "
	if op == queryir.OpOr {
		sep = " OR "
	}
	for i, s := range kept {
		upper := strings.ToUpper(s)
		if strings.Contains(upper, " AND ") || strings.Contains(upper, " OR ") {
			kept[i] = "(" + s + ")"
		}
	}
	return strings.Join(kept, sep)
}

// wrapWithNot negates sql. A fragment that already is one parenthesized
// group gets only the NOT prefix.
func wrapWithNot(sql string, backslash bool) string {
	if sql == "" {
		return ""
	}
	if isWrapped(sql, backslash) {
		return "NOT " + sql
	}
	return "NOT (" + sql + ")"
}

// isWrapped reports whether sql is a single balanced parenthesized group.
// Parentheses inside quoted strings and identifiers are ignored. With
// backslash set, a backslash inside a string literal escapes the next byte.
func isWrapped(sql string, backslash bool) bool {
	if len(sql) < 2 || sql[0] != '(' || sql[len(sql)-1] != ')' {
		return false
	}
	depth := 0
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			switch {
			case c == '\\' && backslash && quote != '`':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(sql)-1 {
				return false
			}
		}
	}
	return depth == 0 && quote == 0
}

func isNull(n queryir.Node) bool {
	switch t := n.(type) {
	case nil:
		return true
	case queryir.Scalar:
		return t.V == nil
	case queryir.Value:
		return t.V == nil
	}
	return false
}

func isList(n queryir.Node) bool {
	_, ok := n.(queryir.List)
	return ok
}

func stringValue(n queryir.Node) (string, bool) {
	switch t := n.(type) {
	case queryir.Scalar:
		s, ok := t.V.(string)
		return s, ok && s != ""
	case queryir.Value:
		s, ok := t.V.(string)
		return s, ok && s != ""
	}
	return "", false
}
