package querysql

import (
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// opHandler renders a leaf whose operator needs more than the generic
// binary form.
type opHandler func(p *pass, l leafExpr) (string, error)

func operatorHandlers() map[queryir.Op]opHandler {
	return map[queryir.Op]opHandler{
		queryir.OpIn:            (*pass).in,
		queryir.OpNotIn:         (*pass).in,
		queryir.OpIs:            (*pass).is,
		queryir.OpIsNot:         (*pass).is,
		queryir.OpBetween:       (*pass).between,
		queryir.OpNotBetween:    (*pass).between,
		queryir.OpContains:      (*pass).contains,
		queryir.OpContained:     (*pass).contained,
		queryir.OpStartsWith:    (*pass).pattern,
		queryir.OpNotStartsWith: (*pass).pattern,
		queryir.OpEndsWith:      (*pass).pattern,
		queryir.OpNotEndsWith:   (*pass).pattern,
		queryir.OpSubstring:     (*pass).pattern,
		queryir.OpNotSubstring:  (*pass).pattern,
		queryir.OpAnyKeyExists:  (*pass).keyExists,
		queryir.OpAllKeysExist:  (*pass).keyExists,
	}
}

// operator returns the dialect's text for op.
func (p *pass) operator(op queryir.Op, n queryir.Node) (string, error) {
	text, ok := p.d.Operator(op)
	if !ok {
		return "", newError(ErrUnsupportedOperator, n,
			"operator %s is not supported by dialect %s", op, p.d.Name())
	}
	return text, nil
}

// binary is the generic "left op right" form. The right side is escaped
// with its own type, falling back to the left type.
func (p *pass) binary(l leafExpr) (string, error) {
	hint := l.rightType
	if hint == nil {
		hint = l.leftType
	}

	var right string
	var err error
	if q, ok := l.right.(queryir.Quantified); ok {
		right, err = p.quantified(q, hint)
	} else {
		right, err = p.escapeNode(l.right, hint)
	}
	if err != nil {
		return "", err
	}
	return p.binarySQL(l, l.op, right)
}

// binarySQL joins the formatted left side, the operator and an already
// rendered right side.
func (p *pass) binarySQL(l leafExpr, op queryir.Op, right string) (string, error) {
	text, err := p.operator(op, l.right)
	if err != nil {
		return "", err
	}
	left, err := p.formatOperand(l.left, l.leftType)
	if err != nil {
		return "", err
	}
	return left + " " + text + " " + right, nil
}

func (p *pass) in(l leafExpr) (string, error) {
	switch r := l.right.(type) {
	case queryir.Literal:
		sql, err := p.format(r, nil)
		if err != nil {
			return "", err
		}
		return p.binarySQL(l, l.op, sql)
	case queryir.List:
		if len(r) == 0 {
			if l.op == queryir.OpNotIn {
				return "", nil
			}
			return p.binarySQL(l, queryir.OpIn, "(NULL)")
		}
		hint := l.rightType
		if hint == nil {
			hint = l.leftType
		}
		list, err := p.escapeList(r, hint)
		if err != nil {
			return "", err
		}
		return p.binarySQL(l, l.op, list)
	}
	return "", malformed(l.right, "%s expects a list or a literal", l.op)
}

func (p *pass) is(l leafExpr) (string, error) {
	var right string
	switch r := l.right.(type) {
	case queryir.Scalar, queryir.Value:
		v, _ := queryir.Plain(r)
		b, ok := v.(bool)
		switch {
		case v == nil:
			right = "NULL"
		case ok:
			right = p.d.BooleanLiteral(b)
		default:
			return "", malformed(r, "%s expects null, a boolean or a literal", l.op)
		}
	case queryir.Literal:
		sql, err := p.format(r, nil)
		if err != nil {
			return "", err
		}
		right = sql
	default:
		return "", malformed(l.right, "%s expects null, a boolean or a literal", l.op)
	}
	return p.binarySQL(l, l.op, right)
}

func (p *pass) between(l leafExpr) (string, error) {
	hint := l.rightType
	if hint == nil {
		hint = l.leftType
	}

	switch r := l.right.(type) {
	case queryir.Literal:
		sql, err := p.format(r, nil)
		if err != nil {
			return "", err
		}
		return p.binarySQL(l, l.op, sql)
	case queryir.List:
		if len(r) != 2 {
			break
		}
		lo, err := p.escapeNode(r[0], hint)
		if err != nil {
			return "", err
		}
		hi, err := p.escapeNode(r[1], hint)
		if err != nil {
			return "", err
		}
		return p.binarySQL(l, l.op, lo+" AND "+hi)
	}
	return "", malformed(l.right, "%s expects a two-element list or a literal", l.op)
}

// contains types a point tested against a range with the range element
// type.
func (p *pass) contains(l leafExpr) (string, error) {
	if l.rightType == nil && types.IsRange(l.leftType) && !isList(l.right) {
		l.rightType = types.Element(l.leftType)
	}
	return p.binary(l)
}

// contained types a two-element list tested against a plain column as a
// range over the column type.
func (p *pass) contained(l leafExpr) (string, error) {
	plain := l.leftType != nil && !types.IsRange(l.leftType) && !types.IsArray(l.leftType)
	if l.rightType == nil && plain && isList(l.right) {
		l.rightType = types.Range{Elem: l.leftType}
	}
	return p.binary(l)
}

// pattern rewrites the starts/ends/substring family to LIKE.
func (p *pass) pattern(l leafExpr) (string, error) {
	like := queryir.OpLike
	prefix, suffix := false, false
	switch l.op {
	case queryir.OpStartsWith:
		suffix = true
	case queryir.OpNotStartsWith:
		like, suffix = queryir.OpNotLike, true
	case queryir.OpEndsWith:
		prefix = true
	case queryir.OpNotEndsWith:
		like, prefix = queryir.OpNotLike, true
	case queryir.OpSubstring:
		prefix, suffix = true, true
	case queryir.OpNotSubstring:
		like, prefix, suffix = queryir.OpNotLike, true, true
	}

	if s, ok := stringValue(l.right); ok || isEmptyString(l.right) {
		if prefix {
			s = "%" + s
		}
		if suffix {
			s += "%"
		}
		right, err := p.escapeValue(s, types.Text{}, l.right)
		if err != nil {
			return "", err
		}
		return p.binarySQL(l, like, right)
	}

	if _, ok := l.right.(queryir.Scalar); ok || isList(l.right) || !isOperand(l.right) {
		return "", malformed(l.right, "%s expects a string or an expression", l.op)
	}

	operand, err := p.formatOperand(l.right, types.Text{})
	if err != nil {
		return "", err
	}
	percent := p.d.EscapeString("%")
	parts := make([]string, 0, 3)
	if prefix {
		parts = append(parts, percent)
	}
	parts = append(parts, operand)
	if suffix {
		parts = append(parts, percent)
	}
	return p.binarySQL(l, like, p.d.Concat(parts...))
}

// keyExists types the key list as an array of text.
func (p *pass) keyExists(l leafExpr) (string, error) {
	l.rightType = types.Array{Elem: types.Text{}}
	return p.binary(l)
}

func isEmptyString(n queryir.Node) bool {
	switch t := n.(type) {
	case queryir.Scalar:
		return t.V == ""
	case queryir.Value:
		return t.V == ""
	}
	return false
}

func isOperand(n queryir.Node) bool {
	_, ok := n.(queryir.Operand)
	return ok
}
