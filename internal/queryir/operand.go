package queryir

// Operand is a node that renders as an SQL expression.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	Node
	operand() // Marker method - seals interface to this package
}

// Attribute references a model attribute by name. The compiler maps it to
// the declared column and quotes it.
type Attribute struct {
	Name string
}

// Col references an identifier verbatim. Dots separate qualifiers and "*"
// is left unquoted.
type Col struct {
	Name string
}

// Literal is a raw SQL fragment. Named replacements (":name") are injected
// into it at compile time.
type Literal struct {
	SQL string
}

// Fn is a function call. Arguments are nodes: scalars are escaped, operands
// formatted, maps compiled as boolean expressions.
type Fn struct {
	Name string
	Args []Node
}

// Cast renders CAST(Expr AS Type). Type is a type name such as "integer"
// or "text[]".
type Cast struct {
	Expr Node
	Type string
}

// Value is a scalar with an optional declared type name.
type Value struct {
	V    any
	Type string
}

// PathSegment is one step of a JSON path: an object key or an array index.
type PathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// PathKey returns an object key segment.
func PathKey(k string) PathSegment { return PathSegment{Key: k} }

// PathIndex returns an array index segment.
func PathIndex(i int) PathSegment { return PathSegment{Index: i, IsIndex: true} }

// JSONPath traverses Base along Path. Unquote extracts the final value as
// text instead of JSON.
type JSONPath struct {
	Base    Operand
	Path    []PathSegment
	Unquote bool
}

// AssocPath references Attribute on the model reached by following
// Associations from the owning model.
type AssocPath struct {
	Associations []string
	Attribute    string
}

// Where is a boolean sub-expression.
//
// With Op set it compares Left and Right with that operator. With Op left
// as OpInvalid, Right is compiled as the value of Left in the attribute
// pass, so Right may be a nested operator map.
type Where struct {
	Left  Operand
	Op    Op
	Right Node
}

// Quantified applies ANY or ALL to Values, a list or a raw fragment.
type Quantified struct {
	Quantifier Op
	Values     Node
}

func (Attribute) whereNode()  {}
func (Col) whereNode()        {}
func (Literal) whereNode()    {}
func (Fn) whereNode()         {}
func (Cast) whereNode()       {}
func (Value) whereNode()      {}
func (JSONPath) whereNode()   {}
func (AssocPath) whereNode()  {}
func (Where) whereNode()      {}
func (Quantified) whereNode() {}

func (Attribute) operand()  {}
func (Col) operand()        {}
func (Literal) operand()    {}
func (Fn) operand()         {}
func (Cast) operand()       {}
func (Value) operand()      {}
func (JSONPath) operand()   {}
func (AssocPath) operand()  {}
func (Where) operand()      {}
func (Quantified) operand() {}

// Attr references a model attribute.
func Attr(name string) Attribute { return Attribute{Name: name} }

// Column references an identifier.
func Column(name string) Col { return Col{Name: name} }

// Raw wraps a raw SQL fragment.
func Raw(sql string) Literal { return Literal{SQL: sql} }

// Func builds a function call; args are converted with From.
func Func(name string, args ...any) Fn {
	nodes := make([]Node, len(args))
	for i, a := range args {
		nodes[i] = From(a)
	}
	return Fn{Name: name, Args: nodes}
}

// CastTo casts expr (converted with From) to typ.
func CastTo(expr any, typ string) Cast {
	return Cast{Expr: From(expr), Type: typ}
}

// Val wraps a scalar with a declared type name ("" infers from the value).
func Val(v any, typ string) Value { return Value{V: v, Type: typ} }

// WithPath extends base with segs. A JSONPath base is extended in place
// of nesting a second wrapper.
func WithPath(base Operand, segs ...PathSegment) JSONPath {
	if jp, ok := base.(JSONPath); ok {
		path := make([]PathSegment, 0, len(jp.Path)+len(segs))
		path = append(path, jp.Path...)
		path = append(path, segs...)
		return JSONPath{Base: jp.Base, Path: path, Unquote: jp.Unquote}
	}
	return JSONPath{Base: base, Path: append([]PathSegment(nil), segs...)}
}

// Assoc builds an association path; the last name is the attribute.
func Assoc(names ...string) AssocPath {
	if len(names) == 0 {
		return AssocPath{}
	}
	return AssocPath{
		Associations: append([]string(nil), names[:len(names)-1]...),
		Attribute:    names[len(names)-1],
	}
}

// WhereOp builds the boolean sub-expression "left op right".
func WhereOp(left Operand, op Op, right any) Where {
	return Where{Left: left, Op: op, Right: From(right)}
}

// WhereValue builds a boolean sub-expression that compiles value against
// left the way an attribute value is compiled.
func WhereValue(left Operand, value any) Where {
	return Where{Left: left, Right: From(value)}
}

// AnyOf quantifies values with ANY.
func AnyOf(values any) Quantified {
	return Quantified{Quantifier: OpAny, Values: From(values)}
}

// AllOf quantifies values with ALL.
func AllOf(values any) Quantified {
	return Quantified{Quantifier: OpAll, Values: From(values)}
}

// IsBooleanExpression reports whether n may stand alone as a filter:
// every operand except Value, Quantified and List.
func IsBooleanExpression(n Node) bool {
	switch n.(type) {
	case Attribute, Col, Literal, Fn, Cast, JSONPath, AssocPath, Where:
		return true
	}
	return false
}
