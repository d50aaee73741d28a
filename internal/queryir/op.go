package queryir

// Op is an operator tag. The set is closed; tags are comparable and are
// used directly as Map keys.
type Op int

const (
	OpInvalid Op = iota

	// Logical connectives.
	OpAnd
	OpOr
	OpNot

	// Equality family.
	OpEq
	OpNe
	OpIs
	OpIsNot

	// Ordering family.
	OpGt
	OpGte
	OpLt
	OpLte

	// Set membership.
	OpIn
	OpNotIn

	// Pattern matching.
	OpLike
	OpNotLike
	OpILike
	OpNotILike
	OpStartsWith
	OpNotStartsWith
	OpEndsWith
	OpNotEndsWith
	OpSubstring
	OpNotSubstring
	OpRegexp
	OpNotRegexp
	OpIRegexp
	OpNotIRegexp
	OpMatch

	// Range and containment.
	OpBetween
	OpNotBetween
	OpOverlap
	OpContains
	OpContained
	OpAdjacent
	OpStrictLeft
	OpStrictRight
	OpNoExtendRight
	OpNoExtendLeft

	// JSON key existence.
	OpAnyKeyExists
	OpAllKeysExist

	// Quantifiers.
	OpAny
	OpAll

	// Column reference shorthand: {attr: {$col: "other"}}.
	OpCol
)

var opNames = map[Op]string{
	OpAnd:           "$and",
	OpOr:            "$or",
	OpNot:           "$not",
	OpEq:            "$eq",
	OpNe:            "$ne",
	OpIs:            "$is",
	OpIsNot:         "$isNot",
	OpGt:            "$gt",
	OpGte:           "$gte",
	OpLt:            "$lt",
	OpLte:           "$lte",
	OpIn:            "$in",
	OpNotIn:         "$notIn",
	OpLike:          "$like",
	OpNotLike:       "$notLike",
	OpILike:         "$iLike",
	OpNotILike:      "$notILike",
	OpStartsWith:    "$startsWith",
	OpNotStartsWith: "$notStartsWith",
	OpEndsWith:      "$endsWith",
	OpNotEndsWith:   "$notEndsWith",
	OpSubstring:     "$substring",
	OpNotSubstring:  "$notSubstring",
	OpRegexp:        "$regexp",
	OpNotRegexp:     "$notRegexp",
	OpIRegexp:       "$iRegexp",
	OpNotIRegexp:    "$notIRegexp",
	OpMatch:         "$match",
	OpBetween:       "$between",
	OpNotBetween:    "$notBetween",
	OpOverlap:       "$overlap",
	OpContains:      "$contains",
	OpContained:     "$contained",
	OpAdjacent:      "$adjacent",
	OpStrictLeft:    "$strictLeft",
	OpStrictRight:   "$strictRight",
	OpNoExtendRight: "$noExtendRight",
	OpNoExtendLeft:  "$noExtendLeft",
	OpAnyKeyExists:  "$anyKeyExists",
	OpAllKeysExist:  "$allKeysExist",
	OpAny:           "$any",
	OpAll:           "$all",
	OpCol:           "$col",
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String returns the document spelling of the operator, e.g. "$in".
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "$invalid"
}

// ParseOp resolves a document spelling ("$in") to its tag.
func ParseOp(s string) (Op, bool) {
	op, ok := opsByName[s]
	return op, ok
}

// IsLogical reports whether o is AND, OR or NOT.
func (o Op) IsLogical() bool {
	return o == OpAnd || o == OpOr || o == OpNot
}

// IsQuantifier reports whether o is ANY or ALL.
func (o Op) IsQuantifier() bool {
	return o == OpAny || o == OpAll
}

// Ops returns every valid operator tag in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, len(opNames))
	for op := OpAnd; op <= OpCol; op++ {
		ops = append(ops, op)
	}
	return ops
}
