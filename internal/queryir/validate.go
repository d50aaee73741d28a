package queryir

import (
	"fmt"
	"strconv"
)

// StructureError reports a structurally invalid node. Path locates the node
// inside the tree ("$or[1].age").
type StructureError struct {
	Path    string
	Node    Node
	Message string
}

func (e *StructureError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks the structure of every operand in the tree: non-empty
// names, cast targets, paths and quantifiers. It does not judge whether a
// shape is legal at its position; the compiler does that.
//
// Validate is a pure function with no side effects.
func Validate(n Node) error {
	return validate("", n)
}

func validate(path string, n Node) error {
	fail := func(format string, args ...any) error {
		return &StructureError{Path: path, Node: n, Message: fmt.Sprintf(format, args...)}
	}

	switch t := n.(type) {
	case nil:
		return fail("nil node")
	case List:
		for i, e := range t {
			if err := validate(path+"["+strconv.Itoa(i)+"]", e); err != nil {
				return err
			}
		}
	case *Map:
		for _, e := range t.Entries() {
			if !e.Key.IsOp() && e.Key.Name == "" {
				return fail("empty attribute key")
			}
			if err := validate(join(path, e.Key.String()), e.Value); err != nil {
				return err
			}
		}
	case Attribute:
		if t.Name == "" {
			return fail("attribute name is required")
		}
	case Col:
		if t.Name == "" {
			return fail("column name is required")
		}
	case Fn:
		if t.Name == "" {
			return fail("function name is required")
		}
		for i, a := range t.Args {
			if err := validate(join(path, t.Name)+"("+strconv.Itoa(i)+")", a); err != nil {
				return err
			}
		}
	case Cast:
		if t.Type == "" {
			return fail("cast target type is required")
		}
		if t.Expr == nil {
			return fail("cast expression is required")
		}
		return validate(join(path, "cast"), t.Expr)
	case JSONPath:
		if t.Base == nil {
			return fail("json path base is required")
		}
		if len(t.Path) == 0 {
			return fail("json path needs at least one segment")
		}
		for _, seg := range t.Path {
			if !seg.IsIndex && seg.Key == "" {
				return fail("empty json path segment")
			}
		}
		return validate(path, t.Base)
	case AssocPath:
		if len(t.Associations) == 0 {
			return fail("association path needs at least one association")
		}
		if t.Attribute == "" {
			return fail("association path needs a terminal attribute")
		}
	case Where:
		if t.Left == nil {
			return fail("where expression needs a left operand")
		}
		if err := validate(join(path, "where"), t.Left); err != nil {
			return err
		}
		if t.Right == nil {
			return fail("where expression needs a right operand")
		}
		return validate(join(path, "where"), t.Right)
	case Quantified:
		if !t.Quantifier.IsQuantifier() {
			return fail("quantifier must be $any or $all, got %s", t.Quantifier)
		}
		if t.Values == nil {
			return fail("%s needs values", t.Quantifier)
		}
		return validate(join(path, t.Quantifier.String()), t.Values)
	}
	return nil
}

func join(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}
