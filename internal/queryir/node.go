package queryir

import (
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is a where-tree node.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch exhaustively over Scalar, List, *Map, the Operand types
// and Undefined.
type Node interface {
	whereNode() // Marker method - seals interface to this package
}

// Scalar is a plain value: string, bool, integer and float kinds,
// time.Time, []byte, uuid.UUID, json.Number. A nil V is SQL NULL.
type Scalar struct {
	V any
}

func (Scalar) whereNode() {}

// Null is the SQL NULL scalar.
var Null = Scalar{}

// List is an ordered sequence of nodes.
//
// At connective level a List is an implicit AND. Under an attribute it is an
// implicit IN. As a function argument it renders as a parenthesized list.
type List []Node

func (List) whereNode() {}
func (List) operand()   {}

type undefined struct{}

func (undefined) whereNode() {}

// Undefined marks a value that is absent rather than NULL. Compiling it is
// always an error.
var Undefined Node = undefined{}

// IsUndefined reports whether n is the Undefined marker.
func IsUndefined(n Node) bool {
	_, ok := n.(undefined)
	return ok
}

// Key is a Map key: either an operator tag or an attribute name, never both.
type Key struct {
	Op   Op
	Name string
}

// AttrKey returns the key for an attribute name.
func AttrKey(name string) Key { return Key{Name: name} }

// OpKey returns the key for an operator tag.
func OpKey(op Op) Key { return Key{Op: op} }

// ParseKey resolves a document key: "$in" becomes an operator key, anything
// else (including association paths such as "$owner.name$") an attribute key.
func ParseKey(s string) Key {
	if op, ok := ParseOp(s); ok {
		return OpKey(op)
	}
	return AttrKey(s)
}

// IsOp reports whether k is an operator key.
func (k Key) IsOp() bool { return k.Op != OpInvalid }

func (k Key) String() string {
	if k.IsOp() {
		return k.Op.String()
	}
	return k.Name
}

// Entry is one Map entry.
type Entry struct {
	Key   Key
	Value Node
}

// E builds an attribute entry. v is converted with From.
func E(name string, v any) Entry {
	return Entry{Key: AttrKey(name), Value: From(v)}
}

// OpE builds an operator entry. v is converted with From.
func OpE(op Op, v any) Entry {
	return Entry{Key: OpKey(op), Value: From(v)}
}

// Map is an insertion-ordered mapping from Key to Node.
type Map struct {
	entries *orderedmap.OrderedMap[Key, Node]
}

func (*Map) whereNode() {}

// M builds a Map from entries in order. A repeated key keeps its first
// position and takes the last value.
func M(entries ...Entry) *Map {
	m := &Map{entries: orderedmap.New[Key, Node]()}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set stores v under k and returns m for chaining.
func (m *Map) Set(k Key, v Node) *Map {
	if m.entries == nil {
		m.entries = orderedmap.New[Key, Node]()
	}
	if v == nil {
		v = Null
	}
	m.entries.Set(k, v)
	return m
}

// Get returns the value stored under k.
func (m *Map) Get(k Key) (Node, bool) {
	if m == nil || m.entries == nil {
		return nil, false
	}
	return m.entries.Get(k)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil || m.entries == nil {
		return 0
	}
	return m.entries.Len()
}

// Entries returns the entries in declaration order.
func (m *Map) Entries() []Entry {
	if m.Len() == 0 {
		return nil
	}
	out := make([]Entry, 0, m.entries.Len())
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// HasAttributeKeys reports whether any key is an attribute name.
func (m *Map) HasAttributeKeys() bool {
	for _, e := range m.Entries() {
		if !e.Key.IsOp() {
			return true
		}
	}
	return false
}

// From converts a Go value into a Node.
//
// Nodes are returned unchanged. map[string]any becomes a *Map with keys
// sorted (document keys such as "$in" become operator keys). Slices other
// than []byte become a List. Everything else becomes a Scalar.
func From(v any) Node {
	switch t := v.(type) {
	case nil:
		return Null
	case Node:
		return t
	case []byte:
		return Scalar{V: t}
	case []any:
		list := make(List, len(t))
		for i, e := range t {
			list[i] = From(e)
		}
		return list
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := M()
		for _, k := range keys {
			m.Set(ParseKey(k), From(t[k]))
		}
		return m
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Scalar{V: v}
		}
		list := make(List, rv.Len())
		for i := range list {
			list[i] = From(rv.Index(i).Interface())
		}
		return list
	}
	return Scalar{V: v}
}

// Plain converts a tree of Scalar, List and *Map into plain Go values
// (map[string]any, []any, scalars). It fails on operands and Undefined.
func Plain(n Node) (any, bool) {
	switch t := n.(type) {
	case Scalar:
		return t.V, true
	case Value:
		return t.V, true
	case List:
		out := make([]any, len(t))
		for i, e := range t {
			v, ok := Plain(e)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	case *Map:
		out := make(map[string]any, t.Len())
		for _, e := range t.Entries() {
			v, ok := Plain(e.Value)
			if !ok {
				return nil, false
			}
			out[e.Key.String()] = v
		}
		return out, true
	}
	return nil, false
}
