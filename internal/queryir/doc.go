// Package queryir defines the intermediate representation of where-trees:
// the declarative filter structures compiled to SQL boolean expressions by
// package querysql.
//
// ARCHITECTURE:
//
// A where-tree is built either directly in Go or decoded from a document
// (package wheredoc). Both paths produce the same IR:
//
//	[Go builders]   ─┐
//	                 ├→ [Where Node] → [querysql.Compiler] → SQL fragment
//	[JSON/YAML/CUE] ─┘
//
// WHERE NODES:
//
// Node is a sealed interface. A node is one of:
//   - Scalar: a plain Go value (nil means SQL NULL)
//   - List: an ordered sequence of nodes
//   - *Map: an insertion-ordered mapping from Key to Node
//   - an Operand (see below)
//   - Undefined: an absent value, distinct from SQL NULL
//
// The meaning of List and *Map depends on position. At connective level a
// List is an implicit AND; under an attribute it is an implicit IN.
//
// OPERANDS:
//
// Operand is the sealed subset of Node that renders as an SQL expression:
//   - Attribute: a model attribute, quoted and mapped to its column
//   - Col: a raw identifier reference ("users.id")
//   - Literal: a raw SQL fragment, subject to named replacement injection
//   - Fn: a function call
//   - Cast: CAST(expr AS type)
//   - Value: a scalar with an optional declared type
//   - JSONPath: JSON traversal of a base operand
//   - AssocPath: an attribute reached through associations
//   - Where: a boolean sub-expression
//   - Quantified: ANY/ALL over a list or fragment
//
// JSON PATH ACCUMULATION:
//
// WithPath never nests JSONPath wrappers. Wrapping a JSONPath extends its
// segment list, so {meta: {a: {b: 1}}} yields one extraction meta->a->b.
//
// KEY ORDER:
//
// Map preserves declaration order. From converts Go maps by sorting keys,
// since Go map iteration order carries no declaration order.
package queryir
