// Package wheredoc decodes where-trees written as JSON, YAML or CUE
// documents into queryir nodes.
//
// Document keys keep their source order. Keys starting with "$" are
// operators ("$or", "$in"); "$assoc.attr$" keys are association paths.
// Two document-only forms build operands:
//
//	{"$raw": "age > 18"}                  raw SQL fragment
//	{"$value": "42", "$type": "integer"}  typed value
//
// Any other "$" key is rejected.
package wheredoc
