package querysql

import (
	"github.com/roach88/wherec/internal/queryir"
	"github.com/roach88/wherec/internal/types"
)

// resolveType returns the declared type of an operand, or nil when no
// static type is known. Unknown is common (raw SQL, no model) and callers
// fall back to the runtime shape of the value.
func (p *pass) resolveType(n queryir.Node) types.Type {
	switch t := n.(type) {
	case queryir.Cast:
		return types.ParseOrNamed(t.Type)
	case queryir.Value:
		if t.Type != "" {
			return types.ParseOrNamed(t.Type)
		}
	case queryir.JSONPath:
		// Unquoted extraction yields text, typed by the compared value.
		if t.Unquote {
			return nil
		}
		if base := p.resolveType(t.Base); base != nil {
			return base
		}
		return types.JSON{}
	case queryir.AssocPath:
		if p.opts.Model == nil {
			return nil
		}
		target, ok := p.opts.Model.Association(t.Associations...)
		if !ok {
			return nil
		}
		if typ, ok := target.AttributeType(t.Attribute); ok {
			return typ
		}
	case queryir.Attribute:
		if p.opts.Model == nil {
			return nil
		}
		if typ, ok := p.opts.Model.AttributeType(t.Name); ok {
			return typ
		}
	}
	return nil
}
