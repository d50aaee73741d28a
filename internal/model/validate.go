package model

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/wherec/internal/types"
)

// Validation error codes (E101-E109)
const (
	ErrEmptyTable       = "E101" // table name is empty
	ErrNoAttributes     = "E102" // model declares no attributes
	ErrUnknownType      = "E103" // attribute type does not parse
	ErrDuplicateColumn  = "E104" // two attributes share a column
	ErrUnknownTarget    = "E105" // association target is not registered
	ErrInvalidKind      = "E106" // unknown association kind
	ErrUnorderableRange = "E107" // range over a type without ordering
	ErrInvalidAttribute = "E108" // attribute name clashes with key syntax
	ErrDuplicateTable   = "E109" // two models share a table
)

// ValidationError is one problem found in a registry.
type ValidationError struct {
	Model   string    `json:"model"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
	Pos     token.Pos `json:"-"`
}

func (e ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s:%d: %s.%s: %s", e.Code, e.Pos.Filename(), e.Pos.Line(), e.Model, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Model, e.Field, e.Message)
}

// Validate checks every model of r. It returns all errors found.
func Validate(r *Registry) []ValidationError {
	var errs []ValidationError
	tables := make(map[string]string)

	for _, m := range r.Models() {
		errs = append(errs, validateModel(r, m)...)

		if m.table == "" {
			continue
		}
		key := strings.ToLower(m.table)
		if other, ok := tables[key]; ok {
			errs = append(errs, ValidationError{
				Model:   m.name,
				Field:   "table",
				Message: fmt.Sprintf("table %q is already used by model %s", m.table, other),
				Code:    ErrDuplicateTable,
				Pos:     m.pos,
			})
			continue
		}
		tables[key] = m.name
	}
	return errs
}

func validateModel(r *Registry, m *Model) []ValidationError {
	var errs []ValidationError
	add := func(field, code string, pos token.Pos, format string, args ...any) {
		errs = append(errs, ValidationError{
			Model:   m.name,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Pos:     pos,
		})
	}

	// E101
	if strings.TrimSpace(m.table) == "" {
		add("table", ErrEmptyTable, m.pos, "table name is required")
	}

	// E102
	attrs := m.Attributes()
	if len(attrs) == 0 {
		add("attributes", ErrNoAttributes, m.pos, "at least one attribute is required")
	}

	columns := make(map[string]string)
	for _, a := range attrs {
		field := "attributes." + a.Name
		pos := a.Pos
		if !pos.IsValid() {
			pos = m.pos
		}

		// E108
		if strings.ContainsAny(a.Name, ".:[]$") {
			add(field, ErrInvalidAttribute, pos, "attribute name %q cannot contain '.', ':', '[', ']' or '$'", a.Name)
		}

		// E103
		if _, err := types.Parse(a.TypeName); err != nil && !a.Opaque {
			add(field, ErrUnknownType, pos, "%v", err)
		}

		// E107
		if rt, ok := a.Type.(types.Range); ok && !orderable(rt.Elem) {
			add(field, ErrUnorderableRange, pos, "range element type %s has no ordering", a.TypeName)
		}

		// E104
		col := strings.ToLower(a.Column())
		if other, ok := columns[col]; ok {
			add(field, ErrDuplicateColumn, pos, "column %q is already used by attribute %s", a.Column(), other)
			continue
		}
		columns[col] = a.Name
	}

	for _, as := range m.Associations() {
		field := "associations." + as.As

		// E106
		if !as.Kind.Valid() {
			add(field, ErrInvalidKind, m.pos, "unknown association kind %q", as.Kind)
		}

		// E105
		if _, ok := r.Get(as.Target); !ok {
			add(field, ErrUnknownTarget, m.pos, "association target %q is not a registered model", as.Target)
		}
	}
	return errs
}

// orderable reports whether values of t have a total order usable as range
// bounds.
func orderable(t types.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case types.KindInteger, types.KindFloat, types.KindDecimal,
		types.KindDate, types.KindDateOnly, types.KindTime, types.KindText:
		return true
	}
	return false
}
