// Package model holds the model metadata the where-tree compiler consults:
// attribute types, attribute-to-column mapping and associations between
// models.
//
// Models are built in Go with New and Define, or loaded from CUE files with
// LoadDir. Once registered, a model is treated as read-only.
package model

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/roach88/wherec/internal/types"
)

// Metadata is the narrow view the compiler needs of a model.
type Metadata interface {
	// Name returns the model name.
	Name() string
	// AttributeType returns the declared type of an attribute.
	AttributeType(name string) (types.Type, bool)
	// ColumnName maps an attribute to its column. Unknown attributes map to
	// themselves.
	ColumnName(name string) string
	// Association follows a chain of association names and returns the
	// target model of the last one.
	Association(path ...string) (Metadata, bool)
}

// AssociationKind is the cardinality of an association.
type AssociationKind string

const (
	BelongsTo     AssociationKind = "belongsTo"
	HasOne        AssociationKind = "hasOne"
	HasMany       AssociationKind = "hasMany"
	BelongsToMany AssociationKind = "belongsToMany"
)

// Valid reports whether k is a known association kind.
func (k AssociationKind) Valid() bool {
	switch k {
	case BelongsTo, HasOne, HasMany, BelongsToMany:
		return true
	}
	return false
}

// Attribute is one declared attribute.
type Attribute struct {
	Name string
	// Field is the column name; empty means the attribute name.
	Field string
	// TypeName is the type as written in the definition.
	TypeName   string
	Type       types.Type
	AllowNull  bool
	PrimaryKey bool
	// Opaque accepts a type name the types package does not know.
	Opaque bool
	// Pos is the definition position for attributes loaded from CUE.
	Pos token.Pos
}

// Column returns the column the attribute is stored in.
func (a Attribute) Column() string {
	if a.Field != "" {
		return a.Field
	}
	return a.Name
}

// Association links a model to a target model under an alias.
type Association struct {
	As     string
	Kind   AssociationKind
	Target string
}

// Model is a table with typed attributes and named associations.
type Model struct {
	name         string
	table        string
	attributes   *orderedmap.OrderedMap[string, Attribute]
	associations *orderedmap.OrderedMap[string, Association]
	registry     *Registry
	pos          token.Pos
}

var _ Metadata = (*Model)(nil)

// New creates an empty model. An empty table defaults to the model name.
func New(name, table string) *Model {
	if table == "" {
		table = name
	}
	return &Model{
		name:         name,
		table:        table,
		attributes:   orderedmap.New[string, Attribute](),
		associations: orderedmap.New[string, Association](),
	}
}

// Define adds an attribute. typeName is parsed with types.Parse; unknown
// names are an error unless the Opaque option is given.
func (m *Model) Define(name, typeName string, opts ...AttributeOption) error {
	attr := Attribute{Name: name, TypeName: typeName, AllowNull: true}
	for _, opt := range opts {
		opt(&attr)
	}
	typ, err := types.Parse(typeName)
	switch {
	case err == nil:
		attr.Type = typ
	case attr.Opaque:
		attr.Type = types.ParseOrNamed(typeName)
	default:
		return fmt.Errorf("model %s: attribute %s: %w", m.name, name, err)
	}
	return m.AddAttribute(attr)
}

// AddAttribute adds an already typed attribute.
func (m *Model) AddAttribute(attr Attribute) error {
	if attr.Name == "" {
		return fmt.Errorf("model %s: attribute name is required", m.name)
	}
	if _, exists := m.attributes.Get(attr.Name); exists {
		return fmt.Errorf("model %s: duplicate attribute %s", m.name, attr.Name)
	}
	if attr.Type == nil {
		attr.Type = types.ParseOrNamed(attr.TypeName)
	}
	m.attributes.Set(attr.Name, attr)
	return nil
}

// AttributeOption customizes an attribute passed to Define.
type AttributeOption func(*Attribute)

// Field stores the attribute in a differently named column.
func Field(column string) AttributeOption {
	return func(a *Attribute) { a.Field = column }
}

// PrimaryKey marks the attribute as the primary key.
func PrimaryKey() AttributeOption {
	return func(a *Attribute) { a.PrimaryKey = true }
}

// Opaque keeps an unknown type name as an opaque named type.
func Opaque() AttributeOption {
	return func(a *Attribute) { a.Opaque = true }
}

// NotNull disallows NULL.
func NotNull() AttributeOption {
	return func(a *Attribute) { a.AllowNull = false }
}

// Associate adds an association to the model named target.
func (m *Model) Associate(as string, kind AssociationKind, target string) error {
	if as == "" {
		return fmt.Errorf("model %s: association alias is required", m.name)
	}
	if !kind.Valid() {
		return fmt.Errorf("model %s: association %s: unknown kind %q", m.name, as, kind)
	}
	return m.addAssociation(Association{As: as, Kind: kind, Target: target})
}

func (m *Model) addAssociation(a Association) error {
	if _, exists := m.associations.Get(a.As); exists {
		return fmt.Errorf("model %s: duplicate association %s", m.name, a.As)
	}
	m.associations.Set(a.As, a)
	return nil
}

func (m *Model) Name() string  { return m.name }
func (m *Model) Table() string { return m.table }

// Attribute returns the attribute declared under name.
func (m *Model) Attribute(name string) (Attribute, bool) {
	return m.attributes.Get(name)
}

// Attributes returns the attributes in declaration order.
func (m *Model) Attributes() []Attribute {
	out := make([]Attribute, 0, m.attributes.Len())
	for pair := m.attributes.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Associations returns the associations in declaration order.
func (m *Model) Associations() []Association {
	out := make([]Association, 0, m.associations.Len())
	for pair := m.associations.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (m *Model) AttributeType(name string) (types.Type, bool) {
	attr, ok := m.attributes.Get(name)
	if !ok {
		return nil, false
	}
	return attr.Type, true
}

func (m *Model) ColumnName(name string) string {
	if attr, ok := m.attributes.Get(name); ok {
		return attr.Column()
	}
	return name
}

// Association follows path through the registry the model belongs to.
// A model outside a registry has no resolvable associations.
func (m *Model) Association(path ...string) (Metadata, bool) {
	if len(path) == 0 || m.registry == nil {
		return nil, false
	}
	current := m
	for _, as := range path {
		assoc, ok := current.associations.Get(as)
		if !ok {
			return nil, false
		}
		target, ok := m.registry.Get(assoc.Target)
		if !ok {
			return nil, false
		}
		current = target
	}
	return current, true
}

// Registry is a set of models that reference each other by name.
type Registry struct {
	models *orderedmap.OrderedMap[string, *Model]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: orderedmap.New[string, *Model]()}
}

// Add registers models. A model belongs to at most one registry.
func (r *Registry) Add(models ...*Model) error {
	for _, m := range models {
		if _, exists := r.models.Get(m.name); exists {
			return fmt.Errorf("duplicate model %s", m.name)
		}
		if m.registry != nil && m.registry != r {
			return fmt.Errorf("model %s already belongs to another registry", m.name)
		}
		m.registry = r
		r.models.Set(m.name, m)
	}
	return nil
}

// Get returns the model registered under name.
func (r *Registry) Get(name string) (*Model, bool) {
	if r == nil {
		return nil, false
	}
	return r.models.Get(name)
}

// Lookup is Get that also matches table names, case-insensitively.
func (r *Registry) Lookup(name string) (*Model, bool) {
	if m, ok := r.Get(name); ok {
		return m, true
	}
	for _, m := range r.Models() {
		if strings.EqualFold(m.name, name) || strings.EqualFold(m.table, name) {
			return m, true
		}
	}
	return nil, false
}

// Models returns the models in registration order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, r.models.Len())
	for pair := r.models.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Names returns the registered model names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, r.models.Len())
	for pair := r.models.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
