package model

import "github.com/dissect-kit/dissect-go/pkg/tap"

// Composite is an ordered group of fields, dissected under one subtree.
type Composite struct {
	Name string
	Doc  string

	Fields []*Field

	// PreDissect hooks run before the first field, PostDissect hooks after
	// the last one.
	PreDissect  []tap.Callback
	PostDissect []tap.Callback

	// Inline composites wrap exactly one field. The field is added directly
	// under the enclosing field's label and no subtree is created.
	Inline bool
}

// FieldIndex returns the index of the named field, or -1.
func (c *Composite) FieldIndex(name string) int {
	for i, f := range c.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Newtype creates an inline composite around a single field type.
func Newtype(name string, field *Field) *Composite {
	return &Composite{Name: name, Fields: []*Field{field}, Inline: true}
}

// Enum is a sum type. Which variant is decoded is decided at runtime by the
// resolver of the enum-typed field.
type Enum struct {
	Name     string
	Variants []*Variant
}

// Variant returns the variant with the given name.
func (e *Enum) Variant(name string) (*Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Variant is one alternative of an Enum.
type Variant struct {
	Name   string
	Rename string
	Doc    string

	// Body is the variant's fields. A nil Body is a unit variant.
	Body *Composite

	PreDissect  []tap.Callback
	PostDissect []tap.Callback
}

// Label returns the display name of the variant.
func (v *Variant) Label() string {
	if v.Rename != "" {
		return v.Rename
	}
	return TitleCase(v.Name)
}

// PathSegment returns the variant's segment in dotted field paths.
func (v *Variant) PathSegment() string {
	return SnakeCase(v.Name)
}
