package model

import "github.com/dissect-kit/dissect-go/pkg/tap"

// Field is one named element of a composite.
type Field struct {
	// Name is the identifier used in paths and field stores.
	Name string

	// Type is the declared type.
	Type *Type

	// Doc is the field description shown as its blurb.
	Doc string

	// Display holds presentation hints.
	Display Display

	// Hidden fields are consumed but not added to the tree.
	Hidden bool

	// Save writes the decoded value to the field stores.
	Save bool

	// Bytes treats a u8 sequence as one opaque byte string.
	Bytes bool

	// LengthField names an earlier integer field of the same composite whose
	// value sizes this field.
	LengthField string

	// Rename overrides the display name.
	Rename string

	DecodeWith   tap.Callback
	ConsumeWith  tap.Callback
	Subdissector *Subdissector

	// Variant resolves which variant an enum-typed field decodes as.
	Variant tap.Callback

	// Taps run in order after the field is decoded.
	Taps []tap.Callback
}

// Label returns the display name of the field.
func (f *Field) Label() string {
	if f.Rename != "" {
		return f.Rename
	}
	return TitleCase(f.Name)
}

// IsBytes reports whether the field decodes as a single byte string.
func (f *Field) IsBytes() bool {
	if f.Type == nil {
		return false
	}
	return f.Type.Kind == KindBytes || (f.Bytes && f.Type.IsByteSequence())
}

// hasCustomSize reports whether the field's size is decided at runtime by a
// callback or a delegate rather than by its type.
func (f *Field) hasCustomSize() bool {
	return !f.ConsumeWith.IsZero() || f.Subdissector != nil || f.LengthField != ""
}

// Subdissector describes how a field's bytes are handed to external decoders.
// With no Keys it is a "decode as" reference: the host picks one decoder for
// the table. Otherwise each key field's value is tried in order against Table.
type Subdissector struct {
	Table string
	Keys  []string
}

// DecodeAs references a table whose decoder is selected by the host.
func DecodeAs(table string) *Subdissector {
	return &Subdissector{Table: table}
}

// TableLookup references a table keyed by the values of the given fields,
// tried in order.
func TableLookup(table string, keys ...string) *Subdissector {
	return &Subdissector{Table: table, Keys: keys}
}

// IsDecodeAs reports whether s is a "decode as" reference.
func (s *Subdissector) IsDecodeAs() bool {
	return len(s.Keys) == 0
}
