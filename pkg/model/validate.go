package model

import (
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// KeyKind is the key type of a dispatch table.
type KeyKind uint8

const (
	// KeyNone marks a "decode as" table.
	KeyNone KeyKind = iota
	KeyUint
	KeyString
)

// String returns the key kind name.
func (k KeyKind) String() string {
	switch k {
	case KeyUint:
		return "uint"
	case KeyString:
		return "string"
	default:
		return "decode-as"
	}
}

// KeyKindOf returns the dispatch key kind a field of type t produces.
func KeyKindOf(t *Type, bytes bool) (KeyKind, bool) {
	switch {
	case t == nil:
		return KeyNone, false
	case t.Kind.IsUnsigned():
		return KeyUint, true
	case t.Kind == KindBytes, bytes && t.IsByteSequence():
		return KeyString, true
	}
	return KeyNone, false
}

// KeyKind returns the key kind of the table referenced by s from within c.
func (s *Subdissector) KeyKind(c *Composite) (KeyKind, error) {
	if s.IsDecodeAs() {
		return KeyNone, nil
	}
	kind := KeyNone
	for _, key := range s.Keys {
		i := c.FieldIndex(key)
		if i < 0 {
			return KeyNone, &SchemaError{Msg: "unknown subdissector key field " + quote(key)}
		}
		f := c.Fields[i]
		k, ok := KeyKindOf(f.Type, f.Bytes)
		if !ok {
			return KeyNone, &SchemaError{Msg: "subdissector key " + quote(key) + " must be an unsigned integer or byte string, not " + f.Type.String()}
		}
		if kind != KeyNone && k != kind {
			return KeyNone, &SchemaError{Msg: "subdissector keys of table " + quote(s.Table) + " mix integer and string types"}
		}
		kind = k
	}
	return kind, nil
}

// Validate checks a protocol and every composite reachable from it. It returns
// SchemaErrors listing all problems found, or nil.
func Validate(p *Protocol) error {
	var errs SchemaErrors
	if p == nil {
		errs.add("", "protocol is nil")
		return errs
	}
	if p.Filter == "" {
		errs.add(p.Name, "protocol filter is required")
	}
	if p.Root == nil {
		errs.add(p.Filter, "protocol has no root composite")
		return errs.orNil()
	}
	for _, df := range p.DecodeFrom {
		if df.Table == "" {
			errs.add(p.Filter, "decode_from entry has no table name")
		}
		if len(df.Uints) > 0 && len(df.Strings) > 0 {
			errs.add(p.Filter, "decode_from entry %q mixes integer and string keys", df.Table)
		}
	}
	v := &validator{errs: &errs, seen: make(map[*Composite]bool)}
	v.composite(p.Root, p.Filter)
	return errs.orNil()
}

// ValidateComposite checks a single composite tree rooted at c, using prefix
// as the path of c.
func ValidateComposite(c *Composite, prefix string) error {
	var errs SchemaErrors
	v := &validator{errs: &errs, seen: make(map[*Composite]bool)}
	v.composite(c, prefix)
	return errs.orNil()
}

type validator struct {
	errs *SchemaErrors
	seen map[*Composite]bool
}

func (v *validator) composite(c *Composite, path string) {
	if c == nil {
		v.errs.add(path, "composite is nil")
		return
	}
	// Recursive and shared composites are checked once.
	if v.seen[c] {
		return
	}
	v.seen[c] = true

	if c.Inline && len(c.Fields) != 1 {
		v.errs.add(path, "inline composite %q must have exactly one field, has %d", c.Name, len(c.Fields))
	}
	v.hooks(c.PreDissect, path, "pre_dissect")
	v.hooks(c.PostDissect, path, "post_dissect")

	names := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if f == nil {
			v.errs.add(path, "field %d is nil", i)
			continue
		}
		fpath := path + "." + f.Name
		if f.Name == "" {
			v.errs.add(path, "field %d has no name", i)
		} else if names[f.Name] {
			v.errs.add(fpath, "duplicate field name")
		}
		names[f.Name] = true
		v.field(c, i, f, fpath)
	}
}

func (v *validator) field(c *Composite, i int, f *Field, path string) {
	if f.Type == nil {
		v.errs.add(path, "field has no type")
		return
	}
	v.typ(f.Type, path)

	strategies := 0
	if !f.DecodeWith.IsZero() {
		strategies++
		v.callback(f.DecodeWith, tap.KindDecodeWith, path)
	}
	if !f.ConsumeWith.IsZero() {
		strategies++
		v.callback(f.ConsumeWith, tap.KindConsumeWith, path)
	}
	if f.Subdissector != nil {
		strategies++
		v.subdissector(c, i, f.Subdissector, path)
	}
	if strategies > 1 {
		v.errs.add(path, "decode_with, consume_with and subdissector are mutually exclusive")
	}
	for _, t := range f.Taps {
		v.callback(t, tap.KindTap, path)
	}

	if f.LengthField != "" {
		if ref, ok := v.earlier(c, i, f.LengthField, path, "length field"); ok {
			if !ref.Type.Kind.IsInteger() {
				v.errs.add(path, "length field %q must be an integer, not %s", f.LengthField, ref.Type)
			}
		}
		if !acceptsLengthHint(f.Type) {
			v.errs.add(path, "length field set on %s, which has a fixed size", f.Type)
		}
	} else if f.Type.Kind == KindSequence && f.Type.Count == 0 && !f.Type.Rest {
		v.errs.add(path, "sequence needs a length field, a fixed count or rest")
	}

	if f.Bytes && f.Type.Kind != KindBytes && !f.Type.IsByteSequence() {
		v.errs.add(path, "bytes option requires a u8 sequence, not %s", f.Type)
	}

	switch {
	case f.Type.Kind == KindEnum && f.Variant.IsZero():
		v.errs.add(path, "enum field needs a get_variant resolver")
	case f.Type.Kind != KindEnum && !f.Variant.IsZero():
		v.errs.add(path, "get_variant set on non-enum type %s", f.Type)
	case !f.Variant.IsZero():
		v.callback(f.Variant, tap.KindVariant, path)
	}
}

func (v *validator) typ(t *Type, path string) {
	switch t.Kind {
	case KindComposite:
		v.composite(t.Composite, path)
	case KindEnum:
		if t.Enum == nil {
			v.errs.add(path, "enum type has no definition")
			return
		}
		if len(t.Enum.Variants) == 0 {
			v.errs.add(path, "enum %q has no variants", t.Enum.Name)
		}
		names := make(map[string]bool, len(t.Enum.Variants))
		for _, variant := range t.Enum.Variants {
			if variant.Name == "" {
				v.errs.add(path, "enum %q has an unnamed variant", t.Enum.Name)
				continue
			}
			if names[variant.Name] {
				v.errs.add(path, "enum %q has duplicate variant %q", t.Enum.Name, variant.Name)
			}
			names[variant.Name] = true
			vpath := path + "." + variant.PathSegment()
			v.hooks(variant.PreDissect, vpath, "pre_dissect")
			v.hooks(variant.PostDissect, vpath, "post_dissect")
			if variant.Body != nil {
				v.composite(variant.Body, vpath)
			}
		}
	case KindSequence:
		if t.Elem == nil {
			v.errs.add(path, "sequence has no element type")
			return
		}
		if t.Count < 0 {
			v.errs.add(path, "sequence count %d is negative", t.Count)
		}
		v.typ(t.Elem, path)
	case KindBytes:
		if t.Size < 0 {
			v.errs.add(path, "byte string size %d is negative", t.Size)
		}
	}
}

func (v *validator) subdissector(c *Composite, i int, s *Subdissector, path string) {
	if s.Table == "" {
		v.errs.add(path, "subdissector has no table name")
	}
	for _, key := range s.Keys {
		v.earlier(c, i, key, path, "subdissector key")
	}
	if _, err := s.KeyKind(c); err != nil {
		if se, ok := err.(*SchemaError); ok {
			v.errs.add(path, "%s", se.Msg)
		}
	}
}

// earlier resolves a reference to a field that must precede index i.
func (v *validator) earlier(c *Composite, i int, name, path, what string) (*Field, bool) {
	j := c.FieldIndex(name)
	switch {
	case j < 0:
		v.errs.add(path, "%s %q does not exist in %s", what, name, compositeName(c))
		return nil, false
	case j >= i:
		v.errs.add(path, "%s %q must be declared before the field that uses it", what, name)
		return nil, false
	}
	return c.Fields[j], true
}

func (v *validator) hooks(cbs []tap.Callback, path, what string) {
	for _, cb := range cbs {
		if cb.Kind != tap.KindHook && cb.Kind != tap.KindTap {
			v.errs.add(path, "%s %q has kind %s", what, cb.Name, cb.Kind)
		}
		if cb.Fn == nil {
			v.errs.add(path, "%s %q has no function", what, cb.Name)
		}
	}
}

func (v *validator) callback(cb tap.Callback, want tap.Kind, path string) {
	if cb.Kind != want {
		v.errs.add(path, "callback %q has kind %s, want %s", cb.Name, cb.Kind, want)
	}
	if cb.Fn == nil {
		v.errs.add(path, "callback %q has no function", cb.Name)
	}
}

func acceptsLengthHint(t *Type) bool {
	switch t.Kind {
	case KindBytes:
		return t.Size == 0
	case KindSequence:
		return t.Count == 0 && !t.Rest
	}
	return false
}

func compositeName(c *Composite) string {
	if c.Name != "" {
		return c.Name
	}
	return "composite"
}

func quote(s string) string {
	return `"` + s + `"`
}
