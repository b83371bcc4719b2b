package model

import "fmt"

// Type is the declared type of a field.
type Type struct {
	Kind Kind

	// Size is the fixed length of a KindBytes type. Zero means the length
	// comes from a length hint or, without one, runs to the end of the buffer.
	Size int

	// Composite is set for KindComposite.
	Composite *Composite

	// Enum is set for KindEnum.
	Enum *Enum

	// Elem, Count and Rest describe a KindSequence. Count is a fixed element
	// count; Rest repeats the element until the buffer ends. With neither set
	// the count comes from the field's length hint.
	Elem  *Type
	Count int
	Rest  bool
}

// Primitive types.
var (
	Unit = &Type{Kind: KindUnit}
	U8   = &Type{Kind: KindUint8}
	U16  = &Type{Kind: KindUint16}
	U32  = &Type{Kind: KindUint32}
	U64  = &Type{Kind: KindUint64}
	I8   = &Type{Kind: KindInt8}
	I16  = &Type{Kind: KindInt16}
	I32  = &Type{Kind: KindInt32}
	I64  = &Type{Kind: KindInt64}
	F32  = &Type{Kind: KindFloat32}
	F64  = &Type{Kind: KindFloat64}
)

// Bytes is a byte string sized by a length hint, or the rest of the buffer.
func Bytes() *Type { return &Type{Kind: KindBytes} }

// FixedBytes is a byte string of exactly n bytes.
func FixedBytes(n int) *Type { return &Type{Kind: KindBytes, Size: n} }

// Array is a sequence of exactly n elements.
func Array(elem *Type, n int) *Type {
	return &Type{Kind: KindSequence, Elem: elem, Count: n}
}

// Vec is a sequence whose element count comes from a length hint.
func Vec(elem *Type) *Type {
	return &Type{Kind: KindSequence, Elem: elem}
}

// Rest is a sequence repeated until the buffer ends.
func Rest(elem *Type) *Type {
	return &Type{Kind: KindSequence, Elem: elem, Rest: true}
}

// Struct is a nested composite.
func Struct(c *Composite) *Type {
	return &Type{Kind: KindComposite, Composite: c}
}

// EnumOf is a sum type whose variant is chosen by a resolver.
func EnumOf(e *Enum) *Type {
	return &Type{Kind: KindEnum, Enum: e}
}

// FixedSize returns the encoded size of t when it does not depend on the data.
func (t *Type) FixedSize() (int, bool) {
	return t.fixedSize(make(map[*Composite]bool))
}

func (t *Type) fixedSize(seen map[*Composite]bool) (int, bool) {
	switch t.Kind {
	case KindUnit:
		return 0, true
	case KindBytes:
		return t.Size, t.Size > 0
	case KindSequence:
		if t.Count == 0 || t.Rest {
			return 0, false
		}
		n, ok := t.Elem.fixedSize(seen)
		return n * t.Count, ok
	case KindComposite:
		if seen[t.Composite] {
			return 0, false
		}
		seen[t.Composite] = true
		defer delete(seen, t.Composite)
		total := 0
		for _, f := range t.Composite.Fields {
			if f.hasCustomSize() {
				return 0, false
			}
			n, ok := f.Type.fixedSize(seen)
			if !ok {
				return 0, false
			}
			total += n
		}
		return total, true
	case KindEnum:
		return 0, false
	default:
		return t.Kind.Size(), true
	}
}

// String returns a compact type expression, e.g. "u16", "[u8; 6]", "u32[]".
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindBytes:
		if t.Size > 0 {
			return fmt.Sprintf("bytes[%d]", t.Size)
		}
		return "bytes"
	case KindSequence:
		switch {
		case t.Rest:
			return t.Elem.String() + "[..]"
		case t.Count > 0:
			return fmt.Sprintf("[%s; %d]", t.Elem, t.Count)
		default:
			return t.Elem.String() + "[]"
		}
	case KindComposite:
		if t.Composite != nil && t.Composite.Name != "" {
			return t.Composite.Name
		}
		return "struct"
	case KindEnum:
		if t.Enum != nil && t.Enum.Name != "" {
			return t.Enum.Name
		}
		return "enum"
	default:
		return t.Kind.String()
	}
}

// IsByteSequence reports whether t is a sequence of u8 elements.
func (t *Type) IsByteSequence() bool {
	return t.Kind == KindSequence && t.Elem != nil && t.Elem.Kind == KindUint8
}
