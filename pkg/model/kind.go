package model

import "encoding/binary"

// Kind is the declared type class of a field.
type Kind uint8

const (
	KindUnit Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBytes
	KindComposite
	KindSequence
	KindEnum
)

// String returns the kind name.
func (k Kind) String() string {
	names := []string{
		"unit", "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64",
		"f32", "f64", "bytes", "struct", "sequence", "enum",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Size returns the encoded size of a primitive kind, or 0 for kinds whose size
// depends on the data.
func (k Kind) Size() int {
	switch k {
	case KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindUint64, KindInt64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// IsPrimitive reports whether k is a fixed-size numeric kind.
func (k Kind) IsPrimitive() bool { return k.Size() > 0 }

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	return k >= KindUint8 && k <= KindUint64
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool {
	return k >= KindUint8 && k <= KindInt64
}

// Base is the numeric display base of a field.
type Base uint8

const (
	BaseNone Base = iota
	BaseDec
	BaseHex
	BaseOct
	BaseDecHex
	BaseHexDec
)

// String returns the display base name.
func (b Base) String() string {
	switch b {
	case BaseNone:
		return "BASE_NONE"
	case BaseDec:
		return "BASE_DEC"
	case BaseHex:
		return "BASE_HEX"
	case BaseOct:
		return "BASE_OCT"
	case BaseDecHex:
		return "BASE_DEC_HEX"
	case BaseHexDec:
		return "BASE_HEX_DEC"
	default:
		return "BASE_UNKNOWN"
	}
}

// ParseBase parses a display base name such as "BASE_HEX" or "hex".
func ParseBase(s string) (Base, bool) {
	switch s {
	case "", "BASE_NONE", "none":
		return BaseNone, true
	case "BASE_DEC", "dec":
		return BaseDec, true
	case "BASE_HEX", "hex":
		return BaseHex, true
	case "BASE_OCT", "oct":
		return BaseOct, true
	case "BASE_DEC_HEX", "dec_hex":
		return BaseDecHex, true
	case "BASE_HEX_DEC", "hex_dec":
		return BaseHexDec, true
	}
	return BaseNone, false
}

// Encoding is the byte order of a multi-byte field.
type Encoding uint8

const (
	// BigEndian is network byte order, the default.
	BigEndian Encoding = iota
	LittleEndian
)

// String returns the encoding name.
func (e Encoding) String() string {
	if e == LittleEndian {
		return "ENC_LITTLE_ENDIAN"
	}
	return "ENC_BIG_ENDIAN"
}

// ByteOrder returns the binary.ByteOrder for the encoding.
func (e Encoding) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ParseEncoding parses an encoding name such as "ENC_LITTLE_ENDIAN" or "le".
func ParseEncoding(s string) (Encoding, bool) {
	switch s {
	case "", "ENC_BIG_ENDIAN", "be", "big":
		return BigEndian, true
	case "ENC_LITTLE_ENDIAN", "le", "little":
		return LittleEndian, true
	}
	return BigEndian, false
}

// Display groups the presentation hints of a field.
type Display struct {
	// WireType overrides the host field type (e.g. "FT_ABSOLUTE_TIME").
	WireType string

	// Base is the numeric display base.
	Base Base

	// Encoding is the byte order used to read the field.
	Encoding Encoding
}
