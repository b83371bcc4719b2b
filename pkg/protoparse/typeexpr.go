package protoparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dissect-kit/dissect-go/pkg/model"
)

var primitives = map[string]*model.Type{
	"unit": model.Unit,
	"()":   model.Unit,
	"u8":   model.U8,
	"u16":  model.U16,
	"u32":  model.U32,
	"u64":  model.U64,
	"i8":   model.I8,
	"i16":  model.I16,
	"i32":  model.I32,
	"i64":  model.I64,
	"f32":  model.F32,
	"f64":  model.F64,
}

// parseType parses a type expression. Named types are resolved by named.
//
//	u8 .. u64, i8 .. i64, f32, f64, unit
//	bytes        byte string sized by a length field or the rest of the buffer
//	bytes[N]     N bytes
//	[T; N]       N elements of T
//	T[]          elements of T counted by a length field
//	T[..]        elements of T until the buffer ends
//	Name         a struct or enum
func parseType(expr string, named func(string) (*model.Type, error)) (*model.Type, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadType)
	}

	if elem, ok := strings.CutSuffix(s, "[..]"); ok {
		t, err := parseType(elem, named)
		if err != nil {
			return nil, err
		}
		return model.Rest(t), nil
	}
	if elem, ok := strings.CutSuffix(s, "[]"); ok {
		t, err := parseType(elem, named)
		if err != nil {
			return nil, err
		}
		return model.Vec(t), nil
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("%w: %q", ErrBadType, expr)
		}
		inner := s[1 : len(s)-1]
		semi := strings.LastIndex(inner, ";")
		if semi < 0 {
			return nil, fmt.Errorf("%w: %q has no element count", ErrBadType, expr)
		}
		n, err := parseCount(inner[semi+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadType, expr, err)
		}
		elem, err := parseType(inner[:semi], named)
		if err != nil {
			return nil, err
		}
		return model.Array(elem, n), nil
	}

	if s == "bytes" {
		return model.Bytes(), nil
	}
	if size, ok := strings.CutPrefix(s, "bytes["); ok {
		size, ok = strings.CutSuffix(size, "]")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrBadType, expr)
		}
		n, err := parseCount(size)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadType, expr, err)
		}
		return model.FixedBytes(n), nil
	}

	if t, ok := primitives[s]; ok {
		return t, nil
	}
	if strings.ContainsAny(s, "[]; ") {
		return nil, fmt.Errorf("%w: %q", ErrBadType, expr)
	}
	return named(s)
}

func parseCount(s string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 31)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", strings.TrimSpace(s), err)
	}
	if n == 0 {
		return 0, fmt.Errorf("count must be positive")
	}
	return int(n), nil
}
