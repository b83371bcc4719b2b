package tap

import (
	"errors"
	"fmt"
)

// Callback errors.
var (
	ErrPanic       = errors.New("callback panicked")
	ErrNilCallback = errors.New("callback has no function")
)

// Kind declares what a callback is for and which part of its Result the
// engine reads.
type Kind uint8

const (
	KindTap Kind = iota
	KindDecodeWith
	KindConsumeWith
	KindVariant
	KindHook
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTap:
		return "tap"
	case KindDecodeWith:
		return "decode_with"
	case KindConsumeWith:
		return "consume_with"
	case KindVariant:
		return "get_variant"
	case KindHook:
		return "hook"
	default:
		return "unknown"
	}
}

// Result is what a callback hands back to the engine.
type Result struct {
	// Text is the formatted value (decode-with, consume-with).
	Text string

	// Consumed is the number of bytes claimed (consume-with).
	Consumed int

	// Variant is the name of the selected variant (variant resolvers).
	Variant string
}

// Func is the single callback signature.
type Func func(ctx *Context) (Result, error)

// Callback is a named, kinded reference to a Func.
type Callback struct {
	Name string
	Kind Kind
	Fn   Func
}

// IsZero reports whether no callback is set.
func (c Callback) IsZero() bool {
	return c.Fn == nil && c.Name == ""
}

// Call invokes the callback. A panic inside the callback is recovered and
// returned as an error wrapping ErrPanic.
func (c Callback) Call(ctx *Context) (res Result, err error) {
	if c.Fn == nil {
		return Result{}, fmt.Errorf("%s %q: %w", c.Kind, c.Name, ErrNilCallback)
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%s %q: %w: %v", c.Kind, c.Name, ErrPanic, r)
		}
	}()
	return c.Fn(ctx)
}

// Tap creates an observing callback that may fail.
func Tap(name string, fn func(ctx *Context) error) Callback {
	return Callback{Name: name, Kind: KindTap, Fn: func(ctx *Context) (Result, error) {
		return Result{}, fn(ctx)
	}}
}

// Observe creates an observing callback that cannot fail.
func Observe(name string, fn func(ctx *Context)) Callback {
	return Callback{Name: name, Kind: KindTap, Fn: func(ctx *Context) (Result, error) {
		fn(ctx)
		return Result{}, nil
	}}
}

// Hook creates a pre/post-dissect hook.
func Hook(name string, fn func(ctx *Context) error) Callback {
	return Callback{Name: name, Kind: KindHook, Fn: func(ctx *Context) (Result, error) {
		return Result{}, fn(ctx)
	}}
}

// DecodeWith creates a custom formatter for a field whose size is known.
func DecodeWith(name string, fn func(ctx *Context) (string, error)) Callback {
	return Callback{Name: name, Kind: KindDecodeWith, Fn: func(ctx *Context) (Result, error) {
		s, err := fn(ctx)
		return Result{Text: s}, err
	}}
}

// ConsumeWith creates a custom decoder that determines the field size itself,
// e.g. for TLV encodings. fn returns the number of bytes consumed from
// ctx.Offset and the formatted value.
func ConsumeWith(name string, fn func(ctx *Context) (int, string, error)) Callback {
	return Callback{Name: name, Kind: KindConsumeWith, Fn: func(ctx *Context) (Result, error) {
		n, s, err := fn(ctx)
		return Result{Consumed: n, Text: s}, err
	}}
}

// Variant creates a variant resolver. fn inspects ctx.FieldsLocal and returns
// the name of the variant to decode.
func Variant(name string, fn func(ctx *Context) (string, error)) Callback {
	return Callback{Name: name, Kind: KindVariant, Fn: func(ctx *Context) (Result, error) {
		v, err := fn(ctx)
		return Result{Variant: v}, err
	}}
}
