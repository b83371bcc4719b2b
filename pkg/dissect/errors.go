package dissect

import (
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrResolver       = errors.New("variant resolver failed")
	ErrHook           = errors.New("hook failed")
	ErrLengthHint     = errors.New("length hint unavailable")
	ErrConsumed       = errors.New("invalid consumed length")
)

// DecodeError is a failure scoped to one field or composite.
type DecodeError struct {
	// Path is the dotted path of the field.
	Path string

	// Offset is the absolute offset at which the field started.
	Offset int

	Err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Path, e.Offset, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// IsHook reports whether the error came from a tap, hook or custom function
// rather than from the packet bytes.
func (e DecodeError) IsHook() bool {
	return errors.Is(e.Err, ErrHook)
}

func hookErr(err error) error {
	return fmt.Errorf("%w: %w", ErrHook, err)
}
