package protoparse

import "errors"

// Build errors.
var (
	ErrNoRoot          = errors.New("no root struct")
	ErrUnknownType     = errors.New("unknown type")
	ErrBadType         = errors.New("malformed type expression")
	ErrUnknownCallback = errors.New("unknown callback")
	ErrCallbackKind    = errors.New("callback has the wrong kind")
	ErrBadDisplay      = errors.New("invalid display hint")
	ErrDuplicate       = errors.New("duplicate definition")
)

// PathError ties a build error to the dotted path of the element that
// caused it, e.g. "baby_udp.payload" or "MessageBody.Data".
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}
