package dissect

import (
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// Result is the outcome of dissecting one packet.
type Result struct {
	// Tree is the root node. It is never nil.
	Tree *tree.Node

	// Consumed is the number of bytes the protocol consumed.
	Consumed int

	// Info is the info column text appended by callbacks.
	Info string

	// Errors lists the decode and hook errors of the protocol, in the order
	// they occurred. Errors of protocols reached through dispatch tables are
	// marked on their nodes only.
	Errors []DecodeError

	// Fatal is set when strict variant resolution stopped dissection.
	Fatal error

	// Fields is the packet-wide field store after dissection.
	Fields map[string]any
}

// OK reports whether the packet was dissected without any error.
func (r *Result) OK() bool {
	return r.Fatal == nil && len(r.Errors) == 0
}

// ErrorCount returns the number of error markers in the whole tree, including
// protocols reached through dispatch tables.
func (r *Result) ErrorCount() int {
	return len(r.Tree.Errors())
}
