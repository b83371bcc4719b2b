// Package tree holds the output of a dissection: a tree of labeled byte
// ranges with decoded values and error markers.
package tree

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/dissect-kit/dissect-go/pkg/model"
)

// Node is one item of the dissection tree.
type Node struct {
	// Name is the display label, e.g. "Src Port".
	Name string

	// Path is the dotted field path at which the node was decoded.
	Path string

	// FieldID and SubtreeID are the registry IDs of the field and, for
	// nodes with children, of the subtree. Zero means none.
	FieldID   int
	SubtreeID int

	// Offset is the absolute offset within the top-level packet.
	Offset int
	Length int

	// Value is the decoded value for primitive and byte fields.
	Value any

	// Text overrides the formatted value (decode-with, consume-with,
	// variant names, delegated payload summaries).
	Text string

	// Raw holds the covered bytes for byte fields.
	Raw []byte

	Display model.Display

	// Err marks a node whose decoding failed.
	Err error

	Children []*Node
}

// Add appends child and returns it. Adding to a nil node discards the child
// and returns nil, so hidden decoding can pass a nil parent all the way down.
func (n *Node) Add(child *Node) *Node {
	if n == nil || child == nil {
		return nil
	}
	n.Children = append(n.Children, child)
	return child
}

// SetLength sets the node's byte length. It is a no-op on a nil node.
func (n *Node) SetLength(length int) {
	if n != nil {
		n.Length = length
	}
}

// MarkError records err on the node unless it already carries one.
func (n *Node) MarkError(err error) {
	if n != nil && n.Err == nil {
		n.Err = err
	}
}

// IsSubtree reports whether the node groups child nodes.
func (n *Node) IsSubtree() bool {
	return n.SubtreeID != 0 || len(n.Children) > 0
}

// End returns the offset just past the node's byte range.
func (n *Node) End() int {
	return n.Offset + n.Length
}

// ValueString formats the node's value according to its display base.
func (n *Node) ValueString() string {
	if n.Text != "" {
		return n.Text
	}
	return FormatValue(n.Value, n.Display.Base)
}

// String returns the node as "Name: value".
func (n *Node) String() string {
	v := n.ValueString()
	switch {
	case n.Err != nil && v == "":
		return fmt.Sprintf("%s [error: %v]", n.Name, n.Err)
	case n.Err != nil:
		return fmt.Sprintf("%s: %s [error: %v]", n.Name, v, n.Err)
	case v == "":
		return n.Name
	}
	return n.Name + ": " + v
}

// FormatValue formats a decoded value using a display base.
func FormatValue(v any, base model.Base) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return hex.EncodeToString(x)
	case string:
		return x
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	u, signed, width, ok := integer(v)
	if !ok {
		return fmt.Sprint(v)
	}
	dec := strconv.FormatUint(u, 10)
	if signed {
		dec = strconv.FormatInt(int64(u), 10)
	}
	hx := fmt.Sprintf("0x%0*x", width*2, u&mask(width))
	switch base {
	case model.BaseHex:
		return hx
	case model.BaseOct:
		return "0" + strconv.FormatUint(u&mask(width), 8)
	case model.BaseDecHex:
		return dec + " (" + hx + ")"
	case model.BaseHexDec:
		return hx + " (" + dec + ")"
	default:
		return dec
	}
}

func integer(v any) (u uint64, signed bool, width int, ok bool) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), false, 1, true
	case uint16:
		return uint64(x), false, 2, true
	case uint32:
		return uint64(x), false, 4, true
	case uint64:
		return x, false, 8, true
	case int8:
		return uint64(x), true, 1, true
	case int16:
		return uint64(x), true, 2, true
	case int32:
		return uint64(x), true, 4, true
	case int64:
		return uint64(x), true, 8, true
	}
	return 0, false, 0, false
}

func mask(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return 1<<(uint(width)*8) - 1
}
