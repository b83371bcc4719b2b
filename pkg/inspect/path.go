// Package inspect provides rendering and lookup utilities for dissection trees
// and registries.
//
// The inspect package offers:
//   - Parsing dotted field paths (e.g., "baby_udp.src_port", "baby_tlv.records.tag[1]")
//   - Finding nodes in a tree by path
//   - Describing the protocols, fields and tables of a registry
//   - Formatting trees for display, optionally styled
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// Path errors.
var (
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidPath   = errors.New("invalid path format")
	ErrInvalidNumber = errors.New("invalid numeric value in path")
)

// Path is a parsed field path.
// Format: protocol[.segment...][[index]]
type Path struct {
	// Protocol is the protocol filter, the first segment.
	Protocol string

	// Segments are the segments after the protocol.
	Segments []string

	// Index selects among repeated nodes at the same path (sequence
	// elements). -1 means the first.
	Index int

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path.
//
// Supported formats:
//   - "proto" - the protocol root
//   - "proto.field.sub" - a field path
//   - "proto.field[2]" - the third node at that path
//
// The index can be decimal or hex (0x prefix).
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	p := &Path{Raw: input, Index: -1}

	if i := strings.IndexByte(input, '['); i >= 0 {
		if !strings.HasSuffix(input, "]") {
			return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, input)
		}
		idx, err := parseIndex(input[i+1 : len(input)-1])
		if err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
		p.Index = idx
		input = input[:i]
	}

	parts := strings.Split(input, ".")
	for _, part := range parts {
		if part == "" || !validSegment(part) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p.Raw)
		}
	}
	p.Protocol = parts[0]
	p.Segments = parts[1:]
	return p, nil
}

// Field returns the dotted path without the index.
func (p *Path) Field() string {
	if len(p.Segments) == 0 {
		return p.Protocol
	}
	return p.Protocol + "." + strings.Join(p.Segments, ".")
}

// IsRoot reports whether the path names a protocol root.
func (p *Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// String returns the canonical form of the path.
func (p *Path) String() string {
	if p.Index < 0 {
		return p.Field()
	}
	return fmt.Sprintf("%s[%d]", p.Field(), p.Index)
}

// Find returns the node at p in the tree rooted at root, or nil.
func Find(root *tree.Node, p *Path) *tree.Node {
	if p.Index < 0 {
		return root.Find(p.Field())
	}
	all := root.FindAll(p.Field())
	if p.Index >= len(all) {
		return nil
	}
	return all[p.Index]
}

// Lookup parses path and finds it in the tree rooted at root.
func Lookup(root *tree.Node, path string) (*tree.Node, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	n := Find(root, p)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", p, ErrNodeNotFound)
	}
	return n, nil
}

func parseIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidNumber
	}
	n, err := strconv.ParseUint(s, 0, 31)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return int(n), nil
}

func validSegment(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
