package inspect

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/registry"
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// Theme centralizes the styling of formatted trees.
type Theme struct {
	Name   lipgloss.Style
	Value  lipgloss.Style
	Error  lipgloss.Style
	Dim    lipgloss.Style
	Header lipgloss.Style
}

// NewDefaultTheme returns the colored terminal theme.
func NewDefaultTheme() Theme {
	return Theme{
		Name:   lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF")),
		Value:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000")),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")),
	}
}

// Formatter formats dissection trees and registry listings.
type Formatter struct {
	// ShowOffsets prefixes each node with its byte range.
	ShowOffsets bool

	// ShowPaths appends the field path to each node.
	ShowPaths bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int

	// Theme styles the output. Nil means plain text.
	Theme *Theme
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowOffsets: true,
		IndentWidth: 2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

func (f *Formatter) style(s lipgloss.Style, text string) string {
	if f.Theme == nil || text == "" {
		return text
	}
	return s.Render(text)
}

// FormatValue formats a decoded value for display using a display base.
func (f *Formatter) FormatValue(value any, base model.Base) string {
	if value == nil {
		return "null"
	}
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return tree.FormatValue(value, base)
}

// FormatNode formats one node as a single line, without indentation.
func (f *Formatter) FormatNode(n *tree.Node) string {
	var sb strings.Builder
	if f.ShowOffsets {
		sb.WriteString(f.style(f.theme().Dim, fmt.Sprintf("[%d+%d] ", n.Offset, n.Length)))
	}
	sb.WriteString(f.style(f.theme().Name, n.Name))
	if v := n.ValueString(); v != "" {
		sb.WriteString(": ")
		sb.WriteString(f.style(f.theme().Value, v))
	}
	if f.ShowPaths && n.Path != "" {
		sb.WriteString(f.style(f.theme().Dim, " ("+n.Path+")"))
	}
	if n.Err != nil {
		sb.WriteString(" ")
		sb.WriteString(f.style(f.theme().Error, "[error: "+n.Err.Error()+"]"))
	}
	return sb.String()
}

// FormatTree formats the tree rooted at n, one node per line.
func (f *Formatter) FormatTree(n *tree.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	tree.Walk(n, func(c *tree.Node, depth int) bool {
		sb.WriteString(f.Indent(depth, f.FormatNode(c)))
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}

func (f *Formatter) theme() Theme {
	if f.Theme == nil {
		return Theme{}
	}
	return *f.Theme
}

// FormatFieldTable formats registered fields as a table.
func (f *Formatter) FormatFieldTable(fields []registry.FieldInfo) string {
	if len(fields) == 0 {
		return "  (no fields)"
	}

	width := 0
	for _, fi := range fields {
		width = max(width, len(fi.Abbrev))
	}

	var sb strings.Builder
	for _, fi := range fields {
		fmt.Fprintf(&sb, "  %4d  %-*s  %s", fi.ID, width, fi.Abbrev, fi.Type)
		if fi.Display.Base != model.BaseNone {
			fmt.Fprintf(&sb, " (%s)", fi.Display.Base)
		}
		if fi.Blurb != "" {
			sb.WriteString(f.style(f.theme().Dim, "  "+fi.Blurb))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatRegistry formats the protocols and tables of a registry.
func (f *Formatter) FormatRegistry(t *RegistryTree) string {
	var sb strings.Builder
	for _, p := range t.Protocols {
		sb.WriteString(f.style(f.theme().Header, fmt.Sprintf("%s (%s)", p.Name, p.Filter)))
		sb.WriteString("\n")
		for _, df := range p.DecodeFrom {
			sb.WriteString(f.Indent(1, "from "+formatDecodeFrom(df)))
			sb.WriteString("\n")
		}
		sb.WriteString(f.FormatFieldTable(p.Fields))
	}
	if len(t.Tables) > 0 {
		sb.WriteString(f.style(f.theme().Header, "Tables"))
		sb.WriteString("\n")
		for _, tab := range t.Tables {
			line := fmt.Sprintf("%s [%s] %d keys", tab.Name, tab.KeyKind, tab.Keys)
			if len(tab.Choices) > 0 {
				line += " decode-as: " + strings.Join(tab.Choices, ", ")
			}
			sb.WriteString(f.Indent(1, line))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatDecodeFrom(df model.DecodeFrom) string {
	var keys []string
	for _, k := range df.Uints {
		keys = append(keys, fmt.Sprintf("%d", k))
	}
	keys = append(keys, df.Strings...)
	if len(keys) == 0 {
		return df.Table + " (decode as)"
	}
	return df.Table + " = " + strings.Join(keys, ", ")
}

// Hexdump formats data as a canonical hex dump.
func Hexdump(data []byte) string {
	return hex.Dump(data)
}

// ParseHex parses hex input, ignoring whitespace, colons and an optional 0x
// prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':', '-':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}
