package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/registry"
)

// Inspector errors.
var (
	ErrProtocolNotFound = errors.New("protocol not found")
	ErrFieldNotFound    = errors.New("field not found")
	ErrTableNotFound    = errors.New("table not found")
	ErrNodeNotFound     = errors.New("node not found")
)

// Inspector describes the contents of a registry.
type Inspector struct {
	reg *registry.Registry
}

// NewInspector creates a new Inspector for the given registry.
func NewInspector(reg *registry.Registry) *Inspector {
	return &Inspector{reg: reg}
}

// Registry returns the underlying registry.
func (i *Inspector) Registry() *registry.Registry {
	return i.reg
}

// RegistryTree represents the complete registry for display.
type RegistryTree struct {
	Fingerprint string
	Protocols   []ProtocolInfo
	Tables      []TableInfo
}

// ProtocolInfo represents a registered protocol for display.
type ProtocolInfo struct {
	Filter     string
	Name       string
	ShortName  string
	Fields     []registry.FieldInfo
	DecodeFrom []model.DecodeFrom
}

// TableInfo represents a dispatch table for display.
type TableInfo struct {
	Name     string
	KeyKind  model.KeyKind
	Keys     int
	Choices  []string
	Selected bool
}

// InspectRegistry returns the protocols and tables of the registry.
func (i *Inspector) InspectRegistry() *RegistryTree {
	t := &RegistryTree{Fingerprint: i.reg.Fingerprint()}
	for _, p := range i.reg.Protocols() {
		t.Protocols = append(t.Protocols, i.protocolInfo(p))
	}
	for _, table := range i.reg.Tables() {
		t.Tables = append(t.Tables, tableInfo(table))
	}
	return t
}

// InspectProtocol returns information about one registered protocol.
func (i *Inspector) InspectProtocol(filter string) (*ProtocolInfo, error) {
	p, ok := i.reg.Protocol(filter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProtocolNotFound, filter)
	}
	info := i.protocolInfo(p)
	return &info, nil
}

func (i *Inspector) protocolInfo(p *model.Protocol) ProtocolInfo {
	info := ProtocolInfo{
		Filter:     p.Filter,
		Name:       p.Name,
		ShortName:  p.ShortName,
		DecodeFrom: p.DecodeFrom,
	}
	prefix := p.Filter + "."
	for _, f := range i.reg.Fields() {
		if strings.HasPrefix(f.Abbrev, prefix) {
			info.Fields = append(info.Fields, f)
		}
	}
	return info
}

// InspectTable returns information about one dispatch table.
func (i *Inspector) InspectTable(name string) (*TableInfo, error) {
	t, ok := i.reg.Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	info := tableInfo(t)
	return &info, nil
}

func tableInfo(t *registry.Table) TableInfo {
	_, selected := t.Selected()
	return TableInfo{
		Name:     t.Name,
		KeyKind:  t.KeyKind,
		Keys:     t.Keys(),
		Choices:  t.Choices(),
		Selected: selected,
	}
}

// ResolveField finds a registered field by its dotted path. An index suffix
// is ignored and the match is case-insensitive.
func (i *Inspector) ResolveField(path string) (registry.FieldInfo, error) {
	p, err := ParsePath(path)
	if err != nil {
		return registry.FieldInfo{}, err
	}
	want := strings.ToLower(p.Field())
	for _, f := range i.reg.Fields() {
		if strings.ToLower(f.Abbrev) == want {
			return f, nil
		}
	}
	return registry.FieldInfo{}, fmt.Errorf("%w: %s", ErrFieldNotFound, p.Field())
}

// Complete returns the registered field paths and protocol filters starting
// with prefix, for interactive completion.
func (i *Inspector) Complete(prefix string) []string {
	var out []string
	for _, p := range i.reg.Protocols() {
		if strings.HasPrefix(p.Filter, prefix) {
			out = append(out, p.Filter)
		}
	}
	for _, f := range i.reg.Fields() {
		if strings.HasPrefix(f.Abbrev, prefix) {
			out = append(out, f.Abbrev)
		}
	}
	return out
}
