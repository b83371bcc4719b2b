package registry

import (
	"github.com/dissect-kit/dissect-go/pkg/model"
)

// pass collects the additions of one Register call. Lookups consult the
// registry first, so composites registered earlier keep their IDs.
type pass struct {
	r *Registry

	fields     []FieldInfo
	fieldIDs   map[fieldKey]int
	subtrees   []SubtreeInfo
	subtreeIDs map[any]int
	composites map[*model.Composite]bool
	tables     map[string]model.KeyKind

	errs model.SchemaErrors
}

func newPass(r *Registry) *pass {
	return &pass{
		r:          r,
		fieldIDs:   make(map[fieldKey]int),
		subtreeIDs: make(map[any]int),
		composites: make(map[*model.Composite]bool),
		tables:     make(map[string]model.KeyKind),
	}
}

// composite registers c at prefix. variantOf is the subtree ID of the enclosing
// enum when c is a variant body.
func (p *pass) composite(c *model.Composite, prefix string, variantOf int) {
	if p.r.composites[c] || p.composites[c] {
		return
	}
	p.composites[c] = true

	switch {
	case variantOf != 0:
		p.subtreeIDs[c] = variantOf
	case !c.Inline:
		p.subtree(c, c.Name, prefix)
	}

	for i, f := range c.Fields {
		path := prefix + "." + f.Name
		if c.Inline {
			path = prefix
		}
		p.field(c, i, f, path)
	}
}

func (p *pass) field(c *model.Composite, i int, f *model.Field, path string) {
	key := fieldKey{c, i}
	if _, ok := p.r.fieldIDs[key]; !ok {
		if _, ok := p.fieldIDs[key]; !ok {
			id := len(p.r.fields) + len(p.fields) + 1
			p.fields = append(p.fields, FieldInfo{
				ID:      id,
				Name:    f.Label(),
				Abbrev:  path,
				Type:    f.Type.String(),
				Kind:    f.Type.Kind,
				Display: f.Display,
				Blurb:   f.Doc,
			})
			p.fieldIDs[key] = id
		}
	}

	p.typ(f.Type, path)

	if f.Subdissector != nil {
		kind, err := f.Subdissector.KeyKind(c)
		if err != nil {
			p.errs = append(p.errs, &model.SchemaError{Path: path, Msg: err.Error()})
			return
		}
		p.table(f.Subdissector.Table, kind, path)
	}
}

func (p *pass) typ(t *model.Type, path string) {
	switch t.Kind {
	case model.KindComposite:
		p.composite(t.Composite, path, 0)
	case model.KindSequence:
		p.typ(t.Elem, path)
	case model.KindEnum:
		id := p.subtree(t.Enum, t.Enum.Name, path)
		for _, v := range t.Enum.Variants {
			if v.Body != nil {
				p.composite(v.Body, path+"."+v.PathSegment(), id)
			}
		}
	}
}

func (p *pass) subtree(key any, name, abbrev string) int {
	if id, ok := p.r.subtreeIDs[key]; ok {
		return id
	}
	if id, ok := p.subtreeIDs[key]; ok {
		return id
	}
	id := len(p.r.subtrees) + len(p.subtrees) + 1
	if name == "" {
		name = abbrev
	}
	p.subtrees = append(p.subtrees, SubtreeInfo{ID: id, Name: name, Abbrev: abbrev})
	p.subtreeIDs[key] = id
	return id
}

// table records a reference to a dispatch table, creating it if needed.
func (p *pass) table(name string, kind model.KeyKind, path string) {
	existing, ok := p.tables[name]
	if !ok {
		if t, found := p.r.tables[name]; found {
			existing, ok = t.KeyKind, true
		}
	}
	if !ok {
		p.tables[name] = kind
		return
	}
	merged, compatible := mergeKeyKind(existing, kind)
	if !compatible {
		p.errs = append(p.errs, &model.SchemaError{
			Path: path,
			Msg:  "table " + name + " has " + existing.String() + " keys, not " + kind.String(),
		})
		return
	}
	p.tables[name] = merged
}

func (p *pass) decodeFrom(proto *model.Protocol) {
	for _, df := range proto.DecodeFrom {
		kind := model.KeyNone
		switch {
		case len(df.Uints) > 0:
			kind = model.KeyUint
		case len(df.Strings) > 0:
			kind = model.KeyString
		}
		p.table(df.Table, kind, proto.Filter)
	}
}

func (p *pass) commit() {
	r := p.r
	r.fields = append(r.fields, p.fields...)
	for k, id := range p.fieldIDs {
		r.fieldIDs[k] = id
	}
	r.subtrees = append(r.subtrees, p.subtrees...)
	for k, id := range p.subtreeIDs {
		r.subtreeIDs[k] = id
	}
	for c := range p.composites {
		r.composites[c] = true
	}
	for name, kind := range p.tables {
		if t, ok := r.tables[name]; ok {
			t.KeyKind = kind
			continue
		}
		r.tables[name] = newTable(name, kind)
	}
}
