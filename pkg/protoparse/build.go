package protoparse

import (
	"errors"
	"fmt"
	"os"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// Parse parses a YAML protocol description and builds a validated protocol.
func Parse(data []byte, cbs Callbacks) (*model.Protocol, error) {
	raw, err := ParseRaw(data)
	if err != nil {
		return nil, err
	}
	return Build(raw, cbs)
}

// Load reads and builds the protocol description at path.
func Load(path string, cbs Callbacks) (*model.Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Parse(data, cbs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadDir builds every .yaml and .yml description in dir, in file name
// order.
func LoadDir(dir string, cbs Callbacks) ([]*model.Protocol, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	protos := make([]*model.Protocol, 0, len(files))
	for _, f := range files {
		p, err := Load(f, cbs)
		if err != nil {
			return nil, err
		}
		protos = append(protos, p)
	}
	return protos, nil
}

// Build resolves the types and callbacks of raw and validates the result.
func Build(raw *RawProtocol, cbs Callbacks) (*model.Protocol, error) {
	b := &builder{
		raw:      raw,
		cbs:      cbs,
		structs:  make(map[string]*RawStruct, len(raw.Structs)),
		enums:    make(map[string]*RawEnum, len(raw.Enums)),
		builtC:   make(map[string]*model.Composite),
		builtE:   make(map[string]*model.Enum),
		building: make(map[string]bool),
	}
	if err := b.index(); err != nil {
		return nil, err
	}
	if raw.Root == "" {
		return nil, ErrNoRoot
	}
	if _, ok := b.structs[raw.Root]; !ok {
		return nil, &PathError{Path: "root", Err: fmt.Errorf("%w %q", ErrUnknownType, raw.Root)}
	}

	root, err := b.composite(raw.Root, raw.Filter)
	if err != nil {
		return nil, err
	}

	p := &model.Protocol{
		Name:      raw.Name,
		ShortName: raw.ShortName,
		Filter:    raw.Filter,
		Root:      root,
	}
	for _, d := range raw.DecodeFrom {
		p.DecodeFrom = append(p.DecodeFrom, model.DecodeFrom{Table: d.Table, Uints: d.Uints, Strings: d.Strings})
	}
	if err := model.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

type builder struct {
	raw *RawProtocol
	cbs Callbacks

	structs map[string]*RawStruct
	enums   map[string]*RawEnum

	builtC map[string]*model.Composite
	builtE map[string]*model.Enum

	// building guards against a struct containing itself by value.
	building map[string]bool
}

func (b *builder) index() error {
	for i := range b.raw.Structs {
		s := &b.raw.Structs[i]
		if _, dup := b.structs[s.Name]; dup {
			return &PathError{Path: s.Name, Err: ErrDuplicate}
		}
		b.structs[s.Name] = s
	}
	for i := range b.raw.Enums {
		e := &b.raw.Enums[i]
		if _, dup := b.structs[e.Name]; dup {
			return &PathError{Path: e.Name, Err: ErrDuplicate}
		}
		if _, dup := b.enums[e.Name]; dup {
			return &PathError{Path: e.Name, Err: ErrDuplicate}
		}
		b.enums[e.Name] = e
	}
	return nil
}

// composite builds the named struct. path is the dotted path used in error
// messages for its fields.
func (b *builder) composite(name, path string) (*model.Composite, error) {
	if c, ok := b.builtC[name]; ok {
		return c, nil
	}
	if b.building[name] {
		return nil, &PathError{Path: path, Err: fmt.Errorf("%w: %s contains itself", ErrBadType, name)}
	}
	raw := b.structs[name]
	b.building[name] = true
	defer delete(b.building, name)

	c := &model.Composite{Name: raw.Name, Doc: raw.Doc, Inline: raw.Inline}
	var err error
	if c.PreDissect, err = b.cbs.lookupAll(raw.PreDissect, tap.KindHook, tap.KindTap); err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	if c.PostDissect, err = b.cbs.lookupAll(raw.PostDissect, tap.KindHook, tap.KindTap); err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	for i := range raw.Fields {
		rf := &raw.Fields[i]
		fpath := path + "." + rf.Name
		if raw.Inline {
			fpath = path
		}
		f, err := b.field(rf, fpath)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, f)
	}
	b.builtC[name] = c
	return c, nil
}

func (b *builder) field(rf *RawField, path string) (*model.Field, error) {
	fail := func(err error) (*model.Field, error) {
		return nil, &PathError{Path: path, Err: err}
	}

	typ, err := parseType(rf.Type, func(name string) (*model.Type, error) {
		return b.named(name, path)
	})
	if err != nil {
		var pe *PathError
		if errors.As(err, &pe) {
			return nil, err
		}
		return fail(err)
	}

	f := &model.Field{
		Name:        rf.Name,
		Type:        typ,
		Doc:         rf.Doc,
		Hidden:      rf.Hidden,
		Save:        rf.Save,
		Bytes:       rf.Bytes,
		LengthField: rf.LengthField,
		Rename:      rf.Rename,
	}
	if f.Display, err = display(rf.Display); err != nil {
		return fail(err)
	}

	if rf.DecodeWith != "" {
		if f.DecodeWith, err = b.cbs.lookup(rf.DecodeWith, tap.KindDecodeWith); err != nil {
			return fail(err)
		}
	}
	if rf.ConsumeWith != "" {
		if f.ConsumeWith, err = b.cbs.lookup(rf.ConsumeWith, tap.KindConsumeWith); err != nil {
			return fail(err)
		}
	}
	if rf.GetVariant != "" {
		if f.Variant, err = b.cbs.lookup(rf.GetVariant, tap.KindVariant); err != nil {
			return fail(err)
		}
	}
	if f.Taps, err = b.cbs.lookupAll(rf.Taps, tap.KindTap); err != nil {
		return fail(err)
	}
	if sd := rf.Subdissector; sd != nil {
		if len(sd.Keys) == 0 {
			f.Subdissector = model.DecodeAs(sd.Table)
		} else {
			f.Subdissector = model.TableLookup(sd.Table, sd.Keys...)
		}
	}
	return f, nil
}

// named resolves a struct or enum reference.
func (b *builder) named(name, path string) (*model.Type, error) {
	if _, ok := b.structs[name]; ok {
		c, err := b.composite(name, path)
		if err != nil {
			return nil, err
		}
		return model.Struct(c), nil
	}
	if _, ok := b.enums[name]; ok {
		e, err := b.enum(name, path)
		if err != nil {
			return nil, err
		}
		return model.EnumOf(e), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
}

func (b *builder) enum(name, path string) (*model.Enum, error) {
	if e, ok := b.builtE[name]; ok {
		return e, nil
	}
	raw := b.enums[name]
	e := &model.Enum{Name: raw.Name}
	// Registered before the variants so a variant body may refer back to
	// the enum through a sequence.
	b.builtE[name] = e

	for i := range raw.Variants {
		rv := &raw.Variants[i]
		v := &model.Variant{Name: rv.Name, Rename: rv.Rename, Doc: rv.Doc}
		vpath := path + "." + v.PathSegment()

		var err error
		if v.PreDissect, err = b.cbs.lookupAll(rv.PreDissect, tap.KindHook, tap.KindTap); err != nil {
			return nil, &PathError{Path: vpath, Err: err}
		}
		if v.PostDissect, err = b.cbs.lookupAll(rv.PostDissect, tap.KindHook, tap.KindTap); err != nil {
			return nil, &PathError{Path: vpath, Err: err}
		}
		if rv.Body != "" {
			if _, ok := b.structs[rv.Body]; !ok {
				return nil, &PathError{Path: vpath, Err: fmt.Errorf("%w %q", ErrUnknownType, rv.Body)}
			}
			if v.Body, err = b.composite(rv.Body, vpath); err != nil {
				return nil, err
			}
		}
		e.Variants = append(e.Variants, v)
	}
	return e, nil
}

func display(raw RawDisplay) (model.Display, error) {
	base, ok := model.ParseBase(raw.Base)
	if !ok {
		return model.Display{}, fmt.Errorf("%w: base %q", ErrBadDisplay, raw.Base)
	}
	enc, ok := model.ParseEncoding(raw.Encoding)
	if !ok {
		return model.Display{}, fmt.Errorf("%w: encoding %q", ErrBadDisplay, raw.Encoding)
	}
	return model.Display{WireType: raw.WireType, Base: base, Encoding: enc}, nil
}
