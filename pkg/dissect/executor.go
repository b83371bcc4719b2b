package dissect

import (
	"errors"
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/plan"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

// executor holds the state of one protocol invocation. All offsets it passes
// around are relative to the reader; node offsets are absolute.
type executor struct {
	d        *Dissector
	packet   []byte
	info     *tap.PacketInfo
	fields   *tap.Store
	sizeOnly bool

	errs  []DecodeError
	fatal error
}

// frame is one composite invocation.
type frame struct {
	c      *model.Composite
	prefix string

	// label is the enclosing field's label, used by inline composites.
	label string

	local   *tap.Store
	emitted map[string]any
	failed  bool

	// last is the value of the most recently decoded field.
	last any
}

// site is the field being decoded.
type site struct {
	fr    *frame
	f     *model.Field
	path  string
	label string
	id    int
}

func (e *executor) run(r *wire.Reader, root *tree.Node) int {
	n, _ := e.composite(e.d.proto.Root, r, root, 0, e.d.proto.Filter, "")
	root.SetLength(n)
	return n
}

func (e *executor) plans(c *model.Composite) []plan.FieldPlan {
	if e.sizeOnly {
		return e.d.plans.GetSizeOnly(c)
	}
	return e.d.plans.Get(c)
}

// composite decodes the fields of c starting at off and returns the number of
// bytes consumed.
func (e *executor) composite(c *model.Composite, r *wire.Reader, parent *tree.Node, off int, prefix, label string) (int, *frame) {
	return e.compositeWith(c, r, parent, off, prefix, label, nil, nil)
}

// compositeWith is composite with extra hooks wrapped around the composite's
// own. Both sets share the composite's frame, so they see its local fields.
func (e *executor) compositeWith(c *model.Composite, r *wire.Reader, parent *tree.Node, off int, prefix, label string, pre, post []tap.Callback) (int, *frame) {
	fr := newFrame(c, prefix, label)
	start := off

	e.hooks(pre, prefix, fr, r, off, parent)
	e.hooks(c.PreDissect, prefix, fr, r, off, parent)
	for _, p := range e.plans(c) {
		if e.fatal != nil {
			return off - start, fr
		}
		off = e.field(fr, p, r, parent, off)
	}
	e.hooks(c.PostDissect, prefix, fr, r, off, parent)
	e.hooks(post, prefix, fr, r, off, parent)

	return off - start, fr
}

func newFrame(c *model.Composite, prefix, label string) *frame {
	fr := &frame{
		c:      c,
		prefix: prefix,
		label:  label,
		local:  tap.NewStore(),
	}
	if c != nil {
		fr.emitted = make(map[string]any, len(c.Fields))
	}
	return fr
}

// field decodes one field and returns the offset after it.
func (e *executor) field(fr *frame, p plan.FieldPlan, r *wire.Reader, parent *tree.Node, off int) int {
	f := p.Field
	s := site{fr: fr, f: f, path: fr.prefix + "." + f.Name, label: f.Label()}
	if fr.c.Inline {
		s.path, s.label = fr.prefix, fr.label
	}
	if !e.sizeOnly {
		s.id = e.d.reg.FieldID(fr.c, p.Index)
	}

	out := parent
	if f.Hidden || e.sizeOnly {
		out = nil
	}

	var (
		v    any
		n    int
		node *tree.Node
		err  error
	)
	switch st := p.Strategy.(type) {
	case plan.Subdissect:
		v, n, err = e.subdissect(s, st.Sub, r, out, off)
	case plan.ConsumeWith:
		v, n, node, err = e.consumeWith(s, st.Fn, r, out, off)
	case plan.DecodeWith:
		v, n, node, err = e.decodeWith(s, st.Fn, r, out, off)
	case plan.Hidden:
		v, n, node, err = e.hidden(s, r, off)
	case plan.Default:
		v, n, node, err = e.value(s, f.Type, r, out, off)
	default:
		panic(fmt.Sprintf("dissect: unhandled strategy %T", st))
	}

	if err != nil {
		e.fail(s, r, off, parent, node, err)
		if errors.Is(err, wire.ErrOutOfRange) {
			return r.Len()
		}
		return off + n
	}

	fr.last = v
	if p.Emit {
		fr.emitted[f.Name] = v
	}
	if p.Save && !fr.failed {
		fr.local.Put(f.Name, v)
		e.fields.Put(s.path, v)
	}
	if !e.sizeOnly {
		e.taps(s, v, r, off, node)
	}
	return off + n
}

// fail records a field-scoped error and marks the composite failed.
func (e *executor) fail(s site, r *wire.Reader, off int, parent, node *tree.Node, err error) {
	s.fr.failed = true
	de := DecodeError{Path: s.path, Offset: r.Base() + off, Err: err}
	e.errs = append(e.errs, de)

	if node != nil {
		node.MarkError(err)
	} else if !e.sizeOnly {
		length := 0
		if errors.Is(err, wire.ErrOutOfRange) {
			length = r.Remaining(off)
		}
		parent.Add(&tree.Node{
			Name:    s.label,
			Path:    s.path,
			FieldID: s.id,
			Offset:  r.Base() + off,
			Length:  length,
			Err:     err,
		})
	}

	if e.d.opts.StrictVariants && (errors.Is(err, ErrUnknownVariant) || errors.Is(err, ErrResolver)) {
		e.fatal = de
	}
	if !e.sizeOnly {
		e.d.debugLog("decode error", "path", s.path, "offset", de.Offset, "error", err)
	}
}

// hookFailed records a callback error without failing the composite.
func (e *executor) hookFailed(path string, offset int, node *tree.Node, err error) {
	err = hookErr(err)
	e.errs = append(e.errs, DecodeError{Path: path, Offset: offset, Err: err})
	node.MarkError(err)
	e.d.debugLog("hook error", "path", path, "offset", offset, "error", err)
}

func (e *executor) context(s site, v any, r *wire.Reader, off int) *tap.Context {
	return &tap.Context{
		Field:       v,
		Path:        s.path,
		Fields:      e.fields.View(),
		FieldsLocal: s.fr.local.View(),
		Packet:      e.packet,
		Offset:      off,
		Info:        e.info,
	}
}

func (e *executor) hooks(cbs []tap.Callback, path string, fr *frame, r *wire.Reader, off int, node *tree.Node) {
	if e.sizeOnly {
		return
	}
	for _, cb := range cbs {
		ctx := &tap.Context{
			Path:        path,
			Fields:      e.fields.View(),
			FieldsLocal: fr.local.View(),
			Packet:      e.packet,
			Offset:      off,
			Info:        e.info,
		}
		if _, err := cb.Call(ctx); err != nil {
			e.hookFailed(path, r.Base()+off, node, err)
		}
	}
}

func (e *executor) taps(s site, v any, r *wire.Reader, off int, node *tree.Node) {
	for _, cb := range s.f.Taps {
		if _, err := cb.Call(e.context(s, v, r, off)); err != nil {
			e.hookFailed(s.path, r.Base()+off, node, err)
		}
	}
}

// hidden decodes a field without tree output. In size-only mode every field
// takes this path, so it also sizes consume-with and subdissector fields.
func (e *executor) hidden(s site, r *wire.Reader, off int) (any, int, *tree.Node, error) {
	switch {
	case s.f.Subdissector != nil:
		v, n, err := e.subdissect(s, s.f.Subdissector, r, nil, off)
		return v, n, nil, err
	case !s.f.ConsumeWith.IsZero():
		return e.consumeWith(s, s.f.ConsumeWith, r, nil, off)
	}
	return e.value(s, s.f.Type, r, nil, off)
}

func (e *executor) consumeWith(s site, cb tap.Callback, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	res, err := cb.Call(e.context(s, nil, r, off))
	if err != nil {
		return nil, 0, nil, hookErr(err)
	}
	if res.Consumed < 0 {
		return nil, 0, nil, fmt.Errorf("%s returned %d: %w", cb.Name, res.Consumed, ErrConsumed)
	}
	b, err := r.Slice(off, res.Consumed)
	if err != nil {
		return nil, 0, nil, err
	}
	node := out.Add(&tree.Node{
		Name:    s.label,
		Path:    s.path,
		FieldID: s.id,
		Offset:  r.Base() + off,
		Length:  res.Consumed,
		Value:   b,
		Text:    res.Text,
		Raw:     b,
		Display: s.f.Display,
	})
	return b, res.Consumed, node, nil
}

func (e *executor) decodeWith(s site, cb tap.Callback, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	v, n, _, err := e.value(s, s.f.Type, r, nil, off)
	if err != nil {
		return nil, n, nil, err
	}
	node := out.Add(&tree.Node{
		Name:    s.label,
		Path:    s.path,
		FieldID: s.id,
		Offset:  r.Base() + off,
		Length:  n,
		Value:   v,
		Display: s.f.Display,
	})
	res, cerr := cb.Call(e.context(s, v, r, off))
	if cerr != nil {
		e.hookFailed(s.path, r.Base()+off, node, cerr)
	} else if node != nil {
		node.Text = res.Text
	}
	return v, n, node, nil
}

// value decodes a value of type t by its declared layout.
func (e *executor) value(s site, t *model.Type, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	switch {
	case t == s.f.Type && s.f.IsBytes():
		return e.bytes(s, t, r, out, off)
	case t.Kind.IsPrimitive():
		v, err := readPrimitive(r, off, t.Kind, s.f.Display.Encoding)
		if err != nil {
			return nil, 0, nil, err
		}
		node := out.Add(&tree.Node{
			Name:    s.label,
			Path:    s.path,
			FieldID: s.id,
			Offset:  r.Base() + off,
			Length:  t.Kind.Size(),
			Value:   v,
			Display: s.f.Display,
		})
		return v, t.Kind.Size(), node, nil
	}

	switch t.Kind {
	case model.KindUnit:
		return nil, 0, nil, nil
	case model.KindBytes:
		return e.bytes(s, t, r, out, off)
	case model.KindSequence:
		return e.sequence(s, t, r, out, off)
	case model.KindComposite:
		return e.nested(s, t.Composite, r, out, off)
	case model.KindEnum:
		return e.variant(s, t.Enum, r, out, off)
	}
	return nil, 0, nil, fmt.Errorf("unsupported type %s", t)
}

func (e *executor) bytes(s site, t *model.Type, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	n, err := e.byteLen(s, t, r, off)
	if err != nil {
		return nil, 0, nil, err
	}
	b, err := r.Slice(off, n)
	if err != nil {
		return nil, 0, nil, err
	}
	node := out.Add(&tree.Node{
		Name:    s.label,
		Path:    s.path,
		FieldID: s.id,
		Offset:  r.Base() + off,
		Length:  n,
		Value:   b,
		Raw:     b,
		Display: s.f.Display,
	})
	return b, n, node, nil
}

// byteLen returns the size of a byte-string field: its fixed size, its length
// hint, or the rest of the buffer.
func (e *executor) byteLen(s site, t *model.Type, r *wire.Reader, off int) (int, error) {
	switch {
	case t.Kind == model.KindBytes && t.Size > 0:
		return t.Size, nil
	case s.f.LengthField != "":
		return e.hint(s)
	case t.Kind == model.KindSequence && t.Count > 0:
		if size, ok := t.Elem.FixedSize(); ok {
			return size * t.Count, nil
		}
	}
	return r.Remaining(off), nil
}

// hint returns the emitted value of the field's length hint.
func (e *executor) hint(s site) (int, error) {
	v, ok := s.fr.emitted[s.f.LengthField]
	if !ok {
		return 0, fmt.Errorf("%q was not decoded: %w", s.f.LengthField, ErrLengthHint)
	}
	n, ok := tap.AsUint(v)
	if !ok || n > uint64(maxInt) {
		return 0, fmt.Errorf("%q = %v: %w", s.f.LengthField, v, ErrLengthHint)
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)

func (e *executor) sequence(s site, t *model.Type, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	count, rest := t.Count, t.Rest
	if s.f.LengthField != "" && t == s.f.Type {
		n, err := e.hint(s)
		if err != nil {
			return nil, 0, nil, err
		}
		count, rest = n, false
	}

	seq := out.Add(&tree.Node{
		Name:    s.label,
		Path:    s.path,
		FieldID: s.id,
		Offset:  r.Base() + off,
	})
	if t.Elem.Kind == model.KindComposite && seq != nil {
		seq.SubtreeID = e.d.reg.SubtreeID(t.Elem.Composite)
	}

	// A count read from the packet can run far past its end. Once the
	// window is exhausted the remaining elements are reported as a single
	// error on the sequence rather than one per element.
	size, fixed := t.Elem.FixedSize()
	start := off
	for i := 0; (rest && off < r.Len()) || (!rest && i < count); i++ {
		if !rest && off >= r.Len() && (!fixed || size > 0) {
			seq.SetLength(off - start)
			return nil, off - start, seq, fmt.Errorf("%d of %d elements: %w", i, count, wire.ErrOutOfRange)
		}
		_, n, _, err := e.value(s, t.Elem, r, seq, off)
		if err != nil {
			seq.SetLength(off - start)
			return nil, off - start, seq, err
		}
		off += n
		if rest && n == 0 {
			break
		}
	}
	seq.SetLength(off - start)
	return nil, off - start, seq, nil
}

func (e *executor) nested(s site, c *model.Composite, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	if c.Inline {
		n, child := e.composite(c, r, out, off, s.path, s.label)
		return child.last, n, nil, nil
	}
	node := out.Add(&tree.Node{
		Name:      s.label,
		Path:      s.path,
		FieldID:   s.id,
		SubtreeID: e.d.reg.SubtreeID(c),
		Offset:    r.Base() + off,
	})
	n, _ := e.composite(c, r, node, off, s.path, s.label)
	node.SetLength(n)
	return nil, n, node, nil
}
