package protoparse

import (
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// Callbacks maps the callback names used in a description to their
// implementations.
type Callbacks map[string]tap.Callback

// NewCallbacks indexes cbs by their Name.
func NewCallbacks(cbs ...tap.Callback) Callbacks {
	set := make(Callbacks, len(cbs))
	for _, cb := range cbs {
		set[cb.Name] = cb
	}
	return set
}

// Add registers cb under its Name, replacing any earlier entry.
func (c Callbacks) Add(cb tap.Callback) {
	c[cb.Name] = cb
}

// Merge returns a new set holding the entries of c and other. Entries of
// other win on conflicts.
func (c Callbacks) Merge(other Callbacks) Callbacks {
	out := make(Callbacks, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// CallbacksFrom collects every named callback used by protos, so
// descriptions can reuse the callbacks of compiled protocols.
func CallbacksFrom(protos ...*model.Protocol) Callbacks {
	c := make(Callbacks)
	seen := make(map[*model.Composite]bool)
	for _, p := range protos {
		c.collect(p.Root, seen)
	}
	return c
}

func (c Callbacks) collect(comp *model.Composite, seen map[*model.Composite]bool) {
	if comp == nil || seen[comp] {
		return
	}
	seen[comp] = true
	c.addNamed(comp.PreDissect...)
	c.addNamed(comp.PostDissect...)
	for _, f := range comp.Fields {
		c.addNamed(f.DecodeWith, f.ConsumeWith, f.Variant)
		c.addNamed(f.Taps...)
		c.collectType(f.Type, seen)
	}
}

func (c Callbacks) collectType(t *model.Type, seen map[*model.Composite]bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case model.KindComposite:
		c.collect(t.Composite, seen)
	case model.KindSequence:
		c.collectType(t.Elem, seen)
	case model.KindEnum:
		for _, v := range t.Enum.Variants {
			c.addNamed(v.PreDissect...)
			c.addNamed(v.PostDissect...)
			c.collect(v.Body, seen)
		}
	}
}

func (c Callbacks) addNamed(cbs ...tap.Callback) {
	for _, cb := range cbs {
		if cb.Name != "" && cb.Fn != nil {
			c[cb.Name] = cb
		}
	}
}

// lookup resolves name and checks that it has one of the wanted kinds.
func (c Callbacks) lookup(name string, want ...tap.Kind) (tap.Callback, error) {
	cb, ok := c[name]
	if !ok {
		return tap.Callback{}, fmt.Errorf("%w %q", ErrUnknownCallback, name)
	}
	for _, k := range want {
		if cb.Kind == k {
			return cb, nil
		}
	}
	return tap.Callback{}, fmt.Errorf("%w: %q is %s, want %s", ErrCallbackKind, name, cb.Kind, want[0])
}

func (c Callbacks) lookupAll(names []string, want ...tap.Kind) ([]tap.Callback, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]tap.Callback, 0, len(names))
	for _, name := range names {
		cb, err := c.lookup(name, want...)
		if err != nil {
			return nil, err
		}
		out = append(out, cb)
	}
	return out, nil
}
