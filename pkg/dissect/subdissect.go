package dissect

import (
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/registry"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

// TrySubdissectors offers sub to the decoders of a dispatch table.
//
// For a keyed table, keys are tried in order and the first decoder that
// claims any bytes wins. For a "decode as" reference, only the decoder
// selected on the table is tried. Unclaimed bytes go to the registry's
// fallback decoder. It returns the number of bytes consumed.
func TrySubdissectors(reg *registry.Registry, sub *model.Subdissector, keys []any, r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int {
	if t, ok := reg.Table(sub.Table); ok {
		if sub.IsDecodeAs() {
			if d, ok := t.Selected(); ok {
				if n := offer(d, r, parent, info); n > 0 {
					return n
				}
			}
		} else {
			for _, k := range keys {
				d, ok := lookup(t, k)
				if !ok {
					continue
				}
				if n := offer(d, r, parent, info); n > 0 {
					return n
				}
			}
		}
	}
	return reg.Fallback().Decode(r, parent, info)
}

// offer runs d and drops whatever it added to parent if it claimed nothing.
func offer(d registry.Decoder, r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int {
	var before int
	if parent != nil {
		before = len(parent.Children)
	}
	n := d.Decode(r, parent, info)
	if n <= 0 {
		if parent != nil {
			parent.Children = parent.Children[:before]
		}
		return 0
	}
	return n
}

func lookup(t *registry.Table, key any) (registry.Decoder, bool) {
	switch t.KeyKind {
	case model.KeyUint:
		if k, ok := tap.AsUint(key); ok {
			return t.LookupUint(k)
		}
	case model.KeyString:
		switch k := key.(type) {
		case string:
			return t.LookupString(k)
		case []byte:
			return t.LookupString(string(k))
		}
	}
	return nil, false
}

// subdissect hands the field's bytes to its dispatch table and advances by
// what the winning delegate consumed. Size-only runs call the same
// delegates with a nil parent so both modes agree.
func (e *executor) subdissect(s site, sub *model.Subdissector, r *wire.Reader, out *tree.Node, off int) (any, int, error) {
	n, err := e.byteLen(s, s.f.Type, r, off)
	if err != nil {
		return nil, 0, err
	}
	w, err := r.Window(off, n)
	if err != nil {
		return nil, 0, err
	}

	keys := make([]any, 0, len(sub.Keys))
	for _, k := range sub.Keys {
		keys = append(keys, s.fr.emitted[k])
	}
	consumed := TrySubdissectors(e.d.reg, sub, keys, w, out, e.info)
	consumed = min(max(consumed, 0), w.Len())
	return w.Bytes()[:consumed], consumed, nil
}
