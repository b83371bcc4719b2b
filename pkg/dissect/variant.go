package dissect

import (
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

// ResolveVariant asks a resolver which variant to decode. The resolver only
// sees the saved fields of the enclosing composite.
func ResolveVariant(cb tap.Callback, local tap.StoreReader) (string, error) {
	res, err := cb.Call(&tap.Context{
		Fields:      tap.NewStore().View(),
		FieldsLocal: tap.ReadOnly(local),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolver, err)
	}
	if res.Variant == "" {
		return "", fmt.Errorf("%s returned no variant: %w", cb.Name, ErrResolver)
	}
	return res.Variant, nil
}

func (e *executor) variant(s site, enum *model.Enum, r *wire.Reader, out *tree.Node, off int) (any, int, *tree.Node, error) {
	name, err := ResolveVariant(s.f.Variant, s.fr.local)
	if err != nil {
		return nil, 0, nil, err
	}
	v, ok := enum.Variant(name)
	if !ok {
		return nil, 0, nil, fmt.Errorf("%w %q of %s", ErrUnknownVariant, name, enum.Name)
	}

	node := out.Add(&tree.Node{
		Name:      s.label,
		Path:      s.path,
		FieldID:   s.id,
		SubtreeID: e.d.reg.SubtreeID(enum),
		Offset:    r.Base() + off,
		Text:      v.Label(),
	})

	// The variant's hooks belong to its body: they see the body's local
	// fields, never those of the enclosing composite.
	vpath := s.path + "." + v.PathSegment()
	n := 0
	if v.Body != nil {
		n, _ = e.compositeWith(v.Body, r, node, off, vpath, v.Label(), v.PreDissect, v.PostDissect)
	} else {
		unit := newFrame(nil, vpath, v.Label())
		e.hooks(v.PreDissect, vpath, unit, r, off, node)
		e.hooks(v.PostDissect, vpath, unit, r, off, node)
	}

	node.SetLength(n)
	return v.Name, n, node, nil
}
