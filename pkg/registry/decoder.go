package registry

//go:generate go run github.com/vektra/mockery/v2 --name Decoder --with-expecter --output ./mocks --outpkg mocks

import (
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

// Decoder is an external decoder reachable through a dispatch table.
//
// Decode is offered the unclaimed bytes as a bounded view and adds its output
// under parent, which is nil when nothing should be added to the tree. It
// returns the number of bytes it consumed; 0 means the bytes were not claimed.
type Decoder interface {
	Decode(r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int

// Decode calls f.
func (f DecoderFunc) Decode(r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int {
	return f(r, parent, info)
}

// DataDecoder is the default fallback. It claims every remaining byte and adds
// a "Data (N bytes)" node.
var DataDecoder Decoder = DecoderFunc(decodeData)

func decodeData(r *wire.Reader, parent *tree.Node, _ *tap.PacketInfo) int {
	n := r.Len()
	if n == 0 {
		return 0
	}
	data := parent.Add(&tree.Node{
		Name:   "Data",
		Path:   "data",
		Offset: r.Base(),
		Length: n,
		Text:   fmt.Sprintf("%d bytes", n),
	})
	data.Add(&tree.Node{
		Name:   "Data",
		Path:   "data.data",
		Offset: r.Base(),
		Length: n,
		Value:  r.Bytes(),
		Raw:    r.Bytes(),
	})
	return n
}

// protocolDecoder forwards to the decoder bound to a registered protocol.
type protocolDecoder struct {
	reg    *Registry
	filter string
}

func (p protocolDecoder) Decode(r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int {
	d, ok := p.reg.Bound(p.filter)
	if !ok {
		return 0
	}
	return d.Decode(r, parent, info)
}

// Compile-time interface satisfaction checks.
var (
	_ Decoder = DecoderFunc(nil)
	_ Decoder = protocolDecoder{}
)
