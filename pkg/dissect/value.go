package dissect

import (
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

// readPrimitive reads a fixed-size numeric value of kind k at off.
func readPrimitive(r *wire.Reader, off int, k model.Kind, enc model.Encoding) (any, error) {
	order := enc.ByteOrder()
	switch k {
	case model.KindUint8:
		return r.Uint8(off)
	case model.KindUint16:
		return r.Uint16(off, order)
	case model.KindUint32:
		return r.Uint32(off, order)
	case model.KindUint64:
		return r.Uint64(off, order)
	case model.KindInt8:
		v, err := r.Uint8(off)
		return int8(v), err
	case model.KindInt16:
		v, err := r.Uint16(off, order)
		return int16(v), err
	case model.KindInt32:
		v, err := r.Uint32(off, order)
		return int32(v), err
	case model.KindInt64:
		v, err := r.Uint64(off, order)
		return int64(v), err
	case model.KindFloat32:
		return r.Float32(off, order)
	case model.KindFloat64:
		return r.Float64(off, order)
	}
	return nil, fmt.Errorf("%s is not a primitive kind", k)
}
