package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Reader errors.
var (
	ErrOutOfRange    = errors.New("read out of range")
	ErrNegativeCount = errors.New("negative length")
)

// Reader is a bounded, random-access view of packet bytes. Offsets passed to
// its methods are relative to the start of the view; Base reports where the
// view starts within the top-level packet.
//
// A Reader never copies the underlying buffer and is safe for concurrent reads.
type Reader struct {
	data []byte
	base int
}

// NewReader creates a Reader over the whole packet.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of bytes in the view.
func (r *Reader) Len() int {
	return len(r.data)
}

// Base returns the absolute offset of the view within the top-level packet.
func (r *Reader) Base() int {
	return r.base
}

// Bytes returns the bytes of the view.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Remaining returns the number of bytes available from off to the end.
func (r *Reader) Remaining(off int) int {
	if off < 0 || off >= len(r.data) {
		return 0
	}
	return len(r.data) - off
}

// Sub returns a bounded view from off to the end of r. An offset equal to
// Len yields an empty view.
func (r *Reader) Sub(off int) (*Reader, error) {
	if off < 0 || off > len(r.data) {
		return nil, rangeErr(off, 0, len(r.data))
	}
	return &Reader{data: r.data[off:], base: r.base + off}, nil
}

// Slice returns n bytes starting at off.
func (r *Reader) Slice(off, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("slice at %d: %w", off, ErrNegativeCount)
	}
	if off < 0 || n > len(r.data)-off {
		return nil, rangeErr(off, n, len(r.data))
	}
	return r.data[off : off+n], nil
}

// Uint8 reads one byte at off.
func (r *Reader) Uint8(off int) (uint8, error) {
	b, err := r.Slice(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a 16-bit unsigned integer at off.
func (r *Reader) Uint16(off int, order binary.ByteOrder) (uint16, error) {
	b, err := r.Slice(off, 2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// Uint32 reads a 32-bit unsigned integer at off.
func (r *Reader) Uint32(off int, order binary.ByteOrder) (uint32, error) {
	b, err := r.Slice(off, 4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// Uint64 reads a 64-bit unsigned integer at off.
func (r *Reader) Uint64(off int, order binary.ByteOrder) (uint64, error) {
	b, err := r.Slice(off, 8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// Float32 reads an IEEE 754 single at off.
func (r *Reader) Float32(off int, order binary.ByteOrder) (float32, error) {
	v, err := r.Uint32(off, order)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Float64 reads an IEEE 754 double at off.
func (r *Reader) Float64(off int, order binary.ByteOrder) (float64, error) {
	v, err := r.Uint64(off, order)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func rangeErr(off, n, size int) error {
	return fmt.Errorf("%d bytes at offset %d of %d: %w", n, off, size, ErrOutOfRange)
}

// Window returns a bounded view of n bytes starting at off.
func (r *Reader) Window(off, n int) (*Reader, error) {
	b, err := r.Slice(off, n)
	if err != nil {
		return nil, err
	}
	return &Reader{data: b, base: r.base + off}, nil
}
