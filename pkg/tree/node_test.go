package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dissect-kit/dissect-go/pkg/model"
)

func sample() *Node {
	root := &Node{Name: "Baby UDP", Path: "baby_udp", SubtreeID: 1, Length: 12}
	root.Add(&Node{Name: "Src Port", Path: "baby_udp.src_port", Offset: 0, Length: 2, Value: uint16(4660)})
	root.Add(&Node{Name: "Dst Port", Path: "baby_udp.dst_port", Offset: 2, Length: 2, Value: uint16(22136)})
	data := root.Add(&Node{Name: "Data", Path: "data", Offset: 8, Length: 4, Text: "4 bytes"})
	data.Add(&Node{Name: "Data", Path: "data.data", Offset: 8, Length: 4, Value: []byte{0xde, 0xad, 0xbe, 0xef}})
	return root
}

func TestAddNil(t *testing.T) {
	var parent *Node
	if got := parent.Add(&Node{Name: "x"}); got != nil {
		t.Errorf("Add() on nil parent = %v, want nil", got)
	}
	parent.SetLength(4)
	parent.MarkError(errors.New("ignored"))
}

func TestFind(t *testing.T) {
	root := sample()

	n := root.Find("baby_udp.dst_port")
	require.NotNil(t, n)
	assert.Equal(t, uint16(22136), n.Value)
	assert.Nil(t, root.Find("baby_udp.nope"))

	root.Add(&Node{Name: "Src Port", Path: "baby_udp.src_port", Offset: 12})
	assert.Len(t, root.FindAll("baby_udp.src_port"), 2)
	assert.Equal(t, 6, root.Count())
}

func TestErrors(t *testing.T) {
	root := sample()
	assert.Empty(t, root.Errors())

	n := root.Find("baby_udp.src_port")
	first := errors.New("first")
	n.MarkError(first)
	n.MarkError(errors.New("second"))
	assert.Equal(t, first, n.Err)
	assert.Len(t, root.Errors(), 1)
	assert.Equal(t, "Src Port: 4660 [error: first]", n.String())
}

func TestWalkSkip(t *testing.T) {
	var names []string
	Walk(sample(), func(n *Node, depth int) bool {
		names = append(names, n.Name)
		return n.Path != "data"
	})
	assert.Equal(t, []string{"Baby UDP", "Src Port", "Dst Port", "Data"}, names)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		v    any
		base model.Base
		want string
	}{
		{"u16 dec", uint16(4660), model.BaseDec, "4660"},
		{"u16 hex", uint16(0x1234), model.BaseHex, "0x1234"},
		{"u8 hex padded", uint8(5), model.BaseHex, "0x05"},
		{"u32 dec_hex", uint32(255), model.BaseDecHex, "255 (0x000000ff)"},
		{"u8 hex_dec", uint8(255), model.BaseHexDec, "0xff (255)"},
		{"oct", uint8(8), model.BaseOct, "010"},
		{"i8 negative", int8(-1), model.BaseNone, "-1"},
		{"i8 negative hex", int8(-1), model.BaseHex, "0xff"},
		{"u64 max hex", ^uint64(0), model.BaseHex, "0xffffffffffffffff"},
		{"bytes", []byte{0xca, 0xfe}, model.BaseNone, "cafe"},
		{"float", float32(1.5), model.BaseNone, "1.5"},
		{"string", "Data", model.BaseNone, "Data"},
		{"nil", nil, model.BaseHex, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.v, tt.base); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "Baby UDP", (&Node{Name: "Baby UDP"}).String())
	assert.Equal(t, "Checksum: 0x0000", (&Node{Name: "Checksum", Value: uint16(0), Display: model.Display{Base: model.BaseHex}}).String())
	assert.Equal(t, "Payload [error: short]", (&Node{Name: "Payload", Err: errors.New("short")}).String())
}

func TestFlattenAndJSON(t *testing.T) {
	root := sample()
	root.Find("baby_udp.dst_port").MarkError(errors.New("bad"))

	flat := Flatten(root)
	require.Len(t, flat, 5)
	assert.Equal(t, 0, flat[0].Depth)
	assert.Equal(t, "4660", flat[1].Value)
	assert.Equal(t, "bad", flat[2].Error)
	assert.Equal(t, 2, flat[4].Depth)
	assert.Equal(t, "deadbeef", flat[4].Value)

	j := ToJSON(root)
	require.Len(t, j.Children, 3)
	assert.Equal(t, "4 bytes", j.Children[2].Value)
	assert.Nil(t, ToJSON(nil))
}
