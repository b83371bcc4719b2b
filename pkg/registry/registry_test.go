package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/registry"
	"github.com/dissect-kit/dissect-go/pkg/registry/mocks"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

func babyUDP() *model.Protocol {
	return &model.Protocol{
		Name:   "Baby UDP",
		Filter: "baby_udp",
		Root: &model.Composite{
			Name: "BabyUDP",
			Fields: []*model.Field{
				{Name: "src_port", Type: model.U16},
				{Name: "dst_port", Type: model.U16},
				{Name: "length", Type: model.U16},
				{Name: "checksum", Type: model.U16},
				{Name: "payload", Type: model.Bytes(), Subdissector: model.TableLookup("baby_udp.port", "dst_port", "src_port")},
			},
		},
	}
}

func dns() *model.Protocol {
	return &model.Protocol{
		Name:       "Baby DNS",
		Filter:     "baby_dns",
		Root:       &model.Composite{Name: "BabyDNS", Fields: []*model.Field{{Name: "id", Type: model.U16}}},
		DecodeFrom: []model.DecodeFrom{{Table: "baby_udp.port", Uints: []uint64{53}}},
	}
}

func TestRegisterAssignsIDs(t *testing.T) {
	reg := registry.New()
	p := babyUDP()
	require.NoError(t, reg.Register(p))

	fields := reg.Fields()
	require.Len(t, fields, 5)
	assert.Equal(t, "baby_udp.src_port", fields[0].Abbrev)
	assert.Equal(t, "Src Port", fields[0].Name)
	assert.Equal(t, "baby_udp.payload", fields[4].Abbrev)
	assert.Equal(t, "bytes", fields[4].Type)

	for i := range p.Root.Fields {
		assert.Equal(t, i+1, reg.FieldID(p.Root, i))
	}
	assert.Equal(t, 1, reg.SubtreeID(p.Root))

	table, ok := reg.Table("baby_udp.port")
	require.True(t, ok)
	assert.Equal(t, model.KeyUint, table.KeyKind)

	got, ok := reg.Protocol("baby_udp")
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestRegisterIdempotent(t *testing.T) {
	reg := registry.New()
	p := babyUDP()
	require.NoError(t, reg.Register(p))
	fields := reg.Fields()
	fp := reg.Fingerprint()

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.Register(p))
	}
	assert.Equal(t, fields, reg.Fields())
	assert.Equal(t, fp, reg.Fingerprint())
	assert.Len(t, reg.Protocols(), 1)

	other := registry.New()
	require.NoError(t, other.Register(babyUDP()))
	assert.Equal(t, fp, other.Fingerprint(), "same layout must give the same fingerprint")

	require.NoError(t, other.Register(dns()))
	assert.NotEqual(t, fp, other.Fingerprint())
}

func TestRegisterSharedComposite(t *testing.T) {
	header := &model.Composite{Name: "Header", Fields: []*model.Field{
		{Name: "version", Type: model.U8},
		{Name: "flags", Type: model.U8},
	}}
	a := &model.Protocol{Filter: "a", Root: &model.Composite{Fields: []*model.Field{{Name: "hdr", Type: model.Struct(header)}}}}
	b := &model.Protocol{Filter: "b", Root: &model.Composite{Fields: []*model.Field{
		{Name: "hdr", Type: model.Struct(header)},
		{Name: "again", Type: model.Struct(header)},
	}}}

	reg := registry.New()
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	// a.hdr, header x2, b.hdr, b.again
	assert.Len(t, reg.Fields(), 5)
	id := reg.FieldID(header, 0)
	info, ok := reg.Field(id)
	require.True(t, ok)
	assert.Equal(t, "a.hdr.version", info.Abbrev, "abbrev is the first registered path")
}

func TestRegisterRecursive(t *testing.T) {
	node := &model.Composite{Name: "Node"}
	node.Fields = []*model.Field{
		{Name: "count", Type: model.U8},
		{Name: "children", Type: model.Vec(model.Struct(node)), LengthField: "count"},
	}
	reg := registry.New()
	require.NoError(t, reg.Register(&model.Protocol{Filter: "tree", Root: node}))
	assert.Len(t, reg.Fields(), 2)
	assert.Len(t, reg.Subtrees(), 1)
}

func TestRegisterEnumSharesSubtree(t *testing.T) {
	data := &model.Composite{Fields: []*model.Field{{Name: "value", Type: model.U32}}}
	enum := &model.Enum{Name: "Payload", Variants: []*model.Variant{
		{Name: "Data", Body: data},
		{Name: "HeartBeat"},
	}}
	p := &model.Protocol{Filter: "msg", Root: &model.Composite{Name: "Message", Fields: []*model.Field{
		{Name: "msg_type", Type: model.U8, Save: true},
		{Name: "payload", Type: model.EnumOf(enum), Variant: tap.Variant("by_type", func(*tap.Context) (string, error) {
			return "Data", nil
		})},
	}}}

	reg := registry.New()
	require.NoError(t, reg.Register(p))

	enumID := reg.SubtreeID(enum)
	require.NotZero(t, enumID)
	assert.Equal(t, enumID, reg.SubtreeID(data))

	info, ok := reg.Field(reg.FieldID(data, 0))
	require.True(t, ok)
	assert.Equal(t, "msg.payload.data.value", info.Abbrev)
}

func TestRegisterSchemaErrorsCommitNothing(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(babyUDP()))
	before := reg.Fingerprint()

	bad := &model.Protocol{Filter: "bad", Root: &model.Composite{Fields: []*model.Field{
		{Name: "tag", Type: model.FixedBytes(4)},
		{Name: "rest", Type: model.Bytes(), Subdissector: model.TableLookup("baby_udp.port", "tag")},
	}}}
	err := reg.Register(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSchema))
	assert.Contains(t, err.Error(), "uint keys, not string")

	_, ok := reg.Protocol("bad")
	assert.False(t, ok)
	assert.Equal(t, before, reg.Fingerprint())

	invalid := &model.Protocol{Filter: "x", Root: &model.Composite{Fields: []*model.Field{{Name: "v", Type: model.Vec(model.U8)}}}}
	err = reg.Register(invalid)
	var errs model.SchemaErrors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 1)
}

func TestRegisterDuplicateFilter(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(babyUDP()))
	err := reg.Register(babyUDP())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMustRegisterPanics(t *testing.T) {
	reg := registry.New()
	assert.Panics(t, func() {
		reg.MustRegister(&model.Protocol{Filter: "empty"})
	})
	assert.NotPanics(t, func() {
		reg.MustRegister(babyUDP())
	})
}

func TestSeal(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(babyUDP()))
	reg.Seal()
	assert.True(t, reg.Sealed())

	assert.ErrorIs(t, reg.Register(dns()), registry.ErrSealed)
	assert.ErrorIs(t, reg.AddUint("baby_udp.port", 53, registry.DataDecoder), registry.ErrSealed)
}

func TestAddKeyKinds(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(babyUDP()))

	require.NoError(t, reg.AddUint("baby_udp.port", 53, registry.DataDecoder))
	err := reg.AddString("baby_udp.port", "dns", registry.DataDecoder)
	assert.ErrorIs(t, err, registry.ErrKeyKind)

	require.NoError(t, reg.AddString("http.path", "/api", registry.DataDecoder))
	table, ok := reg.Table("http.path")
	require.True(t, ok)
	assert.Equal(t, model.KeyString, table.KeyKind)

	assert.ErrorIs(t, reg.AddUint("x", 1, nil), registry.ErrNilDecoder)
}

func TestDecodeFromPublishesProtocol(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(babyUDP()))
	require.NoError(t, reg.Register(dns()))

	table, _ := reg.Table("baby_udp.port")
	d, ok := table.LookupUint(53)
	require.True(t, ok)

	r := wire.NewReader([]byte{0xab, 0xcd})
	assert.Equal(t, 0, d.Decode(r, nil, nil), "an unbound protocol claims nothing")

	m := mocks.NewMockDecoder(t)
	m.EXPECT().Decode(mock.Anything, mock.Anything, mock.Anything).Return(2).Once()
	require.NoError(t, reg.Bind("baby_dns", m))
	assert.Equal(t, 2, d.Decode(r, nil, nil))

	assert.ErrorIs(t, reg.Bind("nope", m), registry.ErrUnknownProtocol)
}

func TestDecodeAs(t *testing.T) {
	reg := registry.New()
	icmp := &model.Protocol{
		Filter:     "baby_icmp",
		Root:       &model.Composite{Fields: []*model.Field{{Name: "payload", Type: model.Bytes(), Subdissector: model.DecodeAs("icmp.payload")}}},
		DecodeFrom: nil,
	}
	echo := &model.Protocol{
		Filter:     "echo",
		Root:       &model.Composite{Fields: []*model.Field{{Name: "data", Type: model.Bytes()}}},
		DecodeFrom: []model.DecodeFrom{{Table: "icmp.payload"}},
	}
	require.NoError(t, reg.Register(icmp))
	require.NoError(t, reg.Register(echo))

	table, ok := reg.Table("icmp.payload")
	require.True(t, ok)
	assert.Equal(t, model.KeyNone, table.KeyKind)
	assert.Equal(t, []string{"echo"}, table.Choices())

	_, ok = table.Selected()
	assert.False(t, ok)

	require.NoError(t, reg.SetDecodeAs("icmp.payload", "echo"))
	_, ok = table.Selected()
	assert.True(t, ok)

	assert.ErrorIs(t, reg.SetDecodeAs("icmp.payload", "nope"), registry.ErrUnknownChoice)
	assert.Error(t, reg.SetDecodeAs("missing", "echo"))

	require.NoError(t, reg.ClearDecodeAs("icmp.payload"))
	_, ok = table.Selected()
	assert.False(t, ok)
	assert.Error(t, reg.ClearDecodeAs("missing"))
}

func TestDataDecoder(t *testing.T) {
	root := &tree.Node{Name: "root"}
	sub, err := wire.NewReader([]byte{1, 2, 3, 4, 5}).Sub(2)
	require.NoError(t, err)

	n := registry.DataDecoder.Decode(sub, root, nil)
	assert.Equal(t, 3, n)
	require.Len(t, root.Children, 1)
	data := root.Children[0]
	assert.Equal(t, "Data: 3 bytes", data.String())
	assert.Equal(t, 2, data.Offset)
	require.Len(t, data.Children, 1)
	assert.Equal(t, []byte{3, 4, 5}, data.Children[0].Raw)

	assert.Equal(t, 3, registry.DataDecoder.Decode(sub, nil, nil), "hidden delegation still consumes")
	assert.Equal(t, 0, registry.DataDecoder.Decode(wire.NewReader(nil), root, nil))
}

func TestFallback(t *testing.T) {
	reg := registry.New()
	m := mocks.NewMockDecoder(t)
	reg.SetFallback(m)
	assert.Same(t, m, reg.Fallback())
	reg.SetFallback(nil)
	assert.NotNil(t, reg.Fallback())
}
