package dissect_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dissect-kit/dissect-go/pkg/dissect"
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func message() *model.Protocol {
	body := &model.Enum{Name: "MessageBody", Variants: []*model.Variant{
		{Name: "Data", Body: &model.Composite{Name: "Data", Fields: []*model.Field{
			{Name: "payload", Type: model.Bytes()},
		}}},
		{Name: "Heartbeat", Body: &model.Composite{Name: "Heartbeat", Fields: []*model.Field{
			{Name: "seq", Type: model.U16},
		}}},
		{Name: "Empty"},
	}}
	resolve := tap.Variant("msg_type", func(ctx *tap.Context) (string, error) {
		v, ok := ctx.FieldsLocal.Get("msg_type")
		if !ok {
			return "", errors.New("msg_type not saved")
		}
		switch v.(uint8) {
		case 0x01:
			return "Data", nil
		case 0x05:
			return "Heartbeat", nil
		case 0x06:
			return "Empty", nil
		case 0x07:
			return "Missing", nil
		}
		return "", errors.New("unknown message type")
	})
	return &model.Protocol{
		Name:   "Message",
		Filter: "msg",
		Root: &model.Composite{Name: "Message", Fields: []*model.Field{
			{Name: "msg_type", Type: model.U8, Save: true},
			{Name: "body", Type: model.EnumOf(body), Variant: resolve},
		}},
	}
}

func TestVariantDispatch(t *testing.T) {
	d := newDissector(t, message())

	t.Run("data", func(t *testing.T) {
		res := d.Dissect([]byte{0x01, 0xDE, 0xAD}, nil)
		require.True(t, res.OK(), "errors: %v", res.Errors)

		body := res.Tree.Find("msg.body")
		require.NotNil(t, body)
		assert.Equal(t, "Data", body.ValueString())
		assert.Equal(t, 1, body.Offset)
		assert.Equal(t, 2, body.Length)

		payload := res.Tree.Find("msg.body.data.payload")
		require.NotNil(t, payload)
		assert.Equal(t, []byte{0xDE, 0xAD}, payload.Value)
		assert.Equal(t, 3, res.Consumed)
	})

	t.Run("heartbeat", func(t *testing.T) {
		res := d.Dissect([]byte{0x05, 0x00, 0x01}, nil)
		require.True(t, res.OK(), "errors: %v", res.Errors)
		assert.Equal(t, uint16(1), res.Tree.Find("msg.body.heartbeat.seq").Value)
		assert.Nil(t, res.Tree.Find("msg.body.data.payload"))
	})

	t.Run("unit variant", func(t *testing.T) {
		res := d.Dissect([]byte{0x06}, nil)
		require.True(t, res.OK(), "errors: %v", res.Errors)
		body := res.Tree.Find("msg.body")
		assert.Equal(t, "Empty", body.ValueString())
		assert.Equal(t, 0, body.Length)
	})
}

func TestVariantDefaultBranch(t *testing.T) {
	body := &model.Enum{Name: "Kind", Variants: []*model.Variant{
		{Name: "Data", Body: &model.Composite{Name: "Data", Fields: []*model.Field{
			{Name: "payload", Type: model.Bytes()},
		}}},
		{Name: "Control", Body: &model.Composite{Name: "Control", Fields: []*model.Field{
			{Name: "code", Type: model.U8},
		}}},
		{Name: "Heartbeat"},
	}}
	resolve := tap.Variant("kind", func(ctx *tap.Context) (string, error) {
		v, _ := ctx.FieldsLocal.U8("kind")
		switch v {
		case 1:
			return "Data", nil
		case 2:
			return "Control", nil
		default:
			return "Heartbeat", nil
		}
	})
	d := newDissector(t, single("kinds",
		&model.Field{Name: "kind", Type: model.U8, Save: true},
		&model.Field{Name: "body", Type: model.EnumOf(body), Variant: resolve},
	))

	tests := []struct {
		name    string
		data    []byte
		variant string
	}{
		{"data", []byte{0x01, 0xAA}, "Data"},
		{"control", []byte{0x02, 0x07}, "Control"},
		{"default", []byte{0x05}, "Heartbeat"},
		{"zero", []byte{0x00}, "Heartbeat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Dissect(tt.data, nil)
			require.True(t, res.OK(), "errors: %v", res.Errors)
			assert.Equal(t, tt.variant, res.Tree.Find("kinds.body").ValueString())
			assert.Equal(t, len(tt.data), res.Consumed)
		})
	}
}

func TestVariantFailureIsScoped(t *testing.T) {
	d := newDissector(t, message())

	t.Run("resolver error", func(t *testing.T) {
		res := d.Dissect([]byte{0x09, 0x00}, nil)
		require.Len(t, res.Errors, 1)
		assert.ErrorIs(t, res.Errors[0], dissect.ErrResolver)
		assert.Equal(t, "msg.body", res.Errors[0].Path)
		assert.Nil(t, res.Fatal)

		body := res.Tree.Find("msg.body")
		require.NotNil(t, body)
		assert.Error(t, body.Err)
		assert.Equal(t, 0, body.Length)
		assert.Equal(t, 1, res.Consumed)
	})

	t.Run("unknown variant", func(t *testing.T) {
		res := d.Dissect([]byte{0x07}, nil)
		require.Len(t, res.Errors, 1)
		assert.ErrorIs(t, res.Errors[0], dissect.ErrUnknownVariant)
		assert.Contains(t, res.Errors[0].Error(), `"Missing"`)
	})
}

func TestVariantStrict(t *testing.T) {
	p := message()
	p.Root.Fields = append(p.Root.Fields, &model.Field{Name: "trailer", Type: model.U8})
	d := newDissector(t, p, dissect.WithStrictVariants(true))

	res := d.Dissect([]byte{0x09, 0xFF}, nil)
	require.Error(t, res.Fatal)
	assert.ErrorIs(t, res.Fatal, dissect.ErrResolver)
	assert.Nil(t, res.Tree.Find("msg.trailer"))
	assert.False(t, res.OK())
}

func TestVariantHooks(t *testing.T) {
	var paths []string
	hook := func(name string) tap.Callback {
		return tap.Hook(name, func(ctx *tap.Context) error {
			paths = append(paths, name+"@"+ctx.Path)
			return nil
		})
	}
	p := message()
	enum := p.Root.Fields[1].Type.Enum
	v, ok := enum.Variant("Heartbeat")
	require.True(t, ok)
	v.PreDissect = []tap.Callback{hook("pre")}
	v.PostDissect = []tap.Callback{hook("post")}
	d := newDissector(t, p)

	d.Dissect([]byte{0x05, 0x00, 0x02}, nil)
	assert.Equal(t, []string{"pre@msg.body.heartbeat", "post@msg.body.heartbeat"}, paths)
}

func TestVariantHookScope(t *testing.T) {
	seen := map[string][]string{}
	record := func(name string) tap.Callback {
		return tap.Hook(name, func(ctx *tap.Context) error {
			seen[name] = ctx.FieldsLocal.Paths()
			return nil
		})
	}
	p := message()
	enum := p.Root.Fields[1].Type.Enum
	hb, ok := enum.Variant("Heartbeat")
	require.True(t, ok)
	hb.Body.Fields[0].Save = true
	hb.PreDissect = []tap.Callback{record("pre")}
	hb.PostDissect = []tap.Callback{record("post")}
	unit, ok := enum.Variant("Empty")
	require.True(t, ok)
	unit.PreDissect = []tap.Callback{record("unit")}
	d := newDissector(t, p)

	res := d.Dissect([]byte{0x05, 0x00, 0x02}, nil)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, seen["pre"], "the body starts with no local fields")
	assert.Equal(t, []string{"seq"}, seen["post"], "post hooks see what the body saved")

	res = d.Dissect([]byte{0x06}, nil)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	require.Contains(t, seen, "unit")
	assert.Empty(t, seen["unit"], "unit variants get an empty local store")
}

func TestHooksCannotWrite(t *testing.T) {
	p := message()
	p.Root.Fields[0].Taps = []tap.Callback{
		tap.Tap("writer", func(ctx *tap.Context) error {
			if _, ok := ctx.Fields.(*tap.Store); ok {
				return errors.New("packet store is writable")
			}
			if _, ok := ctx.FieldsLocal.(*tap.Store); ok {
				return errors.New("local store is writable")
			}
			return nil
		}),
	}
	d := newDissector(t, p)

	res := d.Dissect([]byte{0x06}, nil)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}

func TestResolveVariant(t *testing.T) {
	local := tap.NewStore()
	local.Put("kind", uint8(2))

	cb := tap.Variant("kind", func(ctx *tap.Context) (string, error) {
		assert.Zero(t, ctx.Fields.Len(), "resolvers only see local fields")
		_, writable := ctx.FieldsLocal.(*tap.Store)
		assert.False(t, writable, "resolvers get a read-only view")
		k, _ := ctx.FieldsLocal.Get("kind")
		if k == uint8(2) {
			return "Two", nil
		}
		return "", nil
	})

	name, err := dissect.ResolveVariant(cb, local)
	require.NoError(t, err)
	assert.Equal(t, "Two", name)

	_, err = dissect.ResolveVariant(cb, tap.NewStore())
	assert.ErrorIs(t, err, dissect.ErrResolver)

	panicky := tap.Variant("bad", func(*tap.Context) (string, error) { panic("no") })
	_, err = dissect.ResolveVariant(panicky, local)
	assert.ErrorIs(t, err, dissect.ErrResolver)
	assert.ErrorIs(t, err, tap.ErrPanic)
}
