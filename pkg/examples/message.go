package examples

import (
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// Message type bytes. Any other byte is a heartbeat.
const (
	MessageData      = 0x01
	MessageControl   = 0x02
	MessageHeartbeat = 0x05
)

// Message returns a protocol whose body is a sum type selected by the
// preceding type byte: 0x01 is Data, 0x02 is Control and anything else is a
// Heartbeat.
func Message() *model.Protocol {
	body := &model.Enum{
		Name: "MessageBody",
		Variants: []*model.Variant{
			{
				Name: "Data",
				Doc:  "Application payload",
				Body: &model.Composite{Name: "Data", Fields: []*model.Field{
					{Name: "length", Type: model.U16},
					{Name: "data", Type: model.Bytes(), LengthField: "length"},
				}},
			},
			{
				Name: "Control",
				Body: &model.Composite{Name: "Control", Fields: []*model.Field{
					{Name: "code", Type: model.U8, Display: model.Display{Base: model.BaseHex}},
				}},
			},
			{
				Name:   "HeartBeat",
				Rename: "Heartbeat",
				Doc:    "Keep-alive",
				Body: &model.Composite{Name: "HeartBeat", Fields: []*model.Field{
					{Name: "sequence", Type: model.U32},
				}},
			},
		},
	}
	return &model.Protocol{
		Name:      "Example Message",
		ShortName: "Message",
		Filter:    "message",
		Root: &model.Composite{
			Name: "Message",
			Fields: []*model.Field{
				{Name: "msg_type", Type: model.U8, Save: true, Display: model.Display{Base: model.BaseHex}},
				{Name: "body", Type: model.EnumOf(body), Variant: tap.Variant("message_variant", messageVariant)},
			},
		},
		DecodeFrom: []model.DecodeFrom{{Table: TableUDPPort, Uints: []uint64{9000}}},
	}
}

func messageVariant(ctx *tap.Context) (string, error) {
	t, ok := ctx.FieldsLocal.U8("msg_type")
	if !ok {
		return "", fmt.Errorf("msg_type was not saved")
	}
	switch t {
	case MessageData:
		return "Data", nil
	case MessageControl:
		return "Control", nil
	default:
		return "HeartBeat", nil
	}
}
