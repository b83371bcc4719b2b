package examples

import (
	"fmt"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// TLV returns a protocol of tag-length-value records. The header extension
// is a length-prefixed blob sized by a consume-with callback.
func TLV() *model.Protocol {
	record := &model.Composite{
		Name: "Record",
		Fields: []*model.Field{
			{Name: "tag", Type: model.U8, Display: model.Display{Base: model.BaseHex}},
			{Name: "length", Type: model.U8},
			{Name: "value", Type: model.Bytes(), LengthField: "length"},
		},
	}
	return &model.Protocol{
		Name:      "Baby TLV",
		ShortName: "TLV",
		Filter:    "baby_tlv",
		Root: &model.Composite{
			Name: "Tlv",
			Fields: []*model.Field{
				{Name: "version", Type: model.U8},
				{Name: "extension", Type: model.Bytes(), ConsumeWith: tap.ConsumeWith("consume_extension", consumeExtension)},
				{Name: "records", Type: model.Rest(model.Struct(record))},
			},
		},
		DecodeFrom: []model.DecodeFrom{
			{Table: TableUDPPort, Uints: []uint64{9001}},
			{Table: TableICMP},
		},
	}
}

// consumeExtension claims a one-byte length prefix and the bytes it covers.
func consumeExtension(ctx *tap.Context) (int, string, error) {
	b := ctx.Remaining()
	if len(b) == 0 {
		return 0, "", fmt.Errorf("missing extension length")
	}
	n := int(b[0])
	if n == 0 {
		return 1, "none", nil
	}
	return 1 + n, fmt.Sprintf("%d bytes", n), nil
}
