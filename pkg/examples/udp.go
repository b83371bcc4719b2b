package examples

import (
	"fmt"
	"strings"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// Upstream dispatch tables the examples register into.
const (
	TableIPProto   = "ip.proto"
	TableEthertype = "ethertype"
	TableUDPPort   = "baby_udp.port"
	TableTCPPort   = "baby_tcp.port"
	TableICMP      = "icmp.payload"
)

// IP protocol numbers and ethertypes.
const (
	ProtoICMP     = 1
	ProtoTCP      = 6
	ProtoUDP      = 17
	EthertypeARP  = 0x0806
	maxPreviewLen = 8
)

// UDP returns the Baby UDP protocol. Its payload is offered to the
// baby_udp.port table keyed by dst_port, then src_port.
func UDP() *model.Protocol {
	return &model.Protocol{
		Name:      "Baby UDP by wsdf",
		ShortName: "Baby UDP",
		Filter:    "baby_udp",
		Root: &model.Composite{
			Name: "Udp",
			Fields: []*model.Field{
				{Name: "src_port", Type: model.U16, Taps: []tap.Callback{tap.Observe("describe_src_port", describeSrcPort)}},
				{Name: "dst_port", Type: model.U16},
				{Name: "length", Type: model.U16},
				{Name: "checksum", Type: model.U16, Display: model.Display{Base: model.BaseHex}},
				{
					Name:         "payload",
					Type:         model.Rest(model.U8),
					Bytes:        true,
					Subdissector: model.TableLookup(TableUDPPort, "dst_port", "src_port"),
					Taps:         []tap.Callback{tap.Observe("describe_payload", describePayload)},
				},
			},
		},
		DecodeFrom: []model.DecodeFrom{{Table: TableIPProto, Uints: []uint64{ProtoUDP}}},
	}
}

func describeSrcPort(ctx *tap.Context) {
	ctx.Info.AppendInfo(fmt.Sprintf("Source Port = %d | ", ctx.Field))
}

func describePayload(ctx *tap.Context) {
	payload, _ := ctx.Field.([]byte)
	if len(payload) == 0 {
		ctx.Info.AppendInfo("No payload")
		return
	}
	ctx.Info.AppendInfo(fmt.Sprintf("Payload[%d] = %s @offset %d", len(payload), preview(payload), ctx.Offset))
}

// preview renders the first bytes of b as colon-separated hex.
func preview(b []byte) string {
	n := min(len(b), maxPreviewLen)
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf("%02X", b[i])
	}
	s := strings.Join(parts, ":")
	if len(b) > maxPreviewLen {
		s += "..."
	}
	return s
}
