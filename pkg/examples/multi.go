package examples

import (
	"fmt"
	"strings"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// ARP returns the Baby ARP protocol.
func ARP() *model.Protocol {
	return &model.Protocol{
		Name:      "Baby ARP by wsdf",
		ShortName: "Baby ARP",
		Filter:    "baby_arp",
		Root: &model.Composite{
			Name: "Arp",
			Fields: []*model.Field{
				{Name: "hardware_type", Type: model.U16},
				{Name: "protocol_type", Type: model.U16, Display: model.Display{Base: model.BaseHex}},
				{Name: "hardware_size", Type: model.U8},
				{Name: "protocol_size", Type: model.U8},
				{Name: "operation", Type: model.U16, Save: true, DecodeWith: tap.DecodeWith("decode_arp_operation", decodeARPOperation)},
				{Name: "sender_mac", Type: model.Array(model.U8, 6), Bytes: true, Save: true, DecodeWith: tap.DecodeWith("decode_mac_address", decodeMAC)},
				{Name: "sender_ip", Type: model.U32, Save: true, DecodeWith: tap.DecodeWith("decode_ipv4", decodeIPv4)},
				{Name: "target_mac", Type: model.Array(model.U8, 6), Bytes: true, Save: true},
				{
					Name:       "target_ip",
					Type:       model.U32,
					Save:       true,
					DecodeWith: tap.DecodeWith("decode_ipv4", decodeIPv4),
					Taps:       []tap.Callback{tap.Tap("analyze_arp_transaction", analyzeARPTransaction)},
				},
			},
		},
		DecodeFrom: []model.DecodeFrom{{Table: TableEthertype, Uints: []uint64{EthertypeARP}}},
	}
}

func decodeARPOperation(ctx *tap.Context) (string, error) {
	switch op := ctx.Field.(uint16); op {
	case 1:
		return "REQUEST", nil
	case 2:
		return "REPLY", nil
	default:
		return fmt.Sprintf("Unknown(%d)", op), nil
	}
}

func decodeMAC(ctx *tap.Context) (string, error) {
	mac, _ := ctx.Field.([]byte)
	parts := make([]string, len(mac))
	for i, b := range mac {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":"), nil
}

func decodeIPv4(ctx *tap.Context) (string, error) {
	ip, ok := ctx.Field.(uint32)
	if !ok {
		return "", fmt.Errorf("ipv4 address has type %T", ctx.Field)
	}
	return formatIP(ip), nil
}

func analyzeARPTransaction(ctx *tap.Context) error {
	op, ok := ctx.FieldsLocal.U16("operation")
	if !ok {
		return fmt.Errorf("operation was not saved")
	}
	sender, _ := ctx.Fields.U32("baby_arp.sender_ip")
	target, _ := ctx.Fields.U32("baby_arp.target_ip")

	verb := "Here is"
	if op == 1 {
		verb = "Who has"
	}
	ctx.Info.AppendInfo(fmt.Sprintf("%s %s -> %s at %d ns", verb, formatIP(sender), formatIP(target), ctx.Info.Nanos()))
	return nil
}

// ICMP returns the Baby ICMP protocol. Its payload is decoded by whatever the
// host selects on the icmp.payload table.
func ICMP() *model.Protocol {
	return &model.Protocol{
		Name:      "Baby ICMP by wsdf",
		ShortName: "Baby ICMP",
		Filter:    "baby_icmp",
		Root: &model.Composite{
			Name: "Icmp",
			Fields: []*model.Field{
				{Name: "type", Type: model.U8, Save: true, Taps: []tap.Callback{tap.Observe("track_icmp_type", trackICMPType)}},
				{Name: "code", Type: model.U8},
				{Name: "checksum", Type: model.U16, Display: model.Display{Base: model.BaseHex}},
				{Name: "rest_of_header", Type: model.U32, Display: model.Display{Base: model.BaseHex}},
				{
					Name:         "payload",
					Type:         model.Bytes(),
					Subdissector: model.DecodeAs(TableICMP),
					Taps:         []tap.Callback{tap.Observe("analyze_icmp_payload", analyzeICMPPayload)},
				},
			},
		},
		DecodeFrom: []model.DecodeFrom{{Table: TableIPProto, Uints: []uint64{ProtoICMP}}},
	}
}

func trackICMPType(ctx *tap.Context) {
	var name string
	switch ctx.Field.(uint8) {
	case 0:
		name = "Echo Reply"
	case 3:
		name = "Destination Unreachable"
	case 8:
		name = "Echo Request"
	case 11:
		name = "Time Exceeded"
	default:
		name = "Other"
	}
	ctx.Info.AppendInfo(fmt.Sprintf("ICMP %s at %d ns", name, ctx.Info.Nanos()))
}

func analyzeICMPPayload(ctx *tap.Context) {
	payload, _ := ctx.Field.([]byte)
	if len(payload) == 0 || len(ctx.Packet) == 0 {
		return
	}
	ratio := float64(len(payload)) / float64(len(ctx.Packet)) * 100
	ctx.Info.AppendInfo(fmt.Sprintf(" Data: %d bytes (%.1f%% of packet)", len(payload), ratio))
}

// TCP flag bits.
const (
	tcpFIN = 0x001
	tcpSYN = 0x002
	tcpRST = 0x004
	tcpPSH = 0x008
	tcpACK = 0x010
	tcpURG = 0x020
)

// TCP returns the Baby TCP protocol.
func TCP() *model.Protocol {
	return &model.Protocol{
		Name:      "Baby TCP by wsdf",
		ShortName: "Baby TCP",
		Filter:    "baby_tcp",
		Root: &model.Composite{
			Name: "Tcp",
			Fields: []*model.Field{
				{Name: "src_port", Type: model.U16, Save: true},
				{Name: "dst_port", Type: model.U16, Save: true, Taps: []tap.Callback{tap.Tap("track_tcp_port", trackTCPPort)}},
				{Name: "sequence_number", Type: model.U32, Save: true},
				{Name: "acknowledgment_number", Type: model.U32},
				{
					Name:       "flags",
					Type:       model.U16,
					Save:       true,
					DecodeWith: tap.DecodeWith("decode_tcp_flags", decodeTCPFlags),
					Taps:       []tap.Callback{tap.Observe("track_tcp_state", trackTCPState)},
				},
				{Name: "window", Type: model.U16},
				{Name: "checksum", Type: model.U16, Display: model.Display{Base: model.BaseHex}},
				{Name: "urgent_pointer", Type: model.U16},
				{
					Name:         "payload",
					Type:         model.Rest(model.U8),
					Bytes:        true,
					Subdissector: model.TableLookup(TableTCPPort, "src_port", "dst_port"),
					Taps:         []tap.Callback{tap.Tap("analyze_tcp_segment", analyzeTCPSegment)},
				},
			},
		},
		DecodeFrom: []model.DecodeFrom{{Table: TableIPProto, Uints: []uint64{ProtoTCP}}},
	}
}

func trackTCPPort(ctx *tap.Context) error {
	dst, ok := ctx.Fields.U16("baby_tcp.dst_port")
	if !ok {
		return fmt.Errorf("dst_port was not saved")
	}
	src, _ := ctx.FieldsLocal.U16("src_port")
	ctx.Info.AppendInfo(fmt.Sprintf("TCP Port: %d -> %d", src, dst))
	return nil
}

func trackTCPState(ctx *tap.Context) {
	flags := ctx.Field.(uint16)
	syn, ack, fin := flags&tcpSYN != 0, flags&tcpACK != 0, flags&tcpFIN != 0

	state := "OTHER"
	switch {
	case syn && !ack && !fin:
		state = "SYN"
	case syn && ack && !fin:
		state = "SYN-ACK"
	case !syn && ack && !fin:
		state = "ACK"
	case !syn && ack && fin:
		state = "FIN-ACK"
	}
	ctx.Info.AppendInfo(fmt.Sprintf(" State=%s at %d ns", state, ctx.Info.Nanos()))
}

func analyzeTCPSegment(ctx *tap.Context) error {
	seq, ok := ctx.Fields.U32("baby_tcp.sequence_number")
	if !ok {
		return fmt.Errorf("sequence_number was not saved")
	}
	payload, _ := ctx.Field.([]byte)
	if len(payload) == 0 {
		ctx.Info.AppendInfo(fmt.Sprintf(" [Control Segment] Seq=%d", seq))
		return nil
	}
	ctx.Info.AppendInfo(fmt.Sprintf(" [Data Segment] Seq=%d Size=%d Offset=%d", seq, len(payload), ctx.Offset))
	return nil
}

func decodeTCPFlags(ctx *tap.Context) (string, error) {
	flags := ctx.Field.(uint16)
	var set []string
	for _, f := range []struct {
		bit  uint16
		name string
	}{
		{tcpURG, "URG"},
		{tcpACK, "ACK"},
		{tcpPSH, "PSH"},
		{tcpRST, "RST"},
		{tcpSYN, "SYN"},
		{tcpFIN, "FIN"},
	} {
		if flags&f.bit != 0 {
			set = append(set, f.name)
		}
	}
	return "Flags=[" + strings.Join(set, "|") + "]", nil
}

func formatIP(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip>>24, (ip>>16)&0xff, (ip>>8)&0xff, ip&0xff)
}
