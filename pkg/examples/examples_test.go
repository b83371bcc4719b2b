package examples

import (
	"strings"
	"testing"
	"time"

	"github.com/dissect-kit/dissect-go/pkg/dissect"
	"github.com/dissect-kit/dissect-go/pkg/registry"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

func newRegistry(t *testing.T) (*registry.Registry, map[string]*dissect.Dissector) {
	t.Helper()
	reg := registry.New()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	ds, err := dissect.NewAll(reg)
	if err != nil {
		t.Fatalf("NewAll() error = %v", err)
	}
	return reg, ds
}

func TestRegisterAll(t *testing.T) {
	reg, ds := newRegistry(t)

	if got := len(reg.Protocols()); got != 6 {
		t.Errorf("Protocols() = %d, want 6", got)
	}
	for _, p := range All() {
		if _, ok := ds[p.Filter]; !ok {
			t.Errorf("no dissector for %s", p.Filter)
		}
	}
	for _, name := range []string{TableIPProto, TableEthertype, TableUDPPort, TableTCPPort, TableICMP} {
		if _, ok := reg.Table(name); !ok {
			t.Errorf("table %s not created", name)
		}
	}
}

func TestUDP(t *testing.T) {
	_, ds := newRegistry(t)

	pkt := []byte{0x04, 0xD2, 0x00, 0x35, 0x00, 0x0C, 0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF}
	res := ds["baby_udp"].Dissect(pkt, tap.NewPacketInfo(time.Now()))

	if !res.OK() {
		t.Fatalf("Dissect() errors = %v", res.Errors)
	}
	if res.Consumed != len(pkt) {
		t.Errorf("Consumed = %d, want %d", res.Consumed, len(pkt))
	}
	if n := res.Tree.Find("baby_udp.dst_port"); n == nil || n.Value != uint16(53) {
		t.Errorf("dst_port = %v, want 53", n)
	}
	if n := res.Tree.Find("baby_udp.checksum"); n == nil || n.ValueString() != "0x1234" {
		t.Errorf("checksum = %v, want 0x1234", n)
	}
	if res.Tree.Find("data") == nil {
		t.Error("unclaimed payload should fall back to a Data node")
	}

	want := "Source Port = 1234 | Payload[4] = DE:AD:BE:EF @offset 8"
	if res.Info != want {
		t.Errorf("Info = %q, want %q", res.Info, want)
	}
}

func TestUDPCarriesMessage(t *testing.T) {
	_, ds := newRegistry(t)

	pkt := []byte{
		0x04, 0xD2, 0x23, 0x28, 0x00, 0x0F, 0x00, 0x00,
		MessageHeartbeat, 0x00, 0x00, 0x00, 0x2A,
	}
	res := ds["baby_udp"].Dissect(pkt, nil)
	if res.ErrorCount() != 0 {
		t.Fatalf("ErrorCount() = %d", res.ErrorCount())
	}

	body := res.Tree.Find("message.body")
	if body == nil {
		t.Fatal("message not dispatched from port 9000")
	}
	if body.Text != "Heartbeat" {
		t.Errorf("body = %q, want Heartbeat", body.Text)
	}
	seq := res.Tree.Find("message.body.heart_beat.sequence")
	if seq == nil || seq.Value != uint32(42) || seq.Offset != 9 {
		t.Errorf("sequence = %v, want 42 at offset 9", seq)
	}
}

func TestMessage(t *testing.T) {
	_, ds := newRegistry(t)
	d := ds["message"]

	tests := []struct {
		name    string
		data    []byte
		variant string
		errors  int
	}{
		{"data", []byte{0x01, 0x00, 0x02, 0xAA, 0xBB}, "Data", 0},
		{"control", []byte{0x02, 0x07}, "Control", 0},
		{"heartbeat", []byte{0x05, 0x00, 0x00, 0x00, 0x01}, "Heartbeat", 0},
		{"other type is a heartbeat", []byte{0x09, 0x00, 0x00, 0x00, 0x01}, "Heartbeat", 0},
		{"truncated control", []byte{0x02}, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Dissect(tt.data, nil)
			if len(res.Errors) != tt.errors {
				t.Fatalf("Errors = %v, want %d", res.Errors, tt.errors)
			}
			if tt.variant == "" {
				return
			}
			if got := res.Tree.Find("message.body").Text; got != tt.variant {
				t.Errorf("variant = %q, want %q", got, tt.variant)
			}
			if res.Consumed != len(tt.data) {
				t.Errorf("Consumed = %d, want %d", res.Consumed, len(tt.data))
			}
		})
	}
}

func TestARP(t *testing.T) {
	_, ds := newRegistry(t)

	pkt := []byte{
		0x00, 0x01, 0x08, 0x00, 0x06, 0x04, 0x00, 0x01,
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xC0, 0xA8, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xC0, 0xA8, 0x00, 0x02,
	}
	info := tap.NewPacketInfo(time.Unix(0, 1500))
	res := ds["baby_arp"].Dissect(pkt, info)
	if !res.OK() {
		t.Fatalf("Dissect() errors = %v", res.Errors)
	}

	checks := map[string]string{
		"baby_arp.operation":  "REQUEST",
		"baby_arp.sender_mac": "00:11:22:33:44:55",
		"baby_arp.sender_ip":  "192.168.0.1",
		"baby_arp.target_ip":  "192.168.0.2",
	}
	for path, want := range checks {
		if got := res.Tree.Find(path).ValueString(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if want := "Who has 192.168.0.1 -> 192.168.0.2 at 1500 ns"; res.Info != want {
		t.Errorf("Info = %q, want %q", res.Info, want)
	}
}

func TestTCP(t *testing.T) {
	_, ds := newRegistry(t)

	pkt := []byte{
		0x00, 0x50, 0xC3, 0x50,
		0x00, 0x00, 0x00, 0x07,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x12,
		0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00,
	}
	res := ds["baby_tcp"].Dissect(pkt, tap.NewPacketInfo(time.Unix(0, 0)))
	if !res.OK() {
		t.Fatalf("Dissect() errors = %v", res.Errors)
	}
	if got := res.Tree.Find("baby_tcp.flags").ValueString(); got != "Flags=[ACK|SYN]" {
		t.Errorf("flags = %q", got)
	}
	for _, part := range []string{"TCP Port: 80 -> 50000", "State=SYN-ACK", "[Control Segment] Seq=7"} {
		if !strings.Contains(res.Info, part) {
			t.Errorf("Info = %q, missing %q", res.Info, part)
		}
	}
}

func TestICMPDecodeAs(t *testing.T) {
	reg, ds := newRegistry(t)

	if err := reg.SetDecodeAs(TableICMP, "baby_udp"); err == nil {
		t.Fatal("SetDecodeAs() should fail for a protocol not offered on the table")
	}
	if err := reg.SetDecodeAs(TableICMP, "baby_tlv"); err != nil {
		t.Fatalf("SetDecodeAs() error = %v", err)
	}

	pkt := []byte{
		0x08, 0x00, 0xAB, 0xCD, 0x00, 0x00, 0x00, 0x01,
		0x01, 0x00, 0x07, 0x01, 0xFF,
	}
	res := ds["baby_icmp"].Dissect(pkt, nil)
	if res.ErrorCount() != 0 {
		t.Fatalf("ErrorCount() = %d", res.ErrorCount())
	}
	if n := res.Tree.Find("baby_tlv.records"); n == nil || n.Offset != 10 {
		t.Errorf("records = %v, want offset 10", n)
	}
	if !strings.HasPrefix(res.Info, "ICMP Echo Request") {
		t.Errorf("Info = %q", res.Info)
	}
}

func TestTLV(t *testing.T) {
	_, ds := newRegistry(t)
	d := ds["baby_tlv"]

	pkt := []byte{
		0x01,
		0x02, 0xEE, 0xEE,
		0x10, 0x01, 0xAA,
		0x20, 0x02, 0xBB, 0xCC,
	}
	res := d.Dissect(pkt, nil)
	if !res.OK() {
		t.Fatalf("Dissect() errors = %v", res.Errors)
	}
	if got := res.Tree.Find("baby_tlv.extension").ValueString(); got != "2 bytes" {
		t.Errorf("extension = %q", got)
	}
	values := res.Tree.FindAll("baby_tlv.records.value")
	if len(values) != 2 {
		t.Fatalf("records = %d, want 2", len(values))
	}
	if values[1].Offset != 9 || values[1].Length != 2 {
		t.Errorf("second value at %d+%d, want 9+2", values[1].Offset, values[1].Length)
	}
	if got := d.Size(pkt); got != res.Consumed {
		t.Errorf("Size() = %d, Consumed = %d", got, res.Consumed)
	}
}
