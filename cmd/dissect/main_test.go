package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/discovery"
)

var udpHex = "04d2 0035 000c 1234 deadbeef"

func newHost(t *testing.T) *host.Host {
	t.Helper()
	h, err := host.New(host.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("host.New failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestReadPackets(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "pkt.bin")
	if err := os.WriteFile(bin, []byte{0x01, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}

	pkts, err := readPackets([]string{bin, "0x0a0b"}, nil)
	if err != nil {
		t.Fatalf("readPackets failed: %v", err)
	}
	if len(pkts) != 2 {
		t.Fatalf("packets = %d, want 2", len(pkts))
	}
	if pkts[0].source != bin || !bytes.Equal(pkts[0].data, []byte{1, 2}) {
		t.Errorf("file packet = %+v", pkts[0])
	}
	if pkts[1].source != "arg:2" || !bytes.Equal(pkts[1].data, []byte{0x0a, 0x0b}) {
		t.Errorf("hex packet = %+v", pkts[1])
	}

	if _, err := readPackets([]string{"not-hex"}, nil); err == nil {
		t.Error("expected an error for an argument that is neither file nor hex")
	}
}

func TestReadPacketsStdin(t *testing.T) {
	stdin := strings.NewReader("# comment\n\n01 02\nff\n")
	pkts, err := readPackets(nil, stdin)
	if err != nil {
		t.Fatalf("readPackets failed: %v", err)
	}
	if len(pkts) != 2 || pkts[0].source != "stdin:3" || pkts[1].source != "stdin:4" {
		t.Errorf("packets = %+v", pkts)
	}

	if _, err := readPackets(nil, strings.NewReader("zz\n")); err == nil {
		t.Error("expected an error for bad hex on stdin")
	}
}

func TestResolveFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dissect.toml")
	if err := os.WriteFile(path, []byte("protocol = \"message\"\nlisten = \":7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs, c := newFlagSet("run", "test")
	if err := fs.Parse([]string{"-config", path, "-listen", ":9000"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := c.resolve(fs)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Protocol != "message" {
		t.Errorf("protocol = %q, want message from the config file", cfg.Protocol)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q, want the flag value", cfg.Listen)
	}

	fs, c = newFlagSet("run", "test")
	if err := fs.Parse([]string{"-log-level", "loud"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.resolve(fs); err == nil {
		t.Error("expected an error for an invalid log level")
	}
}

func TestPrintResult(t *testing.T) {
	h := newHost(t)
	pkts, err := readPackets([]string{udpHex}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := h.Dissector("baby_udp")
	info := h.NextPacket()
	res := d.Dissect(pkts[0].data, info)

	var text bytes.Buffer
	if err := printResult(&text, pkts[0], info, res, output{plain: true, paths: true}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Frame 1 (arg:1): 12 bytes, 12 consumed", "Src Port: 1234", "baby_udp.src_port", "Info: Source Port = 1234"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("output missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := printResult(&js, pkts[0], info, res, output{json: true}); err != nil {
		t.Fatal(err)
	}
	var jr jsonResult
	if err := json.Unmarshal(js.Bytes(), &jr); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if jr.Consumed != 12 || jr.Number != 1 || jr.Tree == nil {
		t.Errorf("json = %+v", jr)
	}
}

func TestPrintSizes(t *testing.T) {
	h := newHost(t)
	pkts, _ := readPackets([]string{udpHex, "04d2"}, nil)

	var buf bytes.Buffer
	if err := printSizes(&buf, h, pkts); err != nil {
		t.Fatal(err)
	}
	want := "arg:1: 12 of 12 bytes\narg:2: 2 of 2 bytes\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestPrintList(t *testing.T) {
	h := newHost(t)

	var buf bytes.Buffer
	if err := printList(&buf, h, "", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "baby_arp") {
		t.Errorf("registry listing missing baby_arp:\n%s", buf.String())
	}

	buf.Reset()
	if err := printList(&buf, h, "baby_arp", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "baby_arp.sender_mac") {
		t.Errorf("field table missing sender_mac:\n%s", buf.String())
	}

	if err := printList(&buf, h, "nope", false); err == nil {
		t.Error("expected an error for an unknown protocol")
	}
}

func TestShell(t *testing.T) {
	h := newHost(t)
	var out bytes.Buffer
	sh := newShell(h, &out)

	if sh.prompt() != "baby_udp> " {
		t.Errorf("prompt = %q", sh.prompt())
	}

	sh.exec("find baby_udp.src_port")
	if !strings.Contains(out.String(), "No packet dissected yet") {
		t.Errorf("find before dissect: %q", out.String())
	}

	out.Reset()
	sh.exec(udpHex)
	if !strings.Contains(out.String(), "12 of 12 bytes consumed, 0 error(s)") {
		t.Errorf("dissect output:\n%s", out.String())
	}

	out.Reset()
	sh.exec("find baby_udp.dst_port")
	if !strings.Contains(out.String(), "Dst Port: 53") {
		t.Errorf("find output: %q", out.String())
	}

	out.Reset()
	sh.exec("use message")
	sh.exec("size 05 00 00 00 01 ff")
	if !strings.Contains(out.String(), "5 of 6 bytes") {
		t.Errorf("size output: %q", out.String())
	}

	out.Reset()
	sh.exec("use nope")
	if !strings.Contains(out.String(), "Error:") || sh.filter != "message" {
		t.Errorf("use nope: %q, filter %q", out.String(), sh.filter)
	}

	out.Reset()
	sh.exec("decode-as icmp.payload baby_tlv")
	sh.exec("decode-as icmp.payload none")
	if !strings.Contains(out.String(), "icmp.payload decodes as baby_tlv") ||
		!strings.Contains(out.String(), "icmp.payload decodes as data") {
		t.Errorf("decode-as output: %q", out.String())
	}

	out.Reset()
	sh.exec("what is this")
	if !strings.Contains(out.String(), "Unknown command") {
		t.Errorf("unknown command: %q", out.String())
	}

	if sh.exec("quit") {
		t.Error("quit should end the session")
	}
}

func TestPrintServices(t *testing.T) {
	services := []*discovery.Service{
		{ServiceInfo: discovery.ServiceInfo{Instance: "dissect-a", Port: 8080, Version: "0.4.0", Fingerprint: "aaa", Protocols: 6}, Addresses: []string{"10.0.0.2", "fe80::2"}},
		{ServiceInfo: discovery.ServiceInfo{Instance: "dissect-b", Port: 9090, Version: "0.4.0", Fingerprint: "bbb", Protocols: 7}, Addresses: []string{"10.0.0.3"}},
	}

	var buf bytes.Buffer
	printServices(&buf, services, "", time.Second)
	out := buf.String()
	if !strings.Contains(out, "dissect-a  http://10.0.0.2:8080/api/v1") {
		t.Errorf("missing dissect-a line:\n%s", out)
	}
	if !strings.Contains(out, "addresses: 10.0.0.2, fe80::2") {
		t.Errorf("missing address list:\n%s", out)
	}

	buf.Reset()
	printServices(&buf, services, "bbb", time.Second)
	if strings.Contains(buf.String(), "dissect-a") || !strings.Contains(buf.String(), "dissect-b") {
		t.Errorf("fingerprint filter not applied:\n%s", buf.String())
	}

	buf.Reset()
	printServices(&buf, nil, "", 2*time.Second)
	if got := buf.String(); got != "No servers found within 2s\n" {
		t.Errorf("empty output = %q", got)
	}
}
