package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dissect-kit/dissect-go/pkg/log"
)

func TestFormatPacketEvent(t *testing.T) {
	event := sampleEvents()[1]

	var buf bytes.Buffer
	formatEvent(&buf, event, ViewOptions{})
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.124456Z",
		"[pkt:abc12345]",
		"#1 PACKET baby_udp",
		"Size: 12 bytes, consumed 12",
		"Data: 04d20035",
		"Info: Source Port = 1234",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Source Port: 1234") {
		t.Error("tree should only be printed with the tree option")
	}
}

func TestFormatPacketEventTree(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[1], ViewOptions{Tree: true})

	if !strings.Contains(buf.String(), "    [0+2] Source Port: 1234") {
		t.Errorf("expected indented tree entry, got:\n%s", buf.String())
	}
}

func TestFormatPacketEventTruncatedData(t *testing.T) {
	data := make([]byte, 64)
	event := log.Event{
		Timestamp: testTime,
		PacketID:  "x",
		Category:  log.CategoryPacket,
		Packet:    &log.PacketEvent{Size: 64, Data: data},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event, ViewOptions{})
	if !strings.Contains(buf.String(), strings.Repeat("00", previewBytes)+"...") {
		t.Errorf("expected truncated data preview, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "[pkt:x]") {
		t.Errorf("short IDs are printed whole, got:\n%s", buf.String())
	}
}

func TestFormatErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[2], ViewOptions{})
	output := buf.String()

	for _, want := range []string{"DECODE_ERROR message", "Path: message.body", "Offset: 1", "Message: unknown message type"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatRegistrationEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0], ViewOptions{})
	output := buf.String()

	for _, want := range []string{"[pkt:-]", "REGISTRATION", "Fingerprint: d00dfeed", "Engine: 0.1.0", "Protocols: baby_udp, message", "Fields: 12  Subtrees: 4  Tables: 2"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{ErrorsOnly: true}, ViewOptions{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "baby_udp") {
		t.Errorf("clean packet should be filtered out:\n%s", output)
	}
	if got := strings.Count(output, "[pkt:def67890]"); got != 2 {
		t.Errorf("expected error event and failing packet, got %d:\n%s", got, output)
	}
}
