package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestSlogAdapterLogsPacketEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp: time.Now(),
		PacketID:  "pkt-1",
		Protocol:  "baby_udp",
		Category:  CategoryPacket,
		Packet:    &PacketEvent{Size: 12, Consumed: 12, Info: "4660 → 22136"},
	})

	if entry["msg"] != "dissect" {
		t.Errorf("msg: got %v, want dissect", entry["msg"])
	}
	if entry["category"] != "PACKET" {
		t.Errorf("category: got %v, want PACKET", entry["category"])
	}
	if entry["protocol"] != "baby_udp" {
		t.Errorf("protocol: got %v, want baby_udp", entry["protocol"])
	}
	if entry["consumed"] != float64(12) {
		t.Errorf("consumed: got %v, want 12", entry["consumed"])
	}
	if entry["info"] != "4660 → 22136" {
		t.Errorf("info: got %v", entry["info"])
	}
}

func TestSlogAdapterLogsErrorEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp: time.Now(),
		Category:  CategoryDecodeError,
		Error:     &ErrorEventData{Path: "msg.payload", Offset: 1, Message: "unknown variant"},
	})

	if entry["path"] != "msg.payload" {
		t.Errorf("path: got %v", entry["path"])
	}
	if entry["offset"] != float64(1) {
		t.Errorf("offset: got %v", entry["offset"])
	}
	if _, ok := entry["packet_id"]; ok {
		t.Error("empty packet_id should be omitted")
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{Category: CategoryPacket})
	if buf.Len() != 0 {
		t.Errorf("debug event written at info level: %s", buf.String())
	}
}
