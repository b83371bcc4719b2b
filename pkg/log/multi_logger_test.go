package log

import "testing"

func TestMultiLoggerCallsAll(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (nil loggers are skipped)", m.Len())
	}

	m.Log(Event{PacketID: "p1"})
	m.Log(Event{PacketID: "p2"})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("counts = %d, %d, want 2, 2", a.count(), b.count())
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{})
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}
