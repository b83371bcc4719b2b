package tap

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PacketInfo carries per-packet metadata supplied by the host, and collects the
// descriptive text callbacks append while the packet is dissected.
type PacketInfo struct {
	// ID identifies the packet within a capture.
	ID uuid.UUID

	// Timestamp is the capture time of the packet.
	Timestamp time.Time

	// Number is the host's frame number (0 if unknown).
	Number uint64

	info []string
}

// NewPacketInfo creates metadata for a packet captured at ts, with a fresh ID.
func NewPacketInfo(ts time.Time) *PacketInfo {
	return &PacketInfo{
		ID:        uuid.New(),
		Timestamp: ts,
	}
}

// AppendInfo appends text to the packet's info column.
func (p *PacketInfo) AppendInfo(s string) {
	if p == nil || s == "" {
		return
	}
	p.info = append(p.info, s)
}

// Info returns the accumulated info column text.
func (p *PacketInfo) Info() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.info, "")
}

// ClearInfo discards previously appended info text.
func (p *PacketInfo) ClearInfo() {
	if p != nil {
		p.info = p.info[:0]
	}
}

// Nanos returns the packet timestamp in nanoseconds since the Unix epoch.
func (p *PacketInfo) Nanos() int64 {
	if p == nil || p.Timestamp.IsZero() {
		return 0
	}
	return p.Timestamp.UnixNano()
}
