package log

import (
	"time"

	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// Event is one dissection record. CBOR encoding uses integer keys for
// compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// PacketID identifies the packet (UUID). Empty for registration events.
	PacketID string `cbor:"2,keyasint,omitempty"`

	// Protocol is the filter name of the dissected protocol.
	Protocol string `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Number is the host's frame number.
	Number uint64 `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Packet       *PacketEvent       `cbor:"10,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"11,keyasint,omitempty"` // DecodeError, HookError
	Registration *RegistrationEvent `cbor:"12,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPacket is a completed dissection.
	CategoryPacket Category = 0
	// CategoryDecodeError is a field that could not be decoded.
	CategoryDecodeError Category = 1
	// CategoryHookError is a failed tap, hook or custom formatter.
	CategoryHookError Category = 2
	// CategoryRegistration records the registry layout.
	CategoryRegistration Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPacket:
		return "PACKET"
	case CategoryDecodeError:
		return "DECODE_ERROR"
	case CategoryHookError:
		return "HOOK_ERROR"
	case CategoryRegistration:
		return "REGISTRATION"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as printed by String.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryPacket; c <= CategoryRegistration; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// PacketEvent captures the result of dissecting one packet.
type PacketEvent struct {
	// Size is the packet size in bytes.
	Size int `cbor:"1,keyasint"`

	// Consumed is the number of bytes the protocol consumed.
	Consumed int `cbor:"2,keyasint"`

	// Data is the raw packet bytes (may be truncated for large packets).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`

	// Info is the info column text appended by hooks.
	Info string `cbor:"5,keyasint,omitempty"`

	// Errors is the number of decode and hook errors.
	Errors int `cbor:"6,keyasint,omitempty"`

	// Tree is the flattened dissection tree.
	Tree []tree.Entry `cbor:"7,keyasint,omitempty"`
}

// ErrorEventData captures a decode or hook error.
type ErrorEventData struct {
	// Path is the dotted field path where the error occurred.
	Path string `cbor:"1,keyasint"`

	// Offset is the absolute packet offset of the field.
	Offset int `cbor:"2,keyasint"`

	// Message is the error message.
	Message string `cbor:"3,keyasint"`
}

// RegistrationEvent records the layout of a registry, so captures can be
// matched against the protocol set that produced them.
type RegistrationEvent struct {
	// Fingerprint is the registry fingerprint (hex BLAKE2b-256).
	Fingerprint string `cbor:"1,keyasint"`

	// Protocols lists the registered protocol filters.
	Protocols []string `cbor:"2,keyasint,omitempty"`

	Fields   int `cbor:"3,keyasint"`
	Subtrees int `cbor:"4,keyasint"`
	Tables   int `cbor:"5,keyasint"`

	// EngineVersion is the dissection engine version.
	EngineVersion string `cbor:"6,keyasint,omitempty"`
}

// MaxDataSize is the number of packet bytes kept in a PacketEvent.
const MaxDataSize = 4096

// PacketData returns data, truncated to MaxDataSize, and whether it was
// truncated.
func PacketData(data []byte) ([]byte, bool) {
	if len(data) <= MaxDataSize {
		return data, false
	}
	return data[:MaxDataSize], true
}
