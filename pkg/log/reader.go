package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// PacketID filters by exact packet ID match.
	PacketID string

	// Protocol filters by protocol filter name.
	Protocol string

	// Category filters by event category.
	Category *Category

	// PathPrefix filters error events by field path prefix.
	PathPrefix string

	// ErrorsOnly keeps error events and packets with errors.
	ErrorsOnly bool

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// matches returns true if the event matches all filter criteria.
func (f *Filter) matches(event Event) bool {
	if f.PacketID != "" && event.PacketID != f.PacketID {
		return false
	}
	if f.Protocol != "" && event.Protocol != f.Protocol {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.PathPrefix != "" && (event.Error == nil || !strings.HasPrefix(event.Error.Path, f.PathPrefix)) {
		return false
	}
	if f.ErrorsOnly && event.Error == nil && (event.Packet == nil || event.Packet.Errors == 0) {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader reads dissection events from a CBOR-encoded capture.
// It provides an iterator interface for streaming large files.
type Reader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader that reads all events from the specified capture file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewStreamReader(f, filter)
	r.closer = f
	return r, nil
}

// NewStreamReader creates a Reader over an arbitrary stream, e.g. stdin.
func NewStreamReader(rd io.Reader, filter Filter) *Reader {
	return &Reader{
		decoder: NewDecoder(rd),
		filter:  filter,
	}
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// ReadAll returns every remaining event that matches the filter.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
