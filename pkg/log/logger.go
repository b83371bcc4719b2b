package log

// Logger is the interface applications implement to receive dissection events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent use,
	// since one Dissector may serve several goroutines. Log is called on the
	// dissection path and should return quickly.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

// FilteredLogger forwards only the events that match a Filter.
type FilteredLogger struct {
	next   Logger
	filter Filter
}

// NewFilteredLogger wraps next so that it only receives events matching f.
func NewFilteredLogger(next Logger, f Filter) *FilteredLogger {
	return &FilteredLogger{next: next, filter: f}
}

// Log forwards the event if it matches the filter.
func (l *FilteredLogger) Log(event Event) {
	if l.filter.matches(event) {
		l.next.Log(event)
	}
}

var _ Logger = (*FilteredLogger)(nil)
