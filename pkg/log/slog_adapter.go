package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes dissection events to an slog.Logger.
// Useful for development when you want to see events in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.PacketID != "" {
		attrs = append(attrs, slog.String("packet_id", event.PacketID))
	}
	if event.Protocol != "" {
		attrs = append(attrs, slog.String("protocol", event.Protocol))
	}
	if event.Number != 0 {
		attrs = append(attrs, slog.Uint64("number", event.Number))
	}

	switch {
	case event.Packet != nil:
		attrs = append(attrs,
			slog.Int("size", event.Packet.Size),
			slog.Int("consumed", event.Packet.Consumed),
			slog.Int("errors", event.Packet.Errors),
		)
		if event.Packet.Info != "" {
			attrs = append(attrs, slog.String("info", event.Packet.Info))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("path", event.Error.Path),
			slog.Int("offset", event.Error.Offset),
			slog.String("error", event.Error.Message),
		)
	case event.Registration != nil:
		attrs = append(attrs,
			slog.String("fingerprint", event.Registration.Fingerprint),
			slog.Int("fields", event.Registration.Fields),
			slog.Int("tables", event.Registration.Tables),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "dissect", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
