// Package commands implements the dissect-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/dissect-kit/dissect-go/pkg/log"
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// ViewOptions controls how much of each event is printed.
type ViewOptions struct {
	// Tree prints the flattened dissection tree of packet events.
	Tree bool
}

// previewBytes is the number of packet bytes shown per packet event.
const previewBytes = 32

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event, opts ViewOptions) {
	// Header line: timestamp [pkt:id] #number CATEGORY protocol
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [pkt:%s]", ts, shortenID(event.PacketID))
	if event.Number != 0 {
		fmt.Fprintf(w, " #%d", event.Number)
	}
	fmt.Fprintf(w, " %s", event.Category)
	if event.Protocol != "" {
		fmt.Fprintf(w, " %s", event.Protocol)
	}
	fmt.Fprintln(w)

	switch {
	case event.Packet != nil:
		formatPacketDetails(w, event.Packet, opts)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Registration != nil:
		formatRegistrationDetails(w, event.Registration)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of a packet ID.
func shortenID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatPacketDetails writes packet-specific details.
func formatPacketDetails(w io.Writer, p *log.PacketEvent, opts ViewOptions) {
	fmt.Fprintf(w, "  Size: %d bytes, consumed %d\n", p.Size, p.Consumed)
	if len(p.Data) > 0 {
		data := p.Data
		more := p.Truncated
		if len(data) > previewBytes {
			data, more = data[:previewBytes], true
		}
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(data))
		if more {
			fmt.Fprint(w, "...")
		}
		fmt.Fprintln(w)
	}
	if p.Info != "" {
		fmt.Fprintf(w, "  Info: %s\n", p.Info)
	}
	if p.Errors > 0 {
		fmt.Fprintf(w, "  Errors: %d\n", p.Errors)
	}
	if opts.Tree {
		formatTree(w, p.Tree)
	}
}

// formatTree writes flattened tree entries, indented by depth.
func formatTree(w io.Writer, entries []tree.Entry) {
	for _, e := range entries {
		indent := strings.Repeat("  ", e.Depth+1)
		fmt.Fprintf(w, "%s[%d+%d] %s", indent, e.Offset, e.Length, e.Name)
		if e.Value != "" {
			fmt.Fprintf(w, ": %s", e.Value)
		}
		if e.Error != "" {
			fmt.Fprintf(w, " [error: %s]", e.Error)
		}
		fmt.Fprintln(w)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Path: %s\n", err.Path)
	fmt.Fprintf(w, "  Offset: %d\n", err.Offset)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
}

// formatRegistrationDetails writes the registry layout.
func formatRegistrationDetails(w io.Writer, r *log.RegistrationEvent) {
	fmt.Fprintf(w, "  Fingerprint: %s\n", r.Fingerprint)
	if r.EngineVersion != "" {
		fmt.Fprintf(w, "  Engine: %s\n", r.EngineVersion)
	}
	fmt.Fprintf(w, "  Protocols: %s\n", strings.Join(r.Protocols, ", "))
	fmt.Fprintf(w, "  Fields: %d  Subtrees: %d  Tables: %d\n", r.Fields, r.Subtrees, r.Tables)
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, opts ViewOptions, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event, opts)
	}
	return nil
}
