package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dissect-kit/dissect-go/pkg/log"
)

// RunExport exports the capture file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return export(reader, format, w)
}

func export(reader *log.Reader, format string, w io.Writer) error {
	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSON shape of an event. The CBOR integer keys are not
// useful to consumers of the export.
type jsonEvent struct {
	Timestamp    string                 `json:"timestamp"`
	PacketID     string                 `json:"packet_id,omitempty"`
	Number       uint64                 `json:"number,omitempty"`
	Protocol     string                 `json:"protocol,omitempty"`
	Category     string                 `json:"category"`
	Packet       *log.PacketEvent       `json:"packet,omitempty"`
	Error        *log.ErrorEventData    `json:"error,omitempty"`
	Registration *log.RegistrationEvent `json:"registration,omitempty"`
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		je := jsonEvent{
			Timestamp:    formatTimestamp(event),
			PacketID:     event.PacketID,
			Number:       event.Number,
			Protocol:     event.Protocol,
			Category:     event.Category.String(),
			Packet:       event.Packet,
			Error:        event.Error,
			Registration: event.Registration,
		}
		if err := encoder.Encode(je); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "packet_id", "number", "protocol", "category",
	"size", "consumed", "errors", "info", "path", "message",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	row := make([]string, len(csvHeader))
	row[0] = formatTimestamp(event)
	row[1] = event.PacketID
	if event.Number != 0 {
		row[2] = strconv.FormatUint(event.Number, 10)
	}
	row[3] = event.Protocol
	row[4] = event.Category.String()

	switch {
	case event.Packet != nil:
		row[5] = strconv.Itoa(event.Packet.Size)
		row[6] = strconv.Itoa(event.Packet.Consumed)
		row[7] = strconv.Itoa(event.Packet.Errors)
		row[8] = event.Packet.Info
	case event.Error != nil:
		row[9] = event.Error.Path
		row[10] = event.Error.Message
	case event.Registration != nil:
		row[10] = "fingerprint " + event.Registration.Fingerprint
	}
	return row
}

func formatTimestamp(event log.Event) string {
	return event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
}
