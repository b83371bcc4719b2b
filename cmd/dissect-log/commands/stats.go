package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dissect-kit/dissect-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	Packets          int
	Bytes            int
	Consumed         int
	EventsByCategory map[log.Category]int
	Protocols        map[string]*ProtocolStats
	ErrorPaths       map[string]int
	Fingerprints     []string
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ProtocolStats holds statistics for a single protocol.
type ProtocolStats struct {
	Packets     int
	Bytes       int
	DecodeError int
	HookErrors  int
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats, err := collectStats(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Protocols:        make(map[string]*ProtocolStats),
		ErrorPaths:       make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Registration != nil {
			stats.Fingerprints = append(stats.Fingerprints, event.Registration.Fingerprint)
			continue
		}

		ps := stats.Protocols[event.Protocol]
		if ps == nil {
			ps = &ProtocolStats{}
			stats.Protocols[event.Protocol] = ps
		}
		switch {
		case event.Packet != nil:
			stats.Packets++
			stats.Bytes += event.Packet.Size
			stats.Consumed += event.Packet.Consumed
			ps.Packets++
			ps.Bytes += event.Packet.Size
		case event.Error != nil:
			stats.ErrorPaths[event.Error.Path]++
			if event.Category == log.CategoryHookError {
				ps.HookErrors++
			} else {
				ps.DecodeError++
			}
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Dissection Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Packets:      %d (%d bytes, %d consumed)\n", stats.Packets, stats.Bytes, stats.Consumed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryPacket, log.CategoryDecodeError, log.CategoryHookError, log.CategoryRegistration} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	names := make([]string, 0, len(stats.Protocols))
	for name := range stats.Protocols {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Protocols: %d\n", len(names))
	for _, name := range names {
		ps := stats.Protocols[name]
		fmt.Fprintf(w, "  %-14s %d packets, %d bytes", name+":", ps.Packets, ps.Bytes)
		if ps.DecodeError > 0 || ps.HookErrors > 0 {
			fmt.Fprintf(w, ", %d decode errors, %d hook errors", ps.DecodeError, ps.HookErrors)
		}
		fmt.Fprintln(w)
	}

	for _, fp := range stats.Fingerprints {
		fmt.Fprintf(w, "\nRegistry: %s\n", fp)
	}

	if len(stats.ErrorPaths) > 0 {
		paths := make([]string, 0, len(stats.ErrorPaths))
		for p := range stats.ErrorPaths {
			paths = append(paths, p)
		}
		// Most frequent first.
		sort.Slice(paths, func(i, j int) bool {
			a, b := stats.ErrorPaths[paths[i]], stats.ErrorPaths[paths[j]]
			if a != b {
				return a > b
			}
			return paths[i] < paths[j]
		})
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Error Paths:")
		for _, p := range paths {
			fmt.Fprintf(w, "  %-30s %d\n", p, stats.ErrorPaths[p])
		}
	}
}
