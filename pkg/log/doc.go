// Package log provides structured dissection capture.
//
// This package defines the Logger interface and Event types for recording
// what a Dissector did with each packet: the flattened tree, decode errors,
// hook errors and the registry layout. It is separate from operational
// logging (slog); a capture is a complete machine-readable trace that can be
// replayed, filtered and exported.
//
// # Basic Usage
//
// Dissectors take a Logger as an option:
//
//	// For development: log to console via slog
//	d, _ := dissect.New(reg, "baby_udp", dissect.WithEventLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For analysis: write a capture file
//	fl, _ := log.NewFileLogger("session" + log.FileExt)
//	d, _ := dissect.New(reg, "baby_udp", dissect.WithEventLogger(fl))
//
//	// Both: use MultiLogger
//	events := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys. The
// dissect-log CLI tool provides viewing, filtering, export and statistics.
package log
