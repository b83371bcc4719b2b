// Command dissect-log is a tool for viewing and analyzing dissection capture
// files.
//
// Capture files are written by dissect and dissect-web with the -capture
// flag.
//
// Usage:
//
//	dissect-log <command> [flags] <file.dcap>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON or CSV format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	dissect-log view run.dcap
//
//	# View only packets with errors, with their trees
//	dissect-log view -errors-only -tree run.dcap
//
//	# Export to JSONL
//	dissect-log export -format jsonl run.dcap
//
//	# Keep only Baby UDP events
//	dissect-log filter -protocol baby_udp -o udp.dcap run.dcap
//
//	# Show statistics
//	dissect-log stats run.dcap
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dissect-kit/dissect-go/cmd/dissect-log/commands"
)

const usage = `dissect-log - Dissection Capture Analyzer

Usage:
  dissect-log <command> [flags] <file.dcap>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON or CSV format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "dissect-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "dissect-log %s - %s\n\nUsage:\n  dissect-log %s [flags] <file.dcap>\n\nFlags:\n",
			name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

// filterFlags registers the event filter flags shared by view and filter.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.PacketID, "packet-id", "", "Filter by packet ID")
	fs.StringVar(&opts.Protocol, "protocol", "", "Filter by protocol filter name")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (packet, decode_error, hook_error, registration)")
	fs.StringVar(&opts.PathPrefix, "path", "", "Filter error events by field path prefix")
	fs.BoolVar(&opts.ErrorsOnly, "errors-only", false, "Keep error events and packets with errors")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return opts
}

func runView(args []string) {
	fs := newFlagSet("view", "View capture file in human-readable format")
	opts := filterFlags(fs)
	showTree := fs.Bool("tree", false, "Print the dissection tree of packet events")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, commands.ViewOptions{Tree: *showTree}, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export capture file to JSON or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter capture file and write to new file")
	opts := filterFlags(fs)
	fs.StringVar(&opts.Output, "o", "", "Output file (required)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if opts.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, *opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, opts.Output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the capture file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
