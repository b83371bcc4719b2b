// Command dissect runs declarative protocol dissectors on raw packet bytes.
//
// Usage:
//
//	dissect <command> [flags] [args]
//
// Commands:
//
//	run      Dissect hex strings or files and print the tree
//	size     Print how many bytes a protocol consumes
//	list     List registered protocols, fields and tables
//	shell    Interactive hex-input shell
//	serve    Serve the HTTP API
//	discover Find API servers on the local network
//
// Examples:
//
//	# Dissect a Baby UDP packet
//	dissect run -protocol baby_udp "04d2 0035 000c 1234 deadbeef"
//
//	# Dissect files with protocols loaded from YAML and record a capture
//	dissect run -schema ./protocols -capture run.dcap -protocol message pkt1.bin pkt2.bin
//
//	# Show the fields of one protocol
//	dissect list -protocol baby_arp
//
//	# Serve the HTTP API with a config file
//	dissect serve -config dissect.toml
package main

import (
	"fmt"
	"os"
)

const usage = `dissect - declarative protocol dissection

Usage:
  dissect <command> [flags] [args]

Commands:
  run      Dissect hex strings or files and print the tree
  size     Print how many bytes a protocol consumes
  list     List registered protocols, fields and tables
  shell    Interactive hex-input shell
  serve    Serve the HTTP API
  discover Find API servers on the local network

Use "dissect <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runRun(args)
	case "size":
		err = runSize(args)
	case "list":
		err = runList(args)
	case "shell":
		err = runShell(args)
	case "serve":
		err = runServe(args)
	case "discover":
		err = runDiscover(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
