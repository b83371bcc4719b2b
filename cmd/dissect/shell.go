package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/dissect"
	"github.com/dissect-kit/dissect-go/pkg/inspect"
)

func runShell(args []string) error {
	fs, c := newFlagSet("shell", "Interactive hex-input shell")
	h, err := openHost(fs, c, args)
	if err != nil {
		return err
	}
	defer h.Close()

	sh := newShell(h, os.Stdout)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    sh.completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	sh.out = rl.Stdout()

	sh.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(sh.out, "Exiting...")
			return nil
		}
		if !sh.exec(line) {
			return nil
		}
		rl.SetPrompt(sh.prompt())
	}
}

// shell holds the state of an interactive session.
type shell struct {
	h         *host.Host
	out       io.Writer
	inspector *inspect.Inspector
	formatter *inspect.Formatter

	filter    string
	last      *dissect.Result
	lastBytes []byte
}

func newShell(h *host.Host, out io.Writer) *shell {
	return &shell{
		h:         h,
		out:       out,
		inspector: inspect.NewInspector(h.Registry()),
		formatter: inspect.NewFormatter(),
		filter:    h.Config().Protocol,
	}
}

func (s *shell) prompt() string {
	return s.filter + "> "
}

func (s *shell) completer() *readline.PrefixCompleter {
	filters := func(string) []string { return s.h.Filters() }
	paths := func(line string) []string {
		fields := strings.Fields(line)
		prefix := ""
		if len(fields) > 1 {
			prefix = fields[len(fields)-1]
		}
		return s.inspector.Complete(prefix)
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("use", readline.PcItemDynamic(filters)),
		readline.PcItem("protocols"),
		readline.PcItem("fields", readline.PcItemDynamic(filters)),
		readline.PcItem("tables"),
		readline.PcItem("decode-as"),
		readline.PcItem("size"),
		readline.PcItem("find", readline.PcItemDynamic(paths)),
		readline.PcItem("paths"),
		readline.PcItem("hexdump"),
		readline.PcItem("quit"),
	)
}

// exec runs one input line. It returns false when the session should end.
func (s *shell) exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "use":
		s.cmdUse(args)
	case "protocols", "ls":
		fmt.Fprint(s.out, s.formatter.FormatRegistry(s.inspector.InspectRegistry()))
	case "fields":
		s.cmdFields(args)
	case "tables":
		s.cmdTables()
	case "decode-as":
		s.cmdDecodeAs(args)
	case "size":
		s.cmdSize(args)
	case "find", "f":
		s.cmdFind(args)
	case "paths":
		s.formatter.ShowPaths = !s.formatter.ShowPaths
		fmt.Fprintf(s.out, "Paths %s\n", onOff(s.formatter.ShowPaths))
	case "hexdump":
		if s.last == nil {
			fmt.Fprintln(s.out, "No packet dissected yet")
			return true
		}
		fmt.Fprint(s.out, inspect.Hexdump(s.lastBytes))
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false
	default:
		s.cmdDissect(input)
	}
	return true
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
Dissect Shell Commands:
  Dissection:
    <hex>                  - Dissect hex bytes with the current protocol
    size <hex>             - Print how many bytes the protocol consumes
    find <path>            - Show a node of the last packet, e.g. baby_udp.src_port
    hexdump                - Hex dump of the last packet

  Registry:
    use <protocol>         - Switch the current protocol
    protocols              - List protocols and tables
    fields [protocol]      - List the fields of a protocol
    tables                 - List dispatch tables
    decode-as <table> <p>  - Select the decode-as protocol of a table (none clears)

  General:
    paths                  - Toggle field paths in trees
    help                   - Show this help
    quit                   - Exit`)
}

func (s *shell) cmdUse(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: use <protocol>")
		return
	}
	if _, err := s.h.Dissector(args[0]); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.filter = args[0]
	fmt.Fprintf(s.out, "Using %s\n", s.filter)
}

func (s *shell) cmdFields(args []string) {
	filter := s.filter
	if len(args) > 0 {
		filter = args[0]
	}
	p, err := s.inspector.InspectProtocol(filter)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatFieldTable(p.Fields))
}

func (s *shell) cmdTables() {
	t := s.inspector.InspectRegistry()
	if len(t.Tables) == 0 {
		fmt.Fprintln(s.out, "No tables")
		return
	}
	for _, tb := range t.Tables {
		sel := ""
		if tb.Selected {
			sel = " (selected)"
		}
		fmt.Fprintf(s.out, "  %s [%s] %d keys%s\n", tb.Name, tb.KeyKind, tb.Keys, sel)
		if len(tb.Choices) > 0 {
			fmt.Fprintf(s.out, "      choices: %s\n", strings.Join(tb.Choices, ", "))
		}
	}
}

func (s *shell) cmdDecodeAs(args []string) {
	if len(args) == 2 && args[1] == "none" {
		if err := s.h.ClearDecodeAs(args[0]); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "%s decodes as data\n", args[0])
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: decode-as <table> <protocol|none>")
		return
	}
	if err := s.h.SetDecodeAs(args[0], args[1]); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s decodes as %s\n", args[0], args[1])
}

func (s *shell) cmdSize(args []string) {
	data, err := inspect.ParseHex(strings.Join(args, ""))
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	n, err := s.h.Size(s.filter, data)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%d of %d bytes\n", n, len(data))
}

func (s *shell) cmdFind(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: find <path>")
		return
	}
	if s.last == nil {
		fmt.Fprintln(s.out, "No packet dissected yet")
		return
	}
	n, err := inspect.Lookup(s.last.Tree, args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatTree(n))
}

func (s *shell) cmdDissect(input string) {
	data, err := inspect.ParseHex(input)
	if err != nil {
		fmt.Fprintf(s.out, "Unknown command or bad hex: %v (type 'help' for commands)\n", err)
		return
	}
	res, err := s.h.Dissect(s.filter, data)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.last, s.lastBytes = res, data
	fmt.Fprint(s.out, s.formatter.FormatTree(res.Tree))
	if res.Info != "" {
		fmt.Fprintf(s.out, "Info: %s\n", res.Info)
	}
	if res.Fatal != nil {
		fmt.Fprintf(s.out, "Fatal: %v\n", res.Fatal)
	}
	fmt.Fprintf(s.out, "%d of %d bytes consumed, %d error(s)\n", res.Consumed, len(data), res.ErrorCount())
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
