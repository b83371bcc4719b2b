package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/dissect"
	"github.com/dissect-kit/dissect-go/pkg/inspect"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// output controls how results are printed.
type output struct {
	json    bool
	paths   bool
	hexdump bool
	plain   bool
}

func runRun(args []string) error {
	fs, c := newFlagSet("run", "Dissect hex strings or files and print the tree")
	var out output
	fs.BoolVar(&out.json, "json", false, "Print results as JSON")
	fs.BoolVar(&out.paths, "paths", false, "Show field paths")
	fs.BoolVar(&out.hexdump, "hexdump", false, "Print a hex dump before each tree")
	fs.BoolVar(&out.plain, "plain", false, "Disable styling")

	h, err := openHost(fs, c, args)
	if err != nil {
		return err
	}
	defer h.Close()

	packets, err := readPackets(fs.Args(), os.Stdin)
	if err != nil {
		return err
	}

	filter := h.Config().Protocol
	d, err := h.Dissector(filter)
	if err != nil {
		return err
	}
	for _, pkt := range packets {
		info := h.NextPacket()
		res := d.Dissect(pkt.data, info)
		if err := printResult(os.Stdout, pkt, info, res, out); err != nil {
			return err
		}
	}
	return nil
}

func runSize(args []string) error {
	fs, c := newFlagSet("size", "Print how many bytes a protocol consumes")
	h, err := openHost(fs, c, args)
	if err != nil {
		return err
	}
	defer h.Close()

	packets, err := readPackets(fs.Args(), os.Stdin)
	if err != nil {
		return err
	}
	return printSizes(os.Stdout, h, packets)
}

func printSizes(w io.Writer, h *host.Host, packets []packet) error {
	filter := h.Config().Protocol
	for _, pkt := range packets {
		n, err := h.Size(filter, pkt.data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d of %d bytes\n", pkt.source, n, len(pkt.data))
	}
	return nil
}

// packet is one input to dissect, with a label for output.
type packet struct {
	source string
	data   []byte
}

// readPackets turns arguments into packets. An argument naming an existing
// file is read as raw bytes, anything else is parsed as hex. With no
// arguments, stdin is read as one hex packet per line.
func readPackets(args []string, stdin io.Reader) ([]packet, error) {
	var out []packet
	if len(args) == 0 {
		sc := bufio.NewScanner(stdin)
		sc.Buffer(make([]byte, 64*1024), 16<<20)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			data, err := inspect.ParseHex(text)
			if err != nil {
				return nil, fmt.Errorf("stdin line %d: %w", line, err)
			}
			out = append(out, packet{source: fmt.Sprintf("stdin:%d", line), data: data})
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return out, nil
	}

	for i, arg := range args {
		data, err := os.ReadFile(arg)
		switch {
		case err == nil:
			out = append(out, packet{source: arg, data: data})
			continue
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		data, err = inspect.ParseHex(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d is neither a file nor hex: %w", i+1, err)
		}
		out = append(out, packet{source: fmt.Sprintf("arg:%d", i+1), data: data})
	}
	return out, nil
}

// jsonResult is the -json form of one dissected packet.
type jsonResult struct {
	Source   string     `json:"source"`
	Number   uint64     `json:"number"`
	PacketID string     `json:"packet_id"`
	Size     int        `json:"size"`
	Consumed int        `json:"consumed"`
	Info     string     `json:"info,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
	Fatal    string     `json:"fatal,omitempty"`
	Tree     *tree.JSON `json:"tree"`
}

func printResult(w io.Writer, pkt packet, info *tap.PacketInfo, res *dissect.Result, out output) error {
	if out.json {
		jr := jsonResult{
			Source:   pkt.source,
			Number:   info.Number,
			PacketID: info.ID.String(),
			Size:     len(pkt.data),
			Consumed: res.Consumed,
			Info:     res.Info,
			Tree:     tree.ToJSON(res.Tree),
		}
		for _, e := range res.Errors {
			jr.Errors = append(jr.Errors, e.Error())
		}
		if res.Fatal != nil {
			jr.Fatal = res.Fatal.Error()
		}
		return json.NewEncoder(w).Encode(jr)
	}

	f := inspect.NewFormatter()
	f.ShowPaths = out.paths
	if !out.plain {
		theme := inspect.NewDefaultTheme()
		f.Theme = &theme
	}

	fmt.Fprintf(w, "Frame %d (%s): %d bytes, %d consumed\n", info.Number, pkt.source, len(pkt.data), res.Consumed)
	if out.hexdump {
		fmt.Fprint(w, inspect.Hexdump(pkt.data))
	}
	fmt.Fprint(w, f.FormatTree(res.Tree))
	if res.Info != "" {
		fmt.Fprintf(w, "Info: %s\n", res.Info)
	}
	if res.Fatal != nil {
		fmt.Fprintf(w, "Fatal: %v\n", res.Fatal)
	}
	if n := res.ErrorCount(); n > 0 {
		fmt.Fprintf(w, "%d error(s)\n", n)
	}
	fmt.Fprintln(w)
	return nil
}
