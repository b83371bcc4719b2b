package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/inspect"
)

func runList(args []string) error {
	fs, c := newFlagSet("list", "List registered protocols, fields and tables")
	plain := fs.Bool("plain", false, "Disable styling")
	h, err := openHost(fs, c, args)
	if err != nil {
		return err
	}
	defer h.Close()

	filter := ""
	if fs.NArg() > 0 {
		filter = fs.Arg(0)
	}
	return printList(os.Stdout, h, filter, !*plain)
}

// printList writes the registry overview, or the field table of filter when
// it is set.
func printList(w io.Writer, h *host.Host, filter string, styled bool) error {
	ins := inspect.NewInspector(h.Registry())
	f := inspect.NewFormatter()
	if styled {
		theme := inspect.NewDefaultTheme()
		f.Theme = &theme
	}

	if filter == "" {
		fmt.Fprint(w, f.FormatRegistry(ins.InspectRegistry()))
		return nil
	}
	p, err := ins.InspectProtocol(filter)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.Filter)
	fmt.Fprint(w, f.FormatFieldTable(p.Fields))
	return nil
}
