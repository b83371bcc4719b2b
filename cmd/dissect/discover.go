package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/discovery"
)

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	timeout := fs.Duration("timeout", discovery.BrowseTimeout, "How long to browse")
	iface := fs.String("interface", "", "Network interface (default all)")
	match := fs.Bool("match", false, "Only show servers with the local protocol set")
	schema := fs.String("schema", "", "Protocol description file or directory (with -match)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "dissect discover - Find API servers on the local network\n\nUsage:\n  dissect discover [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	local := ""
	if *match {
		cfg := host.DefaultConfig()
		cfg.Schema = *schema
		cfg.LogLevel = "error"
		h, err := host.New(cfg, cfg.NewLogger())
		if err != nil {
			return err
		}
		local = h.Registry().Fingerprint()
		h.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := discovery.NewBrowser(discovery.BrowserConfig{Timeout: *timeout, Interface: *iface})
	services, err := b.Discover(ctx)
	if err != nil {
		return err
	}
	printServices(os.Stdout, services, local, *timeout)
	return nil
}

// printServices lists services, keeping only those whose fingerprint equals
// local when local is set.
func printServices(w io.Writer, services []*discovery.Service, local string, timeout time.Duration) {
	shown := 0
	for _, svc := range services {
		if local != "" && svc.Fingerprint != local {
			continue
		}
		shown++
		fmt.Fprintf(w, "%s  %s  v%s  %d protocols  fp=%s\n",
			svc.Instance, svc.BaseURL(), svc.Version, svc.Protocols, svc.Fingerprint)
		if len(svc.Addresses) > 1 {
			fmt.Fprintf(w, "  addresses: %s\n", strings.Join(svc.Addresses, ", "))
		}
	}
	if shown == 0 {
		fmt.Fprintf(w, "No servers found within %s\n", timeout)
	}
}
