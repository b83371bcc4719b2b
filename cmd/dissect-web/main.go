// Command dissect-web serves the dissection engine over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/v1/protocols
//	GET  /api/v1/protocols/{protocol}
//	GET  /api/v1/tables
//	PUT  /api/v1/tables/{table}/decode-as
//	POST /api/v1/dissect/{protocol}   body: hex text or application/octet-stream
//	POST /api/v1/size/{protocol}
//
// Usage:
//
//	dissect-web [flags]
//
// Flags:
//
//	-listen string     HTTP listen address (default ":8080")
//	-config string     Configuration file (.toml, .yaml)
//	-schema string     Protocol description file or directory
//	-capture string    Write dissection events to this capture file
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-preferences path  Keep decode-as selections in this JSON file
//	-announce          Advertise the API over DNS-SD (_dissect._tcp)
//
// Examples:
//
//	# Serve the built-in protocols
//	dissect-web
//
//	# Dissect a packet
//	curl -d '04d2 0035 000c 1234 deadbeef' localhost:8080/api/v1/dissect/baby_udp
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/internal/webapi"
	"github.com/dissect-kit/dissect-go/pkg/version"
)

// Version information - set at build time via ldflags
var (
	Version   = version.Engine
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	configFile  = flag.String("config", "", "Configuration file (.toml, .yaml)")
	listen      = flag.String("listen", "", "HTTP listen address (default \":8080\")")
	schema      = flag.String("schema", "", "Protocol description file or directory")
	capture     = flag.String("capture", "", "Write dissection events to this capture file")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	preferences = flag.String("preferences", "", "Keep decode-as selections in this JSON file")
	announce    = flag.Bool("announce", false, "Advertise the API over DNS-SD")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("dissect-web %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	cfg := host.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = host.LoadConfig(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *schema != "" {
		cfg.Schema = *schema
	}
	if *capture != "" {
		cfg.Capture = *capture
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *preferences != "" {
		cfg.Preferences = *preferences
	}
	if *announce {
		cfg.Announce = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := cfg.NewLogger()
	h, err := host.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create host: %v\n", err)
		return 1
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting dissect-web", "listen", cfg.Listen, "protocols", len(h.Filters()))
	srv := webapi.New(webapi.Config{Listen: cfg.Listen, Version: Version, Announce: cfg.Announce}, h, logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		return 1
	}
	return 0
}
