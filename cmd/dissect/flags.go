package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dissect-kit/dissect-go/internal/host"
)

// commonFlags are accepted by every command. Flags given on the command
// line override the config file.
type commonFlags struct {
	config         string
	schema         string
	protocol       string
	capture        string
	logLevel       string
	strictVariants bool
	listen         string
	preferences    string
	announce       bool
}

func newFlagSet(name, synopsis string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "dissect %s - %s\n\nUsage:\n  dissect %s [flags] %s\n\nFlags:\n",
			name, synopsis, name, argsHint(name))
		fs.PrintDefaults()
	}

	c := &commonFlags{}
	defaults := host.DefaultConfig()
	fs.StringVar(&c.config, "config", "", "Configuration file (.toml, .yaml)")
	fs.StringVar(&c.schema, "schema", "", "Protocol description file or directory")
	fs.StringVar(&c.protocol, "protocol", defaults.Protocol, "Protocol filter name")
	fs.StringVar(&c.capture, "capture", "", "Write dissection events to this capture file")
	fs.StringVar(&c.logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&c.strictVariants, "strict-variants", false, "Stop at the first unresolved variant")
	fs.StringVar(&c.listen, "listen", defaults.Listen, "HTTP listen address (serve)")
	fs.StringVar(&c.preferences, "preferences", "", "Keep decode-as selections in this JSON file")
	fs.BoolVar(&c.announce, "announce", false, "Advertise the HTTP API over DNS-SD (serve)")
	return fs, c
}

func argsHint(name string) string {
	switch name {
	case "run", "size":
		return "<hex|file>..."
	default:
		return ""
	}
}

// resolve loads the config file, if any, and applies the flags that were set
// explicitly.
func (c *commonFlags) resolve(fs *flag.FlagSet) (host.Config, error) {
	cfg := host.DefaultConfig()
	if c.config != "" {
		var err error
		if cfg, err = host.LoadConfig(c.config); err != nil {
			return host.Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "schema":
			cfg.Schema = c.schema
		case "protocol":
			cfg.Protocol = c.protocol
		case "capture":
			cfg.Capture = c.capture
		case "log-level":
			cfg.LogLevel = c.logLevel
		case "strict-variants":
			cfg.StrictVariants = c.strictVariants
		case "listen":
			cfg.Listen = c.listen
		case "preferences":
			cfg.Preferences = c.preferences
		case "announce":
			cfg.Announce = c.announce
		}
	})
	return cfg, cfg.Validate()
}

// openHost parses args and builds the host.
func openHost(fs *flag.FlagSet, c *commonFlags, args []string) (*host.Host, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := c.resolve(fs)
	if err != nil {
		return nil, err
	}
	return host.New(cfg, cfg.NewLogger())
}
