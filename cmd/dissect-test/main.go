// Command dissect-test runs YAML packet cases against the dissection host.
//
// Each case names a protocol, gives a packet as hex and lists expectations
// about the result: consumed bytes, error count, field values and the info
// column.
//
// Usage:
//
//	dissect-test [flags] [test-pattern]
//
// Flags:
//
//	-tests string         Path to test cases directory (default "./testdata/cases")
//	-config string        Host configuration file (TOML or YAML)
//	-schema string        Protocol description file or directory to load
//	-capture string       Write CBOR capture events to this file
//	-strict-variants      Stop dissection on the first variant resolution failure
//	-tags string          Only run cases with all of these comma-separated tags
//	-exclude-tags string  Skip cases with any of these comma-separated tags
//	-stop-on-failure      Stop after the first failed case
//	-shuffle              Run cases in random order
//	-seed uint            Shuffle seed (0 picks one)
//	-verbose              Show step details
//	-json                 Output results as JSON
//	-junit                Output results as JUnit XML
//	-log-level string     Log level: debug, info, warn, error
//
// Examples:
//
//	# Run all bundled cases
//	dissect-test
//
//	# Run the UDP cases with step details
//	dissect-test -verbose "TC-UDP-*"
//
//	# Run cases against protocols described in YAML
//	dissect-test -schema ./protocols -tests ./cases
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/internal/testharness/runner"
)

var (
	tests          = flag.String("tests", "./testdata/cases", "Path to test cases directory")
	configPath     = flag.String("config", "", "Host configuration file (TOML or YAML)")
	schema         = flag.String("schema", "", "Protocol description file or directory to load")
	capture        = flag.String("capture", "", "Write CBOR capture events to this file")
	strictVariants = flag.Bool("strict-variants", false, "Stop dissection on the first variant resolution failure")
	tags           = flag.String("tags", "", "Only run cases with all of these comma-separated tags")
	excludeTags    = flag.String("exclude-tags", "", "Skip cases with any of these comma-separated tags")
	stopOnFailure  = flag.Bool("stop-on-failure", false, "Stop after the first failed case")
	shuffle        = flag.Bool("shuffle", false, "Run cases in random order")
	seed           = flag.Uint64("seed", 0, "Shuffle seed (0 picks one)")
	verbose        = flag.Bool("verbose", false, "Show step details")
	jsonOut        = flag.Bool("json", false, "Output results as JSON")
	junitOut       = flag.Bool("junit", false, "Output results as JUnit XML")
	logLevel       = flag.String("log-level", "", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	pattern := ""
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}

	outputFormat := "text"
	if *jsonOut {
		outputFormat = "json"
	} else if *junitOut {
		outputFormat = "junit"
	}

	hostCfg, err := hostConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := hostCfg.NewLogger()

	r, err := runner.New(&runner.Config{
		Host:               hostCfg,
		TestDir:            *tests,
		Pattern:            pattern,
		Tags:               *tags,
		ExcludeTags:        *excludeTags,
		StopOnFirstFailure: *stopOnFailure,
		Shuffle:            *shuffle,
		ShuffleSeed:        *seed,
		Verbose:            *verbose,
		Output:             os.Stdout,
		OutputFormat:       outputFormat,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result, err := r.Run(ctx)
	cancel()
	r.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if result.FailCount > 0 {
		os.Exit(1)
	}
}

// hostConfig loads the config file, if any, and applies the flags that were
// set on the command line.
func hostConfig() (host.Config, error) {
	cfg := host.DefaultConfig()
	if *configPath != "" {
		loaded, err := host.LoadConfig(*configPath)
		if err != nil {
			return host.Config{}, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "schema":
			cfg.Schema = *schema
		case "capture":
			cfg.Capture = *capture
		case "strict-variants":
			cfg.StrictVariants = *strictVariants
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return host.Config{}, err
	}
	return cfg, nil
}
