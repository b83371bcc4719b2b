// Package runner wires the test harness together: it builds a dissection
// host, loads and filters packet cases, runs them through the engine and
// reports the results.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/internal/testharness/engine"
	"github.com/dissect-kit/dissect-go/internal/testharness/loader"
	"github.com/dissect-kit/dissect-go/internal/testharness/reporter"
)

// Config configures a test run.
type Config struct {
	// Host configures the dissection host under test.
	Host host.Config

	// TestDir is the directory of YAML case files.
	TestDir string

	// Pattern selects cases by ID (glob or substring).
	Pattern string

	// Tags lists comma-separated tags a case must all carry.
	Tags string

	// ExcludeTags lists comma-separated tags that exclude a case.
	ExcludeTags string

	// StopOnFirstFailure stops after the first failed case.
	StopOnFirstFailure bool

	// Shuffle randomizes case order. A zero ShuffleSeed picks a random seed.
	Shuffle     bool
	ShuffleSeed uint64

	// Verbose shows step details in text output.
	Verbose bool

	// Output receives the report. Defaults to os.Stdout.
	Output io.Writer

	// OutputFormat is text, json or junit.
	OutputFormat string
}

// Runner executes packet cases against a host.
type Runner struct {
	config   *Config
	host     *host.Host
	engine   *engine.Engine
	reporter reporter.Reporter
	logger   *slog.Logger
}

// New builds the host and engine for config. A nil logger uses
// slog.Default().
func New(config *Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}

	rep, err := newReporter(config)
	if err != nil {
		return nil, err
	}

	// Cases set and clear decode-as selections; keep them out of the
	// user's saved preferences.
	config.Host.Preferences = ""
	h, err := host.New(config.Host, logger)
	if err != nil {
		return nil, fmt.Errorf("creating host: %w", err)
	}

	return &Runner{
		config: config,
		host:   h,
		engine: engine.NewWithConfig(h, &engine.EngineConfig{
			StopOnFirstFailure: config.StopOnFirstFailure,
			Logger:             logger,
		}),
		reporter: rep,
		logger:   logger,
	}, nil
}

func newReporter(config *Config) (reporter.Reporter, error) {
	switch config.OutputFormat {
	case "", "text":
		return reporter.NewTextReporter(config.Output, config.Verbose), nil
	case "json":
		return reporter.NewJSONReporter(config.Output), nil
	case "junit":
		return reporter.NewJUnitReporter(config.Output), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (text, json, junit)", config.OutputFormat)
	}
}

// Host returns the host under test.
func (r *Runner) Host() *host.Host {
	return r.host
}

// Run loads, filters and executes the cases, then reports the results.
func (r *Runner) Run(ctx context.Context) (*engine.SuiteResult, error) {
	cases, err := loader.LoadDirectory(r.config.TestDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load tests: %w", err)
	}

	cases = loader.Filter(cases, r.config.Pattern, parseTags(r.config.Tags)...)
	cases = excludeTags(cases, parseTags(r.config.ExcludeTags))
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found matching filters (pattern=%q, tags=%q, exclude-tags=%q)",
			r.config.Pattern, r.config.Tags, r.config.ExcludeTags)
	}

	loader.SortByID(cases)
	if r.config.Shuffle {
		seed := r.config.ShuffleSeed
		if seed == 0 {
			seed = rand.Uint64()
		}
		shuffle(cases, seed)
		r.logger.Info("shuffled test cases", "seed", seed)
	}

	r.logger.Debug("running test cases", "count", len(cases), "dir", r.config.TestDir)
	result := r.engine.RunSuite(ctx, fmt.Sprintf("Dissection Tests (%s)", r.config.TestDir), cases)
	r.reporter.ReportSuite(result)
	return result, nil
}

// Close releases the host.
func (r *Runner) Close() error {
	return r.host.Close()
}

func shuffle(cases []*loader.TestCase, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(cases), func(i, j int) { cases[i], cases[j] = cases[j], cases[i] })
}

func parseTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func excludeTags(cases []*loader.TestCase, excluded []string) []*loader.TestCase {
	if len(excluded) == 0 {
		return cases
	}
	out := cases[:0:0]
	for _, tc := range cases {
		if !hasAnyTag(tc.Tags, excluded) {
			out = append(out, tc)
		}
	}
	return out
}

func hasAnyTag(testTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range testTags {
			if t == w {
				return true
			}
		}
	}
	return false
}
