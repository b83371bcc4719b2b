package dissect

import (
	"log/slog"

	"github.com/dissect-kit/dissect-go/pkg/log"
)

// Options configures a Dissector.
type Options struct {
	// StrictVariants stops dissection at the first variant that cannot be
	// resolved and reports it in Result.Fatal. By default the failure is
	// scoped to the enum field and decoding continues.
	StrictVariants bool

	// Logger receives decode and hook errors at Debug level. Optional.
	Logger *slog.Logger

	// Events receives a capture event per dissected packet and per error.
	// Optional.
	Events log.Logger
}

// Option configures a Dissector.
type Option func(*Options)

// WithStrictVariants enables strict variant resolution.
func WithStrictVariants(strict bool) Option {
	return func(o *Options) { o.StrictVariants = strict }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithEventLogger sets the capture event logger.
func WithEventLogger(l log.Logger) Option {
	return func(o *Options) { o.Events = l }
}
