package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dissect-kit/dissect-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the view and filter
// commands.
type FilterOptions struct {
	Output     string
	PacketID   string
	Protocol   string
	Category   string
	PathPrefix string
	ErrorsOnly bool
	TimeStart  string
	TimeEnd    string
}

// Build converts the options to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		PacketID:   o.PacketID,
		Protocol:   o.Protocol,
		PathPrefix: o.PathPrefix,
		ErrorsOnly: o.ErrorsOnly,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}

// ParseCategoryFlag parses a category from a command-line flag
// (case-insensitive, "-" and "_" interchangeable).
func ParseCategoryFlag(s string) (log.Category, error) {
	name := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	c, ok := log.ParseCategory(name)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be packet, decode_error, hook_error or registration)", s)
	}
	return c, nil
}

// RunFilter copies the events of path that match opts to opts.Output and
// returns how many were written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter, err := opts.Build()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
	return count, nil
}
