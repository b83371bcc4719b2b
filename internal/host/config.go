package host

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the dissect tools.
type Config struct {
	// Schema is a protocol description file or a directory of them. The
	// built-in example protocols are always registered.
	Schema string `toml:"schema" yaml:"schema"`

	// Protocol is the filter name of the default protocol.
	Protocol string `toml:"protocol" yaml:"protocol"`

	// Capture is the path of a capture file that receives dissection events.
	Capture string `toml:"capture" yaml:"capture"`

	LogLevel       string `toml:"log_level" yaml:"log_level"`
	StrictVariants bool   `toml:"strict_variants" yaml:"strict_variants"`

	// Listen is the HTTP API address.
	Listen string `toml:"listen" yaml:"listen"`

	// Preferences is the path of a JSON file that keeps decode-as
	// selections across runs. Empty disables persistence.
	Preferences string `toml:"preferences" yaml:"preferences"`

	// Announce advertises the HTTP API over DNS-SD while serving.
	Announce bool `toml:"announce" yaml:"announce"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Protocol: "baby_udp",
		LogLevel: "info",
		Listen:   ":8080",
	}
}

// LoadConfig reads a .toml, .yaml or .yml config file over the defaults.
func LoadConfig(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported format (want .toml, .yaml or .yml)", path)
	}
}

func loadTOML(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("schema") {
		cfg.Schema = strings.TrimSpace(raw.Schema)
	}
	if meta.IsDefined("protocol") {
		cfg.Protocol = strings.TrimSpace(raw.Protocol)
	}
	if meta.IsDefined("capture") {
		cfg.Capture = strings.TrimSpace(raw.Capture)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("strict_variants") {
		cfg.StrictVariants = raw.StrictVariants
	}
	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("preferences") {
		cfg.Preferences = strings.TrimSpace(raw.Preferences)
	}
	if meta.IsDefined("announce") {
		cfg.Announce = raw.Announce
	}
	return cfg, cfg.Validate()
}

func loadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that can be checked without touching the
// file system.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Protocol == "" {
		return fmt.Errorf("config missing protocol")
	}
	return nil
}

// ParseLevel converts a log level name to an slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", level)
	}
}

// NewLogger returns a text slog.Logger writing to stderr at the configured
// level.
func (c Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
