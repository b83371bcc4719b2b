// Package host is the reference host shared by the dissect tools. It builds
// a registry from the built-in example protocols and optional protocol
// descriptions, wires the capture logger, and stamps every packet with an
// ID and a frame number before dissecting it.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dissect-kit/dissect-go/pkg/dissect"
	"github.com/dissect-kit/dissect-go/pkg/examples"
	"github.com/dissect-kit/dissect-go/pkg/log"
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/persistence"
	"github.com/dissect-kit/dissect-go/pkg/protoparse"
	"github.com/dissect-kit/dissect-go/pkg/registry"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/version"
)

// ErrUnknownProtocol is returned for a filter name with no dissector.
var ErrUnknownProtocol = errors.New("unknown protocol")

// Host owns a sealed registry and one dissector per protocol.
type Host struct {
	cfg    Config
	reg    *registry.Registry
	ds     map[string]*dissect.Dissector
	logger *slog.Logger

	capture *log.FileLogger
	events  log.Logger

	frames atomic.Uint64

	prefsMu sync.Mutex
	store   *persistence.Store
	prefs   *persistence.Preferences
}

// New builds a host from cfg. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) (*Host, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		cfg:    cfg,
		reg:    registry.New(registry.WithLogger(logger)),
		logger: logger,
	}

	if err := examples.Register(h.reg); err != nil {
		return nil, fmt.Errorf("registering examples: %w", err)
	}
	if cfg.Schema != "" {
		protos, err := loadSchema(cfg.Schema)
		if err != nil {
			return nil, err
		}
		for _, p := range protos {
			if err := h.reg.Register(p); err != nil {
				return nil, fmt.Errorf("registering %s: %w", p.Filter, err)
			}
			logger.Info("protocol loaded", "filter", p.Filter, "schema", cfg.Schema)
		}
	}

	opts := []dissect.Option{
		dissect.WithStrictVariants(cfg.StrictVariants),
		dissect.WithLogger(logger),
	}
	if cfg.Capture != "" {
		fl, err := log.NewFileLogger(cfg.Capture)
		if err != nil {
			return nil, fmt.Errorf("opening capture: %w", err)
		}
		h.capture = fl
		h.events = fl
		opts = append(opts, dissect.WithEventLogger(fl))
	}

	ds, err := dissect.NewAll(h.reg, opts...)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.ds = ds
	h.reg.Seal()

	if err := h.restorePreferences(); err != nil {
		h.Close()
		return nil, err
	}

	if h.events != nil {
		h.events.Log(RegistrationEvent(h.reg))
	}
	logger.Debug("host ready", "protocols", len(ds), "fingerprint", h.reg.Fingerprint())
	return h, nil
}

// loadSchema loads one description file or every description in a
// directory. Descriptions may use the callbacks of the example protocols.
func loadSchema(path string) ([]*model.Protocol, error) {
	cbs := protoparse.CallbacksFrom(examples.All()...)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if info.IsDir() {
		return protoparse.LoadDir(path, cbs)
	}
	p, err := protoparse.Load(path, cbs)
	if err != nil {
		return nil, err
	}
	return []*model.Protocol{p}, nil
}

// RegistrationEvent describes the layout of reg as a capture event.
func RegistrationEvent(reg *registry.Registry) log.Event {
	var filters []string
	for _, p := range reg.Protocols() {
		filters = append(filters, p.Filter)
	}
	return log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryRegistration,
		Registration: &log.RegistrationEvent{
			Fingerprint:   reg.Fingerprint(),
			Protocols:     filters,
			Fields:        len(reg.Fields()),
			Subtrees:      len(reg.Subtrees()),
			Tables:        len(reg.Tables()),
			EngineVersion: version.Engine,
		},
	}
}

// Config returns the host settings.
func (h *Host) Config() Config {
	return h.cfg
}

// Registry returns the host registry.
func (h *Host) Registry() *registry.Registry {
	return h.reg
}

// Dissector returns the dissector for filter.
func (h *Host) Dissector(filter string) (*dissect.Dissector, error) {
	d, ok := h.ds[filter]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, filter)
	}
	return d, nil
}

// Filters returns the filter names of every protocol, sorted.
func (h *Host) Filters() []string {
	out := make([]string, 0, len(h.ds))
	for f := range h.ds {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// NextPacket returns metadata for a new packet with the next frame number.
func (h *Host) NextPacket() *tap.PacketInfo {
	info := tap.NewPacketInfo(time.Now())
	info.Number = h.frames.Add(1)
	return info
}

// Dissect runs the named protocol on data as the next packet.
func (h *Host) Dissect(filter string, data []byte) (*dissect.Result, error) {
	d, err := h.Dissector(filter)
	if err != nil {
		return nil, err
	}
	return d.Dissect(data, h.NextPacket()), nil
}

// Size returns the number of bytes the named protocol consumes from data.
func (h *Host) Size(filter string, data []byte) (int, error) {
	d, err := h.Dissector(filter)
	if err != nil {
		return 0, err
	}
	return d.Size(data), nil
}

// restorePreferences loads the persisted decode-as selections and applies
// the ones that still fit the registry. Stale entries are dropped.
func (h *Host) restorePreferences() error {
	h.store = persistence.NewStore(h.cfg.Preferences)
	prefs, err := h.store.Load()
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}
	h.prefs = prefs
	if prefs.Fingerprint != "" && prefs.Fingerprint != h.reg.Fingerprint() {
		h.logger.Warn("preferences were saved for a different protocol set",
			"path", h.store.Path(), "saved", prefs.Fingerprint, "current", h.reg.Fingerprint())
	}
	for _, table := range prefs.Tables() {
		protocol := prefs.DecodeAs[table]
		if err := h.reg.SetDecodeAs(table, protocol); err != nil {
			h.logger.Warn("dropping stale decode-as preference", "table", table, "protocol", protocol, "error", err)
			delete(prefs.DecodeAs, table)
			continue
		}
		h.logger.Debug("decode-as restored", "table", table, "protocol", protocol)
	}
	return nil
}

// DecodeAs returns a copy of the current decode-as selections.
func (h *Host) DecodeAs() map[string]string {
	h.prefsMu.Lock()
	defer h.prefsMu.Unlock()
	out := make(map[string]string, len(h.prefs.DecodeAs))
	for k, v := range h.prefs.DecodeAs {
		out[k] = v
	}
	return out
}

// SetDecodeAs selects the protocol a decode-as table dispatches to and
// persists the selection when preferences are enabled.
func (h *Host) SetDecodeAs(table, protocol string) error {
	if err := h.reg.SetDecodeAs(table, protocol); err != nil {
		return err
	}
	h.logger.Info("decode-as selected", "table", table, "protocol", protocol)

	h.prefsMu.Lock()
	defer h.prefsMu.Unlock()
	h.prefs.DecodeAs[table] = protocol
	return h.savePreferences()
}

// ClearDecodeAs drops the selection of a decode-as table.
func (h *Host) ClearDecodeAs(table string) error {
	if err := h.reg.ClearDecodeAs(table); err != nil {
		return err
	}

	h.prefsMu.Lock()
	defer h.prefsMu.Unlock()
	if _, ok := h.prefs.DecodeAs[table]; !ok {
		return nil
	}
	delete(h.prefs.DecodeAs, table)
	return h.savePreferences()
}

// savePreferences must be called with prefsMu held.
func (h *Host) savePreferences() error {
	h.prefs.Fingerprint = h.reg.Fingerprint()
	if err := h.store.Save(h.prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// Close flushes and closes the capture file, if any.
func (h *Host) Close() error {
	if h.capture == nil {
		return nil
	}
	written, failed := h.capture.Stats()
	h.logger.Debug("capture closed", "path", h.cfg.Capture, "written", written, "failed", failed)
	return h.capture.Close()
}
