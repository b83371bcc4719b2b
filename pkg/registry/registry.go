package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dissect-kit/dissect-go/pkg/model"
)

// Registry errors.
var (
	ErrSealed          = errors.New("registry is sealed")
	ErrUnknownProtocol = errors.New("unknown protocol")
	ErrUnknownChoice   = errors.New("unknown decode-as choice")
	ErrKeyKind         = errors.New("dispatch table key kind mismatch")
	ErrNilDecoder      = errors.New("decoder is nil")
)

// FieldInfo describes a registered field.
type FieldInfo struct {
	ID int

	// Name is the display label.
	Name string

	// Abbrev is the dotted path the field was first registered at.
	Abbrev string

	// Type is the declared type expression, e.g. "u16" or "[u8; 6]".
	Type string
	Kind model.Kind

	Display model.Display

	// Blurb is the field documentation.
	Blurb string
}

// SubtreeInfo describes a registered subtree.
type SubtreeInfo struct {
	ID     int
	Name   string
	Abbrev string
}

type fieldKey struct {
	c *model.Composite
	i int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for registration debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry holds field and subtree IDs, dispatch tables and the registered
// protocols. It is append-only until sealed and safe for concurrent reads.
type Registry struct {
	mu     sync.RWMutex
	logger *slog.Logger

	fields     []FieldInfo
	fieldIDs   map[fieldKey]int
	subtrees   []SubtreeInfo
	subtreeIDs map[any]int
	composites map[*model.Composite]bool

	tables    map[string]*Table
	protocols map[string]*model.Protocol
	order     []string
	bound     map[string]Decoder
	fallback  Decoder
	sealed    bool
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		fieldIDs:   make(map[fieldKey]int),
		subtreeIDs: make(map[any]int),
		composites: make(map[*model.Composite]bool),
		tables:     make(map[string]*Table),
		protocols:  make(map[string]*model.Protocol),
		bound:      make(map[string]Decoder),
		fallback:   DataDecoder,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates p and assigns IDs to every field and subtree reachable
// from it. On error nothing is committed and the error is a
// model.SchemaErrors. Registering an already registered protocol is a no-op.
func (r *Registry) Register(p *model.Protocol) error {
	if err := model.Validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if prev, ok := r.protocols[p.Filter]; ok {
		if prev == p {
			return nil
		}
		return model.SchemaErrors{{Path: p.Filter, Msg: "protocol filter already registered"}}
	}

	ps := newPass(r)
	ps.composite(p.Root, p.Filter, 0)
	ps.decodeFrom(p)
	if len(ps.errs) > 0 {
		return ps.errs
	}
	ps.commit()

	r.protocols[p.Filter] = p
	r.order = append(r.order, p.Filter)
	for _, df := range p.DecodeFrom {
		t := r.tables[df.Table]
		d := protocolDecoder{reg: r, filter: p.Filter}
		for _, k := range df.Uints {
			t.setUint(k, d)
		}
		for _, k := range df.Strings {
			t.setString(k, d)
		}
		if df.IsDecodeAs() {
			t.offer(p.Filter, d)
		}
	}

	r.debugLog("registered protocol",
		"filter", p.Filter,
		"fields", len(ps.fields),
		"subtrees", len(ps.subtrees),
		"tables", len(ps.tables))
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p *model.Protocol) {
	if err := r.Register(p); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
}

// Seal makes the registry read-only. Later calls to Register, AddUint and
// AddString return ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// AddUint registers d for an integer key of table, creating the table if it
// does not exist yet.
func (r *Registry) AddUint(table string, key uint64, d Decoder) error {
	t, err := r.tableFor(table, model.KeyUint, d)
	if err != nil {
		return err
	}
	t.setUint(key, d)
	return nil
}

// AddString registers d for a string key of table, creating the table if it
// does not exist yet.
func (r *Registry) AddString(table, key string, d Decoder) error {
	t, err := r.tableFor(table, model.KeyString, d)
	if err != nil {
		return err
	}
	t.setString(key, d)
	return nil
}

// OfferDecodeAs makes d selectable under name for "decode as" dispatch on
// table.
func (r *Registry) OfferDecodeAs(table, name string, d Decoder) error {
	t, err := r.tableFor(table, model.KeyNone, d)
	if err != nil {
		return err
	}
	t.offer(name, d)
	return nil
}

// SetDecodeAs selects the decoder offered under name for "decode as"
// dispatch on table. Selection is a host preference and is allowed after the
// registry is sealed.
func (r *Registry) SetDecodeAs(table, name string) error {
	t, ok := r.Table(table)
	if !ok {
		return fmt.Errorf("decode as %q: table %q does not exist", name, table)
	}
	if !t.choose(name) {
		return fmt.Errorf("decode as %q on %q: %w", name, table, ErrUnknownChoice)
	}
	r.debugLog("decode as selected", "table", table, "choice", name)
	return nil
}

// SetDecodeAsDecoder selects d directly for "decode as" dispatch on table.
func (r *Registry) SetDecodeAsDecoder(table string, d Decoder) error {
	if d == nil {
		return ErrNilDecoder
	}
	t, ok := r.Table(table)
	if !ok {
		return fmt.Errorf("table %q does not exist", table)
	}
	t.selectDecoder(d)
	return nil
}

// ClearDecodeAs drops the "decode as" selection of table, so its payloads
// fall back to the data dissector again.
func (r *Registry) ClearDecodeAs(table string) error {
	t, ok := r.Table(table)
	if !ok {
		return fmt.Errorf("table %q does not exist", table)
	}
	t.selectDecoder(nil)
	r.debugLog("decode as cleared", "table", table)
	return nil
}

// SetFallback replaces the decoder used when no dispatch entry claims a
// payload. A nil decoder restores DataDecoder.
func (r *Registry) SetFallback(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d == nil {
		d = DataDecoder
	}
	r.fallback = d
}

// Fallback returns the fallback decoder.
func (r *Registry) Fallback() Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Bind attaches the decoder that runs a registered protocol when it is reached
// through a dispatch table.
func (r *Registry) Bind(filter string, d Decoder) error {
	if d == nil {
		return ErrNilDecoder
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.protocols[filter]; !ok {
		return fmt.Errorf("bind %q: %w", filter, ErrUnknownProtocol)
	}
	r.bound[filter] = d
	return nil
}

// Bound returns the decoder bound to a protocol.
func (r *Registry) Bound(filter string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.bound[filter]
	return d, ok
}

// Protocol returns the protocol registered under filter.
func (r *Registry) Protocol(filter string) (*model.Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.protocols[filter]
	return p, ok
}

// Protocols returns the registered protocols in registration order.
func (r *Registry) Protocols() []*model.Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Protocol, len(r.order))
	for i, f := range r.order {
		out[i] = r.protocols[f]
	}
	return out
}

// FieldID returns the ID of field i of c, or 0 if it is not registered.
func (r *Registry) FieldID(c *model.Composite, i int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fieldIDs[fieldKey{c, i}]
}

// Field returns the field registered under id.
func (r *Registry) Field(id int) (FieldInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 1 || id > len(r.fields) {
		return FieldInfo{}, false
	}
	return r.fields[id-1], true
}

// Fields returns every registered field in ID order.
func (r *Registry) Fields() []FieldInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FieldInfo(nil), r.fields...)
}

// SubtreeID returns the subtree ID of a composite or enum, or 0.
func (r *Registry) SubtreeID(key any) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subtreeIDs[key]
}

// Subtrees returns every registered subtree in ID order.
func (r *Registry) Subtrees() []SubtreeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SubtreeInfo(nil), r.subtrees...)
}

// Table returns the dispatch table with the given name.
func (r *Registry) Table(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Tables returns every dispatch table sorted by name.
func (r *Registry) Tables() []*Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) tableFor(name string, kind model.KeyKind, d Decoder) (*Table, error) {
	if d == nil {
		return nil, ErrNilDecoder
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return nil, ErrSealed
	}
	t, ok := r.tables[name]
	if !ok {
		t = newTable(name, kind)
		r.tables[name] = t
		return t, nil
	}
	merged, ok := mergeKeyKind(t.KeyKind, kind)
	if !ok {
		return nil, fmt.Errorf("table %q has %s keys, not %s: %w", name, t.KeyKind, kind, ErrKeyKind)
	}
	t.KeyKind = merged
	return t, nil
}

// mergeKeyKind combines the key kinds of two references to one table. A
// "decode as" reference is compatible with any keyed table.
func mergeKeyKind(a, b model.KeyKind) (model.KeyKind, bool) {
	switch {
	case a == model.KeyNone:
		return b, true
	case b == model.KeyNone, a == b:
		return a, true
	}
	return a, false
}

func (r *Registry) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
