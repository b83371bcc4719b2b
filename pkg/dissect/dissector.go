package dissect

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dissect-kit/dissect-go/pkg/log"
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/plan"
	"github.com/dissect-kit/dissect-go/pkg/registry"
	"github.com/dissect-kit/dissect-go/pkg/tap"
	"github.com/dissect-kit/dissect-go/pkg/tree"
	"github.com/dissect-kit/dissect-go/pkg/wire"
)

// Dissector runs one registered protocol. It is safe for concurrent use.
type Dissector struct {
	reg   *registry.Registry
	proto *model.Protocol
	plans *plan.Cache
	opts  Options
}

// New creates a Dissector for the protocol registered under filter. Unless
// another decoder is already bound to the protocol, the Dissector binds
// itself, so dispatch tables that reach the protocol run it.
func New(reg *registry.Registry, filter string, opts ...Option) (*Dissector, error) {
	p, ok := reg.Protocol(filter)
	if !ok {
		return nil, fmt.Errorf("dissector %q: %w", filter, registry.ErrUnknownProtocol)
	}
	d := newDissector(reg, p, plan.NewCache(), opts)
	if _, bound := reg.Bound(filter); !bound {
		if err := reg.Bind(filter, d); err != nil {
			return nil, fmt.Errorf("dissector %q: %w", filter, err)
		}
	}
	return d, nil
}

// NewAll creates and binds a Dissector for every registered protocol. The
// dissectors share one plan cache.
func NewAll(reg *registry.Registry, opts ...Option) (map[string]*Dissector, error) {
	cache := plan.NewCache()
	out := make(map[string]*Dissector)
	for _, p := range reg.Protocols() {
		d := newDissector(reg, p, cache, opts)
		if err := reg.Bind(p.Filter, d); err != nil {
			return nil, fmt.Errorf("dissector %q: %w", p.Filter, err)
		}
		out[p.Filter] = d
	}
	return out, nil
}

func newDissector(reg *registry.Registry, p *model.Protocol, cache *plan.Cache, opts []Option) *Dissector {
	d := &Dissector{reg: reg, proto: p, plans: cache}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Protocol returns the protocol the Dissector runs.
func (d *Dissector) Protocol() *model.Protocol {
	return d.proto
}

// Dissect decodes data and returns the tree. info may be nil.
func (d *Dissector) Dissect(data []byte, info *tap.PacketInfo) *Result {
	if info == nil {
		info = &tap.PacketInfo{}
	}
	e := d.newExecutor(data, info, false)
	root := d.rootNode(0)
	n := e.run(wire.NewReader(data), root)

	res := &Result{
		Tree:     root,
		Consumed: n,
		Info:     info.Info(),
		Errors:   e.errs,
		Fatal:    e.fatal,
		Fields:   e.fields.Snapshot(),
	}
	d.logPacket(data, info, res)
	return res
}

// Size returns the number of bytes Dissect would consume for data, without
// building a tree or running taps and hooks.
func (d *Dissector) Size(data []byte) int {
	e := d.newExecutor(data, &tap.PacketInfo{}, true)
	return e.run(wire.NewReader(data), nil)
}

// Decode runs the protocol on a view handed over by a dispatch table.
// It implements registry.Decoder.
func (d *Dissector) Decode(r *wire.Reader, parent *tree.Node, info *tap.PacketInfo) int {
	if info == nil {
		info = &tap.PacketInfo{}
	}
	e := d.newExecutor(r.Bytes(), info, false)
	var root *tree.Node
	if parent != nil {
		root = parent.Add(d.rootNode(r.Base()))
	}
	return e.run(r, root)
}

func (d *Dissector) rootNode(offset int) *tree.Node {
	name := d.proto.Name
	if name == "" {
		name = d.proto.Label()
	}
	return &tree.Node{
		Name:      name,
		Path:      d.proto.Filter,
		SubtreeID: d.reg.SubtreeID(d.proto.Root),
		Offset:    offset,
	}
}

func (d *Dissector) newExecutor(data []byte, info *tap.PacketInfo, sizeOnly bool) *executor {
	return &executor{
		d:        d,
		packet:   data,
		info:     info,
		fields:   tap.NewStore(),
		sizeOnly: sizeOnly,
	}
}

func (d *Dissector) debugLog(msg string, args ...any) {
	if d.opts.Logger != nil {
		d.opts.Logger.Debug(msg, args...)
	}
}

func (d *Dissector) logPacket(data []byte, info *tap.PacketInfo, res *Result) {
	if d.opts.Events == nil {
		return
	}
	now := time.Now()
	base := log.Event{
		Timestamp: now,
		PacketID:  packetID(info),
		Protocol:  d.proto.Filter,
		Number:    info.Number,
	}
	for _, de := range res.Errors {
		ev := base
		ev.Category = log.CategoryDecodeError
		if de.IsHook() {
			ev.Category = log.CategoryHookError
		}
		ev.Error = &log.ErrorEventData{Path: de.Path, Offset: de.Offset, Message: de.Err.Error()}
		d.opts.Events.Log(ev)
	}

	raw, truncated := log.PacketData(data)
	ev := base
	ev.Category = log.CategoryPacket
	ev.Packet = &log.PacketEvent{
		Size:      len(data),
		Consumed:  res.Consumed,
		Data:      raw,
		Truncated: truncated,
		Info:      res.Info,
		Errors:    res.ErrorCount(),
		Tree:      tree.Flatten(res.Tree),
	}
	d.opts.Events.Log(ev)
}

func packetID(info *tap.PacketInfo) string {
	if info.ID == uuid.Nil {
		return ""
	}
	return info.ID.String()
}

// Compile-time interface satisfaction check.
var _ registry.Decoder = (*Dissector)(nil)
