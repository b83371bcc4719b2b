package model

// Protocol is a top-level composite that can be invoked by a host or by
// another protocol through a dispatch table.
type Protocol struct {
	// Name is the full protocol description, e.g. "Baby UDP by wsdf".
	Name string

	// ShortName is the column label, e.g. "Baby UDP".
	ShortName string

	// Filter is the path prefix of every field, e.g. "baby_udp".
	Filter string

	Root *Composite

	// DecodeFrom lists the dispatch tables the protocol registers into.
	DecodeFrom []DecodeFrom
}

// DecodeFrom is a dispatch table entry point for a protocol. Without keys the
// protocol is offered for "decode as" selection on the table.
type DecodeFrom struct {
	Table   string
	Uints   []uint64
	Strings []string
}

// IsDecodeAs reports whether the entry has no keys.
func (d DecodeFrom) IsDecodeAs() bool {
	return len(d.Uints) == 0 && len(d.Strings) == 0
}

// Label returns the protocol's short name, falling back to its filter.
func (p *Protocol) Label() string {
	if p.ShortName != "" {
		return p.ShortName
	}
	return p.Filter
}
