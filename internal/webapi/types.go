package webapi

import "github.com/dissect-kit/dissect-go/pkg/tree"

// HealthzResponse is the body of GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Protocols     int    `json:"protocols"`
	Fingerprint   string `json:"fingerprint"`
}

// ProtocolSummary describes one registered protocol.
type ProtocolSummary struct {
	Filter     string   `json:"filter"`
	Name       string   `json:"name"`
	ShortName  string   `json:"short_name,omitempty"`
	Fields     int      `json:"fields"`
	DecodeFrom []string `json:"decode_from,omitempty"`
}

// FieldSummary describes one registered field.
type FieldSummary struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Abbrev string `json:"abbrev"`
	Type   string `json:"type"`
	Base   string `json:"base,omitempty"`
	Blurb  string `json:"blurb,omitempty"`
}

// ProtocolDetail is the body of GET /api/v1/protocols/{protocol}.
type ProtocolDetail struct {
	ProtocolSummary
	FieldList []FieldSummary `json:"field_list"`
}

// TableSummary describes one dispatch table.
type TableSummary struct {
	Name     string   `json:"name"`
	KeyKind  string   `json:"key_kind"`
	Keys     int      `json:"keys"`
	Choices  []string `json:"choices,omitempty"`
	Selected bool     `json:"selected"`
}

// DecodeAsRequest selects a "decode as" choice on a table.
type DecodeAsRequest struct {
	Choice string `json:"choice"`
}

// ErrorEntry is one decode or hook error of a dissection.
type ErrorEntry struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Error  string `json:"error"`
	Hook   bool   `json:"hook,omitempty"`
}

// DissectResponse is the body of POST /api/v1/dissect/{protocol}.
type DissectResponse struct {
	Protocol string       `json:"protocol"`
	PacketID string       `json:"packet_id"`
	Number   uint64       `json:"number"`
	Size     int          `json:"size"`
	Consumed int          `json:"consumed"`
	Info     string       `json:"info,omitempty"`
	Errors   []ErrorEntry `json:"errors,omitempty"`
	Fatal    string       `json:"fatal,omitempty"`
	Tree     *tree.JSON   `json:"tree"`
}

// SizeResponse is the body of POST /api/v1/size/{protocol}.
type SizeResponse struct {
	Protocol string `json:"protocol"`
	Size     int    `json:"size"`
	Consumed int    `json:"consumed"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
