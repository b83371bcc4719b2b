package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dissect-kit/dissect-go/internal/host"
	"github.com/dissect-kit/dissect-go/pkg/inspect"
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		Version:       s.config.Version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Protocols:     len(s.host.Filters()),
		Fingerprint:   s.host.Registry().Fingerprint(),
	})
}

// handleProtocols handles GET /api/v1/protocols.
func (s *Server) handleProtocols(w http.ResponseWriter, r *http.Request) {
	t := s.inspector.InspectRegistry()
	out := make([]ProtocolSummary, 0, len(t.Protocols))
	for _, p := range t.Protocols {
		out = append(out, summarize(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleProtocol handles GET /api/v1/protocols/{protocol}.
func (s *Server) handleProtocol(w http.ResponseWriter, r *http.Request) {
	p, err := s.inspector.InspectProtocol(chi.URLParam(r, "protocol"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	detail := ProtocolDetail{ProtocolSummary: summarize(*p)}
	for _, f := range p.Fields {
		fs := FieldSummary{ID: f.ID, Name: f.Name, Abbrev: f.Abbrev, Type: f.Type, Blurb: f.Blurb}
		if f.Display.Base != model.BaseNone {
			fs.Base = f.Display.Base.String()
		}
		detail.FieldList = append(detail.FieldList, fs)
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func summarize(p inspect.ProtocolInfo) ProtocolSummary {
	sum := ProtocolSummary{
		Filter:    p.Filter,
		Name:      p.Name,
		ShortName: p.ShortName,
		Fields:    len(p.Fields),
	}
	for _, df := range p.DecodeFrom {
		sum.DecodeFrom = append(sum.DecodeFrom, df.Table)
	}
	return sum
}

// handleTables handles GET /api/v1/tables.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	t := s.inspector.InspectRegistry()
	out := make([]TableSummary, 0, len(t.Tables))
	for _, tb := range t.Tables {
		out = append(out, TableSummary{
			Name:     tb.Name,
			KeyKind:  tb.KeyKind.String(),
			Keys:     tb.Keys,
			Choices:  tb.Choices,
			Selected: tb.Selected,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleDecodeAs handles PUT /api/v1/tables/{table}/decode-as.
func (s *Server) handleDecodeAs(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var req DecodeAsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := s.inspector.InspectTable(table); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := s.host.SetDecodeAs(table, req.Choice); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("decode as selected", "table", table, "choice", req.Choice)
	w.WriteHeader(http.StatusNoContent)
}

// handleDissect handles POST /api/v1/dissect/{protocol}.
func (s *Server) handleDissect(w http.ResponseWriter, r *http.Request) {
	filter := chi.URLParam(r, "protocol")
	d, err := s.host.Dissector(filter)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	data, err := readPacket(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info := s.host.NextPacket()
	res := d.Dissect(data, info)

	resp := DissectResponse{
		Protocol: filter,
		PacketID: info.ID.String(),
		Number:   info.Number,
		Size:     len(data),
		Consumed: res.Consumed,
		Info:     res.Info,
		Tree:     tree.ToJSON(res.Tree),
	}
	for _, de := range res.Errors {
		resp.Errors = append(resp.Errors, ErrorEntry{
			Path:   de.Path,
			Offset: de.Offset,
			Error:  de.Err.Error(),
			Hook:   de.IsHook(),
		})
	}
	if res.Fatal != nil {
		resp.Fatal = res.Fatal.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleSize handles POST /api/v1/size/{protocol}.
func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	filter := chi.URLParam(r, "protocol")
	data, err := readPacket(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.host.Size(filter, data)
	if errors.Is(err, host.ErrUnknownProtocol) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, SizeResponse{Protocol: filter, Size: len(data), Consumed: n})
}

// readPacket reads the request body as raw bytes for
// application/octet-stream, and as hex text otherwise.
func readPacket(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("body exceeds %d bytes", MaxBodySize)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/octet-stream") {
		return body, nil
	}
	return inspect.ParseHex(string(body))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
