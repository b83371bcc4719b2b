package host

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dissect-kit/dissect-go/pkg/examples"
	"github.com/dissect-kit/dissect-go/pkg/log"
	"github.com/dissect-kit/dissect-go/pkg/version"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var udpPacket = []byte{0x04, 0xD2, 0x00, 0x35, 0x00, 0x0C, 0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}

func TestNewRegistersExamples(t *testing.T) {
	h, err := New(DefaultConfig(), quietLogger())
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.Registry().Sealed())
	assert.Contains(t, h.Filters(), "baby_udp")
	assert.Contains(t, h.Filters(), "message")

	_, err = h.Dissector("nope")
	assert.True(t, errors.Is(err, ErrUnknownProtocol))
}

func TestDissectNumbersFrames(t *testing.T) {
	h, err := New(DefaultConfig(), quietLogger())
	require.NoError(t, err)
	defer h.Close()

	first := h.NextPacket()
	second := h.NextPacket()
	assert.Equal(t, uint64(1), first.Number)
	assert.Equal(t, uint64(2), second.Number)
	assert.NotEqual(t, first.ID, second.ID)

	res, err := h.Dissect("baby_udp", udpPacket)
	require.NoError(t, err)
	assert.Equal(t, len(udpPacket), res.Consumed)

	n, err := h.Size("baby_udp", udpPacket)
	require.NoError(t, err)
	assert.Equal(t, len(udpPacket), n)

	_, err = h.Size("nope", udpPacket)
	assert.Error(t, err)
}

func TestSchemaUsesExampleCallbacks(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "ports.yaml", `
name: Port Pair
filter: port_pair
root: PortPair
structs:
  - name: PortPair
    fields:
      - name: src_port
        type: u16
        taps: [describe_src_port]
      - name: dst_port
        type: u16
`)
	cfg := DefaultConfig()
	cfg.Schema = dir
	h, err := New(cfg, quietLogger())
	require.NoError(t, err)
	defer h.Close()

	res, err := h.Dissect("port_pair", []byte{0x04, 0xD2, 0x00, 0x35})
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Contains(t, res.Info, "1234")
}

func TestSchemaErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Schema = filepath.Join(t.TempDir(), "missing")
	_, err := New(cfg, quietLogger())
	assert.Error(t, err)

	dir := t.TempDir()
	writeSchema(t, dir, "clash.yaml", `
filter: baby_udp
root: X
structs:
  - name: X
    fields:
      - {name: a, type: u8}
`)
	cfg.Schema = filepath.Join(dir, "clash.yaml")
	_, err = New(cfg, quietLogger())
	assert.Error(t, err, "filters must be unique")
}

func TestCapture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capture = filepath.Join(t.TempDir(), "run"+log.FileExt)
	h, err := New(cfg, quietLogger())
	require.NoError(t, err)

	_, err = h.Dissect("baby_udp", udpPacket)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	r, err := log.NewReader(cfg.Capture)
	require.NoError(t, err)
	defer r.Close()
	events, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 2)

	reg := events[0]
	assert.Equal(t, log.CategoryRegistration, reg.Category)
	require.NotNil(t, reg.Registration)
	assert.Equal(t, version.Engine, reg.Registration.EngineVersion)
	assert.Equal(t, h.Registry().Fingerprint(), reg.Registration.Fingerprint)

	pkt := events[1]
	assert.Equal(t, log.CategoryPacket, pkt.Category)
	assert.Equal(t, "baby_udp", pkt.Protocol)
	assert.Equal(t, uint64(1), pkt.Number)
	require.NotNil(t, pkt.Packet)
	assert.Equal(t, udpPacket, pkt.Packet.Data)
}

func TestDecodeAsSelection(t *testing.T) {
	h, err := New(DefaultConfig(), quietLogger())
	require.NoError(t, err)
	defer h.Close()

	pkt := []byte{0x08, 0x00, 0xAB, 0xCD, 0x00, 0x00, 0x00, 0x01, 0x01}

	res, err := h.Dissect("baby_icmp", pkt)
	require.NoError(t, err)
	assert.NotNil(t, res.Tree.Find("data"))

	require.NoError(t, h.SetDecodeAs(examples.TableICMP, "baby_tlv"))
	res, err = h.Dissect("baby_icmp", pkt)
	require.NoError(t, err)
	assert.NotNil(t, res.Tree.Find("baby_tlv"))

	require.NoError(t, h.ClearDecodeAs(examples.TableICMP))
	res, err = h.Dissect("baby_icmp", pkt)
	require.NoError(t, err)
	assert.Nil(t, res.Tree.Find("baby_tlv"))

	assert.Error(t, h.SetDecodeAs(examples.TableICMP, "baby_udp"))
}

func TestDecodeAsPersists(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preferences = filepath.Join(t.TempDir(), "prefs.json")

	h, err := New(cfg, quietLogger())
	require.NoError(t, err)
	require.NoError(t, h.SetDecodeAs(examples.TableICMP, "baby_tlv"))
	assert.Equal(t, map[string]string{examples.TableICMP: "baby_tlv"}, h.DecodeAs())
	require.NoError(t, h.Close())

	h, err = New(cfg, quietLogger())
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, "baby_tlv", h.DecodeAs()[examples.TableICMP])
	res, err := h.Dissect("baby_icmp", []byte{0x08, 0x00, 0xAB, 0xCD, 0x00, 0x00, 0x00, 0x01, 0x01})
	require.NoError(t, err)
	assert.NotNil(t, res.Tree.Find("baby_tlv"), "selection restored from preferences")

	require.NoError(t, h.ClearDecodeAs(examples.TableICMP))
	assert.Empty(t, h.DecodeAs())
}

func TestStalePreferencesDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"decode_as":{"icmp.payload":"baby_udp","gone.table":"baby_tlv"}}`), 0o644))

	cfg := DefaultConfig()
	cfg.Preferences = path
	h, err := New(cfg, quietLogger())
	require.NoError(t, err)
	defer h.Close()

	assert.Empty(t, h.DecodeAs())
}
