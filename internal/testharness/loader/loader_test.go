package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dissect-kit/dissect-go/internal/testharness/loader"
)

// TestLoaderParseSingleInput tests the single-packet case form.
func TestLoaderParseSingleInput(t *testing.T) {
	yaml := `
id: TC-UDP-001
name: Basic UDP
protocol: baby_udp
input: "04d2 0035 000c 1234 deadbeef"
expect:
  consumed: 12
  errors: 0
  info_contains: "Source Port = 1234"
  fields:
    baby_udp.dst_port: 53
    baby_udp.checksum: "0x1234"
`
	tc, err := loader.ParseTestCase([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse test case: %v", err)
	}

	if tc.ID != "TC-UDP-001" || tc.Name != "Basic UDP" || tc.Protocol != "baby_udp" {
		t.Errorf("unexpected header: %+v", tc)
	}
	if len(tc.Steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(tc.Steps))
	}
	step := tc.Steps[0]
	if step.Action != loader.ActionDissect || step.Input == "" {
		t.Errorf("step = %+v", step)
	}
	if tc.Input != "" || tc.Expect != nil {
		t.Error("single input should be folded into the step")
	}
	if step.Expect.Consumed == nil || *step.Expect.Consumed != 12 {
		t.Errorf("consumed = %v", step.Expect.Consumed)
	}
	if step.Expect.Errors == nil || *step.Expect.Errors != 0 {
		t.Errorf("errors = %v", step.Expect.Errors)
	}
	if step.Expect.Fields["baby_udp.dst_port"] != 53 {
		t.Errorf("fields = %v", step.Expect.Fields)
	}
	if step.Expect.Empty() {
		t.Error("expectations should not be empty")
	}
}

// TestLoaderParseSteps tests multi-step cases.
func TestLoaderParseSteps(t *testing.T) {
	yaml := `
id: TC-ICMP-002
protocol: baby_icmp
steps:
  - action: decode_as
    table: baby_icmp.payload
    use: baby_tlv
  - input: "0800abcd00000001"
    expect:
      absent: [data]
  - action: size
    protocol: baby_tlv
    input: "01"
    expect:
      size: 1
`
	tc, err := loader.ParseTestCase([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse test case: %v", err)
	}
	if tc.Name != "TC-ICMP-002" {
		t.Errorf("name should default to ID, got %q", tc.Name)
	}
	if len(tc.Steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(tc.Steps))
	}
	if tc.Steps[1].Action != loader.ActionDissect {
		t.Errorf("action should default to dissect, got %q", tc.Steps[1].Action)
	}
	if tc.Steps[2].Expect.Size == nil || *tc.Steps[2].Expect.Size != 1 {
		t.Errorf("size = %v", tc.Steps[2].Expect.Size)
	}
}

// TestLoaderValidation tests required fields.
func TestLoaderValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing id", "protocol: x\ninput: '00'", "ID is required"},
		{"no steps", "id: A\nprotocol: x", "at least one step"},
		{"no protocol", "id: A\ninput: '00'", "protocol is required"},
		{"bad action", "id: A\nprotocol: x\nsteps:\n  - action: fly", "unknown action fly"},
		{"decode_as", "id: A\nsteps:\n  - action: decode_as\n    table: t", "needs table and use"},
		{"invalid yaml", "id: [", "failed to parse YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.ParseTestCase([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			var le *loader.LoadError
			if !errors.As(err, &le) {
				t.Errorf("expected *LoadError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

// TestLoaderParseSuite tests suite files with inherited protocol.
func TestLoaderParseSuite(t *testing.T) {
	yaml := `
name: Message
protocol: message
cases:
  - id: TC-MSG-001
    input: "0500000001"
  - id: TC-MSG-002
    protocol: baby_udp
    input: "04d2"
`
	cases, err := loader.ParseFile([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("Expected 2 cases, got %d", len(cases))
	}
	if cases[0].Protocol != "message" || cases[1].Protocol != "baby_udp" {
		t.Errorf("protocols = %q, %q", cases[0].Protocol, cases[1].Protocol)
	}

	if _, err := loader.ParseSuite([]byte("name: empty\ncases: []")); err == nil {
		t.Error("expected error for empty suite")
	}
}

// TestLoaderLoadDirectory tests loading nested directories.
func TestLoaderLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "udp")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		filepath.Join(dir, "a.yaml"):    "id: TC-A\nprotocol: x\ninput: '00'\n",
		filepath.Join(sub, "b.yml"):     "protocol: x\ncases:\n  - id: TC-B1\n    input: '00'\n  - id: TC-B2\n    input: '01'\n",
		filepath.Join(dir, "notes.txt"): "not yaml",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cases, err := loader.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if len(cases) != 3 {
		t.Errorf("Expected 3 cases, got %d", len(cases))
	}
}

// TestLoaderDuplicateID tests duplicate detection across files.
func TestLoaderDuplicateID(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("id: TC-DUP\nprotocol: x\ninput: '00'\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := loader.LoadDirectory(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

// TestLoaderLoadFileErrors tests that file errors carry the path.
func TestLoaderLoadFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("protocol: x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := loader.LoadFile(path)
	if err == nil || !strings.HasPrefix(err.Error(), path+": ") {
		t.Errorf("error should start with the path, got %v", err)
	}

	if _, err := loader.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestLoaderFilter tests ID patterns and tags.
func TestLoaderFilter(t *testing.T) {
	cases := []*loader.TestCase{
		{ID: "TC-UDP-001", Tags: []string{"udp", "smoke"}},
		{ID: "TC-UDP-002", Tags: []string{"udp"}},
		{ID: "TC-ARP-001", Tags: []string{"smoke"}},
	}

	tests := []struct {
		pattern string
		tags    []string
		want    int
	}{
		{"", nil, 3},
		{"TC-UDP-*", nil, 2},
		{"ARP", nil, 1},
		{"", []string{"smoke"}, 2},
		{"TC-UDP-*", []string{"smoke"}, 1},
		{"TC-TCP-*", nil, 0},
	}
	for _, tt := range tests {
		if got := loader.Filter(cases, tt.pattern, tt.tags...); len(got) != tt.want {
			t.Errorf("Filter(%q, %v) = %d cases, want %d", tt.pattern, tt.tags, len(got), tt.want)
		}
	}
}

func TestLoaderSortByID(t *testing.T) {
	cases := []*loader.TestCase{{ID: "b"}, {ID: "c"}, {ID: "a"}}
	loader.SortByID(cases)
	if cases[0].ID != "a" || cases[2].ID != "c" {
		t.Errorf("order = %s %s %s", cases[0].ID, cases[1].ID, cases[2].ID)
	}
}
