package inspect

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dissect-kit/dissect-go/pkg/tree"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Path
		wantErr error
	}{
		{
			name:  "protocol only",
			input: "baby_udp",
			want:  &Path{Protocol: "baby_udp", Segments: []string{}, Index: -1},
		},
		{
			name:  "field",
			input: "baby_udp.src_port",
			want:  &Path{Protocol: "baby_udp", Segments: []string{"src_port"}, Index: -1},
		},
		{
			name:  "nested with index",
			input: "baby_tlv.records.tag[1]",
			want:  &Path{Protocol: "baby_tlv", Segments: []string{"records", "tag"}, Index: 1},
		},
		{
			name:  "hex index",
			input: " message.body[0x10] ",
			want:  &Path{Protocol: "message", Segments: []string{"body"}, Index: 16},
		},
		{name: "empty", input: "  ", wantErr: ErrEmptyPath},
		{name: "leading dot", input: ".src_port", wantErr: ErrInvalidPath},
		{name: "double dot", input: "a..b", wantErr: ErrInvalidPath},
		{name: "slash", input: "a/b", wantErr: ErrInvalidPath},
		{name: "unterminated index", input: "a.b[1", wantErr: ErrInvalidPath},
		{name: "bad index", input: "a.b[x]", wantErr: ErrInvalidNumber},
		{name: "negative index", input: "a.b[-1]", wantErr: ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", tt.input, err)
			}
			tt.want.Raw = got.Raw
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePath(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		input string
		field string
		str   string
		root  bool
	}{
		{"baby_udp", "baby_udp", "baby_udp", true},
		{"baby_udp.payload", "baby_udp.payload", "baby_udp.payload", false},
		{"a.b[0x2]", "a.b", "a.b[2]", false},
	}
	for _, tt := range tests {
		p, err := ParsePath(tt.input)
		if err != nil {
			t.Fatalf("ParsePath(%q) error = %v", tt.input, err)
		}
		if p.Field() != tt.field {
			t.Errorf("Field() = %q, want %q", p.Field(), tt.field)
		}
		if p.String() != tt.str {
			t.Errorf("String() = %q, want %q", p.String(), tt.str)
		}
		if p.IsRoot() != tt.root {
			t.Errorf("IsRoot() = %v, want %v", p.IsRoot(), tt.root)
		}
	}
}

func sampleTree() *tree.Node {
	root := &tree.Node{Name: "Baby TLV", Path: "baby_tlv", Length: 7}
	recs := root.Add(&tree.Node{Name: "Records", Path: "baby_tlv.records", Offset: 1, Length: 6})
	for i, tag := range []uint8{0x10, 0x20} {
		rec := recs.Add(&tree.Node{Name: "Records", Path: "baby_tlv.records", Offset: 1 + 3*i, Length: 3})
		rec.Add(&tree.Node{Name: "Tag", Path: "baby_tlv.records.tag", Offset: 1 + 3*i, Length: 1, Value: tag})
	}
	return root
}

func TestFindAndLookup(t *testing.T) {
	root := sampleTree()

	n, err := Lookup(root, "baby_tlv.records.tag[1]")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if n.Value != uint8(0x20) {
		t.Errorf("tag[1] = %v, want 0x20", n.Value)
	}

	n, err = Lookup(root, "baby_tlv.records.tag")
	if err != nil || n.Value != uint8(0x10) {
		t.Errorf("tag = %v, %v; want first tag", n, err)
	}

	if _, err := Lookup(root, "baby_tlv.records.tag[5]"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Lookup(out of range) error = %v, want ErrNodeNotFound", err)
	}
	if _, err := Lookup(root, ""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Lookup(\"\") error = %v, want ErrEmptyPath", err)
	}
}
