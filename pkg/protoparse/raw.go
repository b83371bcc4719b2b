// Package protoparse reads YAML protocol descriptions and builds the
// corresponding model.Protocol.
//
// Callbacks cannot be expressed in YAML, so fields name them and the names
// are resolved against a Callbacks set supplied by the caller.
package protoparse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// RawProtocol represents a protocol description loaded from YAML.
type RawProtocol struct {
	Name       string          `yaml:"name"`
	ShortName  string          `yaml:"short_name"`
	Filter     string          `yaml:"filter"`
	Root       string          `yaml:"root"` // name of the root struct
	DecodeFrom []RawDecodeFrom `yaml:"decode_from"`
	Structs    []RawStruct     `yaml:"structs"`
	Enums      []RawEnum       `yaml:"enums"`
}

// RawDecodeFrom is a dispatch table entry. Without keys the protocol is
// offered for "decode as" on the table.
type RawDecodeFrom struct {
	Table   string   `yaml:"table"`
	Uints   []uint64 `yaml:"uints"`
	Strings []string `yaml:"strings"`
}

// RawStruct represents a composite definition.
type RawStruct struct {
	Name        string     `yaml:"name"`
	Doc         string     `yaml:"doc"`
	Inline      bool       `yaml:"inline"`
	PreDissect  []string   `yaml:"pre_dissect"`
	PostDissect []string   `yaml:"post_dissect"`
	Fields      []RawField `yaml:"fields"`
}

// RawField represents one field of a struct.
type RawField struct {
	Name         string           `yaml:"name"`
	Type         string           `yaml:"type"` // "u16", "bytes[6]", "[u8; 4]", "Record[..]"
	Doc          string           `yaml:"doc"`
	Hidden       bool             `yaml:"hidden"`
	Save         bool             `yaml:"save"`
	Bytes        bool             `yaml:"bytes"`
	LengthField  string           `yaml:"length_field"`
	Rename       string           `yaml:"rename"`
	DecodeWith   string           `yaml:"decode_with"`
	ConsumeWith  string           `yaml:"consume_with"`
	GetVariant   string           `yaml:"get_variant"`
	Subdissector *RawSubdissector `yaml:"subdissector"`
	Taps         []string         `yaml:"taps"`
	Display      RawDisplay       `yaml:"display"`
}

// RawSubdissector names a dispatch table. Without keys it is a "decode as"
// reference.
type RawSubdissector struct {
	Table string   `yaml:"table"`
	Keys  []string `yaml:"keys"`
}

// RawDisplay holds presentation hints.
type RawDisplay struct {
	Base     string `yaml:"base"`     // "hex", "BASE_DEC", ...
	Encoding string `yaml:"encoding"` // "le", "ENC_BIG_ENDIAN", ...
	WireType string `yaml:"wire_type"`
}

// RawEnum represents an enum definition.
type RawEnum struct {
	Name     string       `yaml:"name"`
	Variants []RawVariant `yaml:"variants"`
}

// RawVariant represents one enum variant. An empty Body is a unit variant.
type RawVariant struct {
	Name        string   `yaml:"name"`
	Rename      string   `yaml:"rename"`
	Doc         string   `yaml:"doc"`
	Body        string   `yaml:"body"` // struct name
	PreDissect  []string `yaml:"pre_dissect"`
	PostDissect []string `yaml:"post_dissect"`
}

// ParseRaw parses a protocol description from YAML bytes without resolving
// types or callbacks.
func ParseRaw(data []byte) (*RawProtocol, error) {
	var raw RawProtocol
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing protocol: %w", err)
	}
	return &raw, nil
}

// LoadRaw loads and parses a protocol description from a file.
func LoadRaw(path string) (*RawProtocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseRaw(data)
}

// yamlFiles returns the .yaml and .yml files in dir, sorted.
func yamlFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)
	return files, nil
}
