package registry

import (
	"sort"
	"sync"

	"github.com/dissect-kit/dissect-go/pkg/model"
)

// Table is a named dispatch table mapping keys to decoders.
type Table struct {
	Name    string
	KeyKind model.KeyKind

	mu       sync.RWMutex
	uints    map[uint64]Decoder
	strings  map[string]Decoder
	choices  map[string]Decoder
	selected Decoder
}

func newTable(name string, kind model.KeyKind) *Table {
	return &Table{
		Name:    name,
		KeyKind: kind,
		uints:   make(map[uint64]Decoder),
		strings: make(map[string]Decoder),
		choices: make(map[string]Decoder),
	}
}

// LookupUint returns the decoder registered for an integer key.
func (t *Table) LookupUint(key uint64) (Decoder, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.uints[key]
	return d, ok
}

// LookupString returns the decoder registered for a string key.
func (t *Table) LookupString(key string) (Decoder, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.strings[key]
	return d, ok
}

// Selected returns the decoder chosen for "decode as" dispatch.
func (t *Table) Selected() (Decoder, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selected, t.selected != nil
}

// Choices returns the names offered for "decode as" selection, sorted.
func (t *Table) Choices() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.choices))
	for name := range t.choices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the number of registered keys.
func (t *Table) Keys() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.uints) + len(t.strings)
}

func (t *Table) setUint(key uint64, d Decoder) {
	t.mu.Lock()
	t.uints[key] = d
	t.mu.Unlock()
}

func (t *Table) setString(key string, d Decoder) {
	t.mu.Lock()
	t.strings[key] = d
	t.mu.Unlock()
}

func (t *Table) offer(name string, d Decoder) {
	t.mu.Lock()
	t.choices[name] = d
	t.mu.Unlock()
}

func (t *Table) choose(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.choices[name]
	if ok {
		t.selected = d
	}
	return ok
}

func (t *Table) selectDecoder(d Decoder) {
	t.mu.Lock()
	t.selected = d
	t.mu.Unlock()
}
