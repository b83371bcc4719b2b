package registry

import (
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex BLAKE2b-256 digest of the registered fields,
// subtrees, tables and protocols. Two registries built from the same
// protocols in the same order have the same fingerprint.
func (r *Registry) Fingerprint() string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for keys longer than 64 bytes.
		panic(err)
	}

	r.mu.RLock()
	for _, f := range r.fields {
		write(h, "field %d %s %s %s %s %s\n", f.ID, f.Abbrev, f.Type, f.Display.Base, f.Display.Encoding, f.Display.WireType)
	}
	for _, s := range r.subtrees {
		write(h, "subtree %d %s\n", s.ID, s.Abbrev)
	}
	for _, f := range r.order {
		write(h, "protocol %s\n", f)
	}
	r.mu.RUnlock()

	for _, t := range r.Tables() {
		write(h, "table %s %s\n", t.Name, t.KeyKind)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func write(h hash.Hash, format string, args ...any) {
	fmt.Fprintf(h, format, args...)
}
