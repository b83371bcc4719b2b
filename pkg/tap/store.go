package tap

import "sort"

// StoreReader is the read-only view of a field store handed to callbacks.
type StoreReader interface {
	// Get returns the raw decoded value stored under path.
	Get(path string) (any, bool)

	// Len returns the number of stored values.
	Len() int

	// Paths returns the stored paths in sorted order.
	Paths() []string

	U8(path string) (uint8, bool)
	U16(path string) (uint16, bool)
	U32(path string) (uint32, bool)
	U64(path string) (uint64, bool)
	I8(path string) (int8, bool)
	I16(path string) (int16, bool)
	I32(path string) (int32, bool)
	I64(path string) (int64, bool)
	F32(path string) (float32, bool)
	F64(path string) (float64, bool)
	Bytes(path string) ([]byte, bool)
	String(path string) (string, bool)

	// Uint returns any unsigned integer value widened to uint64.
	Uint(path string) (uint64, bool)
}

// Store maps field paths to decoded values. A Store is owned by a single
// dissection call and is not safe for concurrent use.
type Store struct {
	values map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Put stores v under path, replacing any previous value.
func (s *Store) Put(path string, v any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[path] = v
}

// Get returns the raw value stored under path.
func (s *Store) Get(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[path]
	return v, ok
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Paths returns the stored paths in sorted order.
func (s *Store) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, len(s.values))
	for p := range s.values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns a copy of the stored values.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func get[T any](s *Store, path string) (T, bool) {
	var zero T
	v, ok := s.Get(path)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (s *Store) U8(path string) (uint8, bool)     { return get[uint8](s, path) }
func (s *Store) U16(path string) (uint16, bool)   { return get[uint16](s, path) }
func (s *Store) U32(path string) (uint32, bool)   { return get[uint32](s, path) }
func (s *Store) U64(path string) (uint64, bool)   { return get[uint64](s, path) }
func (s *Store) I8(path string) (int8, bool)      { return get[int8](s, path) }
func (s *Store) I16(path string) (int16, bool)    { return get[int16](s, path) }
func (s *Store) I32(path string) (int32, bool)    { return get[int32](s, path) }
func (s *Store) I64(path string) (int64, bool)    { return get[int64](s, path) }
func (s *Store) F32(path string) (float32, bool)  { return get[float32](s, path) }
func (s *Store) F64(path string) (float64, bool)  { return get[float64](s, path) }
func (s *Store) Bytes(path string) ([]byte, bool) { return get[[]byte](s, path) }

// String returns a string value. Byte values are converted.
func (s *Store) String(path string) (string, bool) {
	v, ok := s.Get(path)
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

// Uint returns any unsigned integer value widened to uint64.
func (s *Store) Uint(path string) (uint64, bool) {
	v, ok := s.Get(path)
	if !ok {
		return 0, false
	}
	return AsUint(v)
}

// AsUint widens an unsigned (or non-negative signed) integer value to uint64.
func AsUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case int8:
		return uint64(x), x >= 0
	case int16:
		return uint64(x), x >= 0
	case int32:
		return uint64(x), x >= 0
	case int64:
		return uint64(x), x >= 0
	}
	return 0, false
}

// View is a read-only window onto a Store. Callbacks receive views, so
// they cannot write into the stores of the dissection that calls them.
type View struct {
	s *Store
}

// View returns a read-only view of s. Later writes to s are visible
// through it.
func (s *Store) View() View {
	return View{s: s}
}

func (v View) Get(path string) (any, bool)       { return v.s.Get(path) }
func (v View) Len() int                          { return v.s.Len() }
func (v View) Paths() []string                   { return v.s.Paths() }
func (v View) U8(path string) (uint8, bool)      { return v.s.U8(path) }
func (v View) U16(path string) (uint16, bool)    { return v.s.U16(path) }
func (v View) U32(path string) (uint32, bool)    { return v.s.U32(path) }
func (v View) U64(path string) (uint64, bool)    { return v.s.U64(path) }
func (v View) I8(path string) (int8, bool)       { return v.s.I8(path) }
func (v View) I16(path string) (int16, bool)     { return v.s.I16(path) }
func (v View) I32(path string) (int32, bool)     { return v.s.I32(path) }
func (v View) I64(path string) (int64, bool)     { return v.s.I64(path) }
func (v View) F32(path string) (float32, bool)   { return v.s.F32(path) }
func (v View) F64(path string) (float64, bool)   { return v.s.F64(path) }
func (v View) Bytes(path string) ([]byte, bool)  { return v.s.Bytes(path) }
func (v View) String(path string) (string, bool) { return v.s.String(path) }
func (v View) Uint(path string) (uint64, bool)   { return v.s.Uint(path) }

// ReadOnly returns r as a view when it is a writable Store.
func ReadOnly(r StoreReader) StoreReader {
	if s, ok := r.(*Store); ok {
		return s.View()
	}
	return r
}

// Compile-time interface satisfaction checks.
var (
	_ StoreReader = (*Store)(nil)
	_ StoreReader = View{}
)
