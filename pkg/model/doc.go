// Package model describes binary protocols declaratively.
//
// A protocol is a tree of composites. Each composite is an ordered list of
// named fields, and each field has a declared type:
//
//	Protocol (baby_udp)
//	└── Composite (BabyUDP)
//	    ├── src_port  u16
//	    ├── dst_port  u16
//	    ├── length    u16
//	    ├── checksum  u16
//	    └── payload   bytes  (subdissector baby_udp.port)
//
// Types are primitives (u8..u64, i8..i64, f32, f64, unit), byte strings,
// sequences, nested composites and enums. Fields carry options that change how
// they are dissected: hidden, saved to the field stores, sized by an earlier
// length field, decoded or consumed by a callback, or handed to a dispatch
// table of external decoders.
//
// Enums are resolved at runtime. The enum-typed field carries a get_variant
// callback that reads earlier saved values and names the variant to decode.
//
// The model is inert data. Validate checks a protocol for consistency before
// it is registered.
package model
