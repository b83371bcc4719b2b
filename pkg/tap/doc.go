// Package tap defines the callback capability shared by the dissection engine
// and protocol authors.
//
// Every host-supplied callback (taps, decode-with and consume-with functions,
// variant resolvers and pre/post-dissect hooks) has the same shape: it receives
// an immutable *Context and returns a Result. The declared Kind tells the
// engine which part of the Result it reads:
//   - KindTap and KindHook: nothing, the callback only observes
//   - KindDecodeWith: Result.Text, the formatted value
//   - KindConsumeWith: Result.Consumed and Result.Text
//   - KindVariant: Result.Variant, the name of the variant to decode
//
// # Field Stores
//
// Two stores are visible to callbacks. Fields is scoped to the whole packet and
// is keyed by fully qualified dotted paths (e.g. "baby_udp.src_port").
// FieldsLocal holds only the saved direct fields of the current composite and
// is keyed by bare field names (e.g. "src_port"). Only fields declared with the
// save option are written to either store.
package tap
