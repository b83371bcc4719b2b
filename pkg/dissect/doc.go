// Package dissect executes registered protocols against packet bytes.
//
// A Dissector walks the field plans of a protocol's root composite, decodes
// every field at its offset and builds a tree.Node tree:
//
//	reg := registry.New()
//	reg.MustRegister(proto)
//	d, err := dissect.New(reg, "baby_udp")
//	res := d.Dissect(data, tap.NewPacketInfo(time.Now()))
//
// Decoding never aborts on bad input. A field that runs past the end of the
// buffer gets an error node, the offset is clamped to the end and the
// remaining siblings are still attempted. Errors are collected in
// Result.Errors.
//
// Size runs the same plans without building a tree, calling taps or running
// hooks, and returns exactly the byte count Dissect would consume.
package dissect
