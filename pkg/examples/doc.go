// Package examples provides the built-in demonstration protocols.
//
// The protocols show how to describe a wire format with the model package:
//   - Baby UDP: a header whose payload is dispatched on dst_port, then src_port
//   - Baby ARP: custom formatting, saved fields and a transaction summary tap
//   - Baby ICMP: a "decode as" payload
//   - Baby TCP: flag formatting and a keyed payload table
//   - Message: a sum type whose variant is chosen by a type byte
//   - Baby TLV: length-prefixed records and a consume-with extension
//
// Register adds all of them to a registry.
package examples
