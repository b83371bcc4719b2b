// Package registry assigns stable identifiers to the fields and subtrees of
// registered protocols and owns the dispatch tables through which protocols
// and external decoders are chained.
//
// A Registry is built once at startup:
//
//	reg := registry.New()
//	if err := reg.Register(proto); err != nil {
//	    // schema error
//	}
//	reg.AddUint("baby_udp.port", 53, dnsDecoder)
//	reg.Seal()
//
// Registration is keyed by composite identity. Registering the same protocol
// again, or a protocol that shares composites with one already registered,
// reuses the existing IDs.
package registry
