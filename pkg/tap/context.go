package tap

// Context is the read-only view handed to every callback.
type Context struct {
	// Field is the decoded value of the current field. It is nil for
	// pre/post-dissect hooks, variant resolvers and non-primitive fields.
	Field any

	// Path is the dotted path of the current field, or of the composite for
	// pre/post-dissect hooks.
	Path string

	// Fields holds the saved fields of the whole packet.
	Fields StoreReader

	// FieldsLocal holds the saved direct fields of the current composite.
	FieldsLocal StoreReader

	// Packet holds the bytes handed to the current protocol. For a protocol
	// reached through a dispatch table this is its payload, not the whole
	// packet.
	Packet []byte

	// Offset is the offset of the current field within Packet.
	Offset int

	// Info is the packet metadata. Callbacks may append info text to it.
	Info *PacketInfo
}

// Remaining returns the packet bytes from the current offset to the end.
func (c *Context) Remaining() []byte {
	if c.Offset < 0 || c.Offset >= len(c.Packet) {
		return nil
	}
	return c.Packet[c.Offset:]
}
