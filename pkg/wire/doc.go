// Package wire provides bounds-checked access to raw packet bytes.
//
// A Reader is a window onto a packet. Sub-views keep track of their base
// offset so every decoded node can be placed in absolute packet coordinates.
// Integers are decoded little or big endian as the protocol description
// asks; reads past the end of the window return ErrOutOfRange instead of
// panicking.
package wire
