// Package protocol implements the wire codec shared by all three server
// tiers: frame length-prefixing, the per-connection stream cipher, and a
// small reader/writer pair for encoding packet payload fields. Exact byte
// layout of any given command's payload lives in the external protocol
// dictionary; this package only guarantees the envelope around it.
package protocol

// Packet is one decoded frame: a 16-bit command id, a 16-bit sequence id
// (echoed by request/response exchanges), and the command-specific payload.
type Packet struct {
	Command uint16
	Seq     uint16
	Payload []byte
}
