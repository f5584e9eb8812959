package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameLen bounds a single frame's total wire length (including the
// 6-byte header) against a misbehaving or malicious peer.
const maxFrameLen = 65535

// ReadPacket reads one frame from r and decrypts it with c.
// Wire format: {u16 length (total, header included), u16 command, u16 seq,
// payload}. The length field itself travels in clear text so the reader
// knows how many further bytes to pull off the wire before it can decrypt
// anything.
func ReadPacket(r io.Reader, c *Cipher) (Packet, error) {
	var lenHeader [2]byte
	if _, err := io.ReadFull(r, lenHeader[:]); err != nil {
		return Packet{}, fmt.Errorf("read frame length: %w", err)
	}
	totalLen := int(binary.LittleEndian.Uint16(lenHeader[:]))
	if totalLen < 6 || totalLen > maxFrameLen {
		return Packet{}, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	body := make([]byte, totalLen-2)
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, fmt.Errorf("read frame body (%d bytes): %w", len(body), err)
	}
	body = c.Decrypt(body)

	return Packet{
		Command: binary.LittleEndian.Uint16(body[0:2]),
		Seq:     binary.LittleEndian.Uint16(body[2:4]),
		Payload: body[4:],
	}, nil
}

// WritePacket encrypts and writes one frame to w.
func WritePacket(w io.Writer, p Packet, c *Cipher) error {
	body := make([]byte, 4+len(p.Payload))
	binary.LittleEndian.PutUint16(body[0:2], p.Command)
	binary.LittleEndian.PutUint16(body[2:4], p.Seq)
	copy(body[4:], p.Payload)

	totalLen := len(body) + 2
	if totalLen > maxFrameLen {
		return fmt.Errorf("frame too large: %d bytes", totalLen)
	}
	body = c.Encrypt(body)

	var lenHeader [2]byte
	binary.LittleEndian.PutUint16(lenHeader[:], uint16(totalLen))

	if _, err := w.Write(lenHeader[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}
