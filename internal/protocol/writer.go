package protocol

import (
	"encoding/binary"
	"math"
)

// PayloadWriter builds a Packet's payload in wire order. All multi-byte
// writes are little-endian.
type PayloadWriter struct {
	buf []byte
}

func NewPayloadWriter() *PayloadWriter {
	return &PayloadWriter{buf: make([]byte, 0, 64)}
}

func (w *PayloadWriter) WriteByte(v byte) {
	w.buf = append(w.buf, v)
}

func (w *PayloadWriter) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *PayloadWriter) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *PayloadWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteString writes a null-terminated UTF-8 string.
func (w *PayloadWriter) WriteString(s string) {
	w.buf = append(w.buf, []byte(s)...)
	w.buf = append(w.buf, 0)
}

func (w *PayloadWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the accumulated payload.
func (w *PayloadWriter) Bytes() []byte {
	return w.buf
}

func (w *PayloadWriter) Len() int {
	return len(w.buf)
}
