package protocol

import (
	"bytes"
	"testing"
)

func TestWriteReadPacketRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		command uint16
		seq     uint16
		payload []byte
	}{
		{"empty payload", 20, 1, nil},
		{"short payload", 21, 2, []byte("hi")},
		{"longer payload", 99, 65535, bytes.Repeat([]byte{0xAB}, 200)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeCipher := NewCipher(1234)
			if err := WritePacket(&buf, Packet{Command: tc.command, Seq: tc.seq, Payload: tc.payload}, writeCipher); err != nil {
				t.Fatalf("WritePacket: %v", err)
			}

			readCipher := NewCipher(1234)
			got, err := ReadPacket(&buf, readCipher)
			if err != nil {
				t.Fatalf("ReadPacket: %v", err)
			}

			if got.Command != tc.command {
				t.Errorf("Command = %d, want %d", got.Command, tc.command)
			}
			if got.Seq != tc.seq {
				t.Errorf("Seq = %d, want %d", got.Seq, tc.seq)
			}
			if !bytes.Equal(got.Payload, tc.payload) {
				t.Errorf("Payload = %v, want %v", got.Payload, tc.payload)
			}
		})
	}
}

func TestWriteReadPacketMultipleFramesOnSameCipherStream(t *testing.T) {
	var buf bytes.Buffer
	writeCipher := NewCipher(99)
	frames := []Packet{
		{Command: 1, Seq: 1, Payload: []byte("first")},
		{Command: 2, Seq: 2, Payload: []byte("second frame is longer")},
		{Command: 3, Seq: 3, Payload: nil},
	}
	for _, f := range frames {
		if err := WritePacket(&buf, f, writeCipher); err != nil {
			t.Fatalf("WritePacket: %v", err)
		}
	}

	readCipher := NewCipher(99)
	for i, want := range frames {
		got, err := ReadPacket(&buf, readCipher)
		if err != nil {
			t.Fatalf("ReadPacket frame %d: %v", i, err)
		}
		if got.Command != want.Command || got.Seq != want.Seq || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("frame %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestReadPacketRejectsTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF}) // claims a 65535-byte frame
	buf.Write(bytes.Repeat([]byte{0}, 10))
	c := NewCipher(1)
	if _, err := ReadPacket(&buf, c); err == nil {
		t.Fatalf("expected a read error when the body is shorter than the declared length")
	}
}

func TestReadPacketRejectsUndersizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x02, 0x00}) // length 2: smaller than the 6-byte header
	c := NewCipher(1)
	if _, err := ReadPacket(&buf, c); err == nil {
		t.Fatalf("expected an error for a frame length shorter than the header")
	}
}

func TestCipherDifferentSeedsProduceDifferentCiphertext(t *testing.T) {
	plain := []byte("identical payload bytes")

	a := append([]byte(nil), plain...)
	b := append([]byte(nil), plain...)

	NewCipher(1).Encrypt(a)
	NewCipher(2).Encrypt(b)

	if bytes.Equal(a, b) {
		t.Fatalf("ciphertext must differ across seeds")
	}
}
