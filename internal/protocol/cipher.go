package protocol

import "math/bits"

// Cipher is a rolling XOR stream cipher seeded per connection by the
// negotiated packet_codec_seed. It keeps separate encode (eb) and decode
// (db) key state plus a 4-byte scratch buffer (tb) used during key update,
// so encrypt and decrypt can run concurrently on the same connection
// without sharing mutable state.
type Cipher struct {
	eb [8]byte
	db [8]byte
	tb [4]byte
}

const (
	cipherMask1 = 0x9c30d539
	cipherMask2 = 0x930fd7e2
	cipherMask3 = 0x7c72e993
	cipherMask4 = 0x287effc3
)

// NewCipher derives initial encode/decode key state from seed.
func NewCipher(seed int32) *Cipher {
	c := &Cipher{}
	key := uint32(seed)

	keys := [2]uint32{
		key ^ cipherMask1,
		cipherMask2,
	}
	keys[0] = bits.RotateLeft32(keys[0], 0x13)
	keys[1] ^= keys[0] ^ cipherMask3

	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			b := byte((keys[i] >> (j * 8)) & 0xff)
			c.eb[i*4+j] = b
			c.db[i*4+j] = b
		}
	}
	return c
}

// Encrypt encrypts data in place and returns it. Frames shorter than 4
// bytes pass through unchanged — the chain needs a 4-byte window to scramble.
func (c *Cipher) Encrypt(data []byte) []byte {
	if len(data) < 4 {
		return data
	}

	copy(c.tb[:], data[:4])

	data[0] ^= c.eb[0]
	for i := 1; i < len(data); i++ {
		data[i] ^= data[i-1] ^ c.eb[i&7]
	}

	data[3] ^= c.eb[2]
	data[2] ^= c.eb[3] ^ data[3]
	data[1] ^= c.eb[4] ^ data[2]
	data[0] ^= c.eb[5] ^ data[1]

	c.update(c.eb[:], c.tb[:])
	return data
}

// Decrypt decrypts data in place and returns it.
func (c *Cipher) Decrypt(data []byte) []byte {
	if len(data) < 4 {
		return data
	}

	data[0] ^= c.db[5] ^ data[1]
	data[1] ^= c.db[4] ^ data[2]
	data[2] ^= c.db[3] ^ data[3]
	data[3] ^= c.db[2]

	for i := len(data) - 1; i >= 1; i-- {
		data[i] ^= data[i-1] ^ c.db[i&7]
	}
	data[0] ^= c.db[0]

	c.update(c.db[:], data)
	return data
}

// update advances the key state from the just-(en|de)crypted reference data.
func (c *Cipher) update(keyBytes []byte, ref []byte) {
	for i := 0; i < 4; i++ {
		keyBytes[i] ^= ref[i]
	}

	val := uint32(keyBytes[4]) |
		uint32(keyBytes[5])<<8 |
		uint32(keyBytes[6])<<16 |
		uint32(keyBytes[7])<<24
	val += cipherMask4

	keyBytes[4] = byte(val)
	keyBytes[5] = byte(val >> 8)
	keyBytes[6] = byte(val >> 16)
	keyBytes[7] = byte(val >> 24)
}
