// Package roomid generates sortable room identifiers: UUIDv7 values encoded
// as 26-character Crockford base32 strings. Creation order is preserved
// lexicographically, which keeps room lists stable without extra bookkeeping.
package roomid

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource supplies random bytes, injectable for deterministic tests.
type RandSource interface {
	Intn(n int) int
}

// New creates a room ID from the current time and crypto/rand entropy.
func New() string {
	return NewWithRandSource(nil)
}

// NewWithRandSource creates a room ID using the provided RandSource for the
// random portion; nil falls back to crypto/rand.
func NewWithRandSource(src RandSource) string {
	var uuid [16]byte

	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if src != nil {
		for i := 6; i < 16; i++ {
			uuid[i] = byte(src.Intn(256))
		}
	} else {
		if _, err := rand.Read(uuid[6:]); err != nil {
			panic("roomid: failed to read random bytes: " + err.Error())
		}
	}

	// UUIDv7 version and variant bits
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return encodeBase32(uuid)
}

func encodeBase32(data [16]byte) string {
	result := make([]byte, 26)
	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		result[i] = alphabet[value]
	}
	return string(result)
}

// Validate checks that an ID is 26 characters of the base32 alphabet with a
// leading character representable in 128 bits.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("room ID must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("room ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		found := false
		for j := 0; j < len(alphabet); j++ {
			if id[i] == alphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
