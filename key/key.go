// Package key holds the secret material of the cipher behind an oracle. The attack never sees it.
package key

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

type Key interface {
	GetBytes() []byte
	Len() int
}

type material []byte

func (m material) GetBytes() []byte {
	return m
}

func (m material) Len() int {
	return len(m)
}

// Bit128 returns a random 128 bits key.
func Bit128() Key {
	return material(random(16))
}

func NewKey(m [16]byte) Key {
	return material(m[:])
}

// FromBytes copies b into a key. AES only accepts 16, 24 or 32 bytes and so do we.
func FromBytes(b []byte) (Key, error) {
	switch len(b) {
	case 16, 24, 32:
		return material(append([]byte(nil), b...)), nil
	default:
		return nil, fmt.Errorf("key: expected 16, 24 or 32 bytes, got %d", len(b))
	}
}

// FromHex decodes a hex encoded key, as passed on a command line.
func FromHex(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	return FromBytes(b)
}

// Parse returns a random 128 bits key for an empty string and decodes s as hex otherwise.
func Parse(s string) (Key, error) {
	if s == "" {
		return Bit128(), nil
	}
	return FromHex(s)
}

// NewIV returns a random IV for a cipher with the given block size.
func NewIV(blockSize int) []byte {
	return random(blockSize)
}

func random(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("Could not generate random bytes")
	}
	return b
}
