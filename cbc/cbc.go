// Package cbc wraps a block cipher in CBC mode with PKCS#7 padding.
// It is the cipher sitting behind a padding oracle, the attack never uses it directly.
package cbc

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/blowfish"

	"github.com/mario-areias/padding-oracle/key"
)

var (
	// ErrInvalidLength is returned when a ciphertext or IV is not aligned to the block size.
	ErrInvalidLength = errors.New("cbc: invalid length")

	// ErrInvalidPadding is returned when the decrypted plaintext doesn't end with valid PKCS#7 padding.
	ErrInvalidPadding = errors.New("cbc: invalid padding")
)

type Cipher struct {
	block cipher.Block
	name  string
}

func New(block cipher.Block, name string) *Cipher {
	return &Cipher{block: block, name: name}
}

// NewAES returns an AES-128 CBC cipher.
func NewAES(k key.Key) (*Cipher, error) {
	b, err := aes.NewCipher(k.GetBytes())
	if err != nil {
		return nil, fmt.Errorf("cbc: aes: %w", err)
	}
	return New(b, "aes"), nil
}

// NewBlowfish returns a Blowfish CBC cipher. Blowfish works on 8 bytes blocks.
func NewBlowfish(k key.Key) (*Cipher, error) {
	b, err := blowfish.NewCipher(k.GetBytes())
	if err != nil {
		return nil, fmt.Errorf("cbc: blowfish: %w", err)
	}
	return New(b, "blowfish"), nil
}

// ByName maps a cipher name ("aes" or "blowfish") to its constructor.
func ByName(name string, k key.Key) (*Cipher, error) {
	switch name {
	case "aes":
		return NewAES(k)
	case "blowfish":
		return NewBlowfish(k)
	default:
		return nil, fmt.Errorf("cbc: unsupported cipher %q", name)
	}
}

func (c *Cipher) Name() string {
	return c.name
}

func (c *Cipher) BlockSize() int {
	return c.block.BlockSize()
}

// Encrypt pads the plaintext and encrypts it under iv. The IV is not part of the output.
func (c *Cipher) Encrypt(plaintext, iv []byte) ([]byte, error) {
	if len(iv) != c.BlockSize() {
		return nil, fmt.Errorf("%w: iv is %d bytes, block is %d", ErrInvalidLength, len(iv), c.BlockSize())
	}

	padded := Pad(plaintext, c.BlockSize())

	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(encrypted, padded)

	return encrypted, nil
}

// Decrypt decrypts the ciphertext under iv and strips the padding.
// A padding failure is reported as ErrInvalidPadding and nothing else, so callers can't tell why it failed.
func (c *Cipher) Decrypt(encrypted, iv []byte) ([]byte, error) {
	bs := c.BlockSize()
	if len(iv) != bs {
		return nil, fmt.Errorf("%w: iv is %d bytes, block is %d", ErrInvalidLength, len(iv), bs)
	}
	if len(encrypted) == 0 || len(encrypted)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, block is %d", ErrInvalidLength, len(encrypted), bs)
	}

	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(decrypted, encrypted)

	return RemovePadding(decrypted, bs)
}
