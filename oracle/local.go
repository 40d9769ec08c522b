package oracle

import (
	"context"
	"errors"

	"github.com/mario-areias/padding-oracle/cbc"
	"github.com/mario-areias/padding-oracle/key"
)

// Local is an in-process oracle. It holds a cipher and a secret IV and answers padding
// questions about probes decrypted under them.
type Local struct {
	cipher *cbc.Cipher
	iv     []byte
}

func NewLocal(c *cbc.Cipher, iv []byte) *Local {
	return &Local{cipher: c, iv: iv}
}

// NewRandomLocal creates a Local oracle with a random IV.
func NewRandomLocal(c *cbc.Cipher) *Local {
	return NewLocal(c, key.NewIV(c.BlockSize()))
}

// Encrypt encrypts plaintext with the oracle's key and IV. The IV is not returned.
func (l *Local) Encrypt(plaintext []byte) ([]byte, error) {
	return l.cipher.Encrypt(plaintext, l.iv)
}

func (l *Local) TryDecrypt(ctx context.Context, probe []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// ignoring decrypted output because the caller shouldn't have access to it
	_, err := l.cipher.Decrypt(probe, l.iv)
	if errors.Is(err, cbc.ErrInvalidPadding) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *Local) BlockSize() int {
	return l.cipher.BlockSize()
}
