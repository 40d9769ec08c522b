package attack

import (
	"fmt"

	"github.com/mario-areias/padding-oracle/internal/helpers"
)

// DefaultBlockSize is the AES block size.
const DefaultBlockSize = 16

// Verification selects how a candidate for the last byte of a block is accepted.
type Verification int

const (
	// VerifyNone accepts the first (smallest) candidate the oracle validates.
	//
	// When searching for the last byte, a plaintext ending in 0x02 0x02 (or 0x03 0x03 0x03...)
	// is valid as well as the one ending in 0x01, so the first hit may be the wrong one.
	VerifyNone Verification = iota

	// VerifyAdjacent re-queries every hit for the last byte with the second to last byte of the
	// forged block flipped. Only a plaintext ending in 0x01 survives that change, which costs
	// one extra query per hit.
	VerifyAdjacent
)

func (v Verification) String() string {
	switch v {
	case VerifyNone:
		return "none"
	case VerifyAdjacent:
		return "adjacent"
	default:
		return fmt.Sprintf("Verification(%d)", int(v))
	}
}

// ParseVerification is the inverse of String.
func ParseVerification(s string) (Verification, error) {
	switch s {
	case "none", "":
		return VerifyNone, nil
	case "adjacent":
		return VerifyAdjacent, nil
	default:
		return VerifyNone, fmt.Errorf("attack: unknown verification %q", s)
	}
}

type Option func(*Attacker)

// WithBlockSize sets the cipher block width in bytes.
func WithBlockSize(n int) Option {
	return func(a *Attacker) {
		a.blockSize = n
	}
}

// WithBlockWorkers sets how many blocks are attacked at the same time.
func WithBlockWorkers(n int) Option {
	return func(a *Attacker) {
		a.blockWorkers = n
	}
}

// WithCandidateWorkers sets how many candidate bytes are tried at the same time within a round.
func WithCandidateWorkers(n int) Option {
	return func(a *Attacker) {
		a.candidateWorkers = n
	}
}

func WithVerification(v Verification) Option {
	return func(a *Attacker) {
		a.verify = v
	}
}

func WithLogger(l *helpers.Logger) Option {
	return func(a *Attacker) {
		a.logger = l
	}
}
