package attack

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any oracle query when the ciphertext or the block size
	// can't be attacked.
	ErrInvalidInput = errors.New("attack: invalid input")

	// ErrOracleInconsistent matches InconsistencyError with errors.Is.
	ErrOracleInconsistent = errors.New("attack: oracle inconsistent")
)

// InconsistencyError means no candidate byte out of 256 produced a valid padding. A correct
// oracle can't do that, so either the oracle is broken or it isn't guarding a CBC/PKCS#7 cipher
// with the expected block size.
type InconsistencyError struct {
	// Block is the index of the ciphertext block under attack.
	Block int
	// Padding is the padding value being searched when the search ran out of candidates.
	Padding int
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("attack: no candidate gave a valid padding 0x%02x for block %d", e.Padding, e.Block)
}

func (e *InconsistencyError) Is(target error) bool {
	return target == ErrOracleInconsistent
}
