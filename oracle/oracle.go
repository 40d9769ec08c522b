// Package oracle defines the padding oracle capability the attack consumes and a few
// implementations of it.
//
// An oracle can be thought as a server that decrypts its input but doesn't return the plain
// text to its caller. For example, a web server that decrypts a cookie to check for user
// permissions. All it leaks is whether the padding was valid.
package oracle

import (
	"context"
	"fmt"
)

// Oracle reports whether probe decrypts to a plaintext with valid PKCS#7 padding.
//
// Invalid padding is not an error: it is reported as (false, nil). An error means the question
// couldn't be answered at all (malformed probe, transport failure, cancelled context).
// Implementations must be safe for concurrent use.
type Oracle interface {
	TryDecrypt(ctx context.Context, probe []byte) (bool, error)
}

// BlockSizer is implemented by oracles that know the block width of the cipher behind them.
// Zero means unknown.
type BlockSizer interface {
	BlockSize() int
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, probe []byte) (bool, error)

func (f Func) TryDecrypt(ctx context.Context, probe []byte) (bool, error) {
	return f(ctx, probe)
}

// TransportError is returned when a remote oracle couldn't be reached or answered with
// something that is neither "valid" nor "invalid padding".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
