package oracle

import (
	"context"
	"sync/atomic"
)

// Counting wraps an oracle and counts the queries going through it.
type Counting struct {
	inner   Oracle
	queries atomic.Int64
}

func NewCounting(o Oracle) *Counting {
	return &Counting{inner: o}
}

func (c *Counting) TryDecrypt(ctx context.Context, probe []byte) (bool, error) {
	c.queries.Add(1)
	return c.inner.TryDecrypt(ctx, probe)
}

// Queries returns how many queries were made so far.
func (c *Counting) Queries() int64 {
	return c.queries.Load()
}

func (c *Counting) Reset() {
	c.queries.Store(0)
}

func (c *Counting) BlockSize() int {
	if bs, ok := c.inner.(BlockSizer); ok {
		return bs.BlockSize()
	}
	return 0
}
