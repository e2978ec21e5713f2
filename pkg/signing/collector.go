package signing

import (
	"github.com/pkg/errors"

	"github.com/suffix-labs/signcore/pkg/crypto"
)

// Chunk accounting failures.
var (
	ErrZeroSize          = errors.New("declared size is zero")
	ErrTooLarge          = errors.New("declared size exceeds the buffer limit")
	ErrChunkMissing      = errors.New("request carries no chunk")
	ErrChunkSequence     = errors.New("chunk index out of sequence")
	ErrChunkIndex        = errors.New("chunk index out of range")
	ErrChunkTotal        = errors.New("chunk total changed mid-transfer")
	ErrChunkOverflow     = errors.New("chunks exceed the declared size")
	ErrChunkAccounting   = errors.New("remaining size disagrees with received bytes")
	ErrSizeMismatch      = errors.New("transfer ended before the declared size")
	ErrUnexpectedQuery   = errors.New("unexpected query")
	ErrReferenceTrailing = errors.New("reference data not fully consumed")
)

// chunkAccounting enforces the chunk protocol for one transfer: sequential
// indices below the declared total, a cumulative size never above the
// declared size, and a remaining size consistent with what was received.
type chunkAccounting struct {
	size        uint32
	received    uint32
	next        uint32
	totalChunks uint32
}

// accept checks ch and reports whether it was the last chunk.
func (a *chunkAccounting) accept(ch *Chunk) (bool, error) {
	if ch == nil {
		return false, ErrChunkMissing
	}
	if ch.Index != a.next {
		return false, errors.Wrapf(ErrChunkSequence, "got %d, want %d", ch.Index, a.next)
	}
	if ch.Index >= ch.Total {
		return false, errors.Wrapf(ErrChunkIndex, "index %d of %d", ch.Index, ch.Total)
	}
	if a.next == 0 {
		a.totalChunks = ch.Total
	} else if ch.Total != a.totalChunks {
		return false, errors.Wrapf(ErrChunkTotal, "got %d, want %d", ch.Total, a.totalChunks)
	}

	n := uint32(len(ch.Bytes))
	if uint64(a.received)+uint64(n) > uint64(a.size) {
		return false, errors.Wrapf(ErrChunkOverflow, "%d + %d > %d", a.received, n, a.size)
	}
	a.received += n
	a.next++

	if ch.Remaining != a.size-a.received {
		return false, errors.Wrapf(ErrChunkAccounting, "remaining %d, expected %d", ch.Remaining, a.size-a.received)
	}

	last := ch.Remaining == 0 || ch.Index+1 == ch.Total
	if last && a.received != a.size {
		return false, errors.Wrapf(ErrSizeMismatch, "received %d of %d", a.received, a.size)
	}
	return last, nil
}

// Collector assembles a chunked transaction into a buffer sized at Initiate.
type Collector struct {
	acct chunkAccounting
	buf  []byte
	done bool
}

// NewCollector prepares a buffer for size bytes. A zero size is rejected
// before any chunk is requested, as is a size above limit.
func NewCollector(size, limit uint32) (*Collector, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	if limit > 0 && size > limit {
		return nil, errors.Wrapf(ErrTooLarge, "%d > %d", size, limit)
	}
	return &Collector{
		acct: chunkAccounting{size: size},
		buf:  make([]byte, 0, size),
	}, nil
}

// Add appends one chunk. It returns true once the transfer is complete.
func (c *Collector) Add(ch *Chunk) (bool, error) {
	if c.done {
		return true, errors.Wrap(ErrChunkOverflow, "transfer already complete")
	}
	last, err := c.acct.accept(ch)
	if err != nil {
		return false, err
	}
	c.buf = append(c.buf, ch.Bytes...)
	c.done = last
	return last, nil
}

// Bytes returns the assembled transaction. It is only complete once Add
// reported the last chunk.
func (c *Collector) Bytes() []byte { return c.buf }

// Done reports whether the last chunk was received.
func (c *Collector) Done() bool { return c.done }

// Wipe zeroes the assembled bytes.
func (c *Collector) Wipe() {
	crypto.Zero(c.buf[:cap(c.buf)])
	c.buf = c.buf[:0]
}
