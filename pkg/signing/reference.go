package signing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/suffix-labs/signcore/pkg/bytestream"
)

// errReferenceExhausted is returned by a chunk source asked for data past
// the last chunk.
var errReferenceExhausted = errors.New("reference transfer complete")

// chunkFetcher streams reference data from the host, one acknowledged chunk
// at a time. Only the current chunk is held; the stream borrows it.
type chunkFetcher struct {
	transport Transport
	log       func(msg string, fields ...interface{})
}

// Fetch implements ReferenceFetcher.
func (f *chunkFetcher) Fetch(ctx context.Context, index int, consume func(*bytestream.Stream) error) error {
	src := &chunkSource{ctx: ctx, transport: f.transport}

	first, err := src.first()
	if err != nil {
		return err
	}
	if len(first) == 0 {
		if first, err = src.Refill(); err != nil {
			return err
		}
	}
	s := bytestream.New(first, src)

	if err := consume(s); err != nil {
		return err
	}

	if s.Buffered() != 0 || !src.done {
		return InvalidData(errors.Wrapf(ErrReferenceTrailing, "reference %d", index))
	}
	if f.log != nil {
		f.log("reference verified", "input", index, "size", src.acct.size, "chunks", src.acct.next)
	}
	return nil
}

// chunkSource implements bytestream.Source over reference chunk requests.
type chunkSource struct {
	ctx       context.Context
	transport Transport
	acct      chunkAccounting
	done      bool
}

// first receives chunk 0, which declares the total size of the reference as
// its own length plus the remaining size.
func (c *chunkSource) first() ([]byte, error) {
	q, err := getQuery(c.ctx, c.transport, QueryReferenceChunk)
	if err != nil {
		return nil, err
	}
	if q.Chunk == nil {
		return nil, InvalidData(ErrChunkMissing)
	}
	size := uint64(len(q.Chunk.Bytes)) + uint64(q.Chunk.Remaining)
	if size == 0 || size > uint64(^uint32(0)) {
		return nil, InvalidData(errors.Wrapf(ErrZeroSize, "reference size %d", size))
	}
	c.acct.size = uint32(size)
	return c.accept(q.Chunk)
}

// Refill implements bytestream.Source.
func (c *chunkSource) Refill() ([]byte, error) {
	for !c.done {
		q, err := getQuery(c.ctx, c.transport, QueryReferenceChunk)
		if err != nil {
			return nil, err
		}
		b, err := c.accept(q.Chunk)
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			return b, nil
		}
	}
	return nil, errReferenceExhausted
}

func (c *chunkSource) accept(ch *Chunk) ([]byte, error) {
	last, err := c.acct.accept(ch)
	if err != nil {
		return nil, InvalidData(err)
	}
	c.done = last

	ack := &Result{Tag: ResultReferenceAccepted, ChunkIndex: ch.Index}
	if err := c.transport.SendResult(c.ctx, ack); err != nil {
		return nil, err
	}
	return ch.Bytes, nil
}

// getQuery waits for the next host request. Failures other than P0 events
// are framing errors.
func getQuery(ctx context.Context, t Transport, expected QueryTag) (*Query, error) {
	q, err := t.GetQuery(ctx, expected)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, NewFlowError(KindCorruptData, CodeInvalidRequest, err)
	}
	if q == nil || q.Tag != expected {
		return nil, NewFlowError(KindCorruptData, CodeInvalidRequest,
			errors.Wrapf(ErrUnexpectedQuery, "expected %s", expected))
	}
	return q, nil
}
