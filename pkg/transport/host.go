package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/logger"
	"github.com/suffix-labs/signcore/pkg/signing"
)

// DefaultChunkSize is the chunk payload size used when a script sets none.
const DefaultChunkSize = 2048

// Script is what a host sends during one flow.
type Script struct {
	Initiate *signing.InitiateRequest

	// Txn is the unsigned transaction. Its length is written into
	// Initiate.TxnSize unless that is already set.
	Txn []byte

	// References are streamed in order after the transaction, one per
	// input that needs a prior-transaction proof.
	References [][]byte

	// Signatures is the number of signatures to fetch.
	Signatures int

	ChunkSize int
}

// Transcript records what the device answered.
type Transcript struct {
	Confirmed   bool
	ChunkAcks   []uint32
	Fingerprint []byte
	RefAcks     [][]uint32
	Signatures  [][]byte
}

// Host is a scripted host talking to a device through a Pipe.
type Host struct {
	pipe *Pipe
	log  *logger.Logger
}

// NewHost creates a host on pipe.
func NewHost(pipe *Pipe, log *logger.Logger) *Host {
	if log == nil {
		log = logger.Nop()
	}
	return &Host{pipe: pipe, log: log}
}

// Run plays the script. It stops at the first device error report, which is
// returned as an *ErrorReport together with the partial transcript.
func (h *Host) Run(ctx context.Context, s Script) (*Transcript, error) {
	tr := &Transcript{}

	init := *s.Initiate
	if init.TxnSize == 0 {
		init.TxnSize = uint32(len(s.Txn))
	}
	if err := h.pipe.Send(ctx, &signing.Query{Tag: signing.QueryInitiate, Initiate: &init}); err != nil {
		return tr, err
	}
	if _, err := h.expect(ctx, signing.ResultConfirmation); err != nil {
		return tr, err
	}
	tr.Confirmed = true

	acks, last, err := h.sendChunks(ctx, signing.QueryTxnChunk, signing.ResultChunkAccepted, s.Txn, s.ChunkSize)
	tr.ChunkAcks = acks
	if err != nil {
		return tr, err
	}
	tr.Fingerprint = last.Fingerprint
	h.log.Debug("transaction sent", "chunks", len(acks))

	for i, ref := range s.References {
		acks, _, err := h.sendChunks(ctx, signing.QueryReferenceChunk, signing.ResultReferenceAccepted, ref, s.ChunkSize)
		tr.RefAcks = append(tr.RefAcks, acks)
		if err != nil {
			return tr, fmt.Errorf("reference %d: %w", i, err)
		}
	}

	for i := 0; i < s.Signatures; i++ {
		if err := h.pipe.Send(ctx, &signing.Query{Tag: signing.QuerySignature}); err != nil {
			return tr, err
		}
		r, err := h.expect(ctx, signing.ResultSignature)
		if err != nil {
			return tr, err
		}
		tr.Signatures = append(tr.Signatures, r.Signature)
	}
	return tr, nil
}

// RequestPublicKeys asks the device for the keys named in req and returns
// its reply.
func (h *Host) RequestPublicKeys(ctx context.Context, req *signing.PublicKeyRequest) (*signing.Result, error) {
	if err := h.pipe.Send(ctx, &signing.Query{Tag: signing.QueryPublicKey, PublicKey: req}); err != nil {
		return nil, err
	}
	r, err := h.expect(ctx, signing.ResultPublicKeys)
	if err != nil {
		return nil, err
	}
	if len(r.PublicKeys) != len(req.Paths) {
		return nil, fmt.Errorf("device returned %d keys for %d paths", len(r.PublicKeys), len(req.Paths))
	}
	return r, nil
}

// sendChunks splits data into chunks and waits for each acknowledgement.
func (h *Host) sendChunks(ctx context.Context, tag signing.QueryTag, ackTag signing.ResultTag, data []byte, size int) ([]uint32, *signing.Result, error) {
	chunks := Split(data, size)

	var (
		acks []uint32
		last *signing.Result
	)
	for _, ch := range chunks {
		if err := h.pipe.Send(ctx, &signing.Query{Tag: tag, Chunk: ch}); err != nil {
			return acks, nil, err
		}
		r, err := h.expect(ctx, ackTag)
		if err != nil {
			return acks, nil, err
		}
		if r.ChunkIndex != ch.Index {
			return acks, nil, fmt.Errorf("ack for chunk %d, sent %d", r.ChunkIndex, ch.Index)
		}
		acks = append(acks, r.ChunkIndex)
		last = r
	}
	return acks, last, nil
}

func (h *Host) expect(ctx context.Context, tag signing.ResultTag) (*signing.Result, error) {
	r, err := h.pipe.Receive(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil || r.Tag != tag {
		return nil, errors.New("unexpected device reply")
	}
	return r, nil
}

// Split cuts data into protocol chunks of at most size bytes.
func Split(data []byte, size int) []*signing.Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	total := (len(data) + size - 1) / size
	if total == 0 {
		total = 1
	}

	chunks := make([]*signing.Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := min(start+size, len(data))
		chunks = append(chunks, &signing.Chunk{
			Index:     uint32(i),
			Total:     uint32(total),
			Remaining: uint32(len(data) - end),
			Bytes:     data[start:end],
		})
	}
	return chunks
}
