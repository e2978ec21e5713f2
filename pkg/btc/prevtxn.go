// Package btc implements the Bitcoin chain: the streaming prior-transaction
// validator, the unsigned transaction parser, script classification, the
// legacy and BIP143 signature hashes and the derivation path policy.
//
// References:
//   - https://en.bitcoin.it/wiki/Protocol_documentation#tx
//   - https://github.com/bitcoin/bips/blob/master/bip-0143.mediawiki
//   - https://github.com/bitcoin/bips/blob/master/bip-0144.mediawiki
package btc

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/signcore/pkg/bytestream"
	"github.com/suffix-labs/signcore/pkg/wire"
)

// DefaultSliceSize is the scratch size used to stream scripts and witness
// items.
const DefaultSliceSize = 64

var (
	ErrPrevTxnHashMismatch   = errors.New("btc: prior transaction hash mismatch")
	ErrPrevTxnValueMismatch  = errors.New("btc: prior output value mismatch")
	ErrPrevTxnScriptMismatch = errors.New("btc: prior output script mismatch")
	ErrReadStream            = errors.New("btc: prior transaction read failed")
)

// PrevOutput is the claim a new input makes about the output it spends.
type PrevOutput struct {
	// TxnHash is the prior transaction id in serialization order, i.e. the
	// reverse of the usual display order.
	TxnHash     [32]byte
	OutputIndex uint32
	Value       uint64

	// ScriptPubKey is compared against the prior output when set.
	ScriptPubKey []byte
}

// HashFromDisplay decodes a display-order transaction id into serialization
// order.
func HashFromDisplay(s string) ([32]byte, error) {
	if len(s) != 2*chainhash.HashSize {
		return [32]byte{}, fmt.Errorf("txid must be %d hex digits, got %d", 2*chainhash.HashSize, len(s))
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return [32]byte{}, fmt.Errorf("decoding txid: %w", err)
	}
	return *h, nil
}

// Validator streams prior transactions. The zero value is ready to use.
type Validator struct {
	// SliceSize bounds the scratch buffer used for scripts and witness
	// items. Zero selects DefaultSliceSize.
	SliceSize int
}

// ValidatePrevTxn checks in against the prior transaction in s with the
// default slice size.
func ValidatePrevTxn(s *bytestream.Stream, in PrevOutput) error {
	var v Validator
	return v.Validate(s, in)
}

// Validate walks one serialized transaction, recomputes its id and checks
// the claimed output against it.
//
// The hash covers the non-witness serialization only, so a BIP144
// transaction produces the same id as its stripped form. A hash mismatch is
// reported before a value mismatch, which is reported before a script
// mismatch. Any stream failure is reported as ErrReadStream.
func (v *Validator) Validate(s *bytestream.Stream, in PrevOutput) error {
	w := &prevTxnWalker{
		s:       s,
		h:       sha256.New(),
		scratch: make([]byte, v.sliceSize()),
		in:      in,
	}
	if err := w.walk(); err != nil {
		return fmt.Errorf("%w: %w", ErrReadStream, err)
	}

	first := w.h.Sum(nil)
	id := sha256.Sum256(first)
	if id != in.TxnHash {
		return ErrPrevTxnHashMismatch
	}
	if w.found != in.Value {
		return fmt.Errorf("%w: output %d holds %d, claimed %d", ErrPrevTxnValueMismatch, in.OutputIndex, w.found, in.Value)
	}
	if in.ScriptPubKey != nil && !w.scriptMatch {
		return fmt.Errorf("%w: output %d", ErrPrevTxnScriptMismatch, in.OutputIndex)
	}
	return nil
}

func (v *Validator) sliceSize() int {
	if v == nil || v.SliceSize <= 0 {
		return DefaultSliceSize
	}
	return v.SliceSize
}

// prevTxnWalker holds the state of one pass over a prior transaction.
type prevTxnWalker struct {
	s       *bytestream.Stream
	h       hash.Hash
	scratch []byte
	in      PrevOutput

	// found stays zero when the claimed index is never reached.
	found       uint64
	scriptMatch bool
}

func (w *prevTxnWalker) walk() error {
	var fixed [8]byte

	if err := w.hashed(fixed[:4]); err != nil {
		return fmt.Errorf("version: %w", err)
	}

	marker, err := w.s.Peek()
	if err != nil {
		return fmt.Errorf("segwit marker: %w", err)
	}
	segwit := marker == 0
	if segwit {
		if err := w.s.Skip(2); err != nil {
			return fmt.Errorf("segwit flag: %w", err)
		}
	}

	inputs, err := wire.ReadVarInt(w.s, w.h)
	if err != nil {
		return fmt.Errorf("input count: %w", err)
	}
	for i := uint64(0); i < inputs; i++ {
		// outpoint
		if err := w.hashedN(36); err != nil {
			return fmt.Errorf("input %d outpoint: %w", i, err)
		}
		if err := w.script(nil); err != nil {
			return fmt.Errorf("input %d script: %w", i, err)
		}
		if err := w.hashed(fixed[:4]); err != nil {
			return fmt.Errorf("input %d sequence: %w", i, err)
		}
	}

	outputs, err := wire.ReadVarInt(w.s, w.h)
	if err != nil {
		return fmt.Errorf("output count: %w", err)
	}
	for i := uint64(0); i < outputs; i++ {
		if err := w.hashed(fixed[:8]); err != nil {
			return fmt.Errorf("output %d value: %w", i, err)
		}
		claimed := i == uint64(w.in.OutputIndex)
		if claimed {
			w.found = binary.LittleEndian.Uint64(fixed[:8])
		}

		var expect []byte
		if claimed && w.in.ScriptPubKey != nil {
			expect = w.in.ScriptPubKey
		}
		if err := w.script(expect); err != nil {
			return fmt.Errorf("output %d script: %w", i, err)
		}
	}

	if segwit {
		// one witness stack per input, excluded from the id
		for i := uint64(0); i < inputs; i++ {
			if err := w.skipWitness(); err != nil {
				return fmt.Errorf("input %d witness: %w", i, err)
			}
		}
	}

	if err := w.hashed(fixed[:4]); err != nil {
		return fmt.Errorf("lock time: %w", err)
	}
	return nil
}

// hashed reads len(dst) bytes into dst and hashes them.
func (w *prevTxnWalker) hashed(dst []byte) error {
	if err := w.s.Read(dst); err != nil {
		return err
	}
	w.h.Write(dst)
	return nil
}

// hashedN streams n bytes into the hash through the scratch buffer.
func (w *prevTxnWalker) hashedN(n uint64) error {
	return w.stream(n, func(chunk []byte) { w.h.Write(chunk) })
}

// script streams a length-prefixed script into the hash. When expect is not
// nil the script is also compared against it slice by slice.
func (w *prevTxnWalker) script(expect []byte) error {
	n, err := wire.ReadVarInt(w.s, w.h)
	if err != nil {
		return err
	}
	if expect == nil {
		return w.hashedN(n)
	}

	match := n == uint64(len(expect))
	var off uint64
	err = w.stream(n, func(chunk []byte) {
		w.h.Write(chunk)
		if match {
			match = bytes.Equal(chunk, expect[off:off+uint64(len(chunk))])
		}
		off += uint64(len(chunk))
	})
	w.scriptMatch = match
	return err
}

func (w *prevTxnWalker) skipWitness() error {
	items, err := wire.ReadVarInt(w.s, nil)
	if err != nil {
		return err
	}
	for j := uint64(0); j < items; j++ {
		n, err := wire.ReadVarInt(w.s, nil)
		if err != nil {
			return err
		}
		if err := w.s.Skip(n); err != nil {
			return err
		}
	}
	return nil
}

// stream reads n bytes in scratch-sized slices and hands each to fn.
func (w *prevTxnWalker) stream(n uint64, fn func([]byte)) error {
	for n > 0 {
		step := min(n, uint64(len(w.scratch)))
		chunk := w.scratch[:step]
		if err := w.s.Read(chunk); err != nil {
			return err
		}
		fn(chunk)
		n -= step
	}
	return nil
}
