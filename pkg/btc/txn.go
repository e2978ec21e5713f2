package btc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/suffix-labs/signcore/pkg/wire"
)

// Default structural limits.
const (
	DefaultMaxInputs  = 200
	DefaultMaxOutputs = 200
)

var (
	ErrMalformedTxn      = errors.New("btc: malformed transaction")
	ErrNoInputs          = errors.New("btc: transaction has no inputs")
	ErrNoOutputs         = errors.New("btc: transaction has no outputs")
	ErrTooManyInputs     = errors.New("btc: too many inputs")
	ErrTooManyOutputs    = errors.New("btc: too many outputs")
	ErrScriptSigNotEmpty = errors.New("btc: unsigned input carries a scriptSig")
	ErrTrailingBytes     = errors.New("btc: trailing bytes after lock time")
)

// Limits bounds the size of an unsigned transaction.
type Limits struct {
	MaxInputs  int
	MaxOutputs int

	// MaxInputsOutputs bounds inputs plus outputs. Zero means half of
	// MaxInputs + MaxOutputs.
	MaxInputsOutputs int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxInputs: DefaultMaxInputs, MaxOutputs: DefaultMaxOutputs}
}

func (l Limits) check(inputs, outputs uint64) error {
	if l.MaxInputs <= 0 {
		l.MaxInputs = DefaultMaxInputs
	}
	if l.MaxOutputs <= 0 {
		l.MaxOutputs = DefaultMaxOutputs
	}
	sum := l.MaxInputsOutputs
	if sum <= 0 {
		sum = (l.MaxInputs + l.MaxOutputs) / 2
	}

	switch {
	case inputs == 0:
		return ErrNoInputs
	case outputs == 0:
		return ErrNoOutputs
	case inputs > uint64(l.MaxInputs):
		return fmt.Errorf("%w: %d > %d", ErrTooManyInputs, inputs, l.MaxInputs)
	case outputs > uint64(l.MaxOutputs):
		return fmt.Errorf("%w: %d > %d", ErrTooManyOutputs, outputs, l.MaxOutputs)
	case inputs+outputs > uint64(sum):
		return fmt.Errorf("%w: %d inputs and %d outputs", ErrTooManyOutputs, inputs, outputs)
	}
	return nil
}

// TxIn is an input of an unsigned transaction.
type TxIn struct {
	PrevTxnHash [32]byte
	PrevIndex   uint32
	Sequence    uint32
}

// TxOut is an output of an unsigned transaction.
type TxOut struct {
	Value        uint64
	ScriptPubKey []byte
	Type         ScriptType
}

// UnsignedTxn is a decoded legacy-serialized transaction whose inputs carry
// empty scriptSigs.
type UnsignedTxn struct {
	Version  uint32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32
}

// ParseUnsignedTxn decodes raw and checks its shape against lim. Output
// scripts reference raw.
func ParseUnsignedTxn(raw []byte, lim Limits) (*UnsignedTxn, error) {
	r := bytes.NewReader(raw)
	txn := &UnsignedTxn{}

	if err := binary.Read(r, binary.LittleEndian, &txn.Version); err != nil {
		return nil, malformed("reading version", err)
	}

	numInputs, err := readCompactSize(r)
	if err != nil {
		return nil, malformed("reading input count", err)
	}
	if numInputs == 0 {
		// also rules out the BIP144 marker
		return nil, ErrNoInputs
	}
	if numInputs > uint64(r.Len()) {
		return nil, malformed("reading inputs", io.ErrUnexpectedEOF)
	}

	txn.Inputs = make([]TxIn, numInputs)
	for i := range txn.Inputs {
		if err := parseTxIn(r, &txn.Inputs[i]); err != nil {
			return nil, fmt.Errorf("parsing input %d: %w", i, err)
		}
	}

	numOutputs, err := readCompactSize(r)
	if err != nil {
		return nil, malformed("reading output count", err)
	}
	if err := lim.check(numInputs, numOutputs); err != nil {
		return nil, err
	}

	txn.Outputs = make([]TxOut, numOutputs)
	for i := range txn.Outputs {
		if err := parseTxOut(r, raw, &txn.Outputs[i]); err != nil {
			return nil, fmt.Errorf("parsing output %d: %w", i, err)
		}
	}

	if err := binary.Read(r, binary.LittleEndian, &txn.LockTime); err != nil {
		return nil, malformed("reading lock time", err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, r.Len())
	}
	return txn, nil
}

func parseTxIn(r *bytes.Reader, in *TxIn) error {
	if _, err := io.ReadFull(r, in.PrevTxnHash[:]); err != nil {
		return malformed("reading prevout txid", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &in.PrevIndex); err != nil {
		return malformed("reading prevout index", err)
	}

	scriptLen, err := readCompactSize(r)
	if err != nil {
		return malformed("reading scriptSig length", err)
	}
	if scriptLen != 0 {
		return fmt.Errorf("%w: %d bytes", ErrScriptSigNotEmpty, scriptLen)
	}

	if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
		return malformed("reading sequence", err)
	}
	return nil
}

func parseTxOut(r *bytes.Reader, raw []byte, out *TxOut) error {
	if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
		return malformed("reading value", err)
	}

	scriptLen, err := readCompactSize(r)
	if err != nil {
		return malformed("reading scriptPubKey length", err)
	}
	if scriptLen > uint64(r.Len()) {
		return malformed("reading scriptPubKey", io.ErrUnexpectedEOF)
	}
	start := len(raw) - r.Len()
	out.ScriptPubKey = raw[start : start+int(scriptLen)]
	if _, err := r.Seek(int64(scriptLen), io.SeekCurrent); err != nil {
		return malformed("skipping scriptPubKey", err)
	}
	out.Type = ClassifyScript(out.ScriptPubKey)
	return nil
}

// readCompactSize reads a Bitcoin-style variable-length integer.
func readCompactSize(r io.Reader) (uint64, error) {
	var buf [wire.MaxVarIntSize]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, err
	}

	var size int
	switch buf[0] {
	case 0xfd:
		size = 2
	case 0xfe:
		size = 4
	case 0xff:
		size = 8
	}
	if _, err := io.ReadFull(r, buf[1:1+size]); err != nil {
		return 0, err
	}

	v, _, err := wire.VarInt(buf[:1+size])
	return v, err
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrMalformedTxn, what, err)
}

// OutputTotal sums all output values. It reports false on overflow.
func (t *UnsignedTxn) OutputTotal() (uint64, bool) {
	var sum uint64
	for _, out := range t.Outputs {
		next := sum + out.Value
		if next < sum {
			return 0, false
		}
		sum = next
	}
	return sum, true
}
