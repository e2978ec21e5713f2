// Package icp decodes Internet Computer ledger transfers and signs the
// matching ingress messages.
//
// The host sends the candid-encoded TransferArgs of a ledger "transfer" call.
// The device rebuilds the call envelope around it, so the request id it signs
// always commits to the arguments the user reviewed.
package icp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/wire"
)

// Magic opens every candid message.
var Magic = []byte("DIDL")

// Candid type codes.
const (
	typeNat8   = -5
	typeNat64  = -8
	typeOpt    = -18
	typeVec    = -19
	typeRecord = -20
)

// Field hashes of TransferArgs and Tokens.
const (
	hashTo     = 25979
	hashFee    = 5094982
	hashMemo   = 1213809850
	hashAmount = 3573748184
	hashE8s    = 5035232
)

// AccountIDSize is the length of a ledger account identifier.
const AccountIDSize = 32

const maxTableSize = 64

var (
	ErrMagic         = errors.New("icp: missing DIDL magic")
	ErrTypeTable     = errors.New("icp: unsupported type table")
	ErrArgument      = errors.New("icp: expected a single record argument")
	ErrTransferField = errors.New("icp: unexpected transfer field")
	ErrTrailingData  = errors.New("icp: trailing bytes after arguments")
	ErrAccountID     = errors.New("icp: invalid account identifier")
)

// TransferArgs is the argument of a ledger transfer. Amount and Fee are in
// e8s.
type TransferArgs struct {
	To     [AccountIDSize]byte
	Amount uint64
	Fee    uint64
	Memo   uint64
}

type idlField struct {
	hash uint64
	typ  int64
}

type idlType struct {
	code   int64
	child  int64
	fields []idlField
}

type decoder struct {
	b     []byte
	table []idlType
}

func (d *decoder) uleb() (uint64, error) {
	v, n, err := wire.ULEB128(d.b)
	if err != nil {
		return 0, err
	}
	d.b = d.b[n:]
	return v, nil
}

func (d *decoder) sleb() (int64, error) {
	v, n, err := wire.SLEB128(d.b)
	if err != nil {
		return 0, err
	}
	d.b = d.b[n:]
	return v, nil
}

func (d *decoder) take(n uint64) ([]byte, error) {
	if n > uint64(len(d.b)) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", wire.ErrTruncated, n, len(d.b))
	}
	out := d.b[:n]
	d.b = d.b[n:]
	return out, nil
}

func (d *decoder) nat64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ParseTransferArgs decodes a candid message holding exactly one
// TransferArgs record and nothing else.
func ParseTransferArgs(arg []byte) (*TransferArgs, error) {
	if !bytes.HasPrefix(arg, Magic) {
		return nil, ErrMagic
	}
	d := &decoder{b: arg[len(Magic):]}
	if err := d.readTable(); err != nil {
		return nil, err
	}

	count, err := d.uleb()
	if err != nil {
		return nil, err
	}
	if count != 1 {
		return nil, fmt.Errorf("%w: %d arguments", ErrArgument, count)
	}
	idx, err := d.sleb()
	if err != nil {
		return nil, err
	}
	rec, err := d.lookup(idx)
	if err != nil {
		return nil, err
	}
	if rec.code != typeRecord || len(rec.fields) != 4 {
		return nil, fmt.Errorf("%w: type %d with %d fields", ErrArgument, rec.code, len(rec.fields))
	}

	out := &TransferArgs{}
	for _, f := range rec.fields {
		if err := d.readField(f, out); err != nil {
			return nil, err
		}
	}
	if len(d.b) != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(d.b))
	}
	return out, nil
}

func (d *decoder) readTable() error {
	n, err := d.uleb()
	if err != nil {
		return err
	}
	if n > maxTableSize {
		return fmt.Errorf("%w: %d entries", ErrTypeTable, n)
	}

	d.table = make([]idlType, n)
	for i := range d.table {
		code, err := d.sleb()
		if err != nil {
			return err
		}
		t := idlType{code: code}
		switch code {
		case typeOpt, typeVec:
			if t.child, err = d.sleb(); err != nil {
				return err
			}
		case typeRecord:
			if t.fields, err = d.readFields(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: type code %d", ErrTypeTable, code)
		}
		d.table[i] = t
	}
	return nil
}

func (d *decoder) readFields() ([]idlField, error) {
	n, err := d.uleb()
	if err != nil {
		return nil, err
	}
	if n > maxTableSize {
		return nil, fmt.Errorf("%w: record with %d fields", ErrTypeTable, n)
	}
	fields := make([]idlField, n)
	for i := range fields {
		if fields[i].hash, err = d.uleb(); err != nil {
			return nil, err
		}
		if fields[i].typ, err = d.sleb(); err != nil {
			return nil, err
		}
		// candid requires strictly increasing field ids
		if i > 0 && fields[i].hash <= fields[i-1].hash {
			return nil, fmt.Errorf("%w: record fields out of order", ErrTypeTable)
		}
	}
	return fields, nil
}

// lookup resolves a type reference. Primitive types are returned as an entry
// with only the code set.
func (d *decoder) lookup(t int64) (idlType, error) {
	if t < 0 {
		return idlType{code: t}, nil
	}
	if t >= int64(len(d.table)) {
		return idlType{}, fmt.Errorf("%w: type index %d out of range", ErrTypeTable, t)
	}
	return d.table[t], nil
}

func (d *decoder) readField(f idlField, out *TransferArgs) error {
	t, err := d.lookup(f.typ)
	if err != nil {
		return err
	}

	switch f.hash {
	case hashTo:
		if t.code != typeVec || t.child != typeNat8 {
			return fmt.Errorf("%w: to is not a blob", ErrTransferField)
		}
		n, err := d.uleb()
		if err != nil {
			return err
		}
		if n != AccountIDSize {
			return fmt.Errorf("%w: length %d", ErrAccountID, n)
		}
		b, err := d.take(n)
		if err != nil {
			return err
		}
		copy(out.To[:], b)
		if !ValidAccountID(out.To) {
			return fmt.Errorf("%w: checksum mismatch", ErrAccountID)
		}
		return nil

	case hashAmount, hashFee:
		if t.code != typeRecord || len(t.fields) != 1 || t.fields[0].hash != hashE8s || t.fields[0].typ != typeNat64 {
			return fmt.Errorf("%w: field %d is not Tokens", ErrTransferField, f.hash)
		}
		v, err := d.nat64()
		if err != nil {
			return err
		}
		if f.hash == hashAmount {
			out.Amount = v
		} else {
			out.Fee = v
		}
		return nil

	case hashMemo:
		if t.code != typeNat64 {
			return fmt.Errorf("%w: memo is not nat64", ErrTransferField)
		}
		out.Memo, err = d.nat64()
		return err
	}
	return fmt.Errorf("%w: hash %d", ErrTransferField, f.hash)
}
