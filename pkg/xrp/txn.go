// Package xrp decodes unsigned XRP Ledger payments in the canonical binary
// format and signs them.
//
// Only the fields a simple payment needs are accepted. Any other field, a
// duplicated field or an issued-currency amount rejects the transaction, so
// nothing the user cannot review ends up signed.
package xrp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/wire"
)

// Prefix is the single-signing hash prefix ("STX\0") carried by every
// unsigned transaction the host sends.
var Prefix = []byte{0x53, 0x54, 0x58, 0x00}

// Type codes.
const (
	TypeInt16   = 1
	TypeInt32   = 2
	TypeAmount  = 6
	TypeBlob    = 7
	TypeAccount = 8
)

// Field codes, scoped by type.
const (
	FieldTransactionType    = 2  // INT16
	FieldFlags              = 2  // INT32
	FieldSequence           = 4  // INT32
	FieldDestinationTag     = 14 // INT32
	FieldLastLedgerSequence = 27 // INT32
	FieldAmount             = 1  // AMOUNT
	FieldFee                = 8  // AMOUNT
	FieldSigningPubKey      = 3  // BLOB
	FieldAccount            = 1  // ACCOUNT
	FieldDestination        = 3  // ACCOUNT
)

// TransactionPayment is the only transaction type the device signs.
const TransactionPayment = 0

// AccountIDSize is the length of an account identifier.
const AccountIDSize = 20

const (
	amountNotNative = 1 << 63
	amountPositive  = 1 << 62
	amountMask      = amountPositive - 1
)

var (
	ErrMissingPrefix   = errors.New("xrp: missing signing prefix")
	ErrUnknownField    = errors.New("xrp: unsupported field")
	ErrDuplicateField  = errors.New("xrp: duplicated field")
	ErrTruncated       = errors.New("xrp: truncated field")
	ErrIssuedCurrency  = errors.New("xrp: issued currency amounts are not supported")
	ErrNegativeAmount  = errors.New("xrp: negative amount")
	ErrAccountLength   = errors.New("xrp: account id must be 20 bytes")
	ErrEmptyBlob       = errors.New("xrp: empty blob")
	ErrNotPayment      = errors.New("xrp: only payments can be signed")
	ErrMissingRequired = errors.New("xrp: required field missing")
)

// Payment is a decoded unsigned payment.
type Payment struct {
	TransactionType    uint16
	Flags              uint32
	Sequence           uint32
	DestinationTag     uint32
	HasDestinationTag  bool
	LastLedgerSequence uint32

	// Amount and Fee are in drops.
	Amount uint64
	Fee    uint64

	SigningPubKey []byte
	Account       [AccountIDSize]byte
	Destination   [AccountIDSize]byte
}

type fieldID struct{ typ, field uint8 }

// ParsePayment decodes raw, which must start with Prefix. Blob fields of the
// result alias raw.
func ParsePayment(raw []byte) (*Payment, error) {
	if !bytes.HasPrefix(raw, Prefix) {
		return nil, ErrMissingPrefix
	}

	p := &Payment{}
	seen := make(map[fieldID]bool)
	b := raw[len(Prefix):]
	for len(b) > 0 {
		typ, field, n, err := wire.FieldHeader(b)
		if err != nil {
			return nil, err
		}
		b = b[n:]

		id := fieldID{typ, field}
		if seen[id] {
			return nil, fmt.Errorf("%w: type %d field %d", ErrDuplicateField, typ, field)
		}
		seen[id] = true

		if n, err = p.decodeField(id, b); err != nil {
			return nil, fmt.Errorf("type %d field %d: %w", typ, field, err)
		}
		b = b[n:]
	}

	for _, req := range []fieldID{
		{TypeInt16, FieldTransactionType},
		{TypeAmount, FieldAmount},
		{TypeAmount, FieldFee},
		{TypeAccount, FieldAccount},
		{TypeAccount, FieldDestination},
	} {
		if !seen[req] {
			return nil, fmt.Errorf("%w: type %d field %d", ErrMissingRequired, req.typ, req.field)
		}
	}
	if p.TransactionType != TransactionPayment {
		return nil, fmt.Errorf("%w: type %d", ErrNotPayment, p.TransactionType)
	}
	return p, nil
}

// decodeField stores one field value and returns the bytes it consumed.
func (p *Payment) decodeField(id fieldID, b []byte) (int, error) {
	switch id.typ {
	case TypeInt16:
		if len(b) < 2 {
			return 0, ErrTruncated
		}
		if id.field != FieldTransactionType {
			return 0, ErrUnknownField
		}
		p.TransactionType = binary.BigEndian.Uint16(b)
		return 2, nil

	case TypeInt32:
		if len(b) < 4 {
			return 0, ErrTruncated
		}
		v := binary.BigEndian.Uint32(b)
		switch id.field {
		case FieldFlags:
			p.Flags = v
		case FieldSequence:
			p.Sequence = v
		case FieldDestinationTag:
			p.DestinationTag, p.HasDestinationTag = v, true
		case FieldLastLedgerSequence:
			p.LastLedgerSequence = v
		default:
			return 0, ErrUnknownField
		}
		return 4, nil

	case TypeAmount:
		if len(b) < 8 {
			return 0, ErrTruncated
		}
		v := binary.BigEndian.Uint64(b)
		if v&amountNotNative != 0 {
			return 0, ErrIssuedCurrency
		}
		if v&amountPositive == 0 {
			return 0, ErrNegativeAmount
		}
		switch id.field {
		case FieldAmount:
			p.Amount = v & amountMask
		case FieldFee:
			p.Fee = v & amountMask
		default:
			return 0, ErrUnknownField
		}
		return 8, nil

	case TypeBlob:
		data, n, err := lengthPrefixed(b)
		if err != nil {
			return 0, err
		}
		if len(data) == 0 {
			return 0, ErrEmptyBlob
		}
		if id.field != FieldSigningPubKey {
			return 0, ErrUnknownField
		}
		p.SigningPubKey = data
		return n, nil

	case TypeAccount:
		data, n, err := lengthPrefixed(b)
		if err != nil {
			return 0, err
		}
		if len(data) != AccountIDSize {
			return 0, fmt.Errorf("%w: got %d", ErrAccountLength, len(data))
		}
		switch id.field {
		case FieldAccount:
			copy(p.Account[:], data)
		case FieldDestination:
			copy(p.Destination[:], data)
		default:
			return 0, ErrUnknownField
		}
		return n, nil
	}
	return 0, ErrUnknownField
}

// lengthPrefixed returns the payload after the length prefix and the total
// size consumed.
func lengthPrefixed(b []byte) ([]byte, int, error) {
	length, n, err := wire.XRPLength(b)
	if err != nil {
		return nil, 0, err
	}
	end := n + int(length)
	if end > len(b) {
		return nil, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, length, len(b)-n)
	}
	return b[n:end], end, nil
}
