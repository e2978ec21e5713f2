package xrp

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/signcore/pkg/wire"
)

const (
	genesisAccount = "b5f762798a53d543a014caf8b297cff8f2f937e8"
	otherAccount   = "0102030405060708090a0b0c0d0e0f1011121314"
)

// payment builds a prefixed payment from hex field encodings, in order.
func payment(t *testing.T, fields ...string) []byte {
	t.Helper()
	raw, err := hex.DecodeString("53545800" + strings.Join(fields, ""))
	require.NoError(t, err)
	return raw
}

var (
	fType        = "120000"
	fFlags       = "2280000000"
	fSequence    = "2400000001"
	fDestTag     = "2e0000007b"
	fLastLedger  = "201b00bc614e"
	fAmount      = "614000000000989680"
	fFee         = "68400000000000000c"
	fAccount     = "8114" + genesisAccount
	fDestination = "8314" + otherAccount
)

func TestParsePayment(t *testing.T) {
	raw := payment(t, fType, fFlags, fSequence, fDestTag, fLastLedger, fAmount, fFee, fAccount, fDestination)

	p, err := ParsePayment(raw)
	require.NoError(t, err)

	assert.Equal(t, uint16(TransactionPayment), p.TransactionType)
	assert.Equal(t, uint32(0x80000000), p.Flags)
	assert.Equal(t, uint32(1), p.Sequence)
	assert.True(t, p.HasDestinationTag)
	assert.Equal(t, uint32(123), p.DestinationTag)
	assert.Equal(t, uint32(12345678), p.LastLedgerSequence)
	assert.Equal(t, uint64(10000000), p.Amount)
	assert.Equal(t, uint64(12), p.Fee)
	assert.Equal(t, genesisAccount, hex.EncodeToString(p.Account[:]))
	assert.Equal(t, otherAccount, hex.EncodeToString(p.Destination[:]))
	assert.Nil(t, p.SigningPubKey)
}

func TestParsePayment_LongBlob(t *testing.T) {
	// 200 bytes needs the two-byte length form
	blob := "73c107" + strings.Repeat("ab", 200)
	p, err := ParsePayment(payment(t, fType, fAmount, fFee, blob, fAccount, fDestination))
	require.NoError(t, err)
	assert.Len(t, p.SigningPubKey, 200)
	assert.False(t, p.HasDestinationTag)
}

func TestParsePayment_AmountKeepsLowBits(t *testing.T) {
	// every bit below the sign bit belongs to the amount
	p, err := ParsePayment(payment(t, fType, "615000000000000001", fFee, fAccount, fDestination))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<60|1), p.Amount)
}

func TestParsePayment_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		fields []string
		want   error
	}{
		{"no prefix", "120000", nil, ErrMissingPrefix},
		{"unknown int32 field", "", []string{fType, "2501020304", fAmount, fFee, fAccount, fDestination}, ErrUnknownField},
		{"unknown type", "", []string{fType, "5101", fAmount}, ErrUnknownField},
		{"duplicate", "", []string{fType, fAmount, fAmount, fFee, fAccount, fDestination}, ErrDuplicateField},
		{"issued currency", "", []string{fType, "61d4838d7ea4c68000", fFee, fAccount, fDestination}, ErrIssuedCurrency},
		{"negative", "", []string{fType, "610000000000989680", fFee, fAccount, fDestination}, ErrNegativeAmount},
		{"short account", "", []string{fType, fAmount, fFee, "8113" + otherAccount[:38], fDestination}, ErrAccountLength},
		{"empty blob", "", []string{fType, fAmount, fFee, "7300", fAccount, fDestination}, ErrEmptyBlob},
		{"truncated amount", "", []string{fType, "6140000000"}, ErrTruncated},
		{"truncated account", "", []string{fType, fAmount, fFee, "8114" + otherAccount[:20]}, ErrTruncated},
		{"bad length prefix", "", []string{fType, "73ff"}, wire.ErrInvalidLength},
		{"truncated header", "", []string{fType, "00"}, wire.ErrTruncated},
		{"missing destination", "", []string{fType, fAmount, fFee, fAccount}, ErrMissingRequired},
		{"not a payment", "", []string{"120003", fAmount, fFee, fAccount, fDestination}, ErrNotPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []byte
			if tt.fields == nil {
				raw, _ = hex.DecodeString(tt.raw)
			} else {
				raw = payment(t, tt.fields...)
			}
			_, err := ParsePayment(raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
