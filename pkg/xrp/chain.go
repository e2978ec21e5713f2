package xrp

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

const (
	Purpose  = 44
	CoinType = 144
)

// AccountVersion prefixes an account id before base58check encoding.
const AccountVersion = 0x00

var (
	ErrInvalidPath = errors.New("xrp: invalid derivation path")
	ErrSigningKey  = errors.New("xrp: SigningPubKey does not match the derived key")
)

// Chain is the XRP variant of signing.Chain.
type Chain struct{}

// NewChain creates the XRP chain.
func NewChain() *Chain { return &Chain{} }

func (c *Chain) ID() signing.ChainID { return signing.ChainXRP }
func (c *Chain) Name() string        { return "XRP" }

// CheckPath accepts m/44'/144'/0'/0/i only.
func (c *Chain) CheckPath(path []uint32) error {
	if len(path) != 5 {
		return fmt.Errorf("%w: depth %d", ErrInvalidPath, len(path))
	}
	ok := path[0] == crypto.Hardened(Purpose) &&
		path[1] == crypto.Hardened(CoinType) &&
		path[2] == crypto.Hardened(0) &&
		path[3] == 0 &&
		!crypto.IsHardened(path[4])
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidPath, crypto.FormatPath(path))
	}
	return nil
}

func (c *Chain) Parse(_ *signing.InitiateRequest, raw []byte) (signing.Transaction, error) {
	p, err := ParsePayment(raw)
	if err != nil {
		return nil, err
	}
	return &Txn{Payment: p, raw: raw}, nil
}

// Txn is a parsed payment together with the bytes it was decoded from.
type Txn struct {
	*Payment
	raw []byte
}

func (t *Txn) Review() []signing.ReviewItem {
	items := []signing.ReviewItem{
		{Title: "Verify address", Body: AccountAddress(t.Destination)},
		{Title: "Verify amount", Body: FormatDrops(t.Amount)},
	}
	if t.HasDestinationTag {
		items = append(items, signing.ReviewItem{Title: "Verify destination tag", Body: fmt.Sprintf("%d", t.DestinationTag)})
	}
	return append(items, signing.ReviewItem{Title: "Fee", Body: FormatDrops(t.Fee)})
}

// SigningJobs returns one DER signature over SHA-512Half of the prefixed
// payload.
func (t *Txn) SigningJobs(init *signing.InitiateRequest) ([]signing.Job, error) {
	return []signing.Job{{
		Path:     init.Path,
		Encoding: crypto.EncodingDER,
		Digest: func(pub *crypto.PublicKey) ([]byte, error) {
			if len(t.SigningPubKey) > 0 && !bytes.Equal(t.SigningPubKey, pub.Bytes()) {
				return nil, signing.InvalidData(ErrSigningKey)
			}
			sum := crypto.SHA512Half(t.raw)
			return sum[:], nil
		},
	}}, nil
}

// AccountAddress renders an account id as a classic address.
func AccountAddress(id [AccountIDSize]byte) string {
	return crypto.XRPBase58Check(AccountVersion, id[:])
}

// FormatDrops renders drops as XRP with six decimals.
func FormatDrops(drops uint64) string {
	return fmt.Sprintf("%d.%06d XRP", drops/1e6, drops%1e6)
}
