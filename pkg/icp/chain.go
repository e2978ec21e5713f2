package icp

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

const (
	Purpose  = 44
	CoinType = 223
)

var (
	ErrInvalidPath     = errors.New("icp: invalid derivation path")
	ErrMissingEnvelope = errors.New("icp: initiate carries no ingress expiry")
)

// Chain is the ICP variant of signing.Chain.
type Chain struct{}

// NewChain creates the ICP chain.
func NewChain() *Chain { return &Chain{} }

func (c *Chain) ID() signing.ChainID { return signing.ChainICP }
func (c *Chain) Name() string        { return "ICP" }

// CheckPath accepts m/44'/223'/0'/0/i only.
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

// Parse decodes the candid TransferArgs in raw. The envelope fields come
// from the initiate request.
func (c *Chain) Parse(init *signing.InitiateRequest, raw []byte) (signing.Transaction, error) {
	if init.ICP == nil || init.ICP.IngressExpiry == 0 {
		return nil, ErrMissingEnvelope
	}
	args, err := ParseTransferArgs(raw)
	if err != nil {
		return nil, err
	}
	return &Txn{
		TransferArgs: args,
		expiry:       init.ICP.IngressExpiry,
		nonce:        init.ICP.Nonce,
		arg:          raw,
	}, nil
}

// Txn is a decoded transfer bound to its ingress envelope.
type Txn struct {
	*TransferArgs

	expiry uint64
	nonce  []byte
	arg    []byte
}

func (t *Txn) Review() []signing.ReviewItem {
	return []signing.ReviewItem{
		{Title: "Verify account ID", Body: hex.EncodeToString(t.To[:])},
		{Title: "Verify amount", Body: FormatE8s(t.Amount)},
		{Title: "Verify fee", Body: FormatE8s(t.Fee)},
		{Title: "Verify memo", Body: fmt.Sprintf("%d", t.Memo)},
	}
}

// Call returns the transfer call sent by the owner of pub.
func (t *Txn) Call(pub *crypto.PublicKey) *CallRequest {
	return &CallRequest{
		CanisterID:    LedgerCanisterID,
		MethodName:    MethodTransfer,
		Sender:        SelfAuthenticating(pub),
		IngressExpiry: t.expiry,
		Nonce:         t.nonce,
		Arg:           t.arg,
	}
}

// SigningJobs returns two raw signatures: the transfer call and the
// read_state request the host polls its status with.
func (t *Txn) SigningJobs(init *signing.InitiateRequest) ([]signing.Job, error) {
	call := signing.Job{
		Path:     init.Path,
		Encoding: crypto.EncodingRaw,
		Digest: func(pub *crypto.PublicKey) ([]byte, error) {
			sum := SigningDigest(t.Call(pub).ID())
			return sum[:], nil
		},
	}
	readState := signing.Job{
		Path:     init.Path,
		Encoding: crypto.EncodingRaw,
		Digest: func(pub *crypto.PublicKey) ([]byte, error) {
			req := t.Call(pub)
			sum := SigningDigest(ReadStateID(req.ID(), req.Sender, t.expiry))
			return sum[:], nil
		},
	}
	return []signing.Job{call, readState}, nil
}

// FormatE8s renders e8s as ICP with eight decimals.
func FormatE8s(e8s uint64) string {
	return fmt.Sprintf("%d.%08d ICP", e8s/1e8, e8s%1e8)
}
