package evm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

const (
	Purpose  = 44
	CoinType = 60

	// NativeDecimals is the precision of the native unit (wei per ether).
	NativeDecimals = 18
)

var (
	ErrInvalidPath    = errors.New("evm: invalid derivation path")
	ErrMissingChainID = errors.New("evm: initiate carries no chain id")
	ErrChainMismatch  = errors.New("evm: payload is bound to another chain")
)

// Kind classifies what a transaction does.
type Kind int

const (
	KindTransfer Kind = iota
	KindTokenTransfer
	KindBlind
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindTokenTransfer:
		return "token_transfer"
	default:
		return "blind"
	}
}

// Config is the EVM policy.
type Config struct {
	// Name and Symbol describe the network, "Ethereum" and "ETH" when empty.
	Name   string
	Symbol string

	Tokens []Token
}

// Chain is the EVM variant of signing.Chain.
type Chain struct {
	name, symbol string
	whitelist    Whitelist
}

// NewChain creates the EVM chain. A nil token list selects DefaultTokens.
func NewChain(cfg Config) *Chain {
	c := &Chain{name: cfg.Name, symbol: cfg.Symbol}
	if c.name == "" {
		c.name = "Ethereum"
	}
	if c.symbol == "" {
		c.symbol = "ETH"
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = DefaultTokens()
	}
	c.whitelist = NewWhitelist(tokens)
	return c
}

func (c *Chain) ID() signing.ChainID { return signing.ChainEVM }
func (c *Chain) Name() string        { return c.name }

// CheckPath accepts the three common layouts:
//
//	m/44'/60'/0'/i      legacy
//	m/44'/60'/i'/0/0    bip44 account
//	m/44'/60'/0'/0/i    address index
func (c *Chain) CheckPath(path []uint32) error {
	if len(path) < 2 || path[0] != crypto.Hardened(Purpose) || path[1] != crypto.Hardened(CoinType) {
		return fmt.Errorf("%w: %s", ErrInvalidPath, crypto.FormatPath(path))
	}
	switch len(path) {
	case 4:
		if path[2] == crypto.Hardened(0) && !crypto.IsHardened(path[3]) {
			return nil
		}
	case 5:
		if crypto.IsHardened(path[2]) && path[3] == 0 && path[4] == 0 {
			return nil
		}
		if path[2] == crypto.Hardened(0) && path[3] == 0 && !crypto.IsHardened(path[4]) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidPath, crypto.FormatPath(path))
}

func (c *Chain) Parse(init *signing.InitiateRequest, raw []byte) (signing.Transaction, error) {
	if init.EVM == nil || init.EVM.ChainID == 0 {
		return nil, ErrMissingChainID
	}
	p, err := DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	if !p.ChainID.IsUint64() || p.ChainID.Uint64() != init.EVM.ChainID {
		return nil, fmt.Errorf("%w: payload %s, initiate %d", ErrChainMismatch, p.ChainID, init.EVM.ChainID)
	}

	t := &Txn{Payload: p, chain: c, raw: raw, path: init.Path, kind: KindBlind}
	data := p.Tx.Data()
	switch {
	case len(data) == 0:
		t.kind = KindTransfer
	case IsTokenTransfer(data):
		transfer, err := DecodeTokenTransfer(data)
		if err != nil {
			return nil, err
		}
		if p.Tx.Value().Sign() != 0 {
			return nil, ErrTokenValue
		}
		t.kind, t.transfer = KindTokenTransfer, transfer
		if tok, ok := c.whitelist[*p.Tx.To()]; ok {
			t.token = &tok
		}
	}
	return t, nil
}

// Txn is a decoded EVM transaction.
type Txn struct {
	*Payload

	chain    *Chain
	raw      []byte
	path     []uint32
	kind     Kind
	transfer *TokenTransfer
	token    *Token
}

// Kind returns the classification of the transaction.
func (t *Txn) Kind() Kind { return t.kind }

func (t *Txn) native(v *big.Int) string {
	return FormatUnits(v, NativeDecimals) + " " + t.chain.symbol
}

func (t *Txn) Review() []signing.ReviewItem {
	to := t.Tx.To().Hex()
	fee := signing.ReviewItem{Title: "Fee", Body: t.native(t.MaxFee())}

	switch t.kind {
	case KindTransfer:
		return []signing.ReviewItem{
			{Title: "Send " + t.chain.symbol, Body: "on " + t.chain.name},
			{Title: "Verify address", Body: to},
			{Title: "Verify amount", Body: t.native(t.Tx.Value())},
			fee,
		}

	case KindTokenTransfer:
		var items []signing.ReviewItem
		amount := t.transfer.Amount.String() + " units"
		if t.token != nil {
			items = append(items, signing.ReviewItem{Title: "Send " + t.token.Symbol, Body: "on " + t.chain.name})
			amount = FormatUnits(t.transfer.Amount, t.token.Decimals) + " " + t.token.Symbol
		} else {
			items = append(items,
				signing.ReviewItem{Title: "Unverified contract", Body: "The token contract is not whitelisted. Continue?", Warning: true},
				signing.ReviewItem{Title: "Verify contract", Body: to},
			)
		}
		return append(items,
			signing.ReviewItem{Title: "Verify address", Body: t.transfer.Recipient.Hex()},
			signing.ReviewItem{Title: "Verify amount", Body: amount},
			fee,
		)
	}

	return []signing.ReviewItem{
		{Title: "Blind signing", Body: "The transaction data cannot be decoded. Continue?", Warning: true},
		{Title: "Verify derivation path", Body: crypto.FormatPath(t.path)},
		{Title: "Verify contract", Body: to},
		{Title: "Verify amount", Body: t.native(t.Tx.Value())},
		fee,
	}
}

// SigningJobs returns one recoverable signature over Keccak-256 of the
// payload.
func (t *Txn) SigningJobs(init *signing.InitiateRequest) ([]signing.Job, error) {
	return []signing.Job{{
		Path:     init.Path,
		Encoding: crypto.EncodingRecoverable,
		Digest: func(*crypto.PublicKey) ([]byte, error) {
			return gethcrypto.Keccak256(t.raw), nil
		},
	}}, nil
}

// SignerAddress returns the account address controlled by pub.
func SignerAddress(pub *crypto.PublicKey) (common.Address, error) {
	key, err := btcec.ParsePubKey(pub.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("parsing public key: %w", err)
	}
	return gethcrypto.PubkeyToAddress(*key.ToECDSA()), nil
}
