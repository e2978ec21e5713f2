package btc

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/bytestream"
	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

var (
	ErrMissingInitiate   = errors.New("btc: initiate carries no input descriptors")
	ErrInputCount        = errors.New("btc: descriptor count differs from input count")
	ErrInputMismatch     = errors.New("btc: descriptor does not match the spent outpoint")
	ErrUnsupportedInput  = errors.New("btc: only p2pkh and p2wpkh inputs can be spent")
	ErrUnsupportedOutput = errors.New("btc: output type cannot be verified")
	ErrZeroValueTxn      = errors.New("btc: every output is zero-valued")
	ErrChangeOutput      = errors.New("btc: invalid change output")
	ErrInputKey          = errors.New("btc: derived key does not own the spent output")
)

// Config is the Bitcoin policy.
type Config struct {
	Limits Limits

	// MaxFeeRate in satoshi per kvB, see FeeThreshold.
	MaxFeeRate uint64

	// SliceSize bounds prior transaction streaming, see Validator.
	SliceSize int
}

// Chain is the Bitcoin-family variant of signing.Chain. One instance serves
// one coin.
type Chain struct {
	coin Coin
	cfg  Config
}

// NewChain creates the chain of coin.
func NewChain(coin Coin, cfg Config) *Chain {
	return &Chain{coin: coin, cfg: cfg}
}

func (c *Chain) ID() signing.ChainID { return c.coin.ID }
func (c *Chain) Name() string        { return c.coin.Name }

// Coin returns the network parameters of c.
func (c *Chain) Coin() Coin { return c.coin }

// CheckPath accepts account paths only; address levels come with each input.
func (c *Chain) CheckPath(path []uint32) error {
	if len(path) != 3 {
		return fmt.Errorf("%w: want an account path, got depth %d", ErrInvalidPath, len(path))
	}
	return c.coin.CheckAccountPath(path)
}

// CheckKeyPath accepts account and address paths for public key export.
func (c *Chain) CheckKeyPath(path []uint32) error {
	return c.coin.CheckAccountPath(path)
}

// CheckExtendedPath accepts account paths only.
func (c *Chain) CheckExtendedPath(path []uint32) error {
	if len(path) != 3 {
		return fmt.Errorf("%w: extended keys are exported per account", ErrInvalidPath)
	}
	return c.coin.CheckAccountPath(path)
}

// ExtendedKey serializes the account public key at path with the coin's
// version bytes.
func (c *Chain) ExtendedKey(seed []byte, path []uint32) (string, error) {
	return crypto.ExtendedPublicKey(seed, path, c.coin.XPubVersion)
}

// Parse decodes raw and cross-checks it against the initiate descriptors.
func (c *Chain) Parse(init *signing.InitiateRequest, raw []byte) (signing.Transaction, error) {
	if init.BTC == nil || len(init.BTC.Inputs) == 0 {
		return nil, ErrMissingInitiate
	}
	txn, err := ParseUnsignedTxn(raw, c.cfg.Limits)
	if err != nil {
		return nil, err
	}

	descs := init.BTC.Inputs
	if len(descs) != len(txn.Inputs) {
		return nil, fmt.Errorf("%w: %d descriptors, %d inputs", ErrInputCount, len(descs), len(txn.Inputs))
	}

	var inputSum uint64
	spent := make([][]byte, len(descs))
	for i, d := range descs {
		in := txn.Inputs[i]
		if d.PrevTxnHash != in.PrevTxnHash || d.PrevIndex != in.PrevIndex {
			return nil, fmt.Errorf("%w: input %d", ErrInputMismatch, i)
		}
		switch t := ClassifyScript(d.ScriptPubKey); {
		case t == ScriptP2PKH:
		case t == ScriptP2WPKH && c.coin.Segwit():
		default:
			return nil, fmt.Errorf("%w: input %d is %s", ErrUnsupportedInput, i, t)
		}
		if err := CheckAddressLevels(d.ChangeIndex, d.AddressIndex); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		next := inputSum + d.Value
		if next < inputSum {
			return nil, fmt.Errorf("%w: input total overflows", ErrOverspend)
		}
		inputSum = next
		spent[i] = d.ScriptPubKey
	}

	change, changeIndex := -1, uint32(0)
	if ch := init.BTC.Change; ch != nil {
		if int(ch.OutputIndex) >= len(txn.Outputs) || crypto.IsHardened(ch.AddressIndex) {
			return nil, fmt.Errorf("%w: output %d", ErrChangeOutput, ch.OutputIndex)
		}
		switch t := txn.Outputs[ch.OutputIndex].Type; t {
		case ScriptP2PKH, ScriptP2WPKH, ScriptP2SH:
		default:
			return nil, fmt.Errorf("%w: %s", ErrChangeOutput, t)
		}
		change, changeIndex = int(ch.OutputIndex), ch.AddressIndex
	}

	if err := c.checkOutputs(txn.Outputs); err != nil {
		return nil, err
	}

	fee, err := Fee(txn, inputSum)
	if err != nil {
		return nil, err
	}

	return &Txn{
		UnsignedTxn: txn,
		coin:        c.coin,
		inputs:      descs,
		account:     init.Path,
		change:      change,
		changeIndex: changeIndex,
		fee:         fee,
		threshold:   FeeThreshold(c.cfg.MaxFeeRate, Weight(txn, spent)),
		validator:   Validator{SliceSize: c.cfg.SliceSize},
	}, nil
}

// checkOutputs rejects outputs the user cannot meaningfully verify and
// transactions that only burn fees.
func (c *Chain) checkOutputs(outputs []TxOut) error {
	zero := true
	for i, out := range outputs {
		if out.Value != 0 {
			zero = false
		}
		switch out.Type {
		case ScriptP2MS, ScriptP2PK, ScriptNonStandard:
			return fmt.Errorf("%w: output %d is %s", ErrUnsupportedOutput, i, out.Type)
		case ScriptP2WPKH, ScriptP2WSH, ScriptP2TR, ScriptUnknownSegwit:
			if !c.coin.Segwit() {
				return fmt.Errorf("%w: output %d is %s on %s", ErrUnsupportedOutput, i, out.Type, c.coin.Name)
			}
		case ScriptNullData:
			if out.Value != 0 {
				return fmt.Errorf("%w: output %d locks funds in OP_RETURN", ErrUnsupportedOutput, i)
			}
		}
	}
	if zero {
		return ErrZeroValueTxn
	}
	return nil
}

// Txn is a parsed Bitcoin transaction bound to its input descriptors.
type Txn struct {
	*UnsignedTxn
	coin Coin

	inputs      []signing.BTCInput
	account     []uint32
	change      int
	changeIndex uint32
	fee         uint64
	threshold   uint64
	validator   Validator
}

// Fee returns the fee paid by the transaction.
func (t *Txn) Fee() uint64 { return t.fee }

// Review lists every non-change output and the fee. A fee above the
// threshold adds a warning.
func (t *Txn) Review() []signing.ReviewItem {
	var items []signing.ReviewItem
	for i, out := range t.Outputs {
		if i == t.change {
			continue
		}
		title := fmt.Sprintf("Output %d", i+1)
		if out.Type == ScriptNullData {
			items = append(items, signing.ReviewItem{Title: title, Body: fmt.Sprintf("OP_RETURN %d bytes", len(out.ScriptPubKey)-1)})
			continue
		}
		addr, err := t.coin.Address(out.ScriptPubKey)
		if err != nil {
			addr = out.Type.String()
		}
		items = append(items, signing.ReviewItem{Title: title, Body: addr + "\n" + t.coin.FormatAmount(out.Value)})
	}

	items = append(items, signing.ReviewItem{Title: "Fee", Body: t.coin.FormatAmount(t.fee)})
	if t.fee > t.threshold {
		items = append(items, signing.ReviewItem{
			Title:   "High fee",
			Body:    fmt.Sprintf("Fee of %s is higher than usual. Continue?", t.coin.FormatAmount(t.fee)),
			Warning: true,
		})
	}
	return items
}

// VerifyReferences streams the prior transaction of every input and checks
// the claimed outpoint, value and script.
func (t *Txn) VerifyReferences(ctx context.Context, fetch signing.ReferenceFetcher) error {
	for i, d := range t.inputs {
		claim := PrevOutput{
			TxnHash:      d.PrevTxnHash,
			OutputIndex:  d.PrevIndex,
			Value:        d.Value,
			ScriptPubKey: d.ScriptPubKey,
		}
		err := fetch.Fetch(ctx, i, func(s *bytestream.Stream) error {
			return prevTxnError(t.validator.Validate(s, claim))
		})
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}

// prevTxnError attaches the host-facing code of each validation reason.
func prevTxnError(err error) error {
	var code signing.Code
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPrevTxnHashMismatch):
		code = signing.CodePrevTxnHashMismatch
	case errors.Is(err, ErrPrevTxnValueMismatch):
		code = signing.CodePrevTxnValueMismatch
	case errors.Is(err, ErrPrevTxnScriptMismatch):
		code = signing.CodePrevTxnScriptMismatch
	default:
		code = signing.CodePrevTxnReadFailure
	}
	return signing.NewFlowError(signing.KindCorruptData, code, err)
}

// CheckPaths asks for the key of the declared change output.
func (t *Txn) CheckPaths() [][]uint32 {
	if t.change < 0 {
		return nil
	}
	return [][]uint32{AddressPath(t.account, ChangeChain, t.changeIndex)}
}

// CheckKeys verifies that the change output pays back to the wallet.
func (t *Txn) CheckKeys(pubs []*crypto.PublicKey) error {
	if t.change < 0 {
		return nil
	}
	if len(pubs) != 1 {
		return fmt.Errorf("%w: expected one change key, got %d", ErrChangeOutput, len(pubs))
	}
	if !CheckScriptKey(t.Outputs[t.change].ScriptPubKey, pubs[0]) {
		return fmt.Errorf("%w: output %d does not pay to the wallet", ErrChangeOutput, t.change)
	}
	return nil
}

// SigningJobs produces one job per input. Each signature is returned as
// push(DER || 0x01) push(compressed key), which is the P2PKH scriptSig and
// also the two P2WPKH witness items.
func (t *Txn) SigningJobs(init *signing.InitiateRequest) ([]signing.Job, error) {
	jobs := make([]signing.Job, len(t.inputs))
	for i := range t.inputs {
		i := i
		d := t.inputs[i]
		jobs[i] = signing.Job{
			Path:     AddressPath(init.Path, d.ChangeIndex, d.AddressIndex),
			Encoding: crypto.EncodingDERSigHashAll,
			Digest: func(pub *crypto.PublicKey) ([]byte, error) {
				return t.digest(i, d, pub)
			},
			Finish: func(sig []byte, pub *crypto.PublicKey) ([]byte, error) {
				return ScriptSig(sig, pub), nil
			},
		}
	}
	return jobs, nil
}

func (t *Txn) digest(idx int, d signing.BTCInput, pub *crypto.PublicKey) ([]byte, error) {
	keyHash := crypto.Hash160(pub.Bytes())
	owned, ok := ScriptKeyHash(d.ScriptPubKey)
	if !ok {
		return nil, signing.InvalidData(fmt.Errorf("%w: input %d", ErrUnsupportedInput, idx))
	}
	if !bytes.Equal(owned, keyHash) {
		return nil, signing.InvalidData(fmt.Errorf("%w: input %d", ErrInputKey, idx))
	}

	var (
		sum [32]byte
		err error
	)
	if ClassifyScript(d.ScriptPubKey) == ScriptP2WPKH {
		sum, err = WitnessSigHash(t.UnsignedTxn, idx, keyHash, d.Value)
	} else {
		sum, err = LegacySigHash(t.UnsignedTxn, idx, d.ScriptPubKey)
	}
	if err != nil {
		return nil, signing.InvalidData(fmt.Errorf("input %d sighash: %w", idx, err))
	}
	return sum[:], nil
}
