// Package evm decodes unsigned Ethereum-style transactions and signs them.
//
// Two payload shapes are accepted: EIP-155 legacy transactions, which commit
// to the chain id through the trailing (chainId, 0, 0) items, and EIP-1559
// dynamic fee transactions. Contract creation is never signed.
package evm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	ErrEmptyPayload     = errors.New("evm: empty payload")
	ErrUnsupportedType  = errors.New("evm: unsupported transaction type")
	ErrUnprotected      = errors.New("evm: legacy payload is not EIP-155 protected")
	ErrContractCreation = errors.New("evm: contract creation cannot be signed")
	ErrZeroGas          = errors.New("evm: gas limit and price must be non-zero")
)

// legacyPayload is the EIP-155 signing payload of a legacy transaction.
type legacyPayload struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
	R, S     uint64
}

// dynamicFeePayload is the EIP-1559 signing payload without its type byte.
type dynamicFeePayload struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address `rlp:"nil"`
	Value      *big.Int
	Data       []byte
	AccessList types.AccessList
}

// Payload is a decoded unsigned transaction.
type Payload struct {
	Tx      *types.Transaction
	ChainID *big.Int
}

// DecodePayload decodes raw into a transaction. The whole input must be a
// single payload.
func DecodePayload(raw []byte) (*Payload, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}

	var (
		tx      *types.Transaction
		chainID *big.Int
	)
	switch {
	case raw[0] == types.DynamicFeeTxType:
		var p dynamicFeePayload
		if err := rlp.DecodeBytes(raw[1:], &p); err != nil {
			return nil, fmt.Errorf("decoding eip-1559 payload: %w", err)
		}
		if p.To == nil {
			return nil, ErrContractCreation
		}
		if p.Gas == 0 || p.GasFeeCap.Sign() == 0 {
			return nil, ErrZeroGas
		}
		chainID = p.ChainID
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:    p.ChainID,
			Nonce:      p.Nonce,
			GasTipCap:  p.GasTipCap,
			GasFeeCap:  p.GasFeeCap,
			Gas:        p.Gas,
			To:         p.To,
			Value:      p.Value,
			Data:       p.Data,
			AccessList: p.AccessList,
		})

	case raw[0] >= 0xc0:
		var p legacyPayload
		if err := rlp.DecodeBytes(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnprotected, err)
		}
		if p.ChainID.Sign() == 0 || p.R != 0 || p.S != 0 {
			return nil, ErrUnprotected
		}
		if p.To == nil {
			return nil, ErrContractCreation
		}
		if p.Gas == 0 || p.GasPrice.Sign() == 0 {
			return nil, ErrZeroGas
		}
		chainID = p.ChainID
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    p.Nonce,
			GasPrice: p.GasPrice,
			Gas:      p.Gas,
			To:       p.To,
			Value:    p.Value,
			Data:     p.Data,
		})

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedType, raw[0])
	}

	return &Payload{Tx: tx, ChainID: chainID}, nil
}

// MaxFee is the most the transaction can pay for gas.
func (p *Payload) MaxFee() *big.Int {
	return new(big.Int).Mul(p.Tx.GasFeeCap(), new(big.Int).SetUint64(p.Tx.Gas()))
}

// EncodePayload is the inverse of DecodePayload: it builds the unsigned
// payload a host sends for tx on chainID.
func EncodePayload(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	switch tx.Type() {
	case types.LegacyTxType:
		return rlp.EncodeToBytes(&legacyPayload{
			Nonce:    tx.Nonce(),
			GasPrice: tx.GasPrice(),
			Gas:      tx.Gas(),
			To:       tx.To(),
			Value:    tx.Value(),
			Data:     tx.Data(),
			ChainID:  chainID,
		})
	case types.DynamicFeeTxType:
		raw, err := rlp.EncodeToBytes(&dynamicFeePayload{
			ChainID:    chainID,
			Nonce:      tx.Nonce(),
			GasTipCap:  tx.GasTipCap(),
			GasFeeCap:  tx.GasFeeCap(),
			Gas:        tx.Gas(),
			To:         tx.To(),
			Value:      tx.Value(),
			Data:       tx.Data(),
			AccessList: tx.AccessList(),
		})
		if err != nil {
			return nil, err
		}
		return append([]byte{types.DynamicFeeTxType}, raw...), nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedType, tx.Type())
	}
}

// Assemble attaches a recoverable signature to the unsigned payload raw and
// returns the transaction in its network encoding.
func Assemble(raw, sig []byte) ([]byte, error) {
	if len(sig) != gethcrypto.SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", gethcrypto.SignatureLength, len(sig))
	}
	p, err := DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	signed, err := p.Tx.WithSignature(types.LatestSignerForChainID(p.ChainID), sig)
	if err != nil {
		return nil, fmt.Errorf("attaching signature: %w", err)
	}
	return signed.MarshalBinary()
}
