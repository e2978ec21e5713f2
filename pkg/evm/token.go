package evm

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TransferSelector is the ERC-20 transfer(address,uint256) selector.
var TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

const (
	selectorSize = 4
	wordSize     = 32
)

var (
	ErrTokenTransfer = errors.New("evm: malformed token transfer")
	ErrTokenValue    = errors.New("evm: token transfer must not move native value")
)

// Token is a whitelisted ERC-20 contract.
type Token struct {
	Address  common.Address `yaml:"address"`
	Symbol   string         `yaml:"symbol"`
	Decimals uint8          `yaml:"decimals"`
}

// DefaultTokens is the built-in Ethereum mainnet whitelist.
func DefaultTokens() []Token {
	return []Token{
		{Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Symbol: "USDT", Decimals: 6},
		{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6},
		{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Symbol: "DAI", Decimals: 18},
	}
}

// Whitelist maps contract addresses to token metadata.
type Whitelist map[common.Address]Token

// NewWhitelist indexes tokens by address.
func NewWhitelist(tokens []Token) Whitelist {
	w := make(Whitelist, len(tokens))
	for _, t := range tokens {
		w[t.Address] = t
	}
	return w
}

// TokenTransfer is a decoded transfer(address,uint256) call.
type TokenTransfer struct {
	Recipient common.Address
	Amount    *big.Int
}

// IsTokenTransfer reports whether data starts with the transfer selector.
func IsTokenTransfer(data []byte) bool {
	return bytes.HasPrefix(data, TransferSelector)
}

// DecodeTokenTransfer decodes the ABI arguments of a transfer call. The
// address word must be left padded with zeros.
func DecodeTokenTransfer(data []byte) (*TokenTransfer, error) {
	if !IsTokenTransfer(data) {
		return nil, fmt.Errorf("%w: selector", ErrTokenTransfer)
	}
	args := data[selectorSize:]
	if len(args) != 2*wordSize {
		return nil, fmt.Errorf("%w: %d argument bytes", ErrTokenTransfer, len(args))
	}
	addr := args[:wordSize]
	if !bytes.Equal(addr[:wordSize-common.AddressLength], make([]byte, wordSize-common.AddressLength)) {
		return nil, fmt.Errorf("%w: dirty address word", ErrTokenTransfer)
	}
	return &TokenTransfer{
		Recipient: common.BytesToAddress(addr),
		Amount:    new(big.Int).SetBytes(args[wordSize:]),
	}, nil
}

// FormatUnits renders v scaled down by decimals, without trailing zeros.
func FormatUnits(v *big.Int, decimals uint8) string {
	s := v.String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
