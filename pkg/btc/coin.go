package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

// Coin holds what differs between the Bitcoin-family networks sharing the
// transaction format.
type Coin struct {
	ID       signing.ChainID
	Name     string
	Symbol   string
	CoinType uint32

	P2PKHVersion byte
	P2SHVersion  byte

	// Bech32HRP is empty for coins without segwit.
	Bech32HRP string

	// XPubVersion prefixes serialized account public keys.
	XPubVersion [4]byte
}

func coinFromParams(id signing.ChainID, name, symbol string, p *chaincfg.Params) Coin {
	return Coin{
		ID:           id,
		Name:         name,
		Symbol:       symbol,
		CoinType:     p.HDCoinType,
		P2PKHVersion: p.PubKeyHashAddrID,
		P2SHVersion:  p.ScriptHashAddrID,
		Bech32HRP:    p.Bech32HRPSegwit,
		XPubVersion:  p.HDPublicKeyID,
	}
}

var (
	Bitcoin = coinFromParams(signing.ChainBTC, "Bitcoin", "BTC", &chaincfg.MainNetParams)

	Litecoin = Coin{
		ID:           signing.ChainLTC,
		Name:         "Litecoin",
		Symbol:       "LTC",
		CoinType:     2,
		P2PKHVersion: 0x30,
		P2SHVersion:  0x32,
		Bech32HRP:    "ltc",
		XPubVersion:  [4]byte{0x01, 0x9d, 0xa4, 0x62},
	}

	Dogecoin = Coin{
		ID:           signing.ChainDOGE,
		Name:         "Dogecoin",
		Symbol:       "DOGE",
		CoinType:     3,
		P2PKHVersion: 0x1e,
		P2SHVersion:  0x16,
		XPubVersion:  [4]byte{0x02, 0xfa, 0xca, 0xfd},
	}
)

// Coins lists every supported Bitcoin-family network.
func Coins() []Coin { return []Coin{Bitcoin, Litecoin, Dogecoin} }

// Segwit reports whether the coin has witness outputs.
func (c Coin) Segwit() bool { return c.Bech32HRP != "" }

// FormatAmount renders base units with eight decimals and the coin symbol.
func (c Coin) FormatAmount(units uint64) string {
	return fmt.Sprintf("%d.%08d %s", units/1e8, units%1e8, c.Symbol)
}

// Address renders the mainnet address of a locking script.
func (c Coin) Address(script []byte) (string, error) {
	switch t := ClassifyScript(script); t {
	case ScriptP2PKH:
		return crypto.Base58Check(c.P2PKHVersion, script[3:23]), nil
	case ScriptP2SH:
		return crypto.Base58Check(c.P2SHVersion, script[2:22]), nil
	case ScriptP2WPKH, ScriptP2WSH, ScriptP2TR, ScriptUnknownSegwit:
		if !c.Segwit() {
			return "", fmt.Errorf("%w: %s on %s", ErrNoAddress, t, c.Name)
		}
		return c.segwitAddress(script)
	default:
		return "", fmt.Errorf("%w: %s", ErrNoAddress, t)
	}
}

func (c Coin) segwitAddress(script []byte) (string, error) {
	version := byte(0)
	if script[0] != opFalse {
		version = script[0] - 0x50
	}
	program, err := bech32.ConvertBits(script[2:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("converting witness program: %w", err)
	}
	data := append([]byte{version}, program...)
	if version == 0 {
		return bech32.Encode(c.Bech32HRP, data)
	}
	return bech32.EncodeM(c.Bech32HRP, data)
}

// purposes lists the account purposes the coin accepts.
func (c Coin) purposes() []uint32 {
	if !c.Segwit() {
		return []uint32{PurposeLegacy}
	}
	return []uint32{PurposeLegacy, PurposeNestedSegwit, PurposeNativeSegwit}
}
