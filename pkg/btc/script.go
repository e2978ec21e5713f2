package btc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/crypto"
)

// ScriptType classifies a locking script.
type ScriptType int

const (
	ScriptNonStandard ScriptType = iota
	ScriptP2PK
	ScriptP2PKH
	ScriptP2SH
	ScriptP2WPKH
	ScriptP2WSH
	ScriptP2TR
	ScriptUnknownSegwit
	ScriptP2MS
	ScriptNullData
)

var scriptTypeNames = [...]string{
	ScriptNonStandard:   "nonstandard",
	ScriptP2PK:          "p2pk",
	ScriptP2PKH:         "p2pkh",
	ScriptP2SH:          "p2sh",
	ScriptP2WPKH:        "p2wpkh",
	ScriptP2WSH:         "p2wsh",
	ScriptP2TR:          "p2tr",
	ScriptUnknownSegwit: "unknown_segwit",
	ScriptP2MS:          "p2ms",
	ScriptNullData:      "null_data",
}

func (t ScriptType) String() string {
	if int(t) < len(scriptTypeNames) {
		return scriptTypeNames[t]
	}
	return fmt.Sprintf("script(%d)", int(t))
}

// Opcodes used by the standard templates.
const (
	opFalse         = 0x00
	op1             = 0x51
	op16            = 0x60
	opReturn        = 0x6a
	opDup           = 0x76
	opEqual         = 0x87
	opEqualVerify   = 0x88
	opHash160       = 0xa9
	opCheckSig      = 0xac
	opCheckMultiSig = 0xae
)

const (
	compressedKeySize   = 33
	uncompressedKeySize = 65
	maxNullDataSize     = 83
)

var ErrNoAddress = errors.New("btc: script has no address form")

// ClassifyScript returns the template script matches.
func ClassifyScript(script []byte) ScriptType {
	n := len(script)
	switch {
	case isP2PK(script):
		return ScriptP2PK
	case n == 25 && script[0] == opDup && script[1] == opHash160 && script[2] == 0x14 &&
		script[23] == opEqualVerify && script[24] == opCheckSig:
		return ScriptP2PKH
	case n == 23 && script[0] == opHash160 && script[1] == 0x14 && script[22] == opEqual:
		return ScriptP2SH
	case n == 22 && script[0] == opFalse && script[1] == 0x14:
		return ScriptP2WPKH
	case n == 34 && script[0] == opFalse && script[1] == 0x20:
		return ScriptP2WSH
	case n == 34 && script[0] == op1 && script[1] == 0x20:
		return ScriptP2TR
	case n >= 4 && n <= 42 && (script[0] == opFalse || (script[0] >= op1 && script[0] <= op16)) &&
		n == 2+int(script[1]):
		// future witness versions, BIP141
		return ScriptUnknownSegwit
	case n >= 1 && script[n-1] == opCheckMultiSig:
		return ScriptP2MS
	case n >= 1 && n <= maxNullDataSize && script[0] == opReturn:
		return ScriptNullData
	default:
		return ScriptNonStandard
	}
}

func isP2PK(script []byte) bool {
	for _, size := range []int{uncompressedKeySize, compressedKeySize} {
		if len(script) == size+2 && int(script[0]) == size && script[size+1] == opCheckSig {
			return true
		}
	}
	return false
}

// ScriptKeyHash returns the key hash a P2PKH or P2WPKH script pays to.
func ScriptKeyHash(script []byte) ([]byte, bool) {
	switch ClassifyScript(script) {
	case ScriptP2PKH:
		return script[3:23], true
	case ScriptP2WPKH:
		return script[2:22], true
	default:
		return nil, false
	}
}

// CheckScriptKey reports whether script pays to the compressed public key
// pub. P2PKH, P2WPKH and P2SH wrapping P2WPKH are recognised.
func CheckScriptKey(script []byte, pub *crypto.PublicKey) bool {
	keyHash := crypto.Hash160(pub.Bytes())

	switch ClassifyScript(script) {
	case ScriptP2PKH:
		return bytes.Equal(script[3:23], keyHash)
	case ScriptP2WPKH:
		return bytes.Equal(script[2:22], keyHash)
	case ScriptP2SH:
		redeem := append([]byte{opFalse, 0x14}, keyHash...)
		return bytes.Equal(script[2:22], crypto.Hash160(redeem))
	default:
		return false
	}
}

// P2PKHScript builds the locking script paying to keyHash.
func P2PKHScript(keyHash []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, 0x14)
	script = append(script, keyHash...)
	return append(script, opEqualVerify, opCheckSig)
}

// ScriptSig builds the unlocking script of a P2PKH spend from a DER
// signature already carrying its sighash byte.
func ScriptSig(derWithHashType []byte, pub *crypto.PublicKey) []byte {
	key := pub.Bytes()
	out := make([]byte, 0, 2+len(derWithHashType)+len(key))
	out = append(out, byte(len(derWithHashType)))
	out = append(out, derWithHashType...)
	out = append(out, byte(len(key)))
	return append(out, key...)
}
