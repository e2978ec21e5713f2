package btc

import (
	"errors"
	"fmt"
)

// ExpectedScriptSigSize is the size assumed for one P2PKH scriptSig or one
// P2WPKH witness when estimating the signed weight.
const ExpectedScriptSigSize = 106

// DefaultMaxFeeRate is the fee rate, in satoshi per 1000 virtual bytes,
// above which the user must confirm an extra warning.
const DefaultMaxFeeRate = 2_000_000

var ErrOverspend = errors.New("btc: outputs exceed inputs")

// Fee returns inputs minus the outputs of txn.
func Fee(txn *UnsignedTxn, inputs uint64) (uint64, error) {
	outputs, ok := txn.OutputTotal()
	if !ok {
		return 0, fmt.Errorf("%w: output total overflows", ErrOverspend)
	}
	if outputs > inputs {
		return 0, fmt.Errorf("%w: %d > %d", ErrOverspend, outputs, inputs)
	}
	return inputs - outputs, nil
}

// Weight estimates the weight of txn once signed. spent holds the locking
// script of the output each input spends; an input spending a witness
// program contributes a witness instead of a scriptSig.
func Weight(txn *UnsignedTxn, spent [][]byte) uint64 {
	var base uint64 = 4 + 1 // version, input count
	var segwit uint64

	for i := range txn.Inputs {
		base += 32 + 4 + 1 + 4
		if i < len(spent) && len(spent[i]) > 0 && spent[i][0] == opFalse {
			segwit++
		} else {
			base += ExpectedScriptSigSize
		}
	}

	base++ // output count
	for _, out := range txn.Outputs {
		base += 8 + 1 + uint64(len(out.ScriptPubKey))
	}
	base += 4 // lock time

	weight := base * 4
	if segwit > 0 {
		// marker, flag and one witness per segwit input
		weight += 2 + ExpectedScriptSigSize*segwit
	}
	return weight
}

// FeeThreshold is the largest fee accepted without a warning for a
// transaction of the given weight at maxFeeRate satoshi per kvB.
func FeeThreshold(maxFeeRate, weight uint64) uint64 {
	if maxFeeRate == 0 {
		maxFeeRate = DefaultMaxFeeRate
	}
	return (maxFeeRate / 1000) * (weight / 4)
}
