package btc

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// MsgTx converts txn into the btcd form consumed by txscript. Scripts are
// shared with txn.
func (txn *UnsignedTxn) MsgTx() *wire.MsgTx {
	tx := wire.NewMsgTx(int32(txn.Version))
	for _, in := range txn.Inputs {
		hash := chainhash.Hash(in.PrevTxnHash)
		txIn := wire.NewTxIn(wire.NewOutPoint(&hash, in.PrevIndex), nil, nil)
		txIn.Sequence = in.Sequence
		tx.AddTxIn(txIn)
	}
	for _, out := range txn.Outputs {
		tx.AddTxOut(wire.NewTxOut(int64(out.Value), out.ScriptPubKey))
	}
	tx.LockTime = txn.LockTime
	return tx
}

// LegacySigHash computes the pre-segwit SIGHASH_ALL digest of input idx.
// scriptCode replaces the scriptSig of the signed input; every other input
// gets an empty script.
func LegacySigHash(txn *UnsignedTxn, idx int, scriptCode []byte) ([32]byte, error) {
	var out [32]byte
	sum, err := txscript.CalcSignatureHash(scriptCode, txscript.SigHashAll, txn.MsgTx(), idx)
	if err != nil {
		return out, err
	}
	copy(out[:], sum)
	return out, nil
}

// WitnessSigHash computes the BIP143 SIGHASH_ALL digest of input idx
// spending a P2WPKH output of the given value.
func WitnessSigHash(txn *UnsignedTxn, idx int, keyHash []byte, value uint64) ([32]byte, error) {
	var out [32]byte
	program := append([]byte{opFalse, 0x14}, keyHash...)

	tx := txn.MsgTx()
	fetcher := txscript.NewCannedPrevOutputFetcher(program, int64(value))
	sum, err := txscript.CalcWitnessSigHash(program, txscript.NewTxSigHashes(tx, fetcher),
		txscript.SigHashAll, tx, idx, int64(value))
	if err != nil {
		return out, err
	}
	copy(out[:], sum)
	return out, nil
}
