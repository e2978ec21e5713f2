package btc

import (
	"bytes"
	"context"

	"github.com/suffix-labs/signcore/pkg/bytestream"
	"github.com/suffix-labs/signcore/pkg/crypto"
)

func testSeed() []byte {
	seed := make([]byte, crypto.SeedSize)
	for i := range seed {
		seed[i] = byte(3*i + 1)
	}
	return seed
}

func p2wpkhScript(keyHash []byte) []byte {
	return append([]byte{0x00, 0x14}, keyHash...)
}

func p2shP2wpkhScript(keyHash []byte) []byte {
	redeem := crypto.Hash160(p2wpkhScript(keyHash))
	return append(append([]byte{opHash160, 0x14}, redeem...), opEqual)
}

// serialize writes txn in legacy form with the given scriptSigs.
func serialize(txn *UnsignedTxn, scriptSigs [][]byte) []byte {
	tx := txn.MsgTx()
	for i, sig := range scriptSigs {
		tx.TxIn[i].SignatureScript = sig
	}
	var buf bytes.Buffer
	if err := tx.SerializeNoWitness(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// fundingTxn builds a prior transaction paying outputs and returns it with
// its id in serialization order.
func fundingTxn(outputs ...TxOut) ([]byte, [32]byte) {
	txn := &UnsignedTxn{
		Version:  2,
		Inputs:   []TxIn{{PrevIndex: 0xffffffff, Sequence: 0xffffffff}},
		Outputs:  outputs,
		LockTime: 0,
	}
	raw := serialize(txn, [][]byte{{0x51}})
	return raw, crypto.DoubleSHA256(raw)
}

type sliceFetcher struct {
	refs   [][]byte
	window int
}

func (f sliceFetcher) Fetch(_ context.Context, index int, consume func(*bytestream.Stream) error) error {
	return consume(bytestream.NewSliceSource(f.refs[index], f.window).Stream())
}
