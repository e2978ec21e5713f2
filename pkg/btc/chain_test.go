package btc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

var account = []uint32{crypto.Hardened(84), crypto.Hardened(0), crypto.Hardened(0)}

type keySet struct {
	segwit *crypto.PublicKey // account/0/0
	legacy *crypto.PublicKey // account/0/1
	change *crypto.PublicKey // account/1/3
}

func deriveKeys(t *testing.T) keySet {
	t.Helper()
	pub := func(change, index uint32) *crypto.PublicKey {
		k, err := crypto.DeriveKey(testSeed(), AddressPath(account, change, index))
		require.NoError(t, err)
		return k.PublicKey()
	}
	return keySet{segwit: pub(0, 0), legacy: pub(0, 1), change: pub(1, 3)}
}

// fixture is a two-input spend with one external output, a change output and
// an OP_RETURN.
type fixture struct {
	keys    keySet
	init    *signing.InitiateRequest
	unsign  *UnsignedTxn
	raw     []byte
	prevTxn [][]byte
}

func newFixture(t *testing.T) *fixture {
	keys := deriveKeys(t)
	segwitScript := p2wpkhScript(crypto.Hash160(keys.segwit.Bytes()))
	legacyScript := P2PKHScript(crypto.Hash160(keys.legacy.Bytes()))

	prevA, idA := fundingTxn(
		TxOut{Value: 1234, ScriptPubKey: mustHex(t, p2pkhPrevScript)},
		TxOut{Value: 40000, ScriptPubKey: segwitScript},
	)
	prevB, idB := fundingTxn(TxOut{Value: 30000, ScriptPubKey: legacyScript})

	unsigned := &UnsignedTxn{
		Version: 2,
		Inputs: []TxIn{
			{PrevTxnHash: idA, PrevIndex: 1, Sequence: 0xfffffffd},
			{PrevTxnHash: idB, PrevIndex: 0, Sequence: 0xfffffffd},
		},
		Outputs: []TxOut{
			{Value: 50000, ScriptPubKey: mustHex(t, "512079be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")},
			{Value: 10000, ScriptPubKey: p2shP2wpkhScript(crypto.Hash160(keys.change.Bytes()))},
			{Value: 0, ScriptPubKey: mustHex(t, "6a0568656c6c6f")},
		},
		LockTime: 800000,
	}

	init := &signing.InitiateRequest{
		Chain: signing.ChainBTC,
		Path:  account,
		BTC: &signing.BTCInitiate{
			Inputs: []signing.BTCInput{
				{PrevTxnHash: idA, PrevIndex: 1, Value: 40000, ScriptPubKey: segwitScript, ChangeIndex: 0, AddressIndex: 0},
				{PrevTxnHash: idB, PrevIndex: 0, Value: 30000, ScriptPubKey: legacyScript, ChangeIndex: 0, AddressIndex: 1},
			},
			Change: &signing.BTCChange{OutputIndex: 1, AddressIndex: 3},
		},
	}

	raw := serialize(unsigned, nil)
	init.TxnSize = uint32(len(raw))
	return &fixture{keys: keys, init: init, unsign: unsigned, raw: raw, prevTxn: [][]byte{prevA, prevB}}
}

func (f *fixture) parse(t *testing.T, cfg Config) *Txn {
	t.Helper()
	txn, err := NewChain(Bitcoin, cfg).Parse(f.init, f.raw)
	require.NoError(t, err)
	return txn.(*Txn)
}

func TestChain_Review(t *testing.T) {
	f := newFixture(t)
	txn := f.parse(t, Config{})

	assert.Equal(t, uint64(10000), txn.Fee())
	assert.Equal(t, []signing.ReviewItem{
		{Title: "Output 1", Body: "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0\n0.00050000 BTC"},
		{Title: "Output 3", Body: "OP_RETURN 6 bytes"},
		{Title: "Fee", Body: "0.00010000 BTC"},
	}, txn.Review())

	// 1 sat/vB makes the same fee suspicious
	items := f.parse(t, Config{MaxFeeRate: 1000}).Review()
	last := items[len(items)-1]
	assert.True(t, last.Warning)
	assert.Equal(t, "High fee", last.Title)
}

func TestChain_VerifyReferences(t *testing.T) {
	f := newFixture(t)
	txn := f.parse(t, Config{SliceSize: 5})

	err := txn.VerifyReferences(context.Background(), sliceFetcher{refs: f.prevTxn, window: 7})
	require.NoError(t, err)

	// swapping the prior transactions breaks the hash of the first input
	swapped := sliceFetcher{refs: [][]byte{f.prevTxn[1], f.prevTxn[0]}, window: 7}
	err = txn.VerifyReferences(context.Background(), swapped)
	kind, code := signing.Classify(err)
	assert.Equal(t, signing.KindCorruptData, kind)
	assert.Equal(t, signing.CodePrevTxnHashMismatch, code)
}

func TestChain_VerifyReferences_ValueClaim(t *testing.T) {
	f := newFixture(t)
	f.init.BTC.Inputs[1].Value = 31000
	txn := f.parse(t, Config{})

	err := txn.VerifyReferences(context.Background(), sliceFetcher{refs: f.prevTxn, window: 64})
	assert.ErrorIs(t, err, ErrPrevTxnValueMismatch)
	_, code := signing.Classify(err)
	assert.Equal(t, signing.CodePrevTxnValueMismatch, code)
}

func TestChain_ChangeKey(t *testing.T) {
	f := newFixture(t)
	txn := f.parse(t, Config{})

	paths := txn.CheckPaths()
	require.Len(t, paths, 1)
	assert.Equal(t, AddressPath(account, 1, 3), paths[0])

	assert.NoError(t, txn.CheckKeys([]*crypto.PublicKey{f.keys.change}))
	assert.ErrorIs(t, txn.CheckKeys([]*crypto.PublicKey{f.keys.legacy}), ErrChangeOutput)

	f.init.BTC.Change = nil
	assert.Empty(t, f.parse(t, Config{}).CheckPaths())
}

func TestChain_SigningJobs(t *testing.T) {
	f := newFixture(t)
	txn := f.parse(t, Config{})

	jobs, err := txn.SigningJobs(f.init)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	for i, job := range jobs {
		key, err := crypto.DeriveKey(testSeed(), job.Path)
		require.NoError(t, err)
		pub := key.PublicKey()

		digest, err := job.Digest(pub)
		require.NoError(t, err)

		var want [32]byte
		if i == 0 {
			want, err = WitnessSigHash(f.unsign, 0, crypto.Hash160(pub.Bytes()), 40000)
		} else {
			want, err = LegacySigHash(f.unsign, 1, f.init.BTC.Inputs[1].ScriptPubKey)
		}
		require.NoError(t, err)
		assert.Equal(t, want[:], digest, "input %d", i)

		sig, err := key.Sign(digest, job.Encoding)
		require.NoError(t, err)
		out, err := job.Finish(sig, pub)
		require.NoError(t, err)

		der := out[1:out[0]]
		assert.Equal(t, byte(0x01), out[out[0]])
		assert.True(t, crypto.VerifyDER(pub, digest, der), "input %d", i)
		assert.Equal(t, pub.Bytes(), out[len(out)-33:])
	}

	// a key that does not own the input is refused before signing
	_, err = jobs[0].Digest(f.keys.legacy)
	kind, _ := signing.Classify(err)
	assert.ErrorIs(t, err, ErrInputKey)
	assert.Equal(t, signing.KindCorruptData, kind)
}

func TestTxn_DigestRejectsScriptWithoutKeyHash(t *testing.T) {
	f := newFixture(t)
	txn := &Txn{UnsignedTxn: f.unsign}
	d := f.init.BTC.Inputs[0]
	d.ScriptPubKey = p2shP2wpkhScript(crypto.Hash160(f.keys.segwit.Bytes()))

	_, err := txn.digest(0, d, f.keys.segwit)
	kind, _ := signing.Classify(err)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
	assert.Equal(t, signing.KindCorruptData, kind)
}

func TestChain_ParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture)
		want   error
	}{
		{"no descriptors", func(f *fixture) { f.init.BTC = nil }, ErrMissingInitiate},
		{"descriptor count", func(f *fixture) { f.init.BTC.Inputs = f.init.BTC.Inputs[:1] }, ErrInputCount},
		{"outpoint", func(f *fixture) { f.init.BTC.Inputs[0].PrevIndex = 0 }, ErrInputMismatch},
		{"p2sh input", func(f *fixture) {
			f.init.BTC.Inputs[0].ScriptPubKey = p2shP2wpkhScript(make([]byte, 20))
		}, ErrUnsupportedInput},
		{"hardened address index", func(f *fixture) { f.init.BTC.Inputs[1].AddressIndex = crypto.Hardened(1) }, ErrInvalidPath},
		{"change out of range", func(f *fixture) { f.init.BTC.Change.OutputIndex = 3 }, ErrChangeOutput},
		{"taproot change", func(f *fixture) { f.init.BTC.Change.OutputIndex = 0 }, ErrChangeOutput},
		{"p2pk output", func(f *fixture) {
			f.unsign.Outputs[0].ScriptPubKey = mustHex(t, p2pkScript)
		}, ErrUnsupportedOutput},
		{"multisig output", func(f *fixture) {
			f.unsign.Outputs[0].ScriptPubKey = mustHex(t, "5121"+"0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"+"51ae")
		}, ErrUnsupportedOutput},
		{"funded op_return", func(f *fixture) { f.unsign.Outputs[2].Value = 1 }, ErrUnsupportedOutput},
		{"zero value", func(f *fixture) {
			f.unsign.Outputs[0].Value = 0
			f.unsign.Outputs[1].Value = 0
		}, ErrZeroValueTxn},
		{"overspend", func(f *fixture) { f.unsign.Outputs[0].Value = 70001 }, ErrOverspend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(f)
			f.raw = serialize(f.unsign, nil)

			_, err := NewChain(Bitcoin, Config{}).Parse(f.init, f.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChain_CheckPath(t *testing.T) {
	c := NewChain(Bitcoin, Config{})
	assert.NoError(t, c.CheckPath(account))
	assert.ErrorIs(t, c.CheckPath(AddressPath(account, 0, 0)), ErrInvalidPath)
	assert.Equal(t, signing.ChainBTC, c.ID())
}

func TestCoin_FormatAmount(t *testing.T) {
	assert.Equal(t, "0.00000001 BTC", Bitcoin.FormatAmount(1))
	assert.Equal(t, "50.00000000 BTC", Bitcoin.FormatAmount(5000000000))
	assert.Equal(t, "12.50000000 DOGE", Dogecoin.FormatAmount(1250000000))
}
