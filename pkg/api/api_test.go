package api

import (
	"context"
	"encoding/hex"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/signcore/pkg/btc"
	"github.com/suffix-labs/signcore/pkg/config"
	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/evm"
	"github.com/suffix-labs/signcore/pkg/signing"
	"github.com/suffix-labs/signcore/pkg/wallet"
)

var recipient = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func testDevice(t *testing.T, approve bool) (*Device, *ConsoleUI) {
	t.Helper()
	cfg := config.Default()
	cfg.Wallet.DBPath = filepath.Join(t.TempDir(), "wallets.db")
	cfg.Wallet.MasterSecret = strings.Repeat("11", 32)

	ui := &ConsoleUI{Approve: approve}
	dev, err := Open(cfg, nil, ui)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })
	return dev, ui
}

func ethPayment(t *testing.T) []byte {
	t.Helper()
	gwei := big.NewInt(1_000_000_000)
	raw, err := evm.EncodePayload(types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     1,
		GasTipCap: gwei,
		GasFeeCap: new(big.Int).Mul(big.NewInt(30), gwei),
		Gas:       21000,
		To:        &recipient,
		Value:     big.NewInt(1_000_000_000_000_000),
	}), big.NewInt(1))
	require.NoError(t, err)
	return raw
}

func ethInitiate(t *testing.T, w wallet.Wallet) *signing.InitiateRequest {
	t.Helper()
	path, err := crypto.ParsePath("m/44'/60'/0'/0/0")
	require.NoError(t, err)
	return &signing.InitiateRequest{
		WalletID: w.ID,
		Chain:    signing.ChainEVM,
		Path:     path,
		EVM:      &signing.EVMInitiate{ChainID: 1},
	}
}

func TestDevice_Wallets(t *testing.T) {
	dev, _ := testDevice(t, true)

	_, err := dev.AddWallet("savings")
	require.NoError(t, err)
	_, err = dev.AddWallet("daily")
	require.NoError(t, err)
	_, err = dev.AddWallet("daily")
	assert.ErrorIs(t, err, wallet.ErrDuplicateName)

	list, err := dev.Wallets()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "daily", list[0].Name)
}

func TestDevice_SignEVM(t *testing.T) {
	dev, ui := testDevice(t, true)
	w, err := dev.AddWallet("main")
	require.NoError(t, err)

	raw := ethPayment(t)
	init := ethInitiate(t, w)
	res, err := dev.Sign(context.Background(), &SignRequest{Initiate: init, Txn: raw})
	require.NoError(t, err)
	require.Len(t, res.Signatures, 1)
	assert.Equal(t, 1, res.Outcome.Signatures)
	assert.Equal(t, res.Outcome.Fingerprint, res.Fingerprint)

	signed, err := evm.Assemble(raw, res.Signatures[0])
	require.NoError(t, err)
	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(signed))
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), &tx)
	require.NoError(t, err)

	pub, err := dev.PublicKey(context.Background(), signing.ChainEVM, w.ID, init.Path)
	require.NoError(t, err)
	want, err := evm.SignerAddress(pub)
	require.NoError(t, err)
	assert.Equal(t, want, from)

	pages := strings.Join(ui.Pages(), "\n")
	assert.Contains(t, pages, "main")
	assert.Contains(t, pages, "0.001 ETH")
}

func TestDevice_SignRejected(t *testing.T) {
	dev, _ := testDevice(t, false)
	w, err := dev.AddWallet("main")
	require.NoError(t, err)

	_, err = dev.Sign(context.Background(), &SignRequest{Initiate: ethInitiate(t, w), Txn: ethPayment(t)})
	require.Error(t, err)
	kind, code := Failure(err)
	assert.Equal(t, signing.KindUserRejection, kind)
	assert.Equal(t, signing.CodeRejected, code)
}

func TestDevice_SignUnknownWallet(t *testing.T) {
	dev, _ := testDevice(t, true)

	_, err := dev.Sign(context.Background(), &SignRequest{Initiate: ethInitiate(t, wallet.Wallet{ID: [32]byte{9}}), Txn: ethPayment(t)})
	require.Error(t, err)
	_, code := Failure(err)
	assert.Equal(t, signing.CodeWalletNotFound, code)

	_, err = dev.PublicKey(context.Background(), signing.ChainEVM, [32]byte{9}, ethInitiate(t, wallet.Wallet{}).Path)
	require.Error(t, err)
	_, code = Failure(err)
	assert.Equal(t, signing.CodeWalletNotFound, code)
}

func TestDevice_PublicKeys(t *testing.T) {
	dev, ui := testDevice(t, true)
	w, err := dev.AddWallet("main")
	require.NoError(t, err)

	tests := []struct {
		chain  signing.ChainID
		path   string
		prefix string
	}{
		{signing.ChainBTC, "m/84'/0'/0'", "xpub"},
		{signing.ChainLTC, "m/84'/2'/0'", "Ltub"},
		{signing.ChainDOGE, "m/44'/3'/0'", "dgub"},
	}
	for _, tt := range tests {
		t.Run(tt.chain.String(), func(t *testing.T) {
			path, err := crypto.ParsePath(tt.path)
			require.NoError(t, err)

			res, err := dev.PublicKeys(context.Background(), &signing.PublicKeyRequest{
				WalletID: w.ID,
				Chain:    tt.chain,
				Paths:    [][]uint32{path},
				Extended: true,
			})
			require.NoError(t, err)
			require.Len(t, res.PublicKeys, 1)
			require.Len(t, res.ExtendedKeys, 1)
			assert.True(t, strings.HasPrefix(res.ExtendedKeys[0], tt.prefix), res.ExtendedKeys[0])
			assert.Equal(t, 1, res.Outcome.PublicKeys)
		})
	}
	assert.Contains(t, ui.Pages(), "Export Litecoin public keys from main?")

	// segwit purposes do not exist on Dogecoin
	path, err := crypto.ParsePath("m/84'/3'/0'")
	require.NoError(t, err)
	_, err = dev.PublicKey(context.Background(), signing.ChainDOGE, w.ID, path)
	require.Error(t, err)
	_, code := Failure(err)
	assert.Equal(t, signing.CodeInvalidData, code)
}

func TestDevice_PublicKeysRejected(t *testing.T) {
	dev, _ := testDevice(t, false)
	w, err := dev.AddWallet("main")
	require.NoError(t, err)

	_, err = dev.PublicKey(context.Background(), signing.ChainEVM, w.ID, ethInitiate(t, w).Path)
	require.Error(t, err)
	kind, code := Failure(err)
	assert.Equal(t, signing.KindUserRejection, kind)
	assert.Equal(t, signing.CodeRejected, code)
}

func TestDevice_ValidatePrevTxn(t *testing.T) {
	dev, _ := testDevice(t, true)

	// a one-input, one-output transaction paying 5000 sat to OP_TRUE
	raw, err := hex.DecodeString("01000000" +
		"01" + strings.Repeat("ab", 32) + "00000000" + "00" + "ffffffff" +
		"01" + "8813000000000000" + "0151" +
		"00000000")
	require.NoError(t, err)
	id := crypto.DoubleSHA256(raw)

	for _, window := range []int{1, 7, len(raw)} {
		assert.NoError(t, dev.ValidatePrevTxn(raw, btcClaim(id, 5000), window), "window %d", window)
	}
	assert.Error(t, dev.ValidatePrevTxn(raw, btcClaim(id, 5001), 16))
	assert.Error(t, dev.ValidatePrevTxn(nil, btcClaim(id, 5000), 16))

	padded := append(append([]byte(nil), raw...), 0x00, 0x00)
	for _, window := range []int{1, len(raw), len(padded)} {
		err := dev.ValidatePrevTxn(padded, btcClaim(id, 5000), window)
		assert.ErrorIs(t, err, ErrTrailingBytes, "window %d", window)
	}
}

func TestExpectedSignatures(t *testing.T) {
	assert.Equal(t, 2, ExpectedSignatures(&signing.InitiateRequest{Chain: signing.ChainICP}))
	assert.Equal(t, 1, ExpectedSignatures(&signing.InitiateRequest{Chain: signing.ChainXRP}))
	assert.Equal(t, 3, ExpectedSignatures(&signing.InitiateRequest{
		Chain: signing.ChainBTC,
		BTC:   &signing.BTCInitiate{Inputs: make([]signing.BTCInput, 3)},
	}))
}

func btcClaim(id [32]byte, value uint64) btc.PrevOutput {
	return btc.PrevOutput{TxnHash: id, OutputIndex: 0, Value: value}
}
