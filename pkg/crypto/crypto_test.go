package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// BIP32 test vector 2 uses a 64-byte seed.
const bip32Seed2 = "fffcf9f6f3f0edeae7e4e1dedbd8d5d2cfccc9c6c3c0bdbab7b4b1aeaba8a5a29f9c999693908d8a8784817e7b7875726f6c696663605d5a5754514e4b484542"

func TestDeriveKey_BIP32Vectors(t *testing.T) {
	tests := []struct {
		path    string
		privKey string
	}{
		{"m/0", "abe74a98f6c7eabee0428f53798f0ab8aa1bd37873999041703c742f15ac7e1e"},
		{"m/0/2147483647'", "877c779ad9687164e9c2f4f0f4ff0340814392330693ce95a58fe18fd52e6e93"},
	}

	seed := mustHex(t, bip32Seed2)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path, err := ParsePath(tt.path)
			require.NoError(t, err)

			key, err := DeriveKey(seed, path)
			require.NoError(t, err)
			defer key.Zero()

			assert.Equal(t, tt.privKey, hex.EncodeToString(key.key.Serialize()))
		})
	}
}

func TestExtendedPublicKey(t *testing.T) {
	seed := mustHex(t, bip32Seed2)
	path := []uint32{0}
	xpubVersion := [4]byte{0x04, 0x88, 0xb2, 0x1e}

	xpub, err := ExtendedPublicKey(seed, path, xpubVersion)
	require.NoError(t, err)
	assert.Equal(t, "xpub69H7F5d8KSRgmmdJg2KhpAK8SR3DjMwAdkxj3ZuxV27CprR9LgpeyGmXUbC6wb7ERfvrnKZjXoUmmDznezpbZb7ap6r1D3tgFxHmwMkQTPH", xpub)

	// the serialized key carries the same public key as the signing key
	parsed, err := hdkeychain.NewKeyFromString(xpub)
	require.NoError(t, err)
	assert.False(t, parsed.IsPrivate())
	ecPub, err := parsed.ECPubKey()
	require.NoError(t, err)
	key, err := DeriveKey(seed, path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().Bytes(), ecPub.SerializeCompressed())

	ltub, err := ExtendedPublicKey(seed, path, [4]byte{0x01, 0x9d, 0xa4, 0x62})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ltub, "Ltub"), ltub)

	_, err = ExtendedPublicKey(seed[:32], path, xpubVersion)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDeriveKey_RejectsShortSeed(t *testing.T) {
	_, err := DeriveKey(make([]byte, 32), []uint32{0})
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestPrivateKey_SignEncodings(t *testing.T) {
	key, err := PrivateKeyFromBytes(mustHex(t, "0000000000000000000000000000000000000000000000000000000000000001"))
	require.NoError(t, err)
	defer key.Zero()

	digest := sha256.Sum256([]byte("signcore"))
	pub := key.PublicKey()

	der, err := key.Sign(digest[:], EncodingDER)
	require.NoError(t, err)
	assert.True(t, VerifyDER(pub, digest[:], der))

	withType, err := key.Sign(digest[:], EncodingDERSigHashAll)
	require.NoError(t, err)
	assert.Equal(t, byte(SigHashAll), withType[len(withType)-1])
	assert.Equal(t, der, withType[:len(withType)-1])

	raw, err := key.Sign(digest[:], EncodingRaw)
	require.NoError(t, err)
	require.Len(t, raw, 64)
	assert.True(t, VerifyRaw(pub, digest[:], raw))

	rec, err := key.Sign(digest[:], EncodingRecoverable)
	require.NoError(t, err)
	require.Len(t, rec, 65)
	assert.Equal(t, raw, rec[:64])
	assert.LessOrEqual(t, rec[64], byte(1))
}

func TestPrivateKey_Zero(t *testing.T) {
	key, err := PrivateKeyFromBytes(mustHex(t, "0000000000000000000000000000000000000000000000000000000000000002"))
	require.NoError(t, err)

	key.Zero()
	key.Zero()

	_, err = key.Sign(make([]byte, 32), EncodingDER)
	assert.ErrorIs(t, err, ErrKeyErased)
}

func TestPrivateKey_SignRejectsBadDigest(t *testing.T) {
	key, err := PrivateKeyFromBytes(mustHex(t, "0000000000000000000000000000000000000000000000000000000000000003"))
	require.NoError(t, err)
	defer key.Zero()

	_, err = key.Sign(make([]byte, 20), EncodingDER)
	assert.Error(t, err)
}

func TestHashes(t *testing.T) {
	g := mustHex(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(Hash160(g)))

	d := DoubleSHA256([]byte("hello"))
	assert.Equal(t, "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50", hex.EncodeToString(d[:]))

	h := SHA512Half([]byte("abc"))
	assert.Equal(t, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a", hex.EncodeToString(h[:]))

	b := []byte{1, 2, 3}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}

func TestBase58Check(t *testing.T) {
	hash := mustHex(t, "751e76e8199196d454941c45d1b3a323f1433bd6")
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", Base58Check(0x00, hash))

	account := mustHex(t, "b5f762798a53d543a014caf8b297cff8f2f937e8")
	assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", XRPBase58Check(0x00, account))
}

func TestParsePath(t *testing.T) {
	path, err := ParsePath("m/44'/144h/0'/0/7")
	require.NoError(t, err)
	assert.Equal(t, []uint32{Hardened(44), Hardened(144), Hardened(0), 0, 7}, path)
	assert.Equal(t, "m/44'/144'/0'/0/7", FormatPath(path))

	for _, bad := range []string{"", "44'/0'", "m/x", "m/2147483648", "m/-1"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}
