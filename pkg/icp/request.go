package icp

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/wire"
)

const (
	RequestTypeCall      = "call"
	RequestTypeReadState = "read_state"
	MethodTransfer       = "transfer"
)

// LedgerCanisterID is the ICP ledger, ryjl3-tyaaa-aaaaa-aaaba-cai.
var LedgerCanisterID = []byte{0, 0, 0, 0, 0, 0, 0, 2, 1, 1}

// domainSeparator prefixes a request id before signing.
var domainSeparator = []byte("\x0aic-request")

// selfAuthenticatingTag ends a principal derived from a public key.
const selfAuthenticatingTag = 0x02

// secp256k1SPKIPrefix is the DER SubjectPublicKeyInfo header for an
// uncompressed secp256k1 key.
var secp256k1SPKIPrefix = []byte{
	0x30, 0x56, 0x30, 0x10, 0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02, 0x01,
	0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x0a, 0x03, 0x42, 0x00,
}

// CallRequest is the content of an update call.
type CallRequest struct {
	CanisterID    []byte
	MethodName    string
	Sender        []byte
	IngressExpiry uint64
	Nonce         []byte
	Arg           []byte
}

// ID returns the representation-independent hash of the request.
func (r *CallRequest) ID() [32]byte {
	fields := map[string][32]byte{
		"request_type":   sha256.Sum256([]byte(RequestTypeCall)),
		"canister_id":    sha256.Sum256(r.CanisterID),
		"method_name":    sha256.Sum256([]byte(r.MethodName)),
		"sender":         sha256.Sum256(r.Sender),
		"ingress_expiry": sha256.Sum256(wire.AppendULEB128(nil, r.IngressExpiry)),
		"arg":            sha256.Sum256(r.Arg),
	}
	if r.Nonce != nil {
		fields["nonce"] = sha256.Sum256(r.Nonce)
	}
	return requestID(fields)
}

// ReadStateID returns the id of the read_state request polling the status of
// the call identified by callID.
func ReadStateID(callID [32]byte, sender []byte, ingressExpiry uint64) [32]byte {
	// paths = [["request_status", callID]]
	segA := sha256.Sum256([]byte("request_status"))
	segB := sha256.Sum256(callID[:])
	path := sha256.Sum256(append(segA[:], segB[:]...))
	paths := sha256.Sum256(path[:])

	return requestID(map[string][32]byte{
		"request_type":   sha256.Sum256([]byte(RequestTypeReadState)),
		"paths":          paths,
		"ingress_expiry": sha256.Sum256(wire.AppendULEB128(nil, ingressExpiry)),
		"sender":         sha256.Sum256(sender),
	})
}

// requestID hashes the key/value hash pairs sorted by key hash.
func requestID(fields map[string][32]byte) [32]byte {
	type pair struct{ key, value [32]byte }
	pairs := make([]pair, 0, len(fields))
	for k, v := range fields {
		pairs = append(pairs, pair{sha256.Sum256([]byte(k)), v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return string(pairs[i].key[:]) < string(pairs[j].key[:])
	})

	h := sha256.New()
	for _, p := range pairs {
		h.Write(p.key[:])
		h.Write(p.value[:])
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// SigningDigest is the message actually signed for a request id.
func SigningDigest(requestID [32]byte) [32]byte {
	return sha256.Sum256(append(append([]byte{}, domainSeparator...), requestID[:]...))
}

// SelfAuthenticating returns the principal owned by pub.
func SelfAuthenticating(pub *crypto.PublicKey) []byte {
	der := append(append([]byte{}, secp256k1SPKIPrefix...), pub.Uncompressed()...)
	sum := sha256.Sum224(der)
	return append(sum[:], selfAuthenticatingTag)
}

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// PrincipalText renders a principal in its textual form, for example
// "ryjl3-tyaaa-aaaaa-aaaba-cai".
func PrincipalText(p []byte) string {
	buf := binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(p))
	enc := strings.ToLower(principalEncoding.EncodeToString(append(buf, p...)))

	var b strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(enc[i:min(i+5, len(enc))])
	}
	return b.String()
}

// AccountID derives the ledger account of principal. A nil subaccount is the
// default (all zero) subaccount.
func AccountID(principal, subaccount []byte) [AccountIDSize]byte {
	var sub [32]byte
	copy(sub[:], subaccount)

	h := sha256.New224()
	h.Write([]byte("\x0aaccount-id"))
	h.Write(principal)
	h.Write(sub[:])
	sum := h.Sum(nil)

	var out [AccountIDSize]byte
	binary.BigEndian.PutUint32(out[:4], crc32.ChecksumIEEE(sum))
	copy(out[4:], sum)
	return out
}

// ValidAccountID checks the CRC32 prefix of an account identifier.
func ValidAccountID(id [AccountIDSize]byte) bool {
	return binary.BigEndian.Uint32(id[:4]) == crc32.ChecksumIEEE(id[4:])
}
