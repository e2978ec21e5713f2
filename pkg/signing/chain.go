package signing

import (
	"context"
	"fmt"

	"github.com/suffix-labs/signcore/pkg/bytestream"
	"github.com/suffix-labs/signcore/pkg/crypto"
)

// ChainID selects a chain variant at Initiate.
type ChainID uint8

const (
	ChainBTC ChainID = iota + 1
	ChainXRP
	ChainICP
	ChainEVM
	ChainLTC
	ChainDOGE
)

func (c ChainID) String() string {
	switch c {
	case ChainBTC:
		return "btc"
	case ChainXRP:
		return "xrp"
	case ChainICP:
		return "icp"
	case ChainEVM:
		return "evm"
	case ChainLTC:
		return "ltc"
	case ChainDOGE:
		return "doge"
	default:
		return fmt.Sprintf("chain(%d)", uint8(c))
	}
}

// ParseChainID is the inverse of ChainID.String.
func ParseChainID(s string) (ChainID, error) {
	for _, c := range []ChainID{ChainBTC, ChainXRP, ChainICP, ChainEVM, ChainLTC, ChainDOGE} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown chain %q", s)
}

// Chain is one supported transaction grammar.
//
// A chain is selected once per flow from the Initiate request. It validates
// the derivation path, then turns the fully collected raw bytes into a
// Transaction.
type Chain interface {
	ID() ChainID
	Name() string

	// CheckPath validates the derivation path shape against the chain policy.
	CheckPath(path []uint32) error

	// Parse decodes and structurally validates the unsigned transaction.
	// The returned Transaction may keep references into raw.
	Parse(init *InitiateRequest, raw []byte) (Transaction, error)
}

// Transaction is a decoded unsigned transaction.
type Transaction interface {
	// Review lists what the user must confirm, in order.
	Review() []ReviewItem

	// SigningJobs lists the signatures to produce. Digests are computed over
	// the original raw bytes.
	SigningJobs(init *InitiateRequest) ([]Job, error)
}

// ReferenceVerifier is implemented by transactions that spend outputs of
// prior transactions and must prove them before review.
type ReferenceVerifier interface {
	VerifyReferences(ctx context.Context, fetch ReferenceFetcher) error
}

// ReferenceFetcher streams the reference data of one input from the host.
//
// Fetch calls consume with a stream positioned at the first byte of the
// reference. Once consume returns, the fetcher checks that the stream was
// read to its declared end.
type ReferenceFetcher interface {
	Fetch(ctx context.Context, index int, consume func(*bytestream.Stream) error) error
}

// KeyChecker is implemented by transactions that need to compare outputs
// against keys derived from the wallet seed (for example change outputs).
type KeyChecker interface {
	CheckPaths() [][]uint32
	CheckKeys(pubs []*crypto.PublicKey) error
}

// KeyPathChecker is implemented by chains that accept other path shapes
// for public key export than for signing.
type KeyPathChecker interface {
	CheckKeyPath(path []uint32) error
}

// KeyExporter is implemented by chains with an extended public key format.
type KeyExporter interface {
	// CheckExtendedPath reports whether path names an exportable node.
	CheckExtendedPath(path []uint32) error
	ExtendedKey(seed []byte, path []uint32) (string, error)
}

// ReviewItem is one confirmation step.
//
// A Warning item is an explicit yes/no confirmation; every other item is a
// scrollable page.
type ReviewItem struct {
	Title   string
	Body    string
	Warning bool
}

// Job is one signature to produce.
type Job struct {
	// Path is the full derivation path of the signing key.
	Path []uint32

	// Encoding selects the signature wire format.
	Encoding crypto.Encoding

	// Digest computes the 32-byte digest to sign. It receives the public key
	// of the derived signing key for chains that commit to the signer.
	Digest func(pub *crypto.PublicKey) ([]byte, error)

	// Finish optionally wraps the encoded signature (for example into a
	// scriptSig). It may be nil.
	Finish func(sig []byte, pub *crypto.PublicKey) ([]byte, error)
}
