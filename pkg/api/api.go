// Package api provides the high-level entry point for driving a simulated
// signing device.
//
// This is the main entry point for applications using the signcore library.
// It bundles the pieces a device needs into one Device value:
//
//  1. Open - loads policy, logger, wallet directory, seed source and chains
//  2. AddWallet / Wallets - manage the wallet directory
//  3. Sign - runs one complete signing flow against a scripted host
//  4. PublicKeys / PublicKey - export public keys through a confirmed flow
//  5. ValidatePrevTxn - streams a prior Bitcoin transaction through the
//     validator with the configured window size
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suffix-labs/signcore/pkg/btc"
	"github.com/suffix-labs/signcore/pkg/bytestream"
	"github.com/suffix-labs/signcore/pkg/chains"
	"github.com/suffix-labs/signcore/pkg/config"
	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/logger"
	"github.com/suffix-labs/signcore/pkg/signing"
	"github.com/suffix-labs/signcore/pkg/transport"
	"github.com/suffix-labs/signcore/pkg/wallet"
)

// ErrTrailingBytes is returned when a prior transaction is followed by data
// the validator did not consume.
var ErrTrailingBytes = errors.New("api: trailing bytes after prior transaction")

// Device is a simulated signing device.
type Device struct {
	cfg     *config.Config
	log     *logger.Logger
	chains  *chains.Registry
	wallets *wallet.BoltDirectory
	seeds   *wallet.DeterministicSeeds
	ui      signing.UI
}

// ============================================================================
// API Function 1: Open
// ============================================================================

// Open builds a device from cfg.
//
// Parameters:
//   - cfg: Validated device policy
//   - log: Logger for the device, nil for a silent one
//   - ui: Where review pages and confirmations go
//
// Returns:
//   - The device, which owns the wallet database until Close
//   - Error if the wallet database cannot be opened
func Open(cfg *config.Config, log *logger.Logger, ui signing.UI) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	secret, err := cfg.Wallet.Secret()
	if err != nil {
		return nil, err
	}
	seeds, err := wallet.NewDeterministicSeeds(secret)
	crypto.Zero(secret)
	if err != nil {
		return nil, err
	}

	wallets, err := wallet.OpenDirectory(cfg.Wallet.DBPath)
	if err != nil {
		seeds.Zero()
		return nil, fmt.Errorf("failed to open wallet directory: %w", err)
	}

	return &Device{
		cfg:     cfg,
		log:     log,
		chains:  chains.FromConfig(cfg),
		wallets: wallets,
		seeds:   seeds,
		ui:      ui,
	}, nil
}

// Close releases the wallet database and erases the seed secret.
func (d *Device) Close() error {
	d.seeds.Zero()
	return d.wallets.Close()
}

// Config returns the device policy.
func (d *Device) Config() *config.Config { return d.cfg }

// ============================================================================
// API Function 2: Wallet directory
// ============================================================================

// AddWallet registers a new wallet under a fresh random id.
func (d *Device) AddWallet(name string) (wallet.Wallet, error) {
	w, err := d.wallets.AddWallet(name)
	if err != nil {
		return wallet.Wallet{}, err
	}
	d.log.Info("wallet added", "name", w.Name, "id", w.IDHex())
	return w, nil
}

// Wallets lists the wallet directory sorted by name.
func (d *Device) Wallets() ([]wallet.Wallet, error) {
	return d.wallets.ListWallets()
}

// ============================================================================
// API Function 3: Sign
// ============================================================================

// SignRequest is what the host sends during one flow.
type SignRequest struct {
	Initiate *signing.InitiateRequest
	Txn      []byte

	// References holds one serialized prior transaction per BTC input, in
	// input order.
	References [][]byte

	// Signatures to fetch. Zero asks for as many as the chain produces.
	Signatures int
}

// SignResult is what the host received.
type SignResult struct {
	Outcome     *signing.Outcome
	Fingerprint []byte
	Signatures  [][]byte
}

// Sign runs one flow between the device and a scripted host.
//
// The flow and the host run concurrently over an in-memory pipe that
// enforces the configured inactivity timeout. The chunk size of the host is
// taken from the flow policy.
//
// Returns:
//   - The signatures in job order
//   - Error if the flow failed; a device error report is returned as
//     *transport.ErrorReport
func (d *Device) Sign(ctx context.Context, req *SignRequest) (*SignResult, error) {
	if req == nil || req.Initiate == nil {
		return nil, fmt.Errorf("sign request needs an initiate message")
	}

	flow, host := d.link()

	n := req.Signatures
	if n == 0 {
		n = ExpectedSignatures(req.Initiate)
	}

	start := time.Now()
	outcome, tr, err := transport.Session(ctx, flow, host, transport.Script{
		Initiate:   req.Initiate,
		Txn:        req.Txn,
		References: req.References,
		Signatures: n,
		ChunkSize:  d.cfg.Flow.ChunkSize,
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug("session finished", "elapsed", time.Since(start).String())

	return &SignResult{
		Outcome:     outcome,
		Fingerprint: tr.Fingerprint,
		Signatures:  tr.Signatures,
	}, nil
}

// link connects a fresh device flow and a scripted host over a pipe.
func (d *Device) link() (*signing.Flow, *transport.Host) {
	pipe := transport.NewPipe(d.cfg.Flow.InactivityTimeout)
	flow := signing.NewFlow(signing.Config{
		Transport:  pipe,
		UI:         d.ui,
		Seeds:      d.seeds,
		Wallets:    d.wallets,
		Chains:     d.chains,
		MaxTxnSize: d.cfg.Flow.MaxTxnSize,
		Logger:     d.log.With("side", "device"),
	})
	return flow, transport.NewHost(pipe, d.log.With("side", "host"))
}

// Failure reports the (kind, code) pair behind a failed Sign, whichever
// side of the session noticed first.
func Failure(err error) (signing.ErrorKind, signing.Code) {
	var report *transport.ErrorReport
	if errors.As(err, &report) {
		return report.Kind, report.Code
	}
	return signing.Classify(err)
}

// ExpectedSignatures is the number of signatures a flow for init emits.
func ExpectedSignatures(init *signing.InitiateRequest) int {
	switch init.Chain {
	case signing.ChainBTC, signing.ChainLTC, signing.ChainDOGE:
		if init.BTC == nil {
			return 0
		}
		return len(init.BTC.Inputs)
	case signing.ChainICP:
		// the call and its read_state poll
		return 2
	default:
		return 1
	}
}

// ============================================================================
// API Function 4: PublicKey
// ============================================================================

// PublicKeyResult is what the host received from an export flow.
type PublicKeyResult struct {
	Outcome      *signing.Outcome
	PublicKeys   []*crypto.PublicKey
	ExtendedKeys []string
}

// PublicKeys runs one public key export flow. The user confirms the export
// on the device before the seed is reconstructed.
func (d *Device) PublicKeys(ctx context.Context, req *signing.PublicKeyRequest) (*PublicKeyResult, error) {
	if req == nil {
		return nil, fmt.Errorf("public key request is empty")
	}
	flow, host := d.link()
	outcome, reply, err := transport.KeySession(ctx, flow, host, req)
	if err != nil {
		return nil, err
	}

	res := &PublicKeyResult{Outcome: outcome, ExtendedKeys: reply.ExtendedKeys}
	for i, b := range reply.PublicKeys {
		pub, err := crypto.ParsePublicKey(b)
		if err != nil {
			return nil, fmt.Errorf("public key %d: %w", i, err)
		}
		res.PublicKeys = append(res.PublicKeys, pub)
	}
	return res, nil
}

// PublicKey exports the key wallet walletID holds at path on chain.
func (d *Device) PublicKey(ctx context.Context, chain signing.ChainID, walletID [32]byte, path []uint32) (*crypto.PublicKey, error) {
	res, err := d.PublicKeys(ctx, &signing.PublicKeyRequest{WalletID: walletID, Chain: chain, Paths: [][]uint32{path}})
	if err != nil {
		return nil, err
	}
	return res.PublicKeys[0], nil
}

// ============================================================================
// API Function 5: ValidatePrevTxn
// ============================================================================

// ValidatePrevTxn checks claim against the serialized prior transaction raw.
// The transaction is fed through a stream in windows of window bytes, the
// same way reference chunks arrive from the host.
func (d *Device) ValidatePrevTxn(raw []byte, claim btc.PrevOutput, window int) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty prior transaction")
	}
	src := bytestream.NewSliceSource(raw, window)
	s := src.Stream()
	v := btc.Validator{SliceSize: d.cfg.Flow.StreamSliceSize}
	if err := v.Validate(s, claim); err != nil {
		return err
	}
	if rest := s.Buffered() + src.Remaining(); rest > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, rest)
	}
	return nil
}
