package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/signcore/pkg/api"
	"github.com/suffix-labs/signcore/pkg/btc"
	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/evm"
	"github.com/suffix-labs/signcore/pkg/signing"
)

type signFlags struct {
	chain  string
	wallet string
	path   string
	txn    string

	inputs []string
	change string
	refs   []string

	expiry uint64
	nonce  string

	chainID uint64
}

func newSignCmd(g *globalFlags) *cobra.Command {
	f := &signFlags{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Run one signing flow and print the signatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer dev.Close()
			return runSign(cmd, dev, f)
		},
	}

	cmd.Flags().StringVar(&f.chain, "chain", "", "Chain: btc, ltc, doge, xrp, icp or evm")
	cmd.Flags().StringVarP(&f.wallet, "wallet", "w", "", "Wallet name or hex id")
	cmd.Flags().StringVar(&f.path, "path", "", "Derivation path, e.g. m/44'/144'/0'/0/0")
	cmd.Flags().StringVar(&f.txn, "txn", "", "Unsigned transaction (hex)")
	cmd.Flags().StringArrayVar(&f.inputs, "input", nil, "btc: spent output as txid:vout:value:change:index (repeatable)")
	cmd.Flags().StringVar(&f.change, "change", "", "btc: change output as output:index")
	cmd.Flags().StringArrayVar(&f.refs, "ref", nil, "btc: serialized prior transaction per input (hex, repeatable)")
	cmd.Flags().Uint64Var(&f.expiry, "expiry", 0, "icp: ingress expiry in nanoseconds since the epoch")
	cmd.Flags().StringVar(&f.nonce, "nonce", "", "icp: request nonce (hex), optional")
	cmd.Flags().Uint64Var(&f.chainID, "chain-id", 0, "evm: chain id the payload is bound to")
	for _, name := range []string{"chain", "wallet", "path", "txn"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runSign(cmd *cobra.Command, dev *api.Device, f *signFlags) error {
	chain, err := signing.ParseChainID(f.chain)
	if err != nil {
		return err
	}
	path, err := crypto.ParsePath(f.path)
	if err != nil {
		return err
	}
	txn, err := hex.DecodeString(f.txn)
	if err != nil {
		return fmt.Errorf("--txn: %w", err)
	}
	walletID, err := resolveWallet(dev, f.wallet)
	if err != nil {
		return err
	}

	init := &signing.InitiateRequest{WalletID: walletID, Chain: chain, Path: path}
	req := &api.SignRequest{Initiate: init, Txn: txn}

	switch chain {
	case signing.ChainBTC, signing.ChainLTC, signing.ChainDOGE:
		if init.BTC, err = f.btcInitiate(); err != nil {
			return err
		}
		for i, r := range f.refs {
			b, err := hex.DecodeString(r)
			if err != nil {
				return fmt.Errorf("--ref %d: %w", i, err)
			}
			req.References = append(req.References, b)
		}
	case signing.ChainICP:
		init.ICP = &signing.ICPInitiate{IngressExpiry: f.expiry}
		if f.nonce != "" {
			if init.ICP.Nonce, err = hex.DecodeString(f.nonce); err != nil {
				return fmt.Errorf("--nonce: %w", err)
			}
		}
	case signing.ChainEVM:
		init.EVM = &signing.EVMInitiate{ChainID: f.chainID}
	}

	res, err := dev.Sign(cmd.Context(), req)
	if err != nil {
		kind, code := api.Failure(err)
		return fmt.Errorf("flow failed (%s/%s): %w", kind, code, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "flow %s fingerprint %x\n", res.Outcome.FlowID, res.Fingerprint)
	for i, sig := range res.Signatures {
		fmt.Fprintf(out, "signature %d: %x\n", i, sig)
	}

	if chain == signing.ChainEVM && len(res.Signatures) == 1 {
		pub, err := dev.PublicKey(cmd.Context(), chain, walletID, path)
		if err != nil {
			return err
		}
		addr, err := evm.SignerAddress(pub)
		if err != nil {
			return err
		}
		signed, err := evm.Assemble(txn, res.Signatures[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "signer %s\nsigned transaction %x\n", addr.Hex(), signed)
	}
	return nil
}

func (f *signFlags) btcInitiate() (*signing.BTCInitiate, error) {
	init := &signing.BTCInitiate{}
	for _, s := range f.inputs {
		in, err := parseInput(s)
		if err != nil {
			return nil, fmt.Errorf("--input %q: %w", s, err)
		}
		init.Inputs = append(init.Inputs, in)
	}
	if f.change != "" {
		parts, err := splitUints(f.change, 2)
		if err != nil {
			return nil, fmt.Errorf("--change %q: %w", f.change, err)
		}
		init.Change = &signing.BTCChange{OutputIndex: uint32(parts[0]), AddressIndex: uint32(parts[1])}
	}
	return init, nil
}

// parseInput decodes txid:vout:value:change:index.
func parseInput(s string) (signing.BTCInput, error) {
	txid, rest, ok := strings.Cut(s, ":")
	if !ok {
		return signing.BTCInput{}, fmt.Errorf("expected txid:vout:value:change:index")
	}
	hash, err := btc.HashFromDisplay(txid)
	if err != nil {
		return signing.BTCInput{}, err
	}
	n, err := splitUints(rest, 4)
	if err != nil {
		return signing.BTCInput{}, err
	}
	return signing.BTCInput{
		PrevTxnHash:  hash,
		PrevIndex:    uint32(n[0]),
		Value:        n[1],
		ChangeIndex:  uint32(n[2]),
		AddressIndex: uint32(n[3]),
	}, nil
}

func splitUints(s string, want int) ([]uint64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d colon separated numbers", want)
	}
	out := make([]uint64, want)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
