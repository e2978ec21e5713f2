package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/signcore/pkg/api"
	"github.com/suffix-labs/signcore/pkg/crypto"
	"github.com/suffix-labs/signcore/pkg/signing"
)

type pubkeyFlags struct {
	chain  string
	wallet string
	paths  []string
	xpub   bool
}

func newPubkeyCmd(g *globalFlags) *cobra.Command {
	f := &pubkeyFlags{}

	cmd := &cobra.Command{
		Use:   "pubkey",
		Short: "Export public keys after confirmation on the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer dev.Close()
			return runPubkey(cmd, dev, f)
		},
	}

	cmd.Flags().StringVar(&f.chain, "chain", "", "Chain: btc, ltc, doge, xrp, icp or evm")
	cmd.Flags().StringVarP(&f.wallet, "wallet", "w", "", "Wallet name or hex id")
	cmd.Flags().StringArrayVar(&f.paths, "path", nil, "Derivation path (repeatable)")
	cmd.Flags().BoolVar(&f.xpub, "xpub", false, "Also export the extended key of each account path")
	for _, name := range []string{"chain", "wallet", "path"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runPubkey(cmd *cobra.Command, dev *api.Device, f *pubkeyFlags) error {
	chain, err := signing.ParseChainID(f.chain)
	if err != nil {
		return err
	}
	walletID, err := resolveWallet(dev, f.wallet)
	if err != nil {
		return err
	}
	req := &signing.PublicKeyRequest{WalletID: walletID, Chain: chain, Extended: f.xpub}
	for _, s := range f.paths {
		path, err := crypto.ParsePath(s)
		if err != nil {
			return fmt.Errorf("--path %q: %w", s, err)
		}
		req.Paths = append(req.Paths, path)
	}

	res, err := dev.PublicKeys(cmd.Context(), req)
	if err != nil {
		kind, code := api.Failure(err)
		return fmt.Errorf("flow failed (%s/%s): %w", kind, code, err)
	}

	out := cmd.OutOrStdout()
	for i, pub := range res.PublicKeys {
		fmt.Fprintf(out, "%s %x\n", f.paths[i], pub.Bytes())
		if i < len(res.ExtendedKeys) {
			fmt.Fprintf(out, "%s %s\n", f.paths[i], res.ExtendedKeys[i])
		}
	}
	return nil
}
