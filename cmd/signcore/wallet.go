package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/signcore/pkg/api"
)

func newWalletCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet directory management",
	}
	cmd.AddCommand(newWalletAddCmd(g), newWalletListCmd(g))
	return cmd
}

func newWalletAddCmd(g *globalFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a wallet under a fresh id",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer dev.Close()

			w, err := dev.AddWallet(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", w.IDHex(), w.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Wallet display name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newWalletListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered wallets",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer dev.Close()

			list, err := dev.Wallets()
			if err != nil {
				return err
			}
			for _, w := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", w.IDHex(), w.Name)
			}
			return nil
		},
	}
}

// resolveWallet accepts a wallet name or a 64 character hex id.
func resolveWallet(dev *api.Device, ref string) ([32]byte, error) {
	var id [32]byte
	if b, err := hex.DecodeString(ref); err == nil && len(b) == len(id) {
		copy(id[:], b)
		return id, nil
	}

	list, err := dev.Wallets()
	if err != nil {
		return id, err
	}
	for _, w := range list {
		if w.Name == ref {
			return w.ID, nil
		}
	}
	return id, fmt.Errorf("no wallet named %q", ref)
}
