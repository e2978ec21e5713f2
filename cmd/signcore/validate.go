package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/signcore/pkg/btc"
)

func newValidatePrevCmd(g *globalFlags) *cobra.Command {
	var (
		rawHex    string
		txid      string
		index     uint32
		value     uint64
		scriptHex string
		window    int
	)

	cmd := &cobra.Command{
		Use:   "validate-prev",
		Short: "Check a claimed output against a serialized prior Bitcoin transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(rawHex)
			if err != nil {
				return fmt.Errorf("--raw: %w", err)
			}
			hash, err := btc.HashFromDisplay(txid)
			if err != nil {
				return fmt.Errorf("--txid: %w", err)
			}
			claim := btc.PrevOutput{TxnHash: hash, OutputIndex: index, Value: value}
			if scriptHex != "" {
				if claim.ScriptPubKey, err = hex.DecodeString(scriptHex); err != nil {
					return fmt.Errorf("--script: %w", err)
				}
			}

			dev, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer dev.Close()

			if window <= 0 {
				window = dev.Config().Flow.ChunkSize
			}
			if err := dev.ValidatePrevTxn(raw, claim, window); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "output %d of %s holds %s\n", index, txid, btc.Bitcoin.FormatAmount(value))
			return nil
		},
	}

	cmd.Flags().StringVar(&rawHex, "raw", "", "Serialized prior transaction (hex)")
	cmd.Flags().StringVar(&txid, "txid", "", "Claimed transaction id in display order")
	cmd.Flags().Uint32Var(&index, "index", 0, "Claimed output index")
	cmd.Flags().Uint64Var(&value, "value", 0, "Claimed output value in satoshi")
	cmd.Flags().StringVar(&scriptHex, "script", "", "Claimed scriptPubKey (hex), optional")
	cmd.Flags().IntVar(&window, "window", 0, "Stream window size, defaults to the flow chunk size")
	_ = cmd.MarkFlagRequired("raw")
	_ = cmd.MarkFlagRequired("txid")
	return cmd
}
