// signcore CLI - simulated multi-chain signing device
//
// The CLI runs the device against a scripted host in the same process, which
// makes every signing flow reproducible from the command line.
//
// Example usage:
//
//	# Register a wallet
//	signcore wallet add --name main
//
//	# Check a prior Bitcoin transaction against a claimed output
//	signcore validate-prev --raw 0100... --txid 4a5e... --index 0 --value 5000
//
//	# Export a Litecoin account key
//	signcore pubkey --chain ltc --wallet main --path "m/84'/2'/0'" --xpub
//
//	# Sign an EVM payload
//	signcore sign --chain evm --wallet main --path "m/44'/60'/0'/0/0" --txn 02f8... --chain-id 1
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/signcore/pkg/api"
	"github.com/suffix-labs/signcore/pkg/config"
	"github.com/suffix-labs/signcore/pkg/logger"
)

const version = "v0.1.0"

type globalFlags struct {
	configPath string
	reject     bool
}

func main() {
	// Ctrl-C aborts a running flow the way the device abort button does
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRoot().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "signcore",
		Short:         "Simulated multi-chain signing device",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "signcore.yaml", "Device policy file, created with defaults when missing")
	cmd.PersistentFlags().BoolVar(&g.reject, "reject", false, "Answer every prompt with a rejection")

	cmd.AddCommand(
		newWalletCmd(g),
		newValidatePrevCmd(g),
		newSignCmd(g),
		newPubkeyCmd(g),
	)
	return cmd
}

// open loads the policy and builds the device. The caller closes it.
func (g *globalFlags) open(cmd *cobra.Command) (*api.Device, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	ui := &api.ConsoleUI{Out: cmd.OutOrStdout(), Approve: !g.reject}
	return api.Open(cfg, log, ui)
}
