package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluence-xyz/indexer/pkg/enrich"
	"github.com/fluence-xyz/indexer/pkg/interpreter"
	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/spf13/cobra"
)

var interpretCmd = &cobra.Command{
	Use:   "interpret CONTRACT_ADDRESS",
	Short: "Apply a registered contract's transactions to the semantic store",
	Long: `interpret drives one contract's block_counter cursor forward one block at
a time, applying every transaction addressed to it in transaction_index
order. It runs until interrupted, sleeping for the interpreter's wait
interval after every tick.`,
	Args: cobra.ExactArgs(1),
	RunE: runInterpret,
}

func runInterpret(cmd *cobra.Command, args []string) error {
	contractAddress := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher := enrich.NewHTTPMetadataFetcher(cfg.MetadataTimeout)
	it := interpreter.New(store, newClient(cfg), fetcher)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := it.EnsureNativeTokenContract(ctx); err != nil {
		return fmt.Errorf("interpret: bootstrap native token contract: %w", err)
	}

	serveMetrics(cfg.MetricsAddr)
	log.Info("interpreter started for " + contractAddress)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := it.Tick(ctx, contractAddress); err != nil {
			log.Errorf("interpret: tick failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interpreter.WaitInterval):
		}
	}
}
