package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluence-xyz/indexer/pkg/crawler"
	"github.com/fluence-xyz/indexer/pkg/enrich"
	"github.com/fluence-xyz/indexer/pkg/interpreter"
	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the crawler and one interpreter per contract in a single process",
	Long: `run is a convenience over invoking "crawl" and "interpret" separately: it
starts the crawler and one interpreter goroutine per --contract against a
shared store, and stops all of them if any one returns an error.`,
	RunE: runAll,
}

func init() {
	runCmd.Flags().StringSlice("contract", nil, "Contract address to interpret (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	contracts, _ := cmd.Flags().GetStringSlice("contract")
	if len(contracts) == 0 {
		return fmt.Errorf("run: at least one --contract is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := crawler.New(newClient(cfg), store, crawler.Config{
		Cooldown:     cfg.Cooldown,
		PollInterval: cfg.PollInterval,
	})
	if err := c.Init(ctx, ""); err != nil {
		return err
	}

	fetcher := enrich.NewHTTPMetadataFetcher(cfg.MetadataTimeout)

	serveMetrics(cfg.MetricsAddr)
	watchFeederGateway(ctx, cfg.FeederGatewayURL)
	log.Info("run: crawling and interpreting " + strings.Join(contracts, ", "))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.Run(groupCtx)
	})

	for _, contractAddress := range contracts {
		contractAddress := contractAddress
		it := interpreter.New(store, newClient(cfg), fetcher)
		group.Go(func() error {
			return interpretLoop(groupCtx, it, contractAddress)
		})
	}

	return group.Wait()
}

func interpretLoop(ctx context.Context, it *interpreter.Interpreter, contractAddress string) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := it.Tick(ctx, contractAddress); err != nil {
			return fmt.Errorf("interpret %s: %w", contractAddress, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interpreter.WaitInterval):
		}
	}
}
