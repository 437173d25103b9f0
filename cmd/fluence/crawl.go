package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fluence-xyz/indexer/pkg/crawler"
	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the feeder gateway into the block store",
	Long: `crawl runs the forward and backfill cursors described in the crawler
design: it tip-follows new blocks while draining everything behind the
lowest block already persisted.`,
	RunE: runCrawl,
}

var crawlPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Re-check non-terminal blocks and repair reorgs",
	RunE:  runCrawlPurge,
}

func init() {
	crawlCmd.Flags().String("thru", "", "Block hash to crawl down from to genesis, bounded (no tip-following)")
	crawlPurgeCmd.Flags().Bool("dry", false, "Log what would change without writing it")
	crawlCmd.AddCommand(crawlPurgeCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	thru, _ := cmd.Flags().GetString("thru")

	c := crawler.New(newClient(cfg), store, crawler.Config{
		Cooldown:     cfg.Cooldown,
		PollInterval: cfg.PollInterval,
	})
	if err := c.Init(cmd.Context(), thru); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveMetrics(cfg.MetricsAddr)
	watchFeederGateway(ctx, cfg.FeederGatewayURL)
	log.Info("crawler started")

	return c.Run(ctx)
}

func runCrawlPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dryRun, _ := cmd.Flags().GetBool("dry")

	c := crawler.New(newClient(cfg), store, crawler.Config{
		Cooldown:     cfg.Cooldown,
		PollInterval: cfg.PollInterval,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info("purge started")
	return c.Purge(ctx, dryRun)
}
