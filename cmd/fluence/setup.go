package main

import (
	"context"
	"net/http"
	"time"

	"github.com/fluence-xyz/indexer/pkg/chainclient"
	"github.com/fluence-xyz/indexer/pkg/config"
	"github.com/fluence-xyz/indexer/pkg/health"
	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/fluence-xyz/indexer/pkg/metrics"
	"github.com/fluence-xyz/indexer/pkg/storage"
	"github.com/spf13/cobra"
)

// loadConfig resolves the shared config layers (defaults, environment,
// --config file) and applies the --data-dir override flag, the same
// precedence order the root command documents.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func openStore(cfg config.Config) (storage.Store, error) {
	return storage.NewBoltStore(cfg.DataDir)
}

func newClient(cfg config.Config) *chainclient.Client {
	return chainclient.New(cfg.FeederGatewayURL, cfg.GatewayURL, cfg.RequestTimeout)
}

// serveMetrics starts the Prometheus/health HTTP endpoint in the
// background, matching the teacher's cluster init command wiring
// metrics.Handler and the liveness/readiness handlers onto one mux.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()
	log.Info("metrics endpoint: http://" + addr + "/metrics")
}

// watchFeederGateway polls the feeder gateway root and reports its
// reachability under the "feeder_gateway" component, so /health
// reflects an upstream outage instead of only this process's own
// liveness (/ready checks a fixed set of other components and does not
// look at this one). It only flips to unhealthy after Retries consecutive
// failures, so one dropped request doesn't flap readiness.
func watchFeederGateway(ctx context.Context, feederGatewayURL string) {
	checker := health.NewHTTPChecker(feederGatewayURL).WithTimeout(5 * time.Second)
	cfg := health.DefaultConfig()
	status := health.NewStatus()

	metrics.RegisterComponent("feeder_gateway", true, "not yet checked")

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			if !status.InStartPeriod(cfg) {
				result := checker.Check(ctx)
				wasHealthy := status.Healthy
				status.Update(result, cfg)
				if status.Healthy != wasHealthy {
					metrics.UpdateComponent("feeder_gateway", status.Healthy, result.Message)
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
