package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-paybot/app/controller"
	"github.com/vibast-solutions/ms-go-paybot/app/types"
	"github.com/vibast-solutions/ms-go-paybot/config"
)

var statsWorker bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report subscription statistics from a running serve instance",
	Run: func(_ *cobra.Command, _ []string) {
		cfg, err := config.Load()
		if err != nil {
			logrus.WithError(err).Fatal("Failed to load configuration")
		}
		if err := configureLogging(cfg); err != nil {
			logrus.WithError(err).Fatal("Failed to configure logging")
		}

		if statsWorker {
			runStatsWorker(cfg)
			return
		}
		runJob("stats", func() error { return reportStats(context.Background(), cfg) })
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsWorker, "worker", false, "Run continuously using configured interval")
}

func runStatsWorker(cfg *config.Config) {
	if cfg.Jobs.StatsInterval <= 0 {
		logrus.WithField("job", "stats").Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(cfg.Jobs.StatsInterval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob("stats", func() error { return reportStats(ctx, cfg) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", "stats").Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob("stats", func() error { return reportStats(ctx, cfg) })
		}
	}
}

func reportStats(ctx context.Context, cfg *config.Config) error {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := cfg.Jobs.StatsEndpoint + "/internal/subscriptions/stats"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(controller.APIKeyHeader, cfg.App.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("stats request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats endpoint responded %d", resp.StatusCode)
	}

	var stats types.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"total":     stats.Total,
		"active":    stats.Active,
		"cancelled": stats.Cancelled,
	}).Info("subscription_stats")
	return nil
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
