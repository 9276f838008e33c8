// Command ingest runs the padelwin league ETL: it extracts one competition
// from the padelandwin API and upserts it into Postgres.
//
// Usage:
//
//	padelwin-ingest
//
// Configuration comes from the environment (and .env if present).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/padelwin-ingest/internal/config"
	"github.com/albapepper/padelwin-ingest/internal/db"
	"github.com/albapepper/padelwin-ingest/internal/logging"
	"github.com/albapepper/padelwin-ingest/internal/provider"
	"github.com/albapepper/padelwin-ingest/internal/provider/padelwin"
	"github.com/albapepper/padelwin-ingest/internal/seed"
)

var (
	_ seed.Source = (*padelwin.LeagueHandler)(nil)
	_ seed.Store  = (*db.Conn)(nil)
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	exitCode := 0
	root := &cobra.Command{
		Use:          "padelwin-ingest",
		Short:        "Extract a padelwin league competition and load it into Postgres",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(cmd.Context())
			exitCode = code
			return err
		},
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// run wires config, logging, the padelwin client and the database into one
// ETL run and returns the process exit code.
func run(parent context.Context) (int, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return 1, fmt.Errorf("load config: %w", err)
	}

	now := time.Now()
	logger, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Now: now})
	if err != nil {
		return 1, fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()

	rc := provider.NewRunContext(now, cfg.Location)
	logger.Info("Padel ETL started",
		"snapshot_date", rc.SnapshotDate.Format(time.DateOnly),
		"competition_filter", cfg.CompetitionFilter,
		"atomic_load", cfg.LoadAtomic)
	logger.Info("Logging configured", "file", logger.Path(), "level", logger.Level().String())

	client := padelwin.NewClient(padelwin.ClientConfig{
		BaseURL:           cfg.APIBaseURL,
		Referer:           cfg.APIReferer,
		Origin:            cfg.APIOrigin,
		UserAgent:         cfg.APIUserAgent,
		CookieName:        cfg.SessionCookieName,
		CookieValue:       cfg.SessionCookie,
		Timeout:           cfg.APITimeout,
		RequestsPerMinute: cfg.APIRequestsPerMin,
		Logger:            logger,
	})
	if cfg.SessionCookie == "" {
		logger.Warn("PADEL_SESSION_COOKIE is empty, requests are sent without a session")
	}
	handler := padelwin.NewLeagueHandler(client, logger)

	connect := func(ctx context.Context) (seed.Store, error) {
		conn, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to database")
		return conn, nil
	}

	runner := seed.NewRunner(handler, connect, seed.RunConfig{
		CompetitionFilter: cfg.CompetitionFilter,
		BatchSize:         cfg.LoadBatchSize,
		Atomic:            cfg.LoadAtomic,
	}, logger)
	report := runner.Run(ctx, rc)

	if report.Err != nil {
		logger.Error("ETL run failed", "error", fmt.Sprintf("%+v", report.Err))
	}
	logger.Info("ETL run finished",
		"status", report.State.String(),
		"duration", report.Duration,
		"extracted", report.Extract.Summary(),
		"loaded", report.Load.Summary())
	return report.ExitCode(), nil
}
