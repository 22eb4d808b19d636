package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"otasync/internal/artifact"
	"otasync/internal/cache"
	"otasync/internal/config"
	"otasync/internal/dedup"
	"otasync/internal/pipeline"
	"otasync/internal/scraper"
	"otasync/internal/store"
	"otasync/internal/telemetry"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	syncProperty string
	syncSource   string
	snapshotDir  string
	dryRun       bool
	showUI       bool
	proxyURL     string
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Scrape every configured property and store new OTA bookings",
		Args:  cobra.NoArgs,
		RunE:  runSync,
	}

	cmd.Flags().StringVar(&syncProperty, "property", "", "Sync only this property (id or name)")
	cmd.Flags().StringVar(&syncSource, "source", "stayflexi", "Reservation source ("+strings.Join(scraper.Names(), ", ")+")")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Directory of saved listing pages for the snapshot source")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Keep bookings in memory instead of the database")
	cmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	cmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL, overrides OTASYNC_STAYFLEXI_PROXY_URL")
	addOutputFlags(cmd)

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()

	if _, err := resolveFormat(outputFormat, outputFile); err != nil {
		return err
	}

	properties, err := selectProperties(cfg.Properties, syncProperty)
	if err != nil {
		return err
	}

	s, ok := scraper.Get(syncSource)
	if !ok {
		return fmt.Errorf("unknown source: %s", syncSource)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otl := telemetry.New(cfg)
	defer shutdownTelemetry(otl)

	engine, closeStorage, err := newEngine(ctx, cfg, otl)
	if err != nil {
		return err
	}
	defer closeStorage()

	orchestrator := pipeline.New(s, engine, scrapeOptions(cfg, otl), otl)

	started := time.Now()

	var report pipeline.Report
	if syncProperty == "" {
		report = orchestrator.SyncAll(ctx, properties)
	} else {
		report = orchestrator.SyncOne(ctx, properties[0]).Report(s.Name(), started, time.Now())
	}

	if err := writeOutput(report); err != nil {
		return err
	}

	if report.Total.Errored > 0 {
		return fmt.Errorf("%d bookings or properties failed", report.Total.Errored)
	}

	return nil
}

func scrapeOptions(cfg *config.Config, otl telemetry.Otel) scraper.Options {
	sf := cfg.Stayflexi

	opts := scraper.Options{
		BaseURL:          sf.BaseURL,
		Email:            sf.Email,
		Password:         sf.Password,
		Headless:         sf.Headless && !showUI,
		ProxyURL:         sf.ProxyURL,
		NavigateTimeout:  sf.NavigateTimeout,
		ElementTimeout:   sf.ElementTimeout,
		SettleDelay:      sf.SettleDelay,
		NavigateInterval: sf.NavigateInterval,
		RetryAttempts:    sf.RetryAttempts,
		RetryBackoff:     sf.RetryBackoff,
		Artifacts:        artifact.New(cfg, otl),
		SnapshotDir:      snapshotDir,
	}
	if proxyURL != "" {
		opts.ProxyURL = proxyURL
	}

	return opts
}

// newEngine wires the dedup engine to postgres, or to memory for dry runs, with the redis seen-cache when configured.
func newEngine(ctx context.Context, cfg *config.Config, otl telemetry.Otel) (*dedup.Engine, func(), error) {
	if dryRun {
		log.Info().Msg("dry run, bookings are kept in memory")
		return dedup.New(store.NewMemory(), cache.NewMemory(), otl), func() {}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	seen, closeSeen := openSeen(ctx, cfg, otl)

	return dedup.New(store.NewPostgres(db, otl), seen, otl), func() {
		closeSeen()
		_ = db.Close()
	}, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DB.Postgres.AutoMigrate {
		if err := store.Migrate(cfg, store.MigrateUp); err != nil {
			return nil, err
		}
	}

	return store.Connect(ctx, cfg)
}

// openSeen returns the redis seen-cache, or nil when redis is not configured or unreachable.
func openSeen(ctx context.Context, cfg *config.Config, otl telemetry.Otel) (cache.SeenCache, func()) {
	client, err := cache.Connect(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("continuing without the seen-booking cache")
	}
	if client == nil {
		return nil, func() {}
	}

	return cache.NewRedisCache(client, otl, cfg.Cache.TTL), func() { _ = client.Close() }
}
