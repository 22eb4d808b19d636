package main

import (
	"os"
	"os/signal"
	"syscall"

	"otasync/internal/api"
	"otasync/internal/config"
	"otasync/internal/dedup"
	"otasync/internal/direct"
	"otasync/internal/pipeline"
	"otasync/internal/scraper"
	"otasync/internal/store"
	"otasync/internal/telemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the back office HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI during syncs started over HTTP")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otl := telemetry.New(cfg)
	defer shutdownTelemetry(otl)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	seen, closeSeen := openSeen(ctx, cfg, otl)
	defer closeSeen()

	s, _ := scraper.Get("stayflexi")
	online := store.NewPostgres(db, otl)
	orchestrator := pipeline.New(s, dedup.New(online, seen, otl), scrapeOptions(cfg, otl), otl)

	hashes := map[api.Role]string{
		api.RoleManagement:   cfg.Auth.ManagementHash,
		api.RoleReservations: cfg.Auth.ReservationsHash,
	}
	if cfg.Auth.ManagementHash == "" && cfg.Auth.ReservationsHash == "" {
		log.Warn().Msg("no role password hashes configured, every protected route will answer 401")
	}

	syncHandler := api.NewSyncHandler(ctx, orchestrator, cfg.Properties, s.Name(), otl)

	router := api.NewRouter(cfg, api.NewAuth(hashes, otl), api.Handlers{
		Sync:   syncHandler,
		Online: api.NewOnlineHandler(online, otl),
		Direct: api.NewDirectHandler(direct.NewService(direct.NewRepository(db, otl), otl), otl),
	})

	return api.Serve(ctx, cfg, router, syncHandler)
}
