// Package api is the HTTP back office: sync triggers, reservation listings and direct reservation CRUD.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"otasync/internal/api/response"
	"otasync/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

type Handlers struct {
	Sync   *SyncHandler
	Online *OnlineHandler
	Direct *DirectHandler
}

// NewRouter mounts every route under /v1. Everything but /v1/health needs basic auth.
func NewRouter(cfg *config.Config, auth *Auth, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	if cfg.App.CORS.Enable {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.App.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           cfg.App.CORS.MaxAgeSeconds,
		}))
	}

	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Get("/health", func(writer http.ResponseWriter, _ *http.Request) {
			response.WithMessage(writer, http.StatusOK, "ok")
		})

		routerGroup.Group(func(protected chi.Router) {
			protected.Use(auth.Authenticate)

			protected.Get("/properties", propertiesHandler(cfg.Properties))
			h.Sync.Router(protected)
			h.Online.Router(protected)
			h.Direct.Router(protected)
		})
	})

	return router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ww := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, request)

		log.Info().
			Str("method", request.Method).
			Str("path", request.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(request.Context())).
			Dur("took", time.Since(started)).
			Msg("http request")
	})
}

// Serve listens until ctx is cancelled, then drains in-flight requests and any running sync.
func Serve(ctx context.Context, cfg *config.Config, handler http.Handler, sync *SyncHandler) error {
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting up HTTP server.")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server.")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	if sync != nil {
		sync.Wait()
	}

	return nil
}
