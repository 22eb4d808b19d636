package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"otasync/internal/api/response"
	"otasync/internal/config"
	"otasync/internal/failure"
	"otasync/internal/pipeline"
	"otasync/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Syncer runs the scrape pipeline. *pipeline.Orchestrator implements it.
type Syncer interface {
	SyncAll(ctx context.Context, properties []config.Property) pipeline.Report
	SyncOne(ctx context.Context, p config.Property) pipeline.PropertyReport
}

// SyncStatus is the body of GET /sync.
type SyncStatus struct {
	Running bool             `json:"running"`
	Last    *pipeline.Report `json:"last,omitempty"`
}

// SyncHandler starts sync runs in the background, one at a time.
type SyncHandler struct {
	syncer     Syncer
	properties config.Properties
	source     string
	otel       telemetry.Otel

	// base outlives requests; cancelling it stops a running sync.
	base context.Context

	mu      sync.Mutex
	running bool
	last    *pipeline.Report
	wg      sync.WaitGroup
}

func NewSyncHandler(base context.Context, syncer Syncer, properties config.Properties, source string, otl telemetry.Otel) *SyncHandler {
	return &SyncHandler{
		syncer:     syncer,
		properties: properties,
		source:     source,
		otel:       otl,
		base:       base,
	}
}

func (h *SyncHandler) Router(router chi.Router) {
	router.Route("/sync", func(routerGroup chi.Router) {
		routerGroup.Get("/", h.Status)
		routerGroup.Post("/", h.SyncAll)
		routerGroup.Post("/{propertyID}", h.SyncOne)
	})
}

// start runs fn unless a run is in flight.
func (h *SyncHandler) start(fn func(ctx context.Context) pipeline.Report) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return failure.SyncInProgress
	}
	h.running = true
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		report := fn(h.base)

		h.mu.Lock()
		h.last = &report
		h.running = false
		h.mu.Unlock()
	}()

	return nil
}

// Wait blocks until the running sync, if any, finishes.
func (h *SyncHandler) Wait() {
	h.wg.Wait()
}

func (h *SyncHandler) Status(writer http.ResponseWriter, request *http.Request) {
	h.mu.Lock()
	status := SyncStatus{Running: h.running, Last: h.last}
	h.mu.Unlock()

	response.WithJSON(writer, http.StatusOK, status)
}

func (h *SyncHandler) SyncAll(writer http.ResponseWriter, request *http.Request) {
	_, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".SyncAll")
	defer scope.End()

	properties := h.properties.Sorted()

	err := h.start(func(ctx context.Context) pipeline.Report {
		return h.syncer.SyncAll(ctx, properties)
	})
	if err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	log.Info().Int("properties", len(properties)).Msg("sync run started over HTTP")

	response.WithMessage(writer, http.StatusAccepted, "sync started")
}

func (h *SyncHandler) SyncOne(writer http.ResponseWriter, request *http.Request) {
	_, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".SyncOne")
	defer scope.End()

	param := chi.URLParam(request, "propertyID")

	id, ok := h.properties.ID(param)
	if !ok {
		response.WithError(writer, failure.NotFound("property "+param))

		return
	}

	p := config.Property{ID: id, Name: h.properties.Name(id)}
	scope.SetAttribute(telemetry.AttrProperty, id)

	err := h.start(func(ctx context.Context) pipeline.Report {
		started := time.Now()
		pr := h.syncer.SyncOne(ctx, p)
		return pr.Report(h.source, started, time.Now())
	})
	if err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	log.Info().Str("property", id).Msg("sync run started over HTTP")

	response.WithMessage(writer, http.StatusAccepted, "sync started for "+p.Name)
}
