package api

import (
	"context"
	"net/http"

	"otasync/internal/api/response"
	"otasync/internal/config"
	"otasync/internal/direct"
	"otasync/internal/store"
	"otasync/internal/telemetry"
	"otasync/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// OnlineLister lists stored online reservations. store.Postgres and store.Memory implement it.
type OnlineLister interface {
	List(ctx context.Context, f store.OnlineFilter) ([]store.OnlineReservation, error)
}

type OnlineHandler struct {
	store OnlineLister
	otel  telemetry.Otel
}

func NewOnlineHandler(s OnlineLister, otl telemetry.Otel) *OnlineHandler {
	return &OnlineHandler{store: s, otel: otl}
}

func (h *OnlineHandler) Router(router chi.Router) {
	router.Get("/online-reservations", h.List)
}

// OnlinePage is the body of GET /online-reservations.
type OnlinePage struct {
	Reservations []store.OnlineReservation `json:"reservations"`
	Page         int                       `json:"page"`
	Limit        int                       `json:"limit"`
}

func (h *OnlineHandler) List(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".ListOnline")
	defer scope.End()

	q := request.URL.Query()
	f := store.OnlineFilter{
		PropertyID:  q.Get("property_id"),
		Channel:     q.Get("channel"),
		CheckInFrom: q.Get("check_in_from"),
		CheckInTo:   q.Get("check_in_to"),
		Guest:       q.Get("guest"),
		ExternalID:  q.Get("booking_id"),
	}
	f.QueryParams.FromRequest(request, store.OnlineSortable)

	rows, err := h.store.List(ctx, f)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list online reservations")
		response.WithError(writer, err)

		return
	}
	if rows == nil {
		rows = []store.OnlineReservation{}
	}

	response.WithJSON(writer, http.StatusOK, OnlinePage{Reservations: rows, Page: f.Page, Limit: f.Limit})
}

type DirectHandler struct {
	service *direct.Service
	otel    telemetry.Otel
}

func NewDirectHandler(service *direct.Service, otl telemetry.Otel) *DirectHandler {
	return &DirectHandler{service: service, otel: otl}
}

func (h *DirectHandler) Router(router chi.Router) {
	router.Route("/direct-reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/", h.Create)
		routerGroup.Get("/", h.List)
		routerGroup.Get("/{id}", h.Get)
		routerGroup.Put("/{id}", h.Update)
		routerGroup.Delete("/{id}", h.Delete)
	})

	router.With(Require(RoleManagement)).Get("/analytics", h.Analytics)
}

func directFilter(request *http.Request) direct.Filter {
	q := request.URL.Query()
	f := direct.Filter{
		PropertyName: q.Get("property_name"),
		PlanStatus:   q.Get("plan_status"),
		CheckIn:      q.Get("check_in"),
		CheckOut:     q.Get("check_out"),
		EnquiryDate:  q.Get("enquiry_date"),
		BookingDate:  q.Get("booking_date"),
		CheckInFrom:  q.Get("check_in_from"),
		CheckInTo:    q.Get("check_in_to"),
		Guest:        q.Get("guest"),
	}
	f.QueryParams.FromRequest(request, direct.Sortable)

	return f
}

func user(request *http.Request) string {
	role, _ := RoleFrom(request.Context())
	return string(role)
}

func (h *DirectHandler) Create(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".CreateDirect")
	defer scope.End()

	req := direct.Request{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	res, err := h.service.Create(ctx, req, user(request))
	if err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusCreated, res)
}

func (h *DirectHandler) List(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".ListDirect")
	defer scope.End()

	page, err := h.service.List(ctx, directFilter(request))
	if err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, page)
}

func (h *DirectHandler) Get(writer http.ResponseWriter, request *http.Request) {
	res, err := h.service.Get(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

func (h *DirectHandler) Update(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".UpdateDirect")
	defer scope.End()

	req := direct.Request{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	res, err := h.service.Update(ctx, chi.URLParam(request, "id"), req, user(request))
	if err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

func (h *DirectHandler) Delete(writer http.ResponseWriter, request *http.Request) {
	if err := h.service.Delete(request.Context(), chi.URLParam(request, "id")); err != nil {
		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "reservation deleted")
}

func (h *DirectHandler) Analytics(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := h.otel.NewScope(request.Context(), telemetry.ScopeHandler, telemetry.ScopeHandler+".Analytics")
	defer scope.End()

	summary, err := h.service.Analytics(ctx, directFilter(request))
	if err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, summary)
}

func propertiesHandler(properties config.Properties) http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		response.WithJSON(writer, http.StatusOK, properties.Sorted())
	}
}
