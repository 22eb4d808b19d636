package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"otasync/internal/api"
	"otasync/internal/booking"
	"otasync/internal/config"
	"otasync/internal/direct"
	"otasync/internal/pipeline"
	"otasync/internal/store"
	"otasync/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	managementPassword   = "m-secret"
	reservationsPassword = "r-secret"
)

type fakeSyncer struct {
	release chan struct{}
	synced  chan string
}

func (f *fakeSyncer) SyncAll(_ context.Context, properties []config.Property) pipeline.Report {
	<-f.release
	return pipeline.Report{Source: "fake", Total: pipeline.Counts{Stored: len(properties)}}
}

func (f *fakeSyncer) SyncOne(_ context.Context, p config.Property) pipeline.PropertyReport {
	f.synced <- p.ID
	return pipeline.PropertyReport{PropertyID: p.ID, PropertyName: p.Name, Counts: pipeline.Counts{Stored: 1}}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
}

type fixture struct {
	handler http.Handler
	syncer  *fakeSyncer
	sync    *api.SyncHandler
}

var hashes = func() map[api.Role]string {
	m, err := api.HashPassword(managementPassword)
	if err != nil {
		panic(err)
	}
	r, err := api.HashPassword(reservationsPassword)
	if err != nil {
		panic(err)
	}
	return map[api.Role]string{api.RoleManagement: m, api.RoleReservations: r}
}()

func setup(t *testing.T) fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Properties = config.Properties{"EdenBeachResort": "30357", "Villa Shakti": "27724"}

	otl := telemetry.Noop()

	online := store.NewMemory()
	rec := booking.NewRecord("30357", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rec.ExternalBookingID = "SFBOOKING_30357_001"
	rec.GuestName = "John Smith"
	rec.RoomNumber = "101"
	require.NoError(t, online.Insert(context.Background(), rec))

	svc := direct.NewService(direct.NewMemory(), otl).WithClock(func() time.Time {
		return time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	})

	syncer := &fakeSyncer{release: make(chan struct{}), synced: make(chan string, 1)}
	sh := api.NewSyncHandler(context.Background(), syncer, cfg.Properties, "fake", otl)

	h := api.NewRouter(cfg, api.NewAuth(hashes, otl), api.Handlers{
		Sync:   sh,
		Online: api.NewOnlineHandler(online, otl),
		Direct: api.NewDirectHandler(svc, otl),
	})

	return fixture{handler: h, syncer: syncer, sync: sh}
}

func (f fixture) do(t *testing.T, method, path string, role api.Role, body string) (int, envelope) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	switch role {
	case api.RoleManagement:
		req.SetBasicAuth(string(role), managementPassword)
	case api.RoleReservations:
		req.SetBasicAuth(string(role), reservationsPassword)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return rec.Code, env
}

func TestHealth(t *testing.T) {
	f := setup(t)

	code, env := f.do(t, http.MethodGet, "/v1/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", env.Message)
}

func TestAuth(t *testing.T) {
	f := setup(t)

	code, _ := f.do(t, http.MethodGet, "/v1/properties", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodGet, "/v1/properties", nil)
	req.SetBasicAuth(string(api.RoleManagement), reservationsPassword)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest(http.MethodGet, "/v1/properties", nil)
	req.SetBasicAuth("admin", managementPassword)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	code, _ = f.do(t, http.MethodGet, "/v1/analytics", api.RoleReservations, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, http.MethodGet, "/v1/analytics", api.RoleManagement, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestVerifyPassword(t *testing.T) {
	assert.NoError(t, api.VerifyPassword(managementPassword, hashes[api.RoleManagement]))
	assert.ErrorIs(t, api.VerifyPassword("nope", hashes[api.RoleManagement]), api.ErrInvalidPassword)
	assert.ErrorIs(t, api.VerifyPassword("", hashes[api.RoleManagement]), api.ErrInvalidPassword)
	assert.ErrorIs(t, api.VerifyPassword(managementPassword, ""), api.ErrInvalidPassword)

	_, err := api.HashPassword("")
	assert.Error(t, err)
}

func TestProperties(t *testing.T) {
	f := setup(t)

	code, env := f.do(t, http.MethodGet, "/v1/properties", api.RoleReservations, "")
	require.Equal(t, http.StatusOK, code)

	var got []config.Property
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, []config.Property{{Name: "Villa Shakti", ID: "27724"}, {Name: "EdenBeachResort", ID: "30357"}}, got)
}

func TestSync_OneRunAtATime(t *testing.T) {
	f := setup(t)

	code, env := f.do(t, http.MethodPost, "/v1/sync", api.RoleManagement, "")
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "sync started", env.Message)

	code, env = f.do(t, http.MethodPost, "/v1/sync", api.RoleReservations, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "a sync run is already in progress", env.Error)

	code, env = f.do(t, http.MethodGet, "/v1/sync", api.RoleManagement, "")
	require.Equal(t, http.StatusOK, code)
	var status api.SyncStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Running)

	close(f.syncer.release)
	f.sync.Wait()

	_, env = f.do(t, http.MethodGet, "/v1/sync", api.RoleManagement, "")
	status = api.SyncStatus{}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.Running)
	require.NotNil(t, status.Last)
	assert.Equal(t, 2, status.Last.Total.Stored)
}

func TestSync_OneProperty(t *testing.T) {
	f := setup(t)

	code, _ := f.do(t, http.MethodPost, "/v1/sync/99999", api.RoleManagement, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env := f.do(t, http.MethodPost, "/v1/sync/villa%20shakti", api.RoleManagement, "")
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "sync started for Villa Shakti", env.Message)

	assert.Equal(t, "27724", <-f.syncer.synced)
	f.sync.Wait()

	_, env = f.do(t, http.MethodGet, "/v1/sync", api.RoleManagement, "")
	var status api.SyncStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	require.NotNil(t, status.Last)
	require.Len(t, status.Last.Properties, 1)
	assert.Equal(t, 1, status.Last.Total.Stored)
}

func TestOnlineReservations(t *testing.T) {
	f := setup(t)

	code, env := f.do(t, http.MethodGet, "/v1/online-reservations?property_id=30357", api.RoleReservations, "")
	require.Equal(t, http.StatusOK, code)

	var page api.OnlinePage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Reservations, 1)
	assert.Equal(t, "SFBOOKING_30357_001", page.Reservations[0].ExternalBookingID)
	assert.Equal(t, store.DefaultLimit, page.Limit)

	_, env = f.do(t, http.MethodGet, "/v1/online-reservations?property_id=27724", api.RoleReservations, "")
	page = api.OnlinePage{}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Reservations)
}

const createBody = `{
	"property_name": "Villa Shakti",
	"room_no": "101",
	"guest_name": "Jane Doe",
	"mobile_no": "9876543210",
	"no_of_adults": 2,
	"check_in": "2025-01-05",
	"check_out": "2025-01-07",
	"tariff": 1200,
	"advance_amount": "500"
}`

func TestDirectReservations(t *testing.T) {
	f := setup(t)

	code, env := f.do(t, http.MethodPost, "/v1/direct-reservations", api.RoleReservations, createBody)
	require.Equal(t, http.StatusCreated, code, env.Error)

	var created direct.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "TIE20250105001", created.BookingID)
	assert.Equal(t, "2400", created.TotalTariff.String())
	assert.Equal(t, "1900", created.BalanceAmount.String())
	assert.Equal(t, "reservations", created.SubmittedBy)

	code, env = f.do(t, http.MethodPost, "/v1/direct-reservations", api.RoleReservations, createBody)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, env.Error, "TIE20250105001")

	code, env = f.do(t, http.MethodPost, "/v1/direct-reservations", api.RoleReservations, `{"room_no": "1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "property_name is required", env.Error)

	code, _ = f.do(t, http.MethodPost, "/v1/direct-reservations", api.RoleReservations, `{`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodGet, "/v1/direct-reservations/TIE20250105001", api.RoleReservations, "")
	require.Equal(t, http.StatusOK, code)

	update := strings.Replace(createBody, `"check_out": "2025-01-07"`, `"check_out": "2025-01-08", "plan_status": "Fully Paid"`, 1)
	code, env = f.do(t, http.MethodPut, "/v1/direct-reservations/TIE20250105001", api.RoleManagement, update)
	require.Equal(t, http.StatusOK, code, env.Error)

	var updated direct.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 3, updated.Days)
	assert.Equal(t, direct.StatusFullyPaid, updated.PlanStatus)
	assert.Equal(t, "management", updated.ModifiedBy)

	code, env = f.do(t, http.MethodGet, "/v1/direct-reservations?plan_status=Fully%20Paid", api.RoleReservations, "")
	require.Equal(t, http.StatusOK, code)
	var page direct.Page
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.TotalData)

	code, env = f.do(t, http.MethodGet, "/v1/analytics", api.RoleManagement, "")
	require.Equal(t, http.StatusOK, code)
	var summary direct.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Reservations)
	assert.Equal(t, "3600", summary.Revenue.String())

	code, _ = f.do(t, http.MethodDelete, "/v1/direct-reservations/TIE20250105001", api.RoleManagement, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodGet, "/v1/direct-reservations/TIE20250105001", api.RoleManagement, "")
	assert.Equal(t, http.StatusNotFound, code)
}
