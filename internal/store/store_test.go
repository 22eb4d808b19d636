package store_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"otasync/internal/booking"
	"otasync/internal/config"
	"otasync/internal/store"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    store.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "eq",
			filter:    store.Filter{Field: "property_id", Value: "30357", Operator: store.FilterOperatorEq},
			wantWhere: "property_id = :property_id",
			wantArgs:  map[string]any{"property_id": "30357"},
		},
		{
			name:      "eq fold",
			filter:    store.Filter{Field: "guest_name", Value: "Jane Doe", Operator: store.FilterOperatorEqFold},
			wantWhere: "LOWER(guest_name) = LOWER(:guest_name)",
			wantArgs:  map[string]any{"guest_name": "Jane Doe"},
		},
		{
			name:      "like with table",
			filter:    store.Filter{Table: "r", Field: "guest_name", Value: "jan", Operator: store.FilterOperatorLike},
			wantWhere: "LOWER(r.guest_name) LIKE LOWER(:guest_name) ",
			wantArgs:  map[string]any{"guest_name": "%jan%"},
		},
		{
			name:      "in",
			filter:    store.Filter{Field: "room_number", Value: []string{"101", "102"}, Operator: store.FilterOperatorIn},
			wantWhere: "room_number IN (:room_number_0, :room_number_1) ",
			wantArgs:  map[string]any{"room_number_0": "101", "room_number_1": "102"},
		},
		{
			name:      "arg name",
			filter:    store.Filter{ArgName: "from", Field: "check_in", Value: "2025-01-01", Operator: store.FilterOperatorGreaterEq},
			wantWhere: "check_in >= :from",
			wantArgs:  map[string]any{"from": "2025-01-01"},
		},
		{
			name:      "is null",
			filter:    store.Filter{Field: "deleted_at", Operator: store.FilterIsNull},
			wantWhere: "deleted_at IS NULL",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterGroup_Nested(t *testing.T) {
	g := store.And(
		store.Filter{Field: "property_id", Value: "1", Operator: store.FilterOperatorEq},
		store.FilterGroup{
			Operator: store.FilterGroupOperatorOr,
			Filters: []any{
				store.Filter{Field: "a", Value: 1, Operator: store.FilterOperatorEq},
				store.Filter{Field: "b", Value: 2, Operator: store.FilterOperatorNotEq},
			},
		},
		store.And(),
	)

	where, args := g.GetWhereClause()
	assert.Equal(t, "(property_id = :property_id AND (a = :a OR b != :b))", where)
	assert.Len(t, args, 3)

	empty := store.And()
	where, _ = empty.GetWhereClause()
	assert.Empty(t, where)
}

func TestQueryParams_FromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=2&limit=10&sort_by=check_in&sort_dir=desc", nil)

	var q store.QueryParams
	q.FromRequest(r, store.OnlineSortable)
	assert.Equal(t, store.QueryParams{Page: 2, Limit: 10, SortBy: "check_in", SortDir: store.SortDirDesc}, q)

	r = httptest.NewRequest("GET", "/?sort_by=id;drop&page=-1", nil)
	q = store.QueryParams{}
	q.FromRequest(r, store.OnlineSortable)
	assert.Empty(t, q.SortBy)
	assert.Equal(t, store.DefaultPage, q.Page)
	assert.Equal(t, store.DefaultLimit, q.Limit)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Postgres.Host = "db"
	cfg.DB.Postgres.Port = "5432"
	cfg.DB.Postgres.Username = "ota"
	cfg.DB.Postgres.Password = "p@ss"
	cfg.DB.Postgres.Name = "otasync"
	cfg.DB.Postgres.SSLMode = "disable"

	assert.Equal(t, "postgres://ota:p%40ss@db:5432/otasync?sslmode=disable", store.DSN(cfg))
}

func record(pid, id, room, guest, phone string) booking.BookingRecord {
	r := booking.NewRecord(pid, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	r.ExternalBookingID = id
	r.RoomNumber = room
	r.GuestName = guest
	r.GuestPhone = phone
	return r
}

func TestOnlineReservation_RoundTrip(t *testing.T) {
	r := record("30357", "SFBOOKING_30357_1", "101", "John Smith", "+91 9876543210")
	r.CheckIn = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	r.CheckOut = time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	r.TotalTax = booking.ParseAmount("INR 480.50")
	r.SourceChannel = booking.Agoda

	row := store.FromRecord(r, time.Now())
	assert.Equal(t, r.Key().ID(), row.ID)
	assert.Equal(t, "2025-01-05", row.CheckIn)
	assert.Equal(t, "2025-01-07", row.CheckOut)
	assert.Equal(t, "Agoda", row.SourceChannel)

	back := row.Record()
	assert.Equal(t, r.Key(), back.Key())
	assert.True(t, back.CheckIn.Equal(r.CheckIn))
	assert.True(t, back.TotalTax.Equal(r.TotalTax))
	assert.Equal(t, booking.Agoda, back.SourceChannel)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	a := record("30357", "B1", "101", "Jane Doe", "555")
	require.NoError(t, m.Insert(ctx, a))

	err := m.Insert(ctx, a)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	ok, err := m.ExistsKey(ctx, a.Key())
	require.NoError(t, err)
	assert.True(t, ok)

	b := record("30357", "B1", "102", "Jane Doe", "555")
	require.NoError(t, m.Insert(ctx, b))

	n, err := m.CountBooking(ctx, "30357", "B1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	id, found, err := m.FindGuestDuplicate(ctx, record("30357", "X2", "101", " jane doe ", "555"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "B1", id)

	_, found, _ = m.FindGuestDuplicate(ctx, record("11111", "X2", "101", "jane doe", "555"))
	assert.False(t, found)

	rows, err := m.List(ctx, store.OnlineFilter{PropertyID: "30357", QueryParams: store.QueryParams{Page: 2, Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = m.List(ctx, store.OnlineFilter{Guest: "JANE"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	m.FailInsert = errors.New("disk full")
	assert.Error(t, m.Insert(ctx, record("30357", "B9", "1", "x", "y")))
	assert.Equal(t, 2, m.Len())
}

func TestTotalPage(t *testing.T) {
	assert.Equal(t, 0, store.TotalPage(0, 10))
	assert.Equal(t, 1, store.TotalPage(10, 10))
	assert.Equal(t, 2, store.TotalPage(11, 10))
	assert.Equal(t, 0, store.TotalPage(5, 0))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, store.IsUniqueViolation(fmt.Errorf("failed to insert data: %w", &pq.Error{Code: "23505"})))
	assert.False(t, store.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, store.IsUniqueViolation(errors.New("boom")))
	assert.False(t, store.IsUniqueViolation(nil))
}
