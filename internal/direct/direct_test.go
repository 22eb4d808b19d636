package direct_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"otasync/internal/booking"
	"otasync/internal/direct"
	"otasync/internal/failure"
	"otasync/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 1, 5, 10, 30, 0, 0, time.UTC)

func newService() (*direct.Service, *direct.Memory) {
	mem := direct.NewMemory()
	return direct.NewService(mem, nil).WithClock(func() time.Time { return day }), mem
}

func request() direct.Request {
	return direct.Request{
		PropertyName:  "Villa Shakti",
		RoomNo:        "101",
		RoomType:      "Deluxe",
		GuestName:     "Jane Doe",
		MobileNo:      "9876543210",
		Adults:        2,
		Children:      1,
		CheckIn:       "2025-01-05",
		CheckOut:      "2025-01-07",
		Tariff:        booking.NewAmount(1200),
		AdvanceAmount: booking.NewAmount(500),
		AdvanceMOP:    "UPI",
		MOB:           "Walk-in",
	}
}

func TestGenerateBookingID(t *testing.T) {
	assert.Equal(t, "TIE20250105001", direct.GenerateBookingID("TIE", day, nil))
	assert.Equal(t, "TIE20250105003", direct.GenerateBookingID("TIE", day, []string{"TIE20250105001", "TIE20250105002", "TIE20250104003"}))
	assert.Equal(t, "TIE20250105002", direct.GenerateBookingID("TIE", day, []string{"TIE20250105001", "TIE20250105003"}))
}

func TestDerive(t *testing.T) {
	r := direct.Reservation{
		Adults: 2, Children: 1, Infants: 1,
		CheckIn: "2025-01-05", CheckOut: "2025-01-08",
		Tariff: booking.NewAmount(1000), AdvanceAmount: booking.NewAmount(2500),
	}
	r.Derive()

	assert.Equal(t, 4, r.TotalPax)
	assert.Equal(t, 3, r.Days)
	assert.Equal(t, "3000", r.TotalTariff.String())
	assert.Equal(t, "500", r.BalanceAmount.String())
	assert.Equal(t, direct.StatusPending, r.PlanStatus)

	r.CheckOut = r.CheckIn
	r.Derive()
	assert.Zero(t, r.Days)
	assert.True(t, r.TotalTariff.IsZero())
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService()

	got, err := svc.Create(ctx, request(), "reservations")
	require.NoError(t, err)

	assert.Equal(t, "TIE20250105001", got.BookingID)
	assert.Equal(t, 3, got.TotalPax)
	assert.Equal(t, 2, got.Days)
	assert.Equal(t, "2400", got.TotalTariff.String())
	assert.Equal(t, "1900", got.BalanceAmount.String())
	assert.Equal(t, direct.StatusPending, got.PlanStatus)
	assert.Equal(t, "reservations", got.SubmittedBy)
	assert.Equal(t, day, got.CreatedAt)

	stored, err := mem.Get(ctx, got.BookingID)
	require.NoError(t, err)
	assert.Equal(t, got.GuestName, stored.GuestName)

	second := request()
	second.RoomNo = "102"
	second.PlanStatus = direct.StatusFullyPaid
	got, err = svc.Create(ctx, second, "reservations")
	require.NoError(t, err)
	assert.Equal(t, "TIE20250105002", got.BookingID)
	assert.Equal(t, direct.StatusFullyPaid, got.PlanStatus)
}

func TestService_Create_DuplicateGuest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Create(ctx, request(), "reservations")
	require.NoError(t, err)

	dup := request()
	dup.GuestName = "JANE DOE"
	_, err = svc.Create(ctx, dup, "reservations")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Contains(t, err.Error(), "TIE20250105001")
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *direct.Request)
		wantMsg string
	}{
		{
			name:    "missing guest",
			mutate:  func(r *direct.Request) { r.GuestName = "" },
			wantMsg: "guest_name is required",
		},
		{
			name:    "bad date",
			mutate:  func(r *direct.Request) { r.CheckIn = "05/01/2025" },
			wantMsg: "check_in must be a date formatted as 2006-01-02",
		},
		{
			name:    "check-out before check-in",
			mutate:  func(r *direct.Request) { r.CheckOut = "2025-01-04" },
			wantMsg: "check_out must not be before CheckIn",
		},
		{
			name:    "unknown status",
			mutate:  func(r *direct.Request) { r.PlanStatus = "Maybe" },
			wantMsg: "plan_status must be one of",
		},
		{
			name:    "negative tariff",
			mutate:  func(r *direct.Request) { r.Tariff = booking.NewAmount(-1) },
			wantMsg: "tariff must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newService()
			req := request()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req, "reservations")
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)

			n, _ := mem.Count(context.Background(), direct.Filter{})
			assert.Zero(t, n)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, request(), "reservations")
	require.NoError(t, err)

	// Editing a reservation does not collide with itself.
	edit := request()
	edit.CheckOut = "2025-01-09"
	edit.PlanStatus = direct.StatusConfirmed
	edit.ModifiedComments = "extended stay"

	got, err := svc.Update(ctx, created.BookingID, edit, "management")
	require.NoError(t, err)
	assert.Equal(t, created.BookingID, got.BookingID)
	assert.Equal(t, 4, got.Days)
	assert.Equal(t, "4800", got.TotalTariff.String())
	assert.Equal(t, "reservations", got.SubmittedBy)
	assert.Equal(t, "management", got.ModifiedBy)

	reread, err := svc.Get(ctx, created.BookingID)
	require.NoError(t, err)
	assert.Equal(t, direct.StatusConfirmed, reread.PlanStatus)
	assert.Equal(t, "extended stay", reread.ModifiedComments)

	_, err = svc.Update(ctx, "TIE19990101001", edit, "management")
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestService_Update_DuplicateGuest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Create(ctx, request(), "reservations")
	require.NoError(t, err)

	other := request()
	other.RoomNo = "102"
	second, err := svc.Create(ctx, other, "reservations")
	require.NoError(t, err)

	moved := request()
	_, err = svc.Update(ctx, second.BookingID, moved, "reservations")
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
}

func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	for i, room := range []string{"101", "102", "103"} {
		req := request()
		req.RoomNo = room
		req.CheckIn = []string{"2025-01-05", "2025-02-01", "2025-01-20"}[i]
		req.CheckOut = "2025-03-01"
		_, err := svc.Create(ctx, req, "reservations")
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, direct.Filter{QueryParams: store.QueryParams{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalData)
	assert.Equal(t, 2, page.TotalPage)
	require.Len(t, page.Reservations, 2)
	assert.Equal(t, "2025-01-05", page.Reservations[0].CheckIn)
	assert.Equal(t, "2025-01-20", page.Reservations[1].CheckIn)

	page, err = svc.List(ctx, direct.Filter{CheckInFrom: "2025-01-10", CheckInTo: "2025-01-31"})
	require.NoError(t, err)
	require.Len(t, page.Reservations, 1)
	assert.Equal(t, "103", page.Reservations[0].RoomNo)

	page, err = svc.List(ctx, direct.Filter{PropertyName: "Le Park Resort"})
	require.NoError(t, err)
	assert.Empty(t, page.Reservations)
	assert.NotNil(t, page.Reservations)

	require.NoError(t, svc.Delete(ctx, "TIE20250105001"))
	err = svc.Delete(ctx, "TIE20250105001")
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
}

func TestSummarize(t *testing.T) {
	rows := []direct.Reservation{
		{PropertyName: "Villa Shakti", CheckIn: "2025-01-05", TotalTariff: booking.NewAmount(2400), PlanStatus: direct.StatusConfirmed},
		{PropertyName: "Villa Shakti", CheckIn: "2025-01-06", TotalTariff: booking.NewAmount(1000)},
		{PropertyName: "Le Park Resort", CheckIn: "2024-12-30", TotalTariff: booking.NewAmount(600), PlanStatus: direct.StatusCancelled},
		{PropertyName: "Le Park Resort", CheckIn: "", TotalTariff: booking.NewAmount(50), PlanStatus: direct.StatusPending},
	}

	s := direct.Summarize(rows)

	assert.Equal(t, 4, s.Reservations)
	assert.Equal(t, "4050", s.Revenue.String())

	require.Len(t, s.ByProperty, 2)
	assert.Equal(t, "Le Park Resort", s.ByProperty[0].Key)
	assert.Equal(t, 2, s.ByProperty[0].Count)
	assert.Equal(t, "650", s.ByProperty[0].Revenue.String())
	assert.Equal(t, "3400", s.ByProperty[1].Revenue.String())

	require.Len(t, s.Monthly, 2)
	assert.Equal(t, "2024-12", s.Monthly[0].Key)
	assert.Equal(t, "2025-01", s.Monthly[1].Key)
	assert.Equal(t, 2, s.Monthly[1].Count)

	require.Len(t, s.Weekly, 2)
	assert.Equal(t, "2025-W01", s.Weekly[0].Key)
	assert.Equal(t, 2, s.Weekly[0].Count)
	assert.Equal(t, "2025-W02", s.Weekly[1].Key)

	keys := make([]string, 0, len(s.ByStatus))
	for _, b := range s.ByStatus {
		keys = append(keys, b.Key)
	}
	assert.Equal(t, []string{direct.StatusCancelled, direct.StatusConfirmed, direct.StatusPending}, keys)
	assert.Equal(t, 2, s.ByStatus[2].Count)
}

func TestService_Analytics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Create(ctx, request(), "reservations")
	require.NoError(t, err)

	s, err := svc.Analytics(ctx, direct.Filter{QueryParams: store.QueryParams{Page: 5, Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Reservations)
	assert.Equal(t, "2400", s.Revenue.String())
}
