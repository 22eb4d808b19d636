package direct

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"otasync/internal/store"
	"otasync/internal/telemetry"

	"github.com/jmoiron/sqlx"
)

// Repository persists direct reservations. Get returns store.ErrNotFound for unknown ids and
// Insert returns store.ErrDuplicate when the booking id is taken.
type Repository interface {
	Insert(ctx context.Context, r Reservation) error
	Get(ctx context.Context, bookingID string) (Reservation, error)
	List(ctx context.Context, f Filter) ([]Reservation, error)
	Count(ctx context.Context, f Filter) (int, error)
	Update(ctx context.Context, r Reservation) error
	Delete(ctx context.Context, bookingID string) error
	IDsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	// FindGuest returns the id of another reservation with the same guest name (any case), mobile and room.
	FindGuest(ctx context.Context, r Reservation) (string, bool, error)
}

type repositoryImpl struct {
	store.Repository[Reservation]
}

func NewRepository(db *sqlx.DB, otl telemetry.Otel) Repository {
	return &repositoryImpl{
		Repository: store.NewRepository[Reservation](EntityName, TableName, FieldBookingID, db, otl),
	}
}

func byID(id string) store.FilterGroup {
	return store.And(store.Filter{Field: FieldBookingID, Value: id, Operator: store.FilterOperatorEq})
}

func (r *repositoryImpl) Insert(ctx context.Context, m Reservation) error {
	err := r.Repository.Insert(ctx, m)
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, m.BookingID)
	}

	return err
}

func (r *repositoryImpl) Get(ctx context.Context, bookingID string) (Reservation, error) {
	return r.Repository.Get(ctx, byID(bookingID))
}

func (r *repositoryImpl) List(ctx context.Context, f Filter) ([]Reservation, error) {
	return r.Repository.GetAll(ctx, f.QueryParams, f.group())
}

func (r *repositoryImpl) Count(ctx context.Context, f Filter) (int, error) {
	return r.Repository.Count(ctx, f.group())
}

func (r *repositoryImpl) Update(ctx context.Context, m Reservation) error {
	return r.Repository.Update(ctx, m.columns(), byID(m.BookingID))
}

func (r *repositoryImpl) Delete(ctx context.Context, bookingID string) error {
	return r.Repository.Delete(ctx, byID(bookingID))
}

func (r *repositoryImpl) IDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.Repository.GetAll(ctx, store.QueryParams{}, store.And(
		store.Filter{Field: FieldBookingID, Value: prefix, Operator: store.FilterOperatorLike},
	), FieldBookingID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if strings.HasPrefix(row.BookingID, prefix) {
			ids = append(ids, row.BookingID)
		}
	}

	return ids, nil
}

func (r *repositoryImpl) FindGuest(ctx context.Context, m Reservation) (string, bool, error) {
	filters := []any{
		store.Filter{Field: FieldGuestName, Value: m.GuestName, Operator: store.FilterOperatorEqFold},
		store.Filter{Field: FieldMobileNo, Value: m.MobileNo, Operator: store.FilterOperatorEq},
		store.Filter{Field: FieldRoomNo, Value: m.RoomNo, Operator: store.FilterOperatorEq},
	}
	if m.BookingID != "" {
		filters = append(filters, store.Filter{Field: FieldBookingID, Value: m.BookingID, Operator: store.FilterOperatorNotEq})
	}

	row, err := r.Repository.Get(ctx, store.And(filters...), FieldBookingID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return row.BookingID, true, nil
}

// Memory keeps direct reservations in process, for dry runs and tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]Reservation
}

func NewMemory() *Memory {
	return &Memory{rows: map[string]Reservation{}}
}

func (m *Memory) Insert(_ context.Context, r Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[r.BookingID]; ok {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, r.BookingID)
	}
	m.rows[r.BookingID] = r

	return nil
}

func (m *Memory) Get(_ context.Context, bookingID string) (Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rows[bookingID]
	if !ok {
		return Reservation{}, store.ErrNotFound
	}

	return r, nil
}

// List orders by check-in then booking id and applies the page.
func (m *Memory) List(_ context.Context, f Filter) ([]Reservation, error) {
	out := m.matching(f)

	slices.SortFunc(out, func(a, b Reservation) int {
		return cmp.Or(cmp.Compare(a.CheckIn, b.CheckIn), cmp.Compare(a.BookingID, b.BookingID))
	})

	if f.Limit > 0 {
		start := 0
		if f.Page > 1 {
			start = (f.Page - 1) * f.Limit
		}
		if start >= len(out) {
			return nil, nil
		}
		out = out[start:min(start+f.Limit, len(out))]
	}

	return out, nil
}

func (m *Memory) Count(_ context.Context, f Filter) (int, error) {
	return len(m.matching(f)), nil
}

func (m *Memory) matching(f Filter) []Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Reservation
	for _, r := range m.rows {
		if f.matches(r) {
			out = append(out, r)
		}
	}

	return out
}

func (m *Memory) Update(_ context.Context, r Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[r.BookingID]; ok {
		m.rows[r.BookingID] = r
	}

	return nil
}

func (m *Memory) Delete(_ context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, bookingID)

	return nil
}

func (m *Memory) IDsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id := range m.rows {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (m *Memory) FindGuest(_ context.Context, r Reservation) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, other := range m.rows {
		if id == r.BookingID {
			continue
		}
		if strings.EqualFold(other.GuestName, r.GuestName) && other.MobileNo == r.MobileNo && other.RoomNo == r.RoomNo {
			return id, true, nil
		}
	}

	return "", false, nil
}
