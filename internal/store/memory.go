package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"otasync/internal/booking"
)

// Memory holds online reservations in process. It backs dry runs and tests.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]OnlineReservation
	now  func() time.Time

	// FailInsert, when set, is returned by every Insert.
	FailInsert error
}

func NewMemory() *Memory {
	return &Memory{rows: map[string]OnlineReservation{}, now: time.Now}
}

func (m *Memory) ExistsKey(_ context.Context, key booking.Key) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.rows[key.ID()]
	return ok, nil
}

func (m *Memory) CountBooking(_ context.Context, propertyID, externalBookingID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, r := range m.rows {
		if r.PropertyID == propertyID && r.ExternalBookingID == externalBookingID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) FindGuestDuplicate(_ context.Context, rec booking.BookingRecord) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name := strings.TrimSpace(rec.GuestName)
	for _, r := range m.rows {
		if r.PropertyID == rec.PropertyID &&
			strings.EqualFold(r.GuestName, name) &&
			r.GuestPhone == rec.GuestPhone &&
			r.RoomNumber == rec.RoomNumber &&
			r.ExternalBookingID != rec.ExternalBookingID {
			return r.ExternalBookingID, true, nil
		}
	}
	return "", false, nil
}

func (m *Memory) Insert(_ context.Context, rec booking.BookingRecord) error {
	if m.FailInsert != nil {
		return m.FailInsert
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row := FromRecord(rec, m.now())
	if _, ok := m.rows[row.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.Key())
	}
	m.rows[row.ID] = row
	return nil
}

// List applies the filter fields and pagination; rows come back ordered by check-in, then id.
func (m *Memory) List(_ context.Context, f OnlineFilter) ([]OnlineReservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []OnlineReservation
	for _, r := range m.rows {
		switch {
		case f.PropertyID != "" && r.PropertyID != f.PropertyID,
			f.Channel != "" && !strings.EqualFold(r.SourceChannel, f.Channel),
			f.CheckInFrom != "" && r.CheckIn < f.CheckInFrom,
			f.CheckInTo != "" && r.CheckIn > f.CheckInTo,
			f.Guest != "" && !strings.Contains(strings.ToLower(r.GuestName), strings.ToLower(f.Guest)),
			f.ExternalID != "" && r.ExternalBookingID != f.ExternalID:
			continue
		}
		out = append(out, r)
	}

	slices.SortFunc(out, func(a, b OnlineReservation) int {
		return cmp.Or(cmp.Compare(a.CheckIn, b.CheckIn), cmp.Compare(a.ID, b.ID))
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

// Len is the number of stored rows.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
