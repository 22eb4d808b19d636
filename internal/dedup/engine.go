// Package dedup decides whether a scraped booking is new and stores it when it is.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"otasync/internal/booking"
	"otasync/internal/cache"
	"otasync/internal/failure"
	"otasync/internal/store"
	"otasync/internal/telemetry"

	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Stored                Outcome = "stored"
	SkippedDuplicate      Outcome = "skipped_duplicate"
	SkippedGuestDuplicate Outcome = "skipped_guest_duplicate"
	Rejected              Outcome = "rejected"
	Failed                Outcome = "failed"
)

// Skipped reports the expected, non-error outcomes that store nothing.
func (o Outcome) Skipped() bool {
	return o == SkippedDuplicate || o == SkippedGuestDuplicate
}

// Store is the lookup and insert surface the engine needs. Both store.Postgres and store.Memory satisfy it.
type Store interface {
	ExistsKey(ctx context.Context, key booking.Key) (bool, error)
	CountBooking(ctx context.Context, propertyID, externalBookingID string) (int, error)
	FindGuestDuplicate(ctx context.Context, rec booking.BookingRecord) (string, bool, error)
	Insert(ctx context.Context, rec booking.BookingRecord) error
}

type Engine struct {
	store Store
	seen  cache.SeenCache
	otel  telemetry.Otel
}

// New builds an engine. seen may be nil.
func New(s Store, seen cache.SeenCache, otl telemetry.Otel) *Engine {
	if otl == nil {
		otl = telemetry.Noop()
	}
	return &Engine{store: s, seen: seen, otel: otl}
}

// Upsert stores rec unless it is already there. The checks run in a fixed order: missing id, exact key,
// other rooms of the same booking, then same guest under another id. A booking that already has other
// rooms stored goes straight to insert so its next room is never taken for a guest duplicate.
//
// The lookups and the insert are separate statements; two writers racing on one key can both pass the
// checks, and the loser's insert then comes back as SkippedDuplicate.
func (e *Engine) Upsert(ctx context.Context, rec booking.BookingRecord) (Outcome, error) {
	ctx, scope := e.otel.NewScope(ctx, telemetry.ScopeSync, "dedup.Upsert")
	defer scope.End()

	scope.SetAttributes(map[string]any{
		telemetry.AttrProperty:  rec.PropertyID,
		telemetry.AttrBookingID: rec.ExternalBookingID,
	})

	l := log.With().
		Str("property", rec.PropertyID).
		Str("booking_id", rec.ExternalBookingID).
		Str("room", rec.RoomNumber).
		Logger()

	if strings.TrimSpace(rec.ExternalBookingID) == "" || rec.PropertyID == "" {
		l.Warn().Str("guest", rec.GuestName).Str("outcome", string(Rejected)).Msg("booking has no id, discarded")
		return Rejected, nil
	}

	key := rec.Key()

	exists, err := e.store.ExistsKey(ctx, key)
	if err != nil {
		scope.TraceError(err)
		return Failed, failure.StorageError("failed to look up booking", err)
	}
	if exists {
		l.Debug().Str("outcome", string(SkippedDuplicate)).Msg("booking already stored")
		e.mark(ctx, key)
		return SkippedDuplicate, nil
	}

	rooms, err := e.store.CountBooking(ctx, rec.PropertyID, rec.ExternalBookingID)
	if err != nil {
		scope.TraceError(err)
		return Failed, failure.StorageError("failed to count booking rooms", err)
	}

	if rooms > 0 {
		l.Info().Int("stored_rooms", rooms).Msg("additional room of a multi-room booking")
	} else if strings.TrimSpace(rec.GuestName) != "" {
		other, found, err := e.store.FindGuestDuplicate(ctx, rec)
		if err != nil {
			scope.TraceError(err)
			return Failed, failure.StorageError("failed to look up guest", err)
		}
		if found {
			l.Info().
				Str("existing_booking_id", other).
				Str("outcome", string(SkippedGuestDuplicate)).
				Msg("same guest, phone and room already stored under another booking id")
			return SkippedGuestDuplicate, nil
		}
	}

	if err := e.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			l.Debug().Str("outcome", string(SkippedDuplicate)).Msg("booking stored concurrently")
			return SkippedDuplicate, nil
		}

		scope.TraceError(err)
		l.Error().Err(err).Str("outcome", string(Failed)).Msg("failed to store booking")
		return Failed, failure.StorageError(fmt.Sprintf("failed to store booking %s", rec.ExternalBookingID), err)
	}

	l.Info().Str("guest", rec.GuestName).Str("outcome", string(Stored)).Msg("booking stored")
	e.mark(ctx, key)

	return Stored, nil
}

// Known reports whether key is already stored, consulting the cache before the store.
// Lookup errors count as unknown.
func (e *Engine) Known(ctx context.Context, key booking.Key) bool {
	if e.seen != nil {
		if ok, err := e.seen.Seen(ctx, key); err == nil && ok {
			return true
		}
	}

	ok, err := e.store.ExistsKey(ctx, key)
	if err != nil {
		log.Debug().Err(err).Str("booking_id", key.ExternalBookingID).Msg("known check failed")
		return false
	}
	if ok {
		e.mark(ctx, key)
	}
	return ok
}

func (e *Engine) mark(ctx context.Context, key booking.Key) {
	if e.seen == nil {
		return
	}
	if err := e.seen.Mark(ctx, key); err != nil {
		log.Warn().Err(err).Str("booking_id", key.ExternalBookingID).Msg("failed to cache booking key")
	}
}
