package direct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otasync/internal/booking"
	"otasync/internal/failure"
	"otasync/internal/store"
	"otasync/internal/telemetry"
	"otasync/internal/validator"

	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "direct"

	// idAttempts bounds retries when a generated id is taken by a concurrent create.
	idAttempts = 3
)

type Service struct {
	repo Repository
	otel telemetry.Otel
	now  func() time.Time
}

func NewService(repo Repository, otl telemetry.Otel) *Service {
	if otl == nil {
		otl = telemetry.Noop()
	}

	return &Service{repo: repo, otel: otl, now: time.Now}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) check(req Request) error {
	if err := validator.ValidateStruct(&req); err != nil {
		return err
	}

	in, _ := booking.ParseDate(req.CheckIn)
	out, _ := booking.ParseDate(req.CheckOut)
	if err := validator.ValidateStruct(&stay{CheckIn: in, CheckOut: out}); err != nil {
		return err
	}

	if req.Tariff.IsNegative() {
		return failure.BadRequestFromString("tariff must not be negative")
	}
	if req.AdvanceAmount.IsNegative() {
		return failure.BadRequestFromString("advance_amount must not be negative")
	}

	return nil
}

func (s *Service) guardGuest(ctx context.Context, m Reservation) error {
	other, found, err := s.repo.FindGuest(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to check duplicate guest: %w", err)
	}
	if found {
		return failure.Conflict(fmt.Sprintf("guest %s with mobile %s already holds room %s under booking %s",
			m.GuestName, m.MobileNo, m.RoomNo, other))
	}

	return nil
}

// Create validates req, assigns the next booking id of the day and stores the reservation.
func (s *Service) Create(ctx context.Context, req Request, user string) (res Reservation, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.check(req); err != nil {
		return res, err
	}

	m := req.toModel()
	if err = s.guardGuest(ctx, m); err != nil {
		return res, err
	}

	now := s.now()
	m.SubmittedBy = user
	m.ModifiedBy = user
	m.CreatedAt = now
	m.UpdatedAt = now

	stem := BookingIDPrefix + now.Format("20060102")

	for attempt := 1; ; attempt++ {
		existing, err := s.repo.IDsWithPrefix(ctx, stem)
		if err != nil {
			return res, fmt.Errorf("failed to list booking ids: %w", err)
		}

		m.BookingID = GenerateBookingID(BookingIDPrefix, now, existing)

		err = s.repo.Insert(ctx, m)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == idAttempts {
			log.Error().Err(err).Str("booking_id", m.BookingID).Msg("failed to create direct reservation")

			return res, fmt.Errorf("failed to create direct reservation: %w", err)
		}
	}

	log.Info().
		Str("booking_id", m.BookingID).
		Str("property_name", m.PropertyName).
		Str("user", user).
		Msg("direct reservation created")

	return m, nil
}

// Update replaces the editable fields of an existing reservation.
func (s *Service) Update(ctx context.Context, bookingID string, req Request, user string) (res Reservation, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	current, err := s.Get(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if err = s.check(req); err != nil {
		return res, err
	}

	m := req.toModel()
	m.BookingID = current.BookingID
	m.SubmittedBy = current.SubmittedBy
	m.CreatedAt = current.CreatedAt
	m.ModifiedBy = user
	m.UpdatedAt = s.now()

	if err = s.guardGuest(ctx, m); err != nil {
		return res, err
	}

	if err = s.repo.Update(ctx, m); err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to update direct reservation")

		return res, fmt.Errorf("failed to update direct reservation: %w", err)
	}

	log.Info().Str("booking_id", bookingID).Str("user", user).Msg("direct reservation updated")

	return m, nil
}

func (s *Service) Get(ctx context.Context, bookingID string) (Reservation, error) {
	m, err := s.repo.Get(ctx, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return m, failure.NotFound("reservation " + bookingID) //nolint:wrapcheck
	}
	if err != nil {
		return m, fmt.Errorf("failed to get direct reservation: %w", err)
	}

	return m, nil
}

func (s *Service) List(ctx context.Context, f Filter) (res Page, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".List")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return res, fmt.Errorf("failed to count direct reservations: %w", err)
	}

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return res, fmt.Errorf("failed to list direct reservations: %w", err)
	}
	if rows == nil {
		rows = []Reservation{}
	}

	res.Reservations = rows
	res.TotalData = total
	res.TotalPage = store.TotalPage(total, f.Limit)

	return res, nil
}

func (s *Service) Delete(ctx context.Context, bookingID string) error {
	if _, err := s.Get(ctx, bookingID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return fmt.Errorf("failed to delete direct reservation: %w", err)
	}

	log.Info().Str("booking_id", bookingID).Msg("direct reservation deleted")

	return nil
}

// Analytics summarizes every reservation matching f, ignoring its page.
func (s *Service) Analytics(ctx context.Context, f Filter) (Summary, error) {
	f.QueryParams = store.QueryParams{}

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load direct reservations: %w", err)
	}

	return Summarize(rows), nil
}
