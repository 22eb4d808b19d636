package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"otasync/internal/booking"
	"otasync/internal/telemetry"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	OnlineTableName  = "online_reservations"
	OnlineEntityName = "online_reservation"

	FieldID                = "id"
	FieldPropertyID        = "property_id"
	FieldExternalBookingID = "external_booking_id"
	FieldGuestName         = "guest_name"
	FieldGuestPhone        = "guest_phone"
	FieldRoomNumber        = "room_number"
	FieldCheckIn           = "check_in"
	FieldSourceChannel     = "source_channel"
	FieldExtractedAt       = "extracted_at"

	uniqueViolation = "23505"
)

// OnlineSortable lists the columns online reservations may be ordered by.
var OnlineSortable = []string{FieldCheckIn, FieldExtractedAt, FieldPropertyID, FieldGuestName, FieldSourceChannel}

// ErrDuplicate reports an insert rejected because the row already exists.
var ErrDuplicate = errors.New("row already exists")

// OnlineReservation is the stored form of a scraped booking.
type OnlineReservation struct {
	ID                string         `db:"id"                  json:"id"`
	PropertyID        string         `db:"property_id"         json:"property_id"`
	PropertyName      string         `db:"property_name"       json:"property_name"`
	ExternalBookingID string         `db:"external_booking_id" json:"external_booking_id"`
	GuestName         string         `db:"guest_name"          json:"guest_name"`
	GuestPhone        string         `db:"guest_phone"         json:"guest_phone"`
	CheckIn           string         `db:"check_in"            json:"check_in"`
	CheckOut          string         `db:"check_out"           json:"check_out"`
	Adults            int            `db:"adults"              json:"adults"`
	Children          int            `db:"children"            json:"children"`
	Infants           int            `db:"infants"             json:"infants"`
	RoomNumber        string         `db:"room_number"         json:"room_number"`
	RoomType          string         `db:"room_type"           json:"room_type"`
	RatePlan          string         `db:"rate_plan"           json:"rate_plan"`
	TotalWithoutTax   booking.Amount `db:"total_without_tax"   json:"total_without_tax"`
	TotalTax          booking.Amount `db:"total_tax"           json:"total_tax"`
	TotalWithTax      booking.Amount `db:"total_with_tax"      json:"total_with_tax"`
	PaymentMade       booking.Amount `db:"payment_made"        json:"payment_made"`
	BalanceDue        booking.Amount `db:"balance_due"         json:"balance_due"`
	SourceChannel     string         `db:"source_channel"      json:"source_channel"`
	SourceText        string         `db:"source_text"         json:"source_text"`
	ExtractedAt       time.Time      `db:"extracted_at"        json:"extracted_at"`
	CreatedAt         time.Time      `db:"created_at"          json:"created_at"`
}

// FromRecord flattens a booking record into its row.
func FromRecord(r booking.BookingRecord, now time.Time) OnlineReservation {
	return OnlineReservation{
		ID:                r.Key().ID(),
		PropertyID:        r.PropertyID,
		PropertyName:      r.PropertyName,
		ExternalBookingID: r.ExternalBookingID,
		GuestName:         r.GuestName,
		GuestPhone:        r.GuestPhone,
		CheckIn:           booking.FormatDate(r.CheckIn),
		CheckOut:          booking.FormatDate(r.CheckOut),
		Adults:            r.Occupancy.Adults,
		Children:          r.Occupancy.Children,
		Infants:           r.Occupancy.Infants,
		RoomNumber:        r.RoomNumber,
		RoomType:          r.RoomType,
		RatePlan:          r.RatePlan,
		TotalWithoutTax:   r.TotalWithoutTax,
		TotalTax:          r.TotalTax,
		TotalWithTax:      r.TotalWithTax,
		PaymentMade:       r.PaymentMade,
		BalanceDue:        r.BalanceDue,
		SourceChannel:     string(r.SourceChannel),
		SourceText:        r.SourceText,
		ExtractedAt:       r.ExtractedAt,
		CreatedAt:         now,
	}
}

// Record turns a row back into a booking record. Malformed dates read as unknown.
func (o OnlineReservation) Record() booking.BookingRecord {
	in, _ := booking.ParseDate(o.CheckIn)
	out, _ := booking.ParseDate(o.CheckOut)

	return booking.BookingRecord{
		ExternalBookingID: o.ExternalBookingID,
		GuestName:         o.GuestName,
		GuestPhone:        o.GuestPhone,
		CheckIn:           in,
		CheckOut:          out,
		Occupancy:         booking.Occupancy{Adults: o.Adults, Children: o.Children, Infants: o.Infants},
		RoomNumber:        o.RoomNumber,
		RoomType:          o.RoomType,
		RatePlan:          o.RatePlan,
		Commercial: booking.Commercial{
			TotalWithoutTax: o.TotalWithoutTax,
			TotalTax:        o.TotalTax,
			TotalWithTax:    o.TotalWithTax,
			PaymentMade:     o.PaymentMade,
			BalanceDue:      o.BalanceDue,
		},
		SourceChannel: booking.Channel(o.SourceChannel),
		SourceText:    o.SourceText,
		PropertyID:    o.PropertyID,
		PropertyName:  o.PropertyName,
		ExtractedAt:   o.ExtractedAt,
	}
}

// OnlineFilter narrows a listing of online reservations. Zero fields do not filter.
type OnlineFilter struct {
	PropertyID  string
	Channel     string
	CheckInFrom string
	CheckInTo   string
	Guest       string
	ExternalID  string
	QueryParams
}

func (f OnlineFilter) group() FilterGroup {
	var filters []any
	if f.PropertyID != "" {
		filters = append(filters, Filter{Field: FieldPropertyID, Value: f.PropertyID, Operator: FilterOperatorEq})
	}
	if f.Channel != "" {
		filters = append(filters, Filter{Field: FieldSourceChannel, Value: f.Channel, Operator: FilterOperatorEqFold})
	}
	if f.CheckInFrom != "" {
		filters = append(filters, Filter{ArgName: "check_in_from", Field: FieldCheckIn, Value: f.CheckInFrom, Operator: FilterOperatorGreaterEq})
	}
	if f.CheckInTo != "" {
		filters = append(filters, Filter{ArgName: "check_in_to", Field: FieldCheckIn, Value: f.CheckInTo, Operator: FilterOperatorLessEq})
	}
	if f.Guest != "" {
		filters = append(filters, Filter{Field: FieldGuestName, Value: f.Guest, Operator: FilterOperatorLike})
	}
	if f.ExternalID != "" {
		filters = append(filters, Filter{Field: FieldExternalBookingID, Value: f.ExternalID, Operator: FilterOperatorEq})
	}
	return And(filters...)
}

// Postgres keeps online reservations in the online_reservations table.
type Postgres struct {
	repo Repository[OnlineReservation]
	now  func() time.Time
}

func NewPostgres(db *sqlx.DB, otl telemetry.Otel) *Postgres {
	return &Postgres{
		repo: NewRepository[OnlineReservation](OnlineEntityName, OnlineTableName, FieldID, db, otl),
		now:  time.Now,
	}
}

func keyFilter(key booking.Key) FilterGroup {
	return And(Filter{Field: FieldID, Value: key.ID(), Operator: FilterOperatorEq})
}

func (p *Postgres) ExistsKey(ctx context.Context, key booking.Key) (bool, error) {
	return p.repo.Exist(ctx, keyFilter(key))
}

func (p *Postgres) CountBooking(ctx context.Context, propertyID, externalBookingID string) (int, error) {
	return p.repo.Count(ctx, And(
		Filter{Field: FieldPropertyID, Value: propertyID, Operator: FilterOperatorEq},
		Filter{Field: FieldExternalBookingID, Value: externalBookingID, Operator: FilterOperatorEq},
	))
}

// FindGuestDuplicate returns the booking id of a stored row for the same guest, phone and room of the
// same property under a different booking id.
func (p *Postgres) FindGuestDuplicate(ctx context.Context, r booking.BookingRecord) (string, bool, error) {
	row, err := p.repo.Get(ctx, And(
		Filter{Field: FieldPropertyID, Value: r.PropertyID, Operator: FilterOperatorEq},
		Filter{Field: FieldGuestName, Value: strings.TrimSpace(r.GuestName), Operator: FilterOperatorEqFold},
		Filter{Field: FieldGuestPhone, Value: r.GuestPhone, Operator: FilterOperatorEq},
		Filter{Field: FieldRoomNumber, Value: r.RoomNumber, Operator: FilterOperatorEq},
		Filter{Field: FieldExternalBookingID, Value: r.ExternalBookingID, Operator: FilterOperatorNotEq},
	), FieldExternalBookingID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.ExternalBookingID, true, nil
}

// Insert stores a new row. A primary key collision is reported as ErrDuplicate.
func (p *Postgres) Insert(ctx context.Context, r booking.BookingRecord) error {
	err := p.repo.Insert(ctx, FromRecord(r, p.now()))
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, r.Key())
	}

	return err
}

// IsUniqueViolation reports a postgres unique constraint rejection.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (p *Postgres) List(ctx context.Context, f OnlineFilter) ([]OnlineReservation, error) {
	return p.repo.GetAll(ctx, f.QueryParams, f.group())
}
