// Package booking holds the record types shared by the scraping pipeline and the stores.
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Unknown marks an assignment field the source did not show.
const Unknown = "unknown"

// DateLayout is the ISO layout used for stored dates.
const DateLayout = "2006-01-02"

type Occupancy struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// DefaultOccupancy is the 1 adult / 0 / 0 sentinel.
var DefaultOccupancy = Occupancy{Adults: 1}

func (o Occupancy) Total() int {
	return o.Adults + o.Children + o.Infants
}

func (o Occupancy) String() string {
	return fmt.Sprintf("%d/%d/%d", o.Adults, o.Children, o.Infants)
}

// BookingRecord is one booking as extracted from the Stayflexi listing and folio.
type BookingRecord struct {
	ExternalBookingID string `json:"external_booking_id"`
	GuestName         string `json:"guest_name"`
	GuestPhone        string `json:"guest_phone"`

	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Occupancy Occupancy `json:"occupancy"`

	RoomNumber string `json:"room_number"`
	RoomType   string `json:"room_type"`
	RatePlan   string `json:"rate_plan"`

	Commercial

	SourceChannel Channel   `json:"source_channel"`
	SourceText    string    `json:"source_text,omitempty"`
	PropertyID    string    `json:"property_id"`
	PropertyName  string    `json:"property_name,omitempty"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// NewRecord returns a record carrying every documented default.
func NewRecord(propertyID string, now time.Time) BookingRecord {
	return BookingRecord{
		Occupancy:     DefaultOccupancy,
		RoomNumber:    Unknown,
		RoomType:      Unknown,
		RatePlan:      Unknown,
		Commercial:    Commercial{TotalWithoutTax: Zero, TotalTax: Zero, TotalWithTax: Zero, PaymentMade: Zero, BalanceDue: Zero},
		SourceChannel: Unclassified,
		PropertyID:    propertyID,
		ExtractedAt:   now,
	}
}

func (r BookingRecord) Key() Key {
	return Key{PropertyID: r.PropertyID, ExternalBookingID: r.ExternalBookingID, RoomNumber: r.RoomNumber}
}

// HasStay reports whether both stay dates were extracted.
func (r BookingRecord) HasStay() bool {
	return !r.CheckIn.IsZero() && !r.CheckOut.IsZero()
}

// Nights is the number of nights, zero unless check-out is after check-in.
func (r BookingRecord) Nights() int {
	return Nights(r.CheckIn, r.CheckOut)
}

func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return 0
	}
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// FormatDate renders a date as YYYY-MM-DD, or "" when unknown.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate reads a YYYY-MM-DD string; "" yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

var keyNamespace = uuid.MustParse("6f1c1f0e-4b52-4c3a-9d8e-2b6a3c1d5e70")

// Key is the business key of a stored reservation.
type Key struct {
	PropertyID        string
	ExternalBookingID string
	RoomNumber        string
}

// ID is the storage-unique id derived from the business key.
func (k Key) ID() string {
	return uuid.NewSHA1(keyNamespace, []byte(k.String())).String()
}

func (k Key) String() string {
	return k.PropertyID + "|" + k.ExternalBookingID + "|" + k.RoomNumber
}
