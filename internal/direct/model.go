// Package direct is the back office for reservations taken directly by the properties.
package direct

import (
	"time"

	"otasync/internal/booking"
)

const (
	TableName  = "direct_reservations"
	EntityName = "direct_reservation"

	// BookingIDPrefix starts every generated direct booking id.
	BookingIDPrefix = "TIE"

	FieldBookingID    = "booking_id"
	FieldPropertyName = "property_name"
	FieldRoomNo       = "room_no"
	FieldGuestName    = "guest_name"
	FieldMobileNo     = "mobile_no"
	FieldCheckIn      = "check_in"
	FieldCheckOut     = "check_out"
	FieldEnquiryDate  = "enquiry_date"
	FieldBookingDate  = "booking_date"
	FieldPlanStatus   = "plan_status"
	FieldCreatedAt    = "created_at"
)

const (
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
	StatusConfirmed = "Confirmed"
	StatusFullyPaid = "Fully Paid"
	StatusNoShow    = "No Show"
	StatusPending   = "Pending"
)

// PlanStatuses lists the accepted plan statuses in display order.
var PlanStatuses = []string{StatusCancelled, StatusCompleted, StatusConfirmed, StatusFullyPaid, StatusNoShow, StatusPending}

// Sortable lists the columns direct reservations may be ordered by.
var Sortable = []string{FieldBookingID, FieldCheckIn, FieldCheckOut, FieldEnquiryDate, FieldBookingDate, FieldPropertyName, FieldCreatedAt}

// Reservation is one direct booking. Dates are YYYY-MM-DD strings, empty when not given.
type Reservation struct {
	BookingID        string         `db:"booking_id"        json:"booking_id"`
	PropertyName     string         `db:"property_name"     json:"property_name"`
	RoomNo           string         `db:"room_no"           json:"room_no"`
	RoomType         string         `db:"room_type"         json:"room_type"`
	GuestName        string         `db:"guest_name"        json:"guest_name"`
	MobileNo         string         `db:"mobile_no"         json:"mobile_no"`
	Adults           int            `db:"no_of_adults"      json:"no_of_adults"`
	Children         int            `db:"no_of_children"    json:"no_of_children"`
	Infants          int            `db:"no_of_infants"     json:"no_of_infants"`
	TotalPax         int            `db:"total_pax"         json:"total_pax"`
	CheckIn          string         `db:"check_in"          json:"check_in"`
	CheckOut         string         `db:"check_out"         json:"check_out"`
	Days             int            `db:"no_of_days"        json:"no_of_days"`
	Tariff           booking.Amount `db:"tariff"            json:"tariff"`
	TotalTariff      booking.Amount `db:"total_tariff"      json:"total_tariff"`
	AdvanceAmount    booking.Amount `db:"advance_amount"    json:"advance_amount"`
	BalanceAmount    booking.Amount `db:"balance_amount"    json:"balance_amount"`
	AdvanceMOP       string         `db:"advance_mop"       json:"advance_mop"`
	BalanceMOP       string         `db:"balance_mop"       json:"balance_mop"`
	MOB              string         `db:"mob"               json:"mob"`
	OnlineSource     string         `db:"online_source"     json:"online_source"`
	InvoiceNo        string         `db:"invoice_no"        json:"invoice_no"`
	EnquiryDate      string         `db:"enquiry_date"      json:"enquiry_date"`
	BookingDate      string         `db:"booking_date"      json:"booking_date"`
	Breakfast        string         `db:"breakfast"         json:"breakfast"`
	PlanStatus       string         `db:"plan_status"       json:"plan_status"`
	Remarks          string         `db:"remarks"           json:"remarks"`
	SubmittedBy      string         `db:"submitted_by"      json:"submitted_by"`
	ModifiedBy       string         `db:"modified_by"       json:"modified_by"`
	ModifiedComments string         `db:"modified_comments" json:"modified_comments"`
	CreatedAt        time.Time      `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"        json:"updated_at"`
}

// Derive recomputes the fields that follow from occupancy, stay and tariff.
func (r *Reservation) Derive() {
	r.TotalPax = r.Adults + r.Children + r.Infants

	in, _ := booking.ParseDate(r.CheckIn)
	out, _ := booking.ParseDate(r.CheckOut)
	r.Days = booking.Nights(in, out)

	r.TotalTariff = r.Tariff.Mul(booking.NewAmount(int64(r.Days)))
	r.BalanceAmount = r.TotalTariff.Sub(r.AdvanceAmount)

	if r.PlanStatus == "" {
		r.PlanStatus = StatusPending
	}
}

// columns is the update set of a full edit. booking_id, submitted_by and created_at never change.
func (r Reservation) columns() map[string]any {
	return map[string]any{
		"property_name":     r.PropertyName,
		"room_no":           r.RoomNo,
		"room_type":         r.RoomType,
		"guest_name":        r.GuestName,
		"mobile_no":         r.MobileNo,
		"no_of_adults":      r.Adults,
		"no_of_children":    r.Children,
		"no_of_infants":     r.Infants,
		"total_pax":         r.TotalPax,
		"check_in":          r.CheckIn,
		"check_out":         r.CheckOut,
		"no_of_days":        r.Days,
		"tariff":            r.Tariff,
		"total_tariff":      r.TotalTariff,
		"advance_amount":    r.AdvanceAmount,
		"balance_amount":    r.BalanceAmount,
		"advance_mop":       r.AdvanceMOP,
		"balance_mop":       r.BalanceMOP,
		"mob":               r.MOB,
		"online_source":     r.OnlineSource,
		"invoice_no":        r.InvoiceNo,
		"enquiry_date":      r.EnquiryDate,
		"booking_date":      r.BookingDate,
		"breakfast":         r.Breakfast,
		"plan_status":       r.PlanStatus,
		"remarks":           r.Remarks,
		"modified_by":       r.ModifiedBy,
		"modified_comments": r.ModifiedComments,
		"updated_at":        r.UpdatedAt,
	}
}
