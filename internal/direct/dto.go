package direct

import (
	"strings"
	"time"

	"otasync/internal/booking"
	"otasync/internal/store"
)

// Request is the body of a create or full edit.
type Request struct {
	PropertyName     string         `json:"property_name"     validate:"required,max=128"`
	RoomNo           string         `json:"room_no"           validate:"required,max=64"`
	RoomType         string         `json:"room_type"         validate:"omitempty,max=128"`
	GuestName        string         `json:"guest_name"        validate:"required,max=255"`
	MobileNo         string         `json:"mobile_no"         validate:"omitempty,max=64"`
	Adults           int            `json:"no_of_adults"      validate:"gte=0,lte=99"`
	Children         int            `json:"no_of_children"    validate:"gte=0,lte=99"`
	Infants          int            `json:"no_of_infants"     validate:"gte=0,lte=99"`
	CheckIn          string         `json:"check_in"          validate:"required,datetime=2006-01-02"`
	CheckOut         string         `json:"check_out"         validate:"required,datetime=2006-01-02"`
	Tariff           booking.Amount `json:"tariff"`
	AdvanceAmount    booking.Amount `json:"advance_amount"`
	AdvanceMOP       string         `json:"advance_mop"       validate:"omitempty,max=64"`
	BalanceMOP       string         `json:"balance_mop"       validate:"omitempty,max=64"`
	MOB              string         `json:"mob"               validate:"omitempty,max=64"`
	OnlineSource     string         `json:"online_source"     validate:"omitempty,max=64"`
	InvoiceNo        string         `json:"invoice_no"        validate:"omitempty,max=64"`
	EnquiryDate      string         `json:"enquiry_date"      validate:"omitempty,datetime=2006-01-02"`
	BookingDate      string         `json:"booking_date"      validate:"omitempty,datetime=2006-01-02"`
	Breakfast        string         `json:"breakfast"         validate:"omitempty,max=64"`
	PlanStatus       string         `json:"plan_status"       validate:"omitempty,oneof=Cancelled Completed Confirmed 'Fully Paid' 'No Show' Pending"`
	Remarks          string         `json:"remarks"`
	ModifiedComments string         `json:"modified_comments"`
}

// stay carries the parsed dates so the order check compares times.
type stay struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out" validate:"gtefield=CheckIn"`
}

func (r Request) toModel() Reservation {
	m := Reservation{
		PropertyName:     strings.TrimSpace(r.PropertyName),
		RoomNo:           strings.TrimSpace(r.RoomNo),
		RoomType:         r.RoomType,
		GuestName:        strings.TrimSpace(r.GuestName),
		MobileNo:         strings.TrimSpace(r.MobileNo),
		Adults:           r.Adults,
		Children:         r.Children,
		Infants:          r.Infants,
		CheckIn:          r.CheckIn,
		CheckOut:         r.CheckOut,
		Tariff:           r.Tariff,
		AdvanceAmount:    r.AdvanceAmount,
		AdvanceMOP:       r.AdvanceMOP,
		BalanceMOP:       r.BalanceMOP,
		MOB:              r.MOB,
		OnlineSource:     r.OnlineSource,
		InvoiceNo:        r.InvoiceNo,
		EnquiryDate:      r.EnquiryDate,
		BookingDate:      r.BookingDate,
		Breakfast:        r.Breakfast,
		PlanStatus:       r.PlanStatus,
		Remarks:          r.Remarks,
		ModifiedComments: r.ModifiedComments,
	}
	m.Derive()

	return m
}

// Filter narrows a listing. Zero fields do not filter; the exact-date fields match one day.
type Filter struct {
	PropertyName string
	PlanStatus   string
	CheckIn      string
	CheckOut     string
	EnquiryDate  string
	BookingDate  string
	CheckInFrom  string
	CheckInTo    string
	Guest        string
	store.QueryParams
}

func (f Filter) group() store.FilterGroup {
	var filters []any

	eq := func(field, value string) {
		if value != "" {
			filters = append(filters, store.Filter{Field: field, Value: value, Operator: store.FilterOperatorEq})
		}
	}

	eq(FieldPropertyName, f.PropertyName)
	eq(FieldPlanStatus, f.PlanStatus)
	eq(FieldCheckIn, f.CheckIn)
	eq(FieldCheckOut, f.CheckOut)
	eq(FieldEnquiryDate, f.EnquiryDate)
	eq(FieldBookingDate, f.BookingDate)

	if f.CheckInFrom != "" {
		filters = append(filters, store.Filter{ArgName: "check_in_from", Field: FieldCheckIn, Value: f.CheckInFrom, Operator: store.FilterOperatorGreaterEq})
	}
	if f.CheckInTo != "" {
		filters = append(filters, store.Filter{ArgName: "check_in_to", Field: FieldCheckIn, Value: f.CheckInTo, Operator: store.FilterOperatorLessEq})
	}
	if f.Guest != "" {
		filters = append(filters, store.Filter{Field: FieldGuestName, Value: f.Guest, Operator: store.FilterOperatorLike})
	}

	return store.And(filters...)
}

func (f Filter) matches(r Reservation) bool {
	switch {
	case f.PropertyName != "" && r.PropertyName != f.PropertyName,
		f.PlanStatus != "" && r.PlanStatus != f.PlanStatus,
		f.CheckIn != "" && r.CheckIn != f.CheckIn,
		f.CheckOut != "" && r.CheckOut != f.CheckOut,
		f.EnquiryDate != "" && r.EnquiryDate != f.EnquiryDate,
		f.BookingDate != "" && r.BookingDate != f.BookingDate,
		f.CheckInFrom != "" && r.CheckIn < f.CheckInFrom,
		f.CheckInTo != "" && r.CheckIn > f.CheckInTo,
		f.Guest != "" && !strings.Contains(strings.ToLower(r.GuestName), strings.ToLower(f.Guest)):
		return false
	}
	return true
}

// Page is one page of a listing.
type Page struct {
	Reservations []Reservation `json:"reservations"`
	TotalPage    int           `json:"total_page"`
	TotalData    int           `json:"total_data"`
}
