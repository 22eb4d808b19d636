package extract_test

import (
	"testing"

	"otasync/internal/booking"
	"otasync/internal/extract"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		source string
		page   string
		want   booking.Channel
	}{
		{name: "upper case booking.com", source: "BOOKING.COM", want: booking.BookingCom},
		{name: "mixed case booking.com", source: "via Booking.Com", want: booking.BookingCom},
		{name: "spelled without dot", source: "bookingcom", want: booking.BookingCom},
		{name: "agoda", source: "Agoda", want: booking.Agoda},
		{name: "makemytrip short form", source: "MMT", want: booking.MakeMyTrip},
		{name: "makemytrip spaced", source: "Make My Trip", want: booking.MakeMyTrip},
		{name: "makemytrip domain is not trip.com", source: "makemytrip.com", want: booking.MakeMyTrip},
		{name: "goibibo", source: "Go-Ibibo", want: booking.Goibibo},
		{name: "trip.com", source: "Trip.com", want: booking.TripCom},
		{name: "falls back to page text", source: "Walk In", page: "Source: Expedia Collect", want: booking.Expedia},
		{name: "source wins over page", source: "Airbnb", page: "booking.com", want: booking.Airbnb},
		{name: "nothing recognisable", source: "Walk In", page: "Folio", want: booking.Unclassified},
		{name: "empty", want: booking.Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract.Classify(tt.source, tt.page))
		})
	}
}

func TestClassify_NeverDirect(t *testing.T) {
	got := extract.Classify("", "")

	assert.Equal(t, booking.Unclassified, got)
	assert.NotEqual(t, booking.Channel("direct"), got)
	assert.False(t, got.Known())
}
