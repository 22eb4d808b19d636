package booking

// Channel is the OTA a booking came through.
type Channel string

const (
	BookingCom   Channel = "Booking.com"
	Agoda        Channel = "Agoda"
	Expedia      Channel = "Expedia"
	MakeMyTrip   Channel = "MakeMyTrip"
	Goibibo      Channel = "Goibibo"
	Airbnb       Channel = "Airbnb"
	Cleartrip    Channel = "Cleartrip"
	Yatra        Channel = "Yatra"
	EaseMyTrip   Channel = "EaseMyTrip"
	TripCom      Channel = "Trip.com"
	Unclassified Channel = "unclassified"
)

func (c Channel) Known() bool {
	return c != "" && c != Unclassified
}
