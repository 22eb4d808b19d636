package extract

import (
	"regexp"

	"otasync/internal/booking"
)

type channelVariant struct {
	channel booking.Channel
	pattern *regexp.Regexp
}

var channelVariants = []channelVariant{
	{booking.BookingCom, regexp.MustCompile(`(?i)\bbooking[\s._-]?com\b`)},
	{booking.Agoda, regexp.MustCompile(`(?i)\bagoda\b`)},
	{booking.Expedia, regexp.MustCompile(`(?i)\bexpedia\b`)},
	{booking.MakeMyTrip, regexp.MustCompile(`(?i)\b(make\s*my\s*trip|mmt)\b`)},
	{booking.Goibibo, regexp.MustCompile(`(?i)\bgo[\s-]?ibibo\b`)},
	{booking.Airbnb, regexp.MustCompile(`(?i)\bair\s*bnb\b`)},
	{booking.Cleartrip, regexp.MustCompile(`(?i)\bclear\s*trip\b`)},
	{booking.Yatra, regexp.MustCompile(`(?i)\byatra\b`)},
	{booking.EaseMyTrip, regexp.MustCompile(`(?i)\bease\s*my\s*trip\b`)},
	{booking.TripCom, regexp.MustCompile(`(?i)\btrip\.com\b`)},
}

// Classify names the OTA channel found in the scraped source label, falling back to the whole
// detail page text. A booking with no recognisable channel is Unclassified, never direct.
func Classify(sourceText, pageText string) booking.Channel {
	if ch, ok := matchChannel(sourceText); ok {
		return ch
	}
	if ch, ok := matchChannel(pageText); ok {
		return ch
	}
	return booking.Unclassified
}

func matchChannel(text string) (booking.Channel, bool) {
	if text == "" {
		return "", false
	}
	for _, v := range channelVariants {
		if v.pattern.MatchString(text) {
			return v.channel, true
		}
	}
	return "", false
}
