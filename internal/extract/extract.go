// Package extract turns scraped Stayflexi text into booking records.
// Everything here is pure: no browser, no retries.
package extract

import (
	"regexp"
	"strings"
	"time"

	"otasync/internal/booking"

	"github.com/rs/zerolog/log"
)

// BookingIDPrefix starts every Stayflexi booking id.
const BookingIDPrefix = "SFBOOKING_"

const stayLayout = "Jan 2, 2006 3:04 PM"

var (
	metadataLine = regexp.MustCompile(`(?i)SFBOOKING|Rs\.|\bINR\b|₹|\b(CONFIRMED|ON_HOLD|CANCELLED|CHECKED_IN|CHECKED_OUT|NO_SHOW|PENDING)\b|\d|\s-\s`)
	phoneLine    = regexp.MustCompile(`^(NA|N/A|(\+\d{1,3}\s*)?[\d\s()-]{8,})$`)
	digit        = regexp.MustCompile(`\d`)
	monthName    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}`)
	roomPattern  = regexp.MustCompile(`(\d+)\s*\(\s*([^)]+?)\s*\)`)

	stamp     = `([A-Za-z]{3,9}\.?\s+\d{1,2},\s*\d{4},?\s+\d{1,2}:\d{2}\s*[AaPp][Mm])`
	stayRange = regexp.MustCompile(stamp + `\s*-\s*` + stamp)
	stampPart = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2}),\s*(\d{4}),?\s+(\d{1,2}:\d{2})\s*([AaPp][Mm])$`)
)

// BookingIDPattern matches booking ids scoped to one property.
func BookingIDPattern(propertyID string) *regexp.Regexp {
	if propertyID == "" {
		return regexp.MustCompile(BookingIDPrefix + `\d+_\d+`)
	}
	return regexp.MustCompile(BookingIDPrefix + regexp.QuoteMeta(propertyID) + `_\d+`)
}

type stay struct {
	in, out time.Time
}

type room struct {
	number, kind string
}

var (
	bookingIDChain = Chain[string]{
		{Name: "property-scoped-id", Fn: func(in Input) (string, bool) {
			m := BookingIDPattern(in.PropertyID).FindString(in.Text)
			return m, m != ""
		}},
	}

	guestNameChain = Chain[string]{
		{Name: "first-line", Fn: func(in Input) (string, bool) {
			if len(in.Lines) == 0 || metadataLine.MatchString(in.Lines[0]) {
				return "", false
			}
			return in.Lines[0], true
		}},
	}

	guestPhoneChain = Chain[string]{
		{Name: "phone-line", Fn: func(in Input) (string, bool) {
			for _, l := range in.Lines {
				if IsPhone(l) {
					return l, true
				}
			}
			return "", false
		}},
	}

	stayChain = Chain[stay]{
		{Name: "one-line-range", Fn: func(in Input) (stay, bool) {
			for _, l := range in.Lines {
				if s, ok := parseStay(l); ok {
					return s, true
				}
			}
			return stay{}, false
		}},
		{Name: "adjacent-lines", Fn: func(in Input) (stay, bool) {
			for i := 0; i+1 < len(in.Lines); i++ {
				l := in.Lines[i]
				if !monthName.MatchString(l) || !strings.Contains(l, "-") {
					continue
				}
				if s, ok := parseStay(l + " " + in.Lines[i+1]); ok {
					return s, true
				}
			}
			return stay{}, false
		}},
	}

	roomChain = Chain[room]{
		{Name: "number-and-type", Fn: func(in Input) (room, bool) {
			for _, l := range in.Lines {
				if IsPhone(l) {
					continue
				}
				if m := roomPattern.FindStringSubmatch(l); m != nil {
					return room{number: m[1], kind: strings.TrimSpace(m[2])}, true
				}
			}
			return room{}, false
		}},
	}
)

// Extract reads a listing card's text into a record. Fields that cannot be read keep their defaults.
func Extract(raw, propertyID string) booking.BookingRecord {
	return ExtractAt(raw, propertyID, time.Now())
}

func ExtractAt(raw, propertyID string, now time.Time) booking.BookingRecord {
	in := NewInput(raw, propertyID)
	rec := booking.NewRecord(propertyID, now)

	var gaps []string
	matched := map[string]string{}

	if id, how, ok := bookingIDChain.Run(in); ok {
		rec.ExternalBookingID = id
		matched["external_booking_id"] = how
	} else {
		gaps = append(gaps, "external_booking_id")
	}

	if name, how, ok := guestNameChain.Run(in); ok {
		rec.GuestName = name
		matched["guest_name"] = how
	} else {
		gaps = append(gaps, "guest_name")
	}

	if phone, how, ok := guestPhoneChain.Run(in); ok {
		rec.GuestPhone = phone
		matched["guest_phone"] = how
	} else {
		gaps = append(gaps, "guest_phone")
	}

	if s, how, ok := stayChain.Run(in); ok {
		rec.CheckIn, rec.CheckOut = s.in, s.out
		matched["stay"] = how
		if s.out.Before(s.in) {
			log.Warn().
				Str("booking_id", rec.ExternalBookingID).
				Time("check_in", s.in).
				Time("check_out", s.out).
				Msg("check-out precedes check-in, keeping source values")
		}
	} else {
		gaps = append(gaps, "stay")
	}

	if r, how, ok := roomChain.Run(in); ok {
		rec.RoomNumber, rec.RoomType = r.number, r.kind
		matched["room"] = how
	} else {
		gaps = append(gaps, "room")
	}

	log.Debug().
		Str("property", propertyID).
		Str("booking_id", rec.ExternalBookingID).
		Interface("matched", matched).
		Strs("gaps", gaps).
		Str("raw", snippet(raw)).
		Msg("extracted listing card")

	return rec
}

// IsPhone reports whether a whole line looks like a phone number or the not-available marker.
func IsPhone(line string) bool {
	line = strings.TrimSpace(line)
	if !phoneLine.MatchString(line) {
		return false
	}
	if line == "NA" || line == "N/A" {
		return true
	}
	return len(digit.FindAllString(line, -1)) >= 6
}

func parseStay(line string) (stay, bool) {
	m := stayRange.FindStringSubmatch(line)
	if m == nil {
		return stay{}, false
	}

	in, err := ParseStamp(m[1])
	if err != nil {
		return stay{}, false
	}
	out, err := ParseStamp(m[2])
	if err != nil {
		return stay{}, false
	}

	return stay{in: in, out: out}, true
}

// ParseStamp parses "Jan 5, 2025 2:00 PM" and its looser variants
// ("January 5, 2025, 2:00pm", "Sept 5, 2025 2:00 PM") into a date-only time.
func ParseStamp(s string) (time.Time, error) {
	m := stampPart.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Parse(stayLayout, s)
	}

	month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:3])
	normalized := month + " " + m[2] + ", " + m[3] + " " + m[4] + " " + strings.ToUpper(m[5])

	t, err := time.Parse(stayLayout, normalized)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 160 {
		return s[:160] + "..."
	}
	return s
}
