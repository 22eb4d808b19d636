package direct

import (
	"fmt"
	"slices"
	"time"
)

// GenerateBookingID returns the first free id of the day: prefix, YYYYMMDD, then a 3-digit sequence from 001.
// Past 999 the sequence simply grows wider.
func GenerateBookingID(prefix string, day time.Time, existing []string) string {
	stem := prefix + day.Format("20060102")

	for seq := 1; ; seq++ {
		id := fmt.Sprintf("%s%03d", stem, seq)
		if !slices.Contains(existing, id) {
			return id
		}
	}
}
