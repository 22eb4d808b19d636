package formatter_test

import (
	"testing"
	"time"

	"otasync/internal/booking"
	"otasync/internal/formatter"
	"otasync/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	r := booking.NewRecord("30357", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	r.ExternalBookingID = "SFBOOKING_30357_001"
	r.GuestName = "John Smith"
	records := scraper.Records{r}

	for _, f := range formatter.Formats {
		t.Run(f, func(t *testing.T) {
			out, err := formatter.Format(records, f)
			require.NoError(t, err)
			assert.Contains(t, out, "SFBOOKING_30357_001")
		})
	}

	_, err := formatter.Format(records, "yaml")
	assert.EqualError(t, err, "unsupported output format: yaml")
}

func TestFromExtension(t *testing.T) {
	tests := map[string]string{
		"report.md":   "markdown",
		"report.JSON": "json",
		"out.htm":     "html",
		"out.txt":     "text",
		"out.csv":     "csv",
		"out.xlsx":    "",
		"noext":       "",
	}

	for name, want := range tests {
		assert.Equal(t, want, formatter.FromExtension(name), name)
	}
}
