package main

import (
	"testing"
	"time"

	"otasync/internal/booking"
	"otasync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		file    string
		want    string
		wantErr bool
	}{
		{name: "default", format: "text", want: "text"},
		{name: "from extension", format: "text", file: "report.md", want: "markdown"},
		{name: "explicit wins", format: "json", file: "report.csv", want: "json"},
		{name: "unknown extension", format: "text", file: "report.bin", want: "text"},
		{name: "invalid", format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.format, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectProperties(t *testing.T) {
	properties := config.Properties{"EdenBeachResort": "30357", "Villa Shakti": "27724"}

	all, err := selectProperties(properties, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := selectProperties(properties, "villa shakti")
	require.NoError(t, err)
	assert.Equal(t, []config.Property{{Name: "Villa Shakti", ID: "27724"}}, byName)

	byID, err := selectProperties(properties, "30357")
	require.NoError(t, err)
	assert.Equal(t, "EdenBeachResort", byID[0].Name)

	_, err = selectProperties(properties, "nowhere")
	assert.Error(t, err)
}

func TestExtractRecords(t *testing.T) {
	p := config.Property{Name: "EdenBeachResort", ID: "30357"}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	card := "John Smith\n+91 9876543210\nSFBOOKING_30357_001\nJan 5, 2025 2:00 PM - Jan 7, 2025 11:00 AM\n101 (Deluxe Room)"

	t.Run("plain card", func(t *testing.T) {
		records, err := extractRecords(card, p, false, "", now)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "SFBOOKING_30357_001", records[0].ExternalBookingID)
		assert.Equal(t, "EdenBeachResort", records[0].PropertyName)
		assert.Equal(t, booking.Unclassified, records[0].SourceChannel)
	})

	t.Run("listing page", func(t *testing.T) {
		doc := `<html><body>
<section>
  <div><span>Guest One</span><br><span>SFBOOKING_30357_7</span><br><span>201 (Cottage)</span></div>
  <div><span>Guest Two</span><br><span>SFBOOKING_30357_8</span><br><span>202 (Cottage)</span></div>
</section>
</body></html>`

		records, err := extractRecords(doc, p, true, "", now)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "SFBOOKING_30357_7", records[0].ExternalBookingID)
		assert.Equal(t, "SFBOOKING_30357_8", records[1].ExternalBookingID)
	})

	t.Run("with folio", func(t *testing.T) {
		folio := `<div class="sourceName">Agoda</div><p>Total with taxes and fees</p><p>INR 3,000.00</p>`

		records, err := extractRecords(card, p, false, folio, now)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, booking.Agoda, records[0].SourceChannel)
		assert.Equal(t, "3000", records[0].TotalWithTax.String())
	})

	t.Run("folio needs one booking", func(t *testing.T) {
		_, err := extractRecords("<html><body></body></html>", p, true, "<p>x</p>", now)
		assert.Error(t, err)
	})
}
