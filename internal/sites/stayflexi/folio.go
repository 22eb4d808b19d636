package stayflexi

import (
	"context"
	"fmt"
	"strings"

	"otasync/internal/booking"
	"otasync/internal/extract"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

type folioCandidates struct {
	Occupancy string `json:"occupancy"`
	RatePlan  string `json:"rate_plan"`
}

// Enrich visits the booking's folio page and fills source, rate plan, occupancy and amounts.
// Every step may fail alone; what could not be read keeps its default. The error is only set when the
// folio page itself could not be reached, and the record returned alongside it is the input unchanged.
func Enrich(ctx context.Context, s *Session, rec booking.BookingRecord) (booking.BookingRecord, error) {
	if rec.ExternalBookingID == "" {
		return rec, nil
	}

	url := s.settings.BaseURL + fmt.Sprintf(folioPathFmt, rec.ExternalBookingID, rec.PropertyID)
	if err := s.Navigate(ctx, url); err != nil {
		return rec, err
	}

	l := log.With().Str("property", rec.PropertyID).Str("booking_id", rec.ExternalBookingID).Logger()

	if err := s.page.WaitVisible(ctx, folioExpandIcon, s.settings.ElementTimeout); err == nil {
		if err := s.retry(ctx, "expand folio", func() error {
			return s.page.Click(ctx, folioExpandIcon, s.settings.ElementTimeout)
		}); err != nil {
			l.Debug().Err(err).Msg("folio panel did not expand")
		}
	} else {
		l.Debug().Msg("folio panel toggle not found")
	}
	if err := s.settle(ctx); err != nil {
		return rec, err
	}

	// Structural lookup.
	if src, err := s.page.Text(ctx, folioSourceName, s.settings.ElementTimeout); err == nil && !extract.IsPlaceholder(src) {
		rec.SourceText = strings.TrimSpace(src)
		l.Debug().Str("strategy", "structural").Str("source", rec.SourceText).Msg("folio source")
	}
	if plan, err := s.page.Text(ctx, folioRatePlan, s.settings.ElementTimeout); err == nil && !extract.IsPlaceholder(plan) {
		rec.RatePlan = strings.TrimSpace(plan)
	}
	occupancyFound := false
	if occ, err := s.page.Text(ctx, folioOccupancy, s.settings.ElementTimeout); err == nil {
		if o, ok := extract.ParseOccupancy(occ); ok {
			rec.Occupancy = o
			occupancyFound = true
		}
	}

	// Text-node walk for whatever the layout lookup missed.
	if rec.RatePlan == booking.Unknown || !occupancyFound {
		var c folioCandidates
		if err := s.page.Eval(ctx, folioCandidatesJS, &c); err != nil {
			l.Debug().Err(err).Msg("folio text walk failed")
		} else {
			if rec.RatePlan == booking.Unknown && extract.IsRatePlan(c.RatePlan) {
				rec.RatePlan = strings.TrimSpace(c.RatePlan)
				l.Debug().Str("strategy", "text-walk").Str("rate_plan", rec.RatePlan).Msg("folio rate plan")
			}
			if !occupancyFound {
				if o, ok := extract.ParseOccupancy(c.Occupancy); ok {
					rec.Occupancy = o
					l.Debug().Str("strategy", "text-walk").Stringer("occupancy", o).Msg("folio occupancy")
				}
			}
		}
	}

	// Financial summary over the rendered text.
	var pageText string
	if err := s.page.Eval(ctx, bodyTextJS, &pageText); err != nil {
		l.Debug().Err(err).Msg("folio page text unavailable")
	}

	return applyFolioText(rec, pageText), nil
}

// EnrichHTML applies the folio rules to a saved folio page.
func EnrichHTML(rec booking.BookingRecord, folioHTML string) (booking.BookingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(folioHTML))
	if err != nil {
		return rec, fmt.Errorf("failed to parse folio HTML: %w", err)
	}

	if src := strings.TrimSpace(doc.Find(folioSourceName).First().Text()); !extract.IsPlaceholder(src) {
		rec.SourceText = src
	}

	text, err := extract.FolioTextFromHTML(folioHTML)
	if err != nil {
		return rec, err
	}

	occupancyFound := false
	for _, l := range extract.Lines(text) {
		l = strings.Trim(l, "*_#|> \t")
		if o, ok := extract.ParseOccupancy(l); ok && !occupancyFound {
			rec.Occupancy = o
			occupancyFound = true
		}
		if rec.RatePlan == booking.Unknown && extract.IsRatePlan(l) {
			rec.RatePlan = l
		}
	}

	return applyFolioText(rec, text), nil
}

func applyFolioText(rec booking.BookingRecord, pageText string) booking.BookingRecord {
	commercial, missing := extract.ParseFinancials(pageText)
	rec.Commercial = commercial
	rec.SourceChannel = extract.Classify(rec.SourceText, pageText)

	log.Debug().
		Str("property", rec.PropertyID).
		Str("booking_id", rec.ExternalBookingID).
		Strs("missing_amounts", missing).
		Str("channel", string(rec.SourceChannel)).
		Msg("enriched from folio")

	return rec
}
