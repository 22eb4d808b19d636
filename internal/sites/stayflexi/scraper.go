package stayflexi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"otasync/internal/booking"
	"otasync/internal/browser"
	"otasync/internal/extract"
	"otasync/internal/scraper"

	"github.com/rs/zerolog/log"
)

func init() {
	scraper.Register(&StayflexiScraper{})
	scraper.Register(&SnapshotScraper{})
}

// StayflexiScraper logs into one property account and reads its reservations listing.
type StayflexiScraper struct {
	// Launch overrides the browser launcher, nil launches go-rod.
	Launch Launcher
	// Now stamps extracted records, nil means time.Now.
	Now func() time.Time
}

func (s *StayflexiScraper) Name() string {
	return "stayflexi"
}

func (s *StayflexiScraper) Scrape(ctx context.Context, propertyID string, opts scraper.Options) (scraper.Records, error) {
	launch := s.Launch
	if launch == nil {
		launch = rodLauncher(opts)
	}

	account := Account{
		Email:        opts.Email,
		Password:     opts.Password,
		PropertyID:   propertyID,
		PropertyName: opts.PropertyName,
	}

	session, err := Open(ctx, launch, account, settingsFrom(opts), opts.Artifacts)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return Collect(ctx, session, opts, s.now())
}

func (s *StayflexiScraper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Collect reads the whole listing first, then visits folio pages one at a time.
// Visiting a folio replaces the listing document, so enrichment never interleaves with the scan.
func Collect(ctx context.Context, session *Session, opts scraper.Options, now time.Time) (scraper.Records, error) {
	pid := session.account.PropertyID

	var (
		records scraper.Records
		cards   []string
	)
	for raw := range Scan(session).All(ctx) {
		rec := extract.ExtractAt(raw.Text, pid, now)
		rec.PropertyName = opts.PropertyName
		records = append(records, rec)
		cards = append(cards, raw.Text)
	}
	if err := ctx.Err(); err != nil {
		classifyFromCards(records, cards)
		return records, err
	}

	for i, rec := range records {
		if rec.ExternalBookingID == "" {
			continue
		}
		if opts.Known != nil && opts.Known(ctx, rec.Key()) {
			log.Debug().Str("booking_id", rec.ExternalBookingID).Str("room", rec.RoomNumber).Msg("already stored, folio skipped")
			continue
		}

		enriched, err := Enrich(ctx, session, rec)
		if err != nil {
			if ctx.Err() != nil {
				classifyFromCards(records, cards)
				return records, ctx.Err()
			}
			log.Warn().Err(err).Str("property", pid).Str("booking_id", rec.ExternalBookingID).Msg("folio unavailable, keeping listing fields")
			session.Screenshot(ctx, fmt.Sprintf("stayflexi_folio_%s", rec.ExternalBookingID))
			continue
		}
		records[i] = enriched
	}

	classifyFromCards(records, cards)

	return records, nil
}

// classifyFromCards names the channel from the listing card text for records the folio left
// unclassified, including those whose folio could not be opened.
func classifyFromCards(records scraper.Records, cards []string) {
	for i := range records {
		if records[i].SourceChannel != booking.Unclassified {
			continue
		}
		records[i].SourceChannel = extract.Classify("", cards[i])
	}
}

func settingsFrom(opts scraper.Options) Settings {
	return Settings{
		BaseURL:          opts.BaseURL,
		NavigateTimeout:  opts.NavigateTimeout,
		ElementTimeout:   opts.ElementTimeout,
		SettleDelay:      opts.SettleDelay,
		NavigateInterval: opts.NavigateInterval,
		RetryAttempts:    opts.RetryAttempts,
		RetryBackoff:     opts.RetryBackoff,
	}
}

func rodLauncher(opts scraper.Options) Launcher {
	return func(ctx context.Context) (Page, io.Closer, error) {
		b, err := browser.New(browser.Config{
			Headless: opts.Headless,
			ProxyURL: opts.ProxyURL,
		})
		if err != nil {
			return nil, nil, err
		}

		page, err := b.NewPage()
		if err != nil {
			_ = b.Close()
			return nil, nil, err
		}

		return page, b, nil
	}
}

// SnapshotScraper reads saved listing pages instead of a live session: <dir>/<property>.html, plus
// optional folio pages at <dir>/folio/<booking id>.html.
type SnapshotScraper struct {
	Now func() time.Time
}

func (s *SnapshotScraper) Name() string {
	return "snapshot"
}

func (s *SnapshotScraper) Scrape(ctx context.Context, propertyID string, opts scraper.Options) (scraper.Records, error) {
	if opts.SnapshotDir == "" {
		return nil, errors.New("snapshot directory not set")
	}

	page, err := os.ReadFile(filepath.Join(opts.SnapshotDir, propertyID+".html"))
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("property", propertyID).Msg("no saved listing")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listing snapshot: %w", err)
	}

	raws, err := ScanHTML(string(page), propertyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	records := make(scraper.Records, 0, len(raws))
	cards := make([]string, 0, len(raws))
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			classifyFromCards(records, cards)
			return records, err
		}

		rec := extract.ExtractAt(raw.Text, propertyID, now)
		rec.PropertyName = opts.PropertyName
		cards = append(cards, raw.Text)

		if rec.ExternalBookingID != "" {
			folio, err := os.ReadFile(filepath.Join(opts.SnapshotDir, "folio", rec.ExternalBookingID+".html"))
			if err == nil {
				if enriched, err := EnrichHTML(rec, string(folio)); err == nil {
					rec = enriched
				} else {
					log.Warn().Err(err).Str("booking_id", rec.ExternalBookingID).Msg("failed to read saved folio")
				}
			}
		}

		records = append(records, rec)
	}

	classifyFromCards(records, cards)

	return records, nil
}
