// Package pipeline runs the scrape and store pipeline over the configured properties.
package pipeline

import (
	"context"
	"time"

	"otasync/internal/booking"
	"otasync/internal/config"
	"otasync/internal/dedup"
	"otasync/internal/failure"
	"otasync/internal/scraper"
	"otasync/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Upserter stores scraped records. *dedup.Engine implements it.
type Upserter interface {
	Upsert(ctx context.Context, rec booking.BookingRecord) (dedup.Outcome, error)
	Known(ctx context.Context, key booking.Key) bool
}

type Orchestrator struct {
	scraper scraper.Scraper
	engine  Upserter
	opts    scraper.Options
	otel    telemetry.Otel
	now     func() time.Time
}

// New builds an orchestrator. opts is the per-run template; PropertyName and Known are filled per property.
func New(s scraper.Scraper, engine Upserter, opts scraper.Options, otl telemetry.Otel) *Orchestrator {
	if otl == nil {
		otl = telemetry.Noop()
	}

	return &Orchestrator{
		scraper: s,
		engine:  engine,
		opts:    opts,
		otel:    otl,
		now:     time.Now,
	}
}

// SyncAll syncs each property in turn. A failing property is recorded on its report and the batch goes on.
// A cancelled context stops the batch before the next property.
func (o *Orchestrator) SyncAll(ctx context.Context, properties []config.Property) Report {
	ctx, scope := o.otel.NewScope(ctx, telemetry.ScopeSync, "pipeline.SyncAll")
	defer scope.End()

	report := Report{Source: o.scraper.Name(), StartedAt: o.now()}

	for _, p := range properties {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Str("property", p.ID).Msg("sync cancelled, remaining properties skipped")
			break
		}

		pr := o.SyncOne(ctx, p)
		report.add(pr)
	}

	report.FinishedAt = o.now()
	scope.SetAttributes(map[string]any{
		"sync.stored":  report.Total.Stored,
		"sync.skipped": report.Total.Skipped,
		"sync.errored": report.Total.Errored,
	})

	log.Info().
		Int("properties", len(report.Properties)).
		Int("stored", report.Total.Stored).
		Int("skipped", report.Total.Skipped).
		Int("errored", report.Total.Errored).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("sync finished")

	return report
}

// SyncOne scrapes one property and upserts every record it yields. Zero bookings is a normal result.
func (o *Orchestrator) SyncOne(ctx context.Context, p config.Property) PropertyReport {
	ctx, scope := o.otel.NewScope(ctx, telemetry.ScopeSync, "pipeline.SyncOne")
	defer scope.End()
	scope.SetAttribute(telemetry.AttrProperty, p.ID)

	started := o.now()
	pr := PropertyReport{PropertyID: p.ID, PropertyName: p.Name}

	l := log.With().Str("property", p.ID).Str("property_name", p.Name).Logger()
	l.Info().Str("source", o.scraper.Name()).Msg("sync started")

	opts := o.opts
	opts.PropertyName = p.Name
	if opts.Known == nil {
		opts.Known = o.engine.Known
	}

	records, err := o.scraper.Scrape(ctx, p.ID, opts)
	if err != nil {
		scope.TraceError(err)
		pr.Error = err.Error()
		pr.ErrorKind = string(failure.GetKind(err))
		pr.Errored++

		l.Error().Err(err).Str("kind", pr.ErrorKind).Int("partial", len(records)).Msg("scrape failed")
	}

	pr.Scraped = len(records)

	for _, rec := range records {
		outcome, err := o.engine.Upsert(ctx, rec)
		pr.count(outcome)

		if err != nil {
			l.Error().Err(err).Str("booking_id", rec.ExternalBookingID).Str("outcome", string(outcome)).Msg("booking not stored")
		}
	}

	pr.Took = o.now().Sub(started)

	l.Info().
		Int("scraped", pr.Scraped).
		Int("stored", pr.Stored).
		Int("skipped", pr.Skipped).
		Int("errored", pr.Errored).
		Msg("sync done")

	return pr
}
