package scraper

import (
	"context"
	"time"

	"otasync/internal/artifact"
	"otasync/internal/booking"
)

// Scraper reads the bookings of one property from a reservation source.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, propertyID string, opts Options) (Records, error)
}

// Content is anything the formatter can render.
type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}

type Options struct {
	BaseURL      string
	Email        string
	Password     string
	PropertyName string

	Headless bool
	ProxyURL string

	NavigateTimeout  time.Duration
	ElementTimeout   time.Duration
	SettleDelay      time.Duration
	NavigateInterval time.Duration
	RetryAttempts    int
	RetryBackoff     time.Duration

	Artifacts artifact.Sink

	// Known reports bookings already stored; their folio pages are not visited.
	Known func(ctx context.Context, key booking.Key) bool

	// SnapshotDir holds saved listing pages for offline sources.
	SnapshotDir string

	Extra map[string]string // Source-specific parameters
}
