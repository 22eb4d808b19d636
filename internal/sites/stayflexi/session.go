package stayflexi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"otasync/internal/artifact"
	"otasync/internal/failure"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Page is the set of browser primitives the pipeline drives. *browser.Page implements it.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Input(ctx context.Context, selector, text string, timeout time.Duration) error
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)
	Eval(ctx context.Context, js string, out any, args ...any) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Launcher starts an isolated browser and returns its first page and whatever must be closed with it.
type Launcher func(ctx context.Context) (Page, io.Closer, error)

// Account is one property login.
type Account struct {
	Email        string
	Password     string
	PropertyID   string
	PropertyName string
}

type Settings struct {
	BaseURL          string
	NavigateTimeout  time.Duration
	ElementTimeout   time.Duration
	SettleDelay      time.Duration
	NavigateInterval time.Duration
	RetryAttempts    int
	RetryBackoff     time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.BaseURL == "" {
		s.BaseURL = "https://app.stayflexi.com"
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.NavigateTimeout <= 0 {
		s.NavigateTimeout = 30 * time.Second
	}
	if s.ElementTimeout <= 0 {
		s.ElementTimeout = 10 * time.Second
	}
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = 1
	}
	return s
}

// Session is an authenticated browser tab positioned on one property's reservations.
type Session struct {
	page      Page
	closer    io.Closer
	account   Account
	settings  Settings
	limiter   *rate.Limiter
	artifacts artifact.Sink
}

// NewSession wraps an already open page. Open is the usual entry point.
func NewSession(page Page, closer io.Closer, account Account, settings Settings, sink artifact.Sink) *Session {
	settings = settings.withDefaults()

	limit := rate.Inf
	if settings.NavigateInterval > 0 {
		limit = rate.Every(settings.NavigateInterval)
	}
	if sink == nil {
		sink = artifact.Discard{}
	}

	return &Session{
		page:      page,
		closer:    closer,
		account:   account,
		settings:  settings,
		limiter:   rate.NewLimiter(limit, 1),
		artifacts: sink,
	}
}

// Open launches a fresh browser, signs in and lands on the property's reservations listing.
func Open(ctx context.Context, launch Launcher, account Account, settings Settings, sink artifact.Sink) (*Session, error) {
	if account.Email == "" || account.Password == "" {
		return nil, failure.AuthError("missing Stayflexi credentials", nil)
	}

	page, closer, err := launch(ctx)
	if err != nil {
		return nil, failure.AuthError("failed to launch browser", err)
	}

	s := NewSession(page, closer, account, settings, sink)

	if err := s.Login(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.OpenDashboard(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.OpenReservations(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Session) Account() Account { return s.account }

func (s *Session) Page() Page { return s.page }

// Login submits the two-step email/password form.
func (s *Session) Login(ctx context.Context) error {
	log.Info().Str("property", s.account.PropertyID).Msg("signing in to Stayflexi")

	if err := s.Navigate(ctx, s.settings.BaseURL+loginPath); err != nil {
		return failure.AuthError("login page unreachable", err)
	}

	if err := s.page.WaitVisible(ctx, emailInput, s.settings.ElementTimeout); err != nil {
		return failure.AuthError("email field not found", err)
	}
	if err := s.retry(ctx, "type email", func() error {
		return s.page.Input(ctx, emailInput, s.account.Email, s.settings.ElementTimeout)
	}); err != nil {
		return failure.AuthError("failed to enter email", err)
	}
	if err := s.retry(ctx, "submit email", func() error {
		return s.page.Click(ctx, signInButton, s.settings.ElementTimeout)
	}); err != nil {
		return failure.AuthError("sign in button not clickable", err)
	}

	if err := s.page.WaitVisible(ctx, passwordInput, s.settings.ElementTimeout); err != nil {
		return failure.AuthError("password field not found", err)
	}
	if err := s.retry(ctx, "type password", func() error {
		return s.page.Input(ctx, passwordInput, s.account.Password, s.settings.ElementTimeout)
	}); err != nil {
		return failure.AuthError("failed to enter password", err)
	}
	if err := s.retry(ctx, "submit password", func() error {
		return s.page.Click(ctx, signInButton, s.settings.ElementTimeout)
	}); err != nil {
		return failure.AuthError("sign in button not clickable", err)
	}

	return nil
}

// OpenDashboard follows the dashboard link of the session's property in the current tab.
func (s *Session) OpenDashboard(ctx context.Context) error {
	link := fmt.Sprintf(dashboardLinkFmt, s.account.PropertyID)

	if err := s.page.WaitVisible(ctx, link, s.settings.NavigateTimeout); err != nil {
		return failure.AuthError(fmt.Sprintf("dashboard link for property %s never became clickable", s.account.PropertyID), err)
	}

	var found bool
	if err := s.page.Eval(ctx, dropTargetJS, &found, link); err != nil {
		log.Debug().Err(err).Msg("could not drop dashboard link target")
	}

	if err := s.retry(ctx, "open dashboard", func() error {
		return s.page.Click(ctx, link, s.settings.ElementTimeout)
	}); err != nil {
		return failure.AuthError(fmt.Sprintf("dashboard link for property %s never became clickable", s.account.PropertyID), err)
	}

	return s.settle(ctx)
}

// OpenReservations switches the dashboard to the reservations listing.
func (s *Session) OpenReservations(ctx context.Context) error {
	if err := s.retry(ctx, "open reservations", func() error {
		return s.page.Click(ctx, reservationsButton, s.settings.ElementTimeout)
	}); err != nil {
		return failure.NavigationTimeout("reservations view not reachable", err)
	}

	// An empty listing has no accordion at all, so a timeout here is not an error.
	if err := s.page.WaitVisible(ctx, listingReady, s.settings.ElementTimeout); err != nil {
		log.Debug().Str("property", s.account.PropertyID).Msg("no booking cards rendered yet")
	}

	return s.settle(ctx)
}

// Navigate loads url, throttled to one navigation per NavigateInterval.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for navigation slot: %w", err)
	}
	if err := s.page.Navigate(ctx, url, s.settings.NavigateTimeout); err != nil {
		return failure.NavigationTimeout("navigation failed", err)
	}
	return nil
}

// Screenshot saves a PNG of the current page under name for troubleshooting.
func (s *Session) Screenshot(ctx context.Context, name string) {
	if img, err := s.page.Screenshot(ctx); err == nil {
		if where, err := s.artifacts.Save(ctx, name+".png", artifact.ContentTypePNG, img); err == nil && where != "" {
			log.Info().Str("artifact", where).Msg("saved debug screenshot")
		}
	}
}

// Snapshot stores the current document under name.
func (s *Session) Snapshot(ctx context.Context, name string) {
	html, err := s.page.HTML(ctx)
	if err != nil {
		return
	}
	if where, err := s.artifacts.Save(ctx, name+".html", artifact.ContentTypeHTML, []byte(html)); err == nil && where != "" {
		log.Info().Str("artifact", where).Msg("saved page snapshot")
	}
}

// Close releases the page and the browser behind it.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close browser")
		}
	}
}

// retry repeats a UI interaction that may fail while the element is not yet interactable.
func (s *Session) retry(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.settings.RetryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return errors.Join(err, ctx.Err())
		}

		log.Debug().Err(err).Str("action", what).Int("attempt", attempt).Msg("interaction failed")

		if attempt < s.settings.RetryAttempts {
			if sleepErr := sleep(ctx, s.settings.RetryBackoff); sleepErr != nil {
				return errors.Join(err, sleepErr)
			}
		}
	}
	return err
}

func (s *Session) settle(ctx context.Context) error {
	return sleep(ctx, s.settings.SettleDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
