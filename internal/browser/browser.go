package browser

import (
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// Config controls how a browser is launched.
type Config struct {
	Headless bool
	ProxyURL string
	// UserAgent overrides the browser UA when set.
	UserAgent string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Browser wraps a rod browser running on its own throwaway profile directory.
type Browser struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	profileDir string
	cfg        Config
}

// New launches a browser with a fresh user-data directory. Every call gets its own profile,
// so cookies and storage never carry over between property accounts.
func New(cfg Config) (*Browser, error) {
	profileDir, err := os.MkdirTemp("", "otasync-profile-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create profile dir: %w", err)
	}

	l := launcher.New().
		Headless(cfg.Headless).
		UserDataDir(profileDir).
		Set("disable-blink-features", "AutomationControlled")

	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	url, err := l.Launch()
	if err != nil {
		_ = os.RemoveAll(profileDir)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		_ = os.RemoveAll(profileDir)
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.Debug().Str("profile", profileDir).Bool("headless", cfg.Headless).Msg("browser launched")

	return &Browser{
		browser:    b,
		launcher:   l,
		profileDir: profileDir,
		cfg:        cfg,
	}, nil
}

// NewPage opens a blank tab with the automation fingerprint masked.
func (b *Browser) NewPage() (*Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	ua := b.cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua})
	_, _ = page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`)

	return &Page{page: page}, nil
}

// Close shuts the browser down and removes its profile directory.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	if b.profileDir != "" {
		if rmErr := os.RemoveAll(b.profileDir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}
