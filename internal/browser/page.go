package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Page is a browser tab. Every lookup is bounded by the timeout passed in.
// Selectors starting with "/" or "(" are XPath, anything else is CSS.
type Page struct {
	page *rod.Page
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

// Navigate loads url and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	pg := p.page.Context(ctx).Timeout(timeout)
	defer pg.CancelTimeout()

	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for load of %s: %w", url, err)
	}
	return nil
}

// element finds selector on a page bounded by timeout. The element inherits that bound, so release
// must be called once the caller is done with it.
func (p *Page) element(ctx context.Context, selector string, timeout time.Duration) (*rod.Element, func(), error) {
	pg := p.page.Context(ctx).Timeout(timeout)
	release := func() { pg.CancelTimeout() }

	var (
		el  *rod.Element
		err error
	)
	if isXPath(selector) {
		el, err = pg.ElementX(selector)
	} else {
		el, err = pg.Element(selector)
	}
	if err != nil {
		release()
		return nil, nil, err
	}

	return el, release, nil
}

// WaitVisible blocks until the element exists and is visible.
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, release, err := p.element(ctx, selector, timeout)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	defer release()

	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("element %s not visible: %w", selector, err)
	}
	return nil
}

// Click scrolls the element into view and clicks it, falling back to a scripted click
// when the element is covered by an overlay.
func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, release, err := p.element(ctx, selector, timeout)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	defer release()

	_ = el.ScrollIntoView()

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		if _, jsErr := el.Eval(`() => this.click()`); jsErr != nil {
			return fmt.Errorf("failed to click %s: %w", selector, err)
		}
	}
	return nil
}

// Input replaces the element's value with text.
func (p *Page) Input(ctx context.Context, selector, text string, timeout time.Duration) error {
	el, release, err := p.element(ctx, selector, timeout)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	defer release()

	_ = el.SelectAllText()
	if err := el.Input(text); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

// Text returns the element's visible text.
func (p *Page) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	el, release, err := p.element(ctx, selector, timeout)
	if err != nil {
		return "", fmt.Errorf("element %s not found: %w", selector, err)
	}
	defer release()

	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", selector, err)
	}
	return text, nil
}

// Eval runs a JS function expression with args and decodes its JSON result into out (may be nil).
func (p *Page) Eval(ctx context.Context, js string, out any, args ...any) error {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	if out == nil {
		return nil
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to read script result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

// HTML returns the current document's HTML.
func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Screenshot captures the viewport as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	img, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return img, nil
}

func (p *Page) Close() error {
	return p.page.Close()
}
