package stayflexi

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"time"

	"otasync/internal/extract"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	// StrategyFallback names the full-page booking id search.
	StrategyFallback = "booking-id-walk"

	expandPollInterval = 200 * time.Millisecond
)

var errNotExpandable = errors.New("card has no expand control")

// RawBooking is the visible text of one booking card.
type RawBooking struct {
	Text     string
	HTML     string
	Strategy string
	Index    int
}

type cardContent struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Listing is one pass over the reservations page the session is on.
type Listing struct {
	session  *Session
	consumed bool
	strategy string
}

// Scan prepares a pass over the current listing. Nothing is read from the page until All is ranged over.
func Scan(s *Session) *Listing {
	return &Listing{session: s}
}

// Strategy names the strategy that produced the cards, empty until the pass has run.
func (l *Listing) Strategy() string { return l.strategy }

// All yields each booking card once. The sequence cannot be restarted: ranging over it a second time
// yields nothing, and a fresh page load plus a new Scan is needed to read the cards again.
func (l *Listing) All(ctx context.Context) iter.Seq[RawBooking] {
	return func(yield func(RawBooking) bool) {
		if l.consumed {
			log.Debug().Str("property", l.session.account.PropertyID).Msg("listing already scanned")
			return
		}
		l.consumed = true

		pid := l.session.account.PropertyID

		for _, st := range cardStrategies {
			if ctx.Err() != nil {
				return
			}

			n, err := l.markCards(ctx, st)
			if err != nil {
				log.Debug().Err(err).Str("strategy", st.Name).Msg("card strategy failed")
				continue
			}
			if n == 0 {
				continue
			}

			l.strategy = st.Name
			log.Info().Str("property", pid).Str("strategy", st.Name).Int("cards", n).Msg("found booking cards")

			for i := 0; i < n; i++ {
				if ctx.Err() != nil {
					return
				}
				raw, ok := l.readCard(ctx, st, i)
				if !ok {
					continue
				}
				if !yield(raw) {
					return
				}
			}
			return
		}

		blocks := l.fallbackBlocks(ctx)
		if len(blocks) == 0 {
			log.Info().Str("property", pid).Msg("no booking cards on listing")
			l.captureEmpty(ctx)
			return
		}

		l.strategy = StrategyFallback
		log.Info().Str("property", pid).Str("strategy", StrategyFallback).Int("cards", len(blocks)).Msg("found booking blocks")

		for i, b := range blocks {
			if !yield(RawBooking{Text: b.Text, HTML: b.HTML, Strategy: StrategyFallback, Index: i}) {
				return
			}
		}
	}
}

func (l *Listing) markCards(ctx context.Context, st cardStrategy) (int, error) {
	var n int
	if err := l.session.page.Eval(ctx, markCardsJS, &n, st.Selector, cardMarkAttribute); err != nil {
		return 0, err
	}
	return n, nil
}

func (l *Listing) readCard(ctx context.Context, st cardStrategy, i int) (RawBooking, bool) {
	s := l.session

	if st.Collapsed {
		if err := l.expand(ctx, i); err != nil {
			log.Debug().Err(err).Int("card", i).Msg("could not expand card, reading summary as is")
		}
	}

	var c cardContent
	if err := s.page.Eval(ctx, readCardJS, &c, cardMarkAttribute, i, st.Collapsed); err != nil {
		log.Warn().Err(err).Str("strategy", st.Name).Int("card", i).Msg("failed to read card")
		return RawBooking{}, false
	}
	if strings.TrimSpace(c.Text) == "" {
		return RawBooking{}, false
	}

	return RawBooking{Text: c.Text, HTML: c.HTML, Strategy: st.Name, Index: i}, true
}

func (l *Listing) expand(ctx context.Context, i int) error {
	s := l.session

	err := s.retry(ctx, "expand card", func() error {
		var clicked bool
		if err := s.page.Eval(ctx, expandCardJS, &clicked, cardMarkAttribute, i); err != nil {
			return err
		}
		if !clicked {
			return errNotExpandable
		}
		return nil
	})
	if err != nil {
		return err
	}

	expanded := waitUntil(ctx, s.settings.ElementTimeout, func() bool {
		var ok bool
		return s.page.Eval(ctx, cardExpandedJS, &ok, cardMarkAttribute, i) == nil && ok
	})
	if !expanded {
		return fmt.Errorf("card %d did not expand within %s", i, s.settings.ElementTimeout)
	}
	return nil
}

func (l *Listing) fallbackBlocks(ctx context.Context) []cardContent {
	prefix := fmt.Sprintf("%s%s_", extract.BookingIDPrefix, l.session.account.PropertyID)

	var blocks []cardContent
	if err := l.session.page.Eval(ctx, findBookingBlocksJS, &blocks, prefix, fallbackDepthLimit); err != nil {
		log.Debug().Err(err).Msg("booking id walk failed")
		return nil
	}

	out := blocks[:0]
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) != "" {
			out = append(out, b)
		}
	}
	return out
}

func (l *Listing) captureEmpty(ctx context.Context) {
	s := l.session
	pid := s.account.PropertyID

	for _, where := range []string{"top", "bottom"} {
		var ok bool
		_ = s.page.Eval(ctx, scrollToJS, &ok, where)
		s.Screenshot(ctx, fmt.Sprintf("stayflexi_%s_%s", where, pid))
	}
	s.Snapshot(ctx, "stayflexi_listing_"+pid)
}

// waitUntil polls cond until it holds or timeout passes.
func waitUntil(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		if err := sleep(ctx, expandPollInterval); err != nil {
			return false
		}
	}
}

// ScanHTML runs the same cascade over a saved listing page. Collapsed cards are read from their
// accordion summary, the fallback keeps the nearest ancestor of each booking id that holds several lines
// and no other booking id.
func ScanHTML(doc string, propertyID string) ([]RawBooking, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	for _, st := range cardStrategies {
		sel := d.Find(st.Selector)
		if sel.Length() == 0 {
			continue
		}

		var out []RawBooking
		sel.Each(func(i int, card *goquery.Selection) {
			region := card
			if st.Collapsed {
				if summary := card.Closest(accordionRoot).Find(accordionSummary).First(); summary.Length() > 0 {
					region = summary
				}
			}
			if raw, ok := rawFromSelection(region, st.Name, i); ok {
				out = append(out, raw)
			}
		})
		return out, nil
	}

	prefix := fmt.Sprintf("%s%s_", extract.BookingIDPrefix, propertyID)
	ids := extract.BookingIDPattern(propertyID)

	var out []RawBooking
	seen := map[*html.Node]bool{}
	d.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if !ownTextContains(s, prefix) {
			return
		}

		block := nearestBlock(s, ids)
		if seen[block.Get(0)] {
			return
		}
		seen[block.Get(0)] = true

		if raw, ok := rawFromSelection(block, StrategyFallback, len(out)); ok {
			out = append(out, raw)
		}
	})

	return out, nil
}

func rawFromSelection(s *goquery.Selection, strategy string, i int) (RawBooking, bool) {
	outer, err := goquery.OuterHtml(s)
	if err != nil {
		return RawBooking{}, false
	}
	text, err := extract.TextFromHTML(outer)
	if err != nil || strings.TrimSpace(text) == "" {
		return RawBooking{}, false
	}
	return RawBooking{Text: text, HTML: outer, Strategy: strategy, Index: i}, true
}

func ownTextContains(s *goquery.Selection, needle string) bool {
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.Contains(c.Data, needle) {
				return true
			}
		}
	}
	return false
}

// nearestBlock climbs at most fallbackDepthLimit levels to the first ancestor that reads as a card.
// It never climbs into an ancestor holding a second booking id, so short cards sharing a container
// stay apart.
func nearestBlock(s *goquery.Selection, ids *regexp.Regexp) *goquery.Selection {
	cur := s
	for depth := 0; depth < fallbackDepthLimit; depth++ {
		if text, err := extract.TextFromHTML(mustOuter(cur)); err == nil && len(extract.Lines(text)) >= 3 {
			return cur
		}
		parent := cur.Parent()
		if parent.Length() == 0 || goquery.NodeName(parent) == "body" {
			break
		}
		if distinctIDs(parent.Text(), ids) > 1 {
			break
		}
		cur = parent
	}
	return cur
}

func distinctIDs(text string, ids *regexp.Regexp) int {
	seen := map[string]bool{}
	for _, id := range ids.FindAllString(text, -1) {
		seen[id] = true
	}
	return len(seen)
}

func mustOuter(s *goquery.Selection) string {
	h, _ := goquery.OuterHtml(s)
	return h
}
