package extract

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const blockElements = "div, p, li, tr, td, th, h1, h2, h3, h4, h5, h6, section, article"

// TextFromHTML renders an HTML fragment as line-oriented text, roughly what innerText returns.
func TextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return strings.Join(Lines(doc.Text()), "\n"), nil
}

// FolioTextFromHTML converts a saved folio page to markdown text that ParseFinancials understands.
func FolioTextFromHTML(html string) (string, error) {
	converter := md.NewConverter("", true, nil)

	text, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert folio HTML: %w", err)
	}

	return text, nil
}
