// Package formatter renders sync reports and extracted records in the formats the CLI can write.
package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"otasync/internal/scraper"
)

type render func(scraper.Content) (string, error)

var renderers = map[string]render{
	"text":     scraper.Content.ToText,
	"markdown": scraper.Content.ToMarkdown,
	"html":     scraper.Content.ToHTML,
	"csv":      scraper.Content.ToCSV,
	"json": func(c scraper.Content) (string, error) {
		b, err := c.ToJSON()
		return string(b), err
	},
}

// Formats lists the output formats Format accepts.
var Formats = []string{"text", "markdown", "html", "json", "csv"}

var extensions = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".json":     "json",
	".html":     "html",
	".htm":      "html",
	".txt":      "text",
	".csv":      "csv",
}

func Format(content scraper.Content, format string) (string, error) {
	r, ok := renderers[format]
	if !ok {
		return "", fmt.Errorf("unsupported output format: %s", format)
	}

	out, err := r(content)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	return out, nil
}

// FromExtension infers the output format from a file name, "" when unknown.
func FromExtension(filename string) string {
	return extensions[strings.ToLower(filepath.Ext(filename))]
}
