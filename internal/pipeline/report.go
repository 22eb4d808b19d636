package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"otasync/internal/dedup"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// Counts are the tallies of one property or of a whole run.
// Skipped includes GuestDuplicates; Errored includes Rejected.
type Counts struct {
	Scraped         int `json:"scraped"`
	Stored          int `json:"stored"`
	Skipped         int `json:"skipped"`
	GuestDuplicates int `json:"guest_duplicates"`
	Errored         int `json:"errored"`
	Rejected        int `json:"rejected"`
}

func (c *Counts) count(o dedup.Outcome) {
	switch o {
	case dedup.Stored:
		c.Stored++
	case dedup.SkippedDuplicate:
		c.Skipped++
	case dedup.SkippedGuestDuplicate:
		c.Skipped++
		c.GuestDuplicates++
	case dedup.Rejected:
		c.Errored++
		c.Rejected++
	default:
		c.Errored++
	}
}

func (c *Counts) plus(o Counts) {
	c.Scraped += o.Scraped
	c.Stored += o.Stored
	c.Skipped += o.Skipped
	c.GuestDuplicates += o.GuestDuplicates
	c.Errored += o.Errored
	c.Rejected += o.Rejected
}

type PropertyReport struct {
	PropertyID   string `json:"property_id"`
	PropertyName string `json:"property_name"`
	Counts
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Took      time.Duration `json:"took"`
}

// Failed reports whether the property run itself failed, as opposed to single bookings.
func (p PropertyReport) Failed() bool {
	return p.Error != ""
}

type Report struct {
	Source     string           `json:"source"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Properties []PropertyReport `json:"properties"`
	Total      Counts           `json:"total"`
}

func (r *Report) add(p PropertyReport) {
	r.Properties = append(r.Properties, p)
	r.Total.plus(p.Counts)
}

// Report returns a single-property report.
func (p PropertyReport) Report(source string, started, finished time.Time) Report {
	r := Report{Source: source, StartedAt: started, FinishedAt: finished}
	r.add(p)
	return r
}

var reportColumns = []string{"Property", "Name", "Scraped", "Stored", "Skipped", "Guest Duplicates", "Errored", "Rejected", "Error"}

func countCells(c Counts) []string {
	return []string{
		strconv.Itoa(c.Scraped),
		strconv.Itoa(c.Stored),
		strconv.Itoa(c.Skipped),
		strconv.Itoa(c.GuestDuplicates),
		strconv.Itoa(c.Errored),
		strconv.Itoa(c.Rejected),
	}
}

func (r Report) rows() [][]string {
	rows := make([][]string, 0, len(r.Properties)+1)
	for _, p := range r.Properties {
		row := append([]string{p.PropertyID, p.PropertyName}, countCells(p.Counts)...)
		rows = append(rows, append(row, p.Error))
	}
	total := append([]string{"total", ""}, countCells(r.Total)...)
	return append(rows, append(total, ""))
}

func (r Report) ToText() (string, error) {
	var sb strings.Builder

	for _, p := range r.Properties {
		status := "ok"
		if p.Failed() {
			status = "error: " + p.Error
		}
		sb.WriteString(fmt.Sprintf("%-8s %-24s stored=%d skipped=%d errored=%d (%s)\n",
			p.PropertyID, p.PropertyName, p.Stored, p.Skipped, p.Errored, status))
	}

	sb.WriteString(fmt.Sprintf("total: stored=%d skipped=%d errored=%d\n", r.Total.Stored, r.Total.Skipped, r.Total.Errored))

	return sb.String(), nil
}

func (r Report) ToHTML() (string, error) {
	var sb strings.Builder

	sb.WriteString("<h1>Sync report</h1>\n")
	sb.WriteString(fmt.Sprintf("<p>Source %s, %d properties, %s</p>\n",
		html.EscapeString(r.Source), len(r.Properties), r.FinishedAt.Sub(r.StartedAt).Round(time.Second)))

	sb.WriteString("<table>\n<thead><tr>")
	for _, col := range reportColumns {
		sb.WriteString("<th>" + html.EscapeString(col) + "</th>")
	}
	sb.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range r.rows() {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>")

	return sb.String(), nil
}

// ToMarkdown converts the HTML rendering.
func (r Report) ToMarkdown() (string, error) {
	h, err := r.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())

	out, err := converter.ConvertString(h)
	if err != nil {
		return "", fmt.Errorf("failed to convert report to markdown: %w", err)
	}

	return out, nil
}

func (r Report) ToJSON() ([]byte, error) {
	if r.Properties == nil {
		r.Properties = []PropertyReport{}
	}
	return json.MarshalIndent(r, "", "  ")
}

func (r Report) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(reportColumns)
	for _, row := range r.rows() {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String(), w.Error()
}
