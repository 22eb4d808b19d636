package scraper

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"otasync/internal/booking"
)

// Records is the outcome of scraping one property.
type Records []booking.BookingRecord

var recordColumns = []string{
	"Property", "Booking ID", "Guest Name", "Phone", "Check In", "Check Out", "Room No", "Room Type",
	"Rate Plan", "Adults", "Children", "Infants", "Total Without Tax", "Total Tax", "Total With Tax",
	"Payment Made", "Balance Due", "Source",
}

func (r Records) rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, b := range r {
		rows = append(rows, []string{
			b.PropertyID,
			b.ExternalBookingID,
			b.GuestName,
			b.GuestPhone,
			booking.FormatDate(b.CheckIn),
			booking.FormatDate(b.CheckOut),
			b.RoomNumber,
			b.RoomType,
			b.RatePlan,
			fmt.Sprint(b.Occupancy.Adults),
			fmt.Sprint(b.Occupancy.Children),
			fmt.Sprint(b.Occupancy.Infants),
			b.TotalWithoutTax.StringFixed(2),
			b.TotalTax.StringFixed(2),
			b.TotalWithTax.StringFixed(2),
			b.PaymentMade.StringFixed(2),
			b.BalanceDue.StringFixed(2),
			string(b.SourceChannel),
		})
	}
	return rows
}

// ToMarkdown returns a markdown table of the records
func (r Records) ToMarkdown() (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Bookings\n\nTotal %d bookings\n\n", len(r)))
	sb.WriteString("| " + strings.Join(recordColumns, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(recordColumns)) + "\n")
	for _, row := range r.rows() {
		for i := range row {
			row[i] = strings.ReplaceAll(row[i], "|", "\\|")
		}
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return sb.String(), nil
}

// ToText returns one block per booking
func (r Records) ToText() (string, error) {
	var sb strings.Builder
	for i, row := range r.rows() {
		if i > 0 {
			sb.WriteString("\n")
		}
		for j, col := range recordColumns {
			sb.WriteString(fmt.Sprintf("%-18s %s\n", col+":", row[j]))
		}
	}
	return sb.String(), nil
}

func (r Records) ToHTML() (string, error) {
	var sb strings.Builder
	sb.WriteString("<table>\n<tr>")
	for _, col := range recordColumns {
		sb.WriteString("<th>" + html.EscapeString(col) + "</th>")
	}
	sb.WriteString("</tr>\n")
	for _, row := range r.rows() {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table>")
	return sb.String(), nil
}

func (r Records) ToJSON() ([]byte, error) {
	if r == nil {
		r = Records{}
	}
	return json.MarshalIndent(r, "", "  ")
}

func (r Records) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(recordColumns)
	for _, row := range r.rows() {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String(), w.Error()
}
