package extract

import (
	"regexp"
	"strconv"
	"strings"

	"otasync/internal/booking"
)

// Folio financial summary labels, in page order.
const (
	LabelTotalWithoutTax = "Total without taxes"
	LabelTotalTax        = "Total tax amount"
	LabelTotalWithTax    = "Total with taxes and fees"
	LabelPaymentMade     = "Payment made"
	LabelBalanceDue      = "Balance due"
)

var financialLabels = []string{LabelTotalWithoutTax, LabelTotalTax, LabelTotalWithTax, LabelPaymentMade, LabelBalanceDue}

var (
	currencyPrefix  = regexp.MustCompile(`(?i)^(INR|Rs\.?|₹)\s*`)
	occupancyTriple = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)\s*/\s*(\d+)$`)
	hasAmount       = regexp.MustCompile(`\d`)
	amountShaped    = regexp.MustCompile(`(?i)^(INR|Rs\.?|₹)?\s*-?[\d,]+(\.\d+)?$`)
)

// ParseFinancials pairs each known label with the line that follows it.
// Labels that are absent or carry no amount stay zero and are reported as missing.
func ParseFinancials(text string) (booking.Commercial, []string) {
	lines := Lines(text)
	for i := range lines {
		lines[i] = cleanLine(lines[i])
	}

	values := map[string]booking.Amount{}
	for i, l := range lines {
		for _, label := range financialLabels {
			if _, done := values[label]; done {
				continue
			}
			if !strings.HasPrefix(strings.ToLower(l), strings.ToLower(label)) {
				continue
			}

			next := ""
			if i+1 < len(lines) {
				next = lines[i+1]
			}

			v, ok := labelValue(strings.TrimSpace(strings.TrimLeft(l[len(label):], ": ")), next)
			if !ok {
				continue
			}

			values[label] = booking.NonNegative(booking.ParseAmount(currencyPrefix.ReplaceAllString(v, "")))
		}
	}

	var missing []string
	get := func(label string) booking.Amount {
		if v, ok := values[label]; ok {
			return v
		}
		missing = append(missing, label)
		return booking.Zero
	}

	c := booking.Commercial{
		TotalWithoutTax: get(LabelTotalWithoutTax),
		TotalTax:        get(LabelTotalTax),
		TotalWithTax:    get(LabelTotalWithTax),
		PaymentMade:     get(LabelPaymentMade),
		BalanceDue:      get(LabelBalanceDue),
	}

	return c, missing
}

// labelValue picks the amount for a label from the text after it on the same line or from the next line.
// A bare amount on the same line wins, then a bare amount on the next line. Label suffixes such as
// "(18% GST)" are never read as the amount.
func labelValue(rest, next string) (string, bool) {
	switch {
	case amountShaped.MatchString(rest):
		return rest, true
	case amountShaped.MatchString(next):
		return next, true
	case rest == "" && hasAmount.MatchString(next):
		return next, true
	}

	return "", false
}

// ParseOccupancy reads an "adults/children/infants" triple.
func ParseOccupancy(s string) (booking.Occupancy, bool) {
	m := occupancyTriple.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return booking.Occupancy{}, false
	}

	a, _ := strconv.Atoi(m[1])
	c, _ := strconv.Atoi(m[2])
	i, _ := strconv.Atoi(m[3])

	return booking.Occupancy{Adults: a, Children: c, Infants: i}, true
}

var placeholders = map[string]bool{
	"":          true,
	"-":         true,
	"--":        true,
	"add":       true,
	"view":      true,
	"edit":      true,
	"select":    true,
	"(0)":       true,
	"na":        true,
	"n/a":       true,
	"none":      true,
	"null":      true,
	"undefined": true,
	"plan":      true,
	"rate plan": true,
	"meal plan": true,
}

// IsPlaceholder reports UI filler text and bare field labels that must not be taken as a field value.
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

// IsRatePlan reports whether free page text looks like a rate plan name. Only the text walk needs it;
// a value read from the rate plan cell is checked with IsPlaceholder alone.
func IsRatePlan(s string) bool {
	s = strings.TrimSpace(s)
	return !IsPlaceholder(s) && len(s) <= 80 && strings.Contains(s, "Plan")
}

func cleanLine(l string) string {
	return strings.TrimSpace(strings.Trim(l, "*_#|> \t"))
}
