package booking

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is the commercial value type shared by scraped and direct reservations.
type Amount = decimal.Decimal

var (
	currencyMarker = regexp.MustCompile(`(?i)(INR|Rs\.?|₹)`)
	numericPart    = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// Zero is the default for every missing amount.
var Zero = decimal.Zero

// ParseAmount reads an amount from page text such as "INR 1,250.50" or "Rs. 900".
// Anything unparseable is zero.
func ParseAmount(text string) Amount {
	s := currencyMarker.ReplaceAllString(text, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), "")

	m := numericPart.FindString(s)
	if m == "" {
		return Zero
	}

	d, err := decimal.NewFromString(m)
	if err != nil {
		return Zero
	}

	return d
}

// NonNegative clamps an amount at zero.
func NonNegative(a Amount) Amount {
	if a.IsNegative() {
		return Zero
	}
	return a
}

// Commercial is the financial breakdown shown on a folio.
type Commercial struct {
	TotalWithoutTax Amount `json:"total_without_tax"`
	TotalTax        Amount `json:"total_tax"`
	TotalWithTax    Amount `json:"total_with_tax"`
	PaymentMade     Amount `json:"payment_made"`
	BalanceDue      Amount `json:"balance_due"`
}

// IsZero reports whether no amount was captured.
func (c Commercial) IsZero() bool {
	return c.TotalWithoutTax.IsZero() && c.TotalTax.IsZero() && c.TotalWithTax.IsZero() &&
		c.PaymentMade.IsZero() && c.BalanceDue.IsZero()
}

// NewAmount is a whole amount.
func NewAmount(v int64) Amount {
	return decimal.NewFromInt(v)
}
