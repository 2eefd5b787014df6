package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer("TL", "", "₺", "", "\u00a0", "", " ", "")

// ParsePrice parses a Turkish locale price string such as "4.617,50 TL".
//
// When a comma is present, dots are thousands separators and the comma is the
// decimal separator. Without a comma every dot is a thousands separator, so
// "1.200" is 1200. Empty, "-" and unparseable input yield zero.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero
	}
	s = currencyReplacer.Replace(s)

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAmount parses a machine formatted number ("990.50") as sent by the
// storefront feed. Unparseable input yields zero.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
