package handoff

import (
	"strings"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney writes an amount the way the shop shows it, with digit grouping: ₹1,130.00.
func FormatMoney(m checkoutapi.Money, currency string) string {
	fixed := m.Decimal().Abs().StringFixed(2)
	whole, fraction, _ := strings.Cut(fixed, ".")

	grouped := strings.Builder{}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteRune(',')
		}
		grouped.WriteRune(r)
	}

	prefix := currency + " "
	if symbol, found := symbols[strings.ToUpper(currency)]; found {
		prefix = symbol
	}
	sign := ""
	if m < 0 {
		sign = "-"
	}
	return sign + prefix + grouped.String() + "." + fraction
}
