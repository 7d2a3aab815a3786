package checkoutapi

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (paise, cents).
// On the wire it is written in major units, as the storefront shows it.
type Money int64

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

func MoneyFromMajor(major int64) Money {
	return Money(major * 100)
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d), nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) MinorUnits() int64 {
	return int64(m)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts both numbers and quoted numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Percentage returns pct percent of m, rounded half-up to the minor unit.
func (m Money) Percentage(pct decimal.Decimal) Money {
	return MoneyFromDecimal(m.Decimal().Mul(pct).Div(decimal.NewFromInt(100)))
}

func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}
