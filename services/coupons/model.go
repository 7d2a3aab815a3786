package coupons

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type Kind string

const (
	KindPercent Kind = "PERCENT"
	KindFlat    Kind = "FLAT"
)

type Coupon struct {
	Code             string            `json:"code"`
	Kind             Kind              `json:"kind" validate:"oneof=PERCENT FLAT"`
	PercentOff       string            `json:"percentOff,omitempty"`
	AmountOff        checkoutapi.Money `json:"amountOff,omitempty"`
	MaxDiscount      checkoutapi.Money `json:"maxDiscount,omitempty"`
	MinOrder         checkoutapi.Money `json:"minOrder,omitempty"`
	MinItems         int               `json:"minItems,omitempty"`
	StartsAt         *time.Time        `json:"startsAt,omitempty"`
	EndsAt           *time.Time        `json:"endsAt,omitempty"`
	Active           bool              `json:"active"`
	UsageLimit       int               `json:"usageLimit,omitempty"`
	PerCustomerLimit int               `json:"perCustomerLimit,omitempty"`
}

// Usage is recorded once per paid order.
type Usage struct {
	OrderID    string
	Code       string
	CustomerID string
	Discount   checkoutapi.Money
	UsedAt     time.Time
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c Coupon) percentage() (decimal.Decimal, error) {
	pct, err := decimal.NewFromString(c.PercentOff)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coupon %s has invalid percentage %q: %w", c.Code, c.PercentOff, err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("coupon %s has out of range percentage %s", c.Code, pct)
	}
	return pct, nil
}

// discountFor never returns more than the subtotal.
func (c Coupon) discountFor(subtotal checkoutapi.Money) (checkoutapi.Money, error) {
	var discount checkoutapi.Money
	switch c.Kind {
	case KindPercent:
		pct, err := c.percentage()
		if err != nil {
			return 0, err
		}
		discount = subtotal.Percentage(pct)
	case KindFlat:
		discount = c.AmountOff
	default:
		return 0, fmt.Errorf("coupon %s has unsupported kind %q", c.Code, c.Kind)
	}

	if c.MaxDiscount > 0 {
		discount = checkoutapi.Min(discount, c.MaxDiscount)
	}
	if discount < 0 {
		discount = 0
	}
	return checkoutapi.Min(discount, subtotal), nil
}

// RejectionError tells why a coupon cannot be applied to this order.
type RejectionError struct {
	Code   string
	reason string
}

func (e RejectionError) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.reason)
}

func (e RejectionError) Reason() string {
	return e.reason
}

func rejected(code string, reason string) error {
	return RejectionError{Code: code, reason: reason}
}
