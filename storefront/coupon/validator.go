// Package coupon validates coupon codes against the backend and tracks what a discount was validated for.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/storefront/backend"
)

// ErrUnavailable means the coupon could not be checked. The discount is then not applied.
var ErrUnavailable = errors.New("coupon validation unavailable")

// RejectedError carries one of the checkoutapi coupon reasons.
type RejectedError struct {
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}

// Application is a discount that is authoritative only for the subtotal and item count it was validated against.
type Application struct {
	Code                      string
	DiscountAmount            checkoutapi.Money
	ValidatedAgainstSubtotal  checkoutapi.Money
	ValidatedAgainstItemCount int
}

func (a Application) IsStaleFor(subtotal checkoutapi.Money, itemCount int) bool {
	return a.ValidatedAgainstSubtotal != subtotal || a.ValidatedAgainstItemCount != itemCount
}

func (a Application) IsFor(code string) bool {
	return a.Code == normalize(code)
}

type PreviewClient interface {
	PreviewCoupon(ctx context.Context, code string, request checkoutapi.CouponPreviewRequest) (checkoutapi.CouponPreviewResponse, error)
}

type Validator struct {
	client PreviewClient
}

func NewValidator(client PreviewClient) *Validator {
	return &Validator{client: client}
}

func (v *Validator) Validate(ctx context.Context, code string, customerID string, subtotal checkoutapi.Money, itemCount int) (Application, error) {
	code = normalize(code)
	if code == "" {
		return Application{}, &RejectedError{Code: code, Reason: checkoutapi.CouponNotFound}
	}

	resp, err := v.client.PreviewCoupon(ctx, code, checkoutapi.CouponPreviewRequest{
		CustomerID: customerID,
		OrderTotal: subtotal,
		ItemsCount: itemCount,
	})
	if err != nil {
		status := backend.StatusOf(err)
		if status == http.StatusUnprocessableEntity || status == http.StatusNotFound {
			reason := backend.ReasonOf(err)
			if reason == "" {
				reason = checkoutapi.CouponNotFound
			}
			return Application{}, &RejectedError{Code: code, Reason: reason}
		}
		return Application{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	if resp.Discount < 0 || resp.Discount > subtotal {
		return Application{}, &RejectedError{Code: code, Reason: checkoutapi.CouponOutOfBounds}
	}

	return Application{
		Code:                      code,
		DiscountAmount:            resp.Discount,
		ValidatedAgainstSubtotal:  subtotal,
		ValidatedAgainstItemCount: itemCount,
	}, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
