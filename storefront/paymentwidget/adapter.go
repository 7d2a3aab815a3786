// Package paymentwidget drives the payment gateway's own checkout UI. What the widget reports is never
// proof of payment: only the backend verification decides whether an order is paid.
package paymentwidget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

var (
	// ErrDismissed means the shopper closed the widget or it never reported back in time.
	ErrDismissed = errors.New("payment widget dismissed")
	// ErrNoGatewayOrder means the backend did not hand out anything to pay for.
	ErrNoGatewayOrder = errors.New("checkout returned no gateway order")
)

// PaymentIntent belongs to one submission attempt and must not be reused by the next.
type PaymentIntent struct {
	GatewayOrderID   string
	AmountMinorUnits int64
	Currency         string
	InternalOrderID  string
	PublicCode       string
	Provider         string
	KeyID            string
	CheckoutURL      string
	ClientSecret     string
}

type Prefill struct {
	Name  string
	Email string
	Phone string
}

// GatewayResult is what the widget reports on success. Untrusted until verified.
type GatewayResult struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// FailedError is reported by the widget when the gateway declined the payment.
type FailedError struct {
	Code        string
	Description string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("payment failed: %s %s", e.Code, e.Description)
}

// Widget is the gateway's checkout UI. Open blocks until the shopper completes or abandons the payment.
type Widget interface {
	Open(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error)
}

type Backend interface {
	Checkout(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error)
	VerifyPayment(ctx context.Context, request checkoutapi.VerifyRequest) (checkoutapi.OrderRecord, error)
}

type Adapter struct {
	backend       Backend
	widget        Widget
	widgetTimeout time.Duration
	verifyTimeout time.Duration
	logger        mylog.Logger
}

func NewAdapter(backend Backend, widget Widget, widgetTimeout time.Duration, verifyTimeout time.Duration) *Adapter {
	return &Adapter{
		backend:       backend,
		widget:        widget,
		widgetTimeout: widgetTimeout,
		verifyTimeout: verifyTimeout,
		logger:        mylog.New("paymentwidget"),
	}
}

// CreateIntent records the pending order at the backend and returns the gateway order to pay for.
func (a *Adapter) CreateIntent(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (PaymentIntent, error) {
	resp, err := a.backend.Checkout(ctx, idempotencyKey, request)
	if err != nil {
		return PaymentIntent{}, err
	}
	if resp.Type != checkoutapi.OrderTypeGateway || resp.GatewayOrder == nil {
		return PaymentIntent{}, fmt.Errorf("%w for order %s", ErrNoGatewayOrder, resp.OrderID)
	}

	return PaymentIntent{
		GatewayOrderID:   resp.GatewayOrder.ID,
		AmountMinorUnits: resp.GatewayOrder.AmountMinor,
		Currency:         resp.GatewayOrder.Currency,
		InternalOrderID:  resp.OrderID,
		PublicCode:       resp.PublicCode,
		Provider:         resp.GatewayOrder.Provider,
		KeyID:            resp.GatewayOrder.KeyID,
		CheckoutURL:      resp.GatewayOrder.CheckoutURL,
		ClientSecret:     resp.GatewayOrder.ClientSecret,
	}, nil
}

// OpenWidget treats a widget that does not answer within the timeout as dismissed.
func (a *Adapter) OpenWidget(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
	if a.widgetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.widgetTimeout)
		defer cancel()
	}

	type outcome struct {
		result GatewayResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := a.widget.Open(ctx, intent, prefill)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		a.logger.Log(ctx, intent.InternalOrderID, mylog.SeverityInfo, "Payment widget for %s closed without answer: %s", intent.GatewayOrderID, ctx.Err())
		return GatewayResult{}, fmt.Errorf("%w: %s", ErrDismissed, ctx.Err())
	case o := <-done:
		if o.err != nil {
			if errors.Is(o.err, context.Canceled) || errors.Is(o.err, context.DeadlineExceeded) {
				return GatewayResult{}, fmt.Errorf("%w: %s", ErrDismissed, o.err)
			}
			return GatewayResult{}, o.err
		}
		if o.result.GatewayOrderID == "" {
			o.result.GatewayOrderID = intent.GatewayOrderID
		}
		if o.result.GatewayOrderID != intent.GatewayOrderID {
			return GatewayResult{}, &FailedError{Code: "ORDER_MISMATCH", Description: fmt.Sprintf("widget answered for %s instead of %s", o.result.GatewayOrderID, intent.GatewayOrderID)}
		}
		return o.result, nil
	}
}

// Verify asks the backend to check the gateway's signature. Any error here leaves the payment unconfirmed.
func (a *Adapter) Verify(ctx context.Context, intent PaymentIntent, result GatewayResult) (checkoutapi.OrderRecord, error) {
	if a.verifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.verifyTimeout)
		defer cancel()
	}

	return a.backend.VerifyPayment(ctx, checkoutapi.VerifyRequest{
		OrderID:          intent.InternalOrderID,
		GatewayOrderID:   result.GatewayOrderID,
		GatewayPaymentID: result.GatewayPaymentID,
		Signature:        result.Signature,
		AmountMinor:      intent.AmountMinorUnits,
		Currency:         intent.Currency,
	})
}
