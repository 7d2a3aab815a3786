package checkout

import (
	"context"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/storefront/coupon"
	"github.com/MarcGrol/checkoutflow/storefront/paymentwidget"
	"github.com/MarcGrol/checkoutflow/storefront/shippingquote"
)

//go:generate mockgen -source=api.go -package checkout -destination api_mock.go ShippingEstimator,CouponValidator,PaymentAdapter,OrderRecorder,LinkOpener

type ShippingEstimator interface {
	QuoteAt(ctx context.Context, seq uint64, subtotal checkoutapi.Money, destination shippingquote.Destination) (shippingquote.Quote, error)
	CancelAll()
}

type CouponValidator interface {
	Validate(ctx context.Context, code string, customerID string, subtotal checkoutapi.Money, itemCount int) (coupon.Application, error)
}

type PaymentAdapter interface {
	CreateIntent(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (paymentwidget.PaymentIntent, error)
	OpenWidget(ctx context.Context, intent paymentwidget.PaymentIntent, prefill paymentwidget.Prefill) (paymentwidget.GatewayResult, error)
	Verify(ctx context.Context, intent paymentwidget.PaymentIntent, result paymentwidget.GatewayResult) (checkoutapi.OrderRecord, error)
}

// OrderRecorder records orders that are settled outside the payment gateway.
type OrderRecorder interface {
	Checkout(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error)
}

type LinkOpener interface {
	Open(ctx context.Context, link string) error
}
