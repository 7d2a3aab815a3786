package paymentwidget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type fakeBackend struct {
	checkoutResp checkoutapi.CheckoutResponse
	checkoutErr  error
	verifyResp   checkoutapi.OrderRecord
	verifyErr    error

	lastKey    string
	lastVerify checkoutapi.VerifyRequest
	verifyCtx  context.Context
}

func (b *fakeBackend) Checkout(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error) {
	b.lastKey = idempotencyKey
	return b.checkoutResp, b.checkoutErr
}

func (b *fakeBackend) VerifyPayment(ctx context.Context, request checkoutapi.VerifyRequest) (checkoutapi.OrderRecord, error) {
	b.lastVerify = request
	b.verifyCtx = ctx
	return b.verifyResp, b.verifyErr
}

type widgetFunc func(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error)

func (f widgetFunc) Open(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
	return f(ctx, intent, prefill)
}

var intent = PaymentIntent{
	GatewayOrderID:   "order_9A33XWu170gUtm",
	AmountMinorUnits: 113000,
	Currency:         "INR",
	InternalOrderID:  "8f14e45f-ceea-467f-a8f3-2a1c0c6f3f6d",
	PublicCode:       "ORD-8F14E45F",
	Provider:         "signature",
	KeyID:            "rzp_test_key",
}

func TestCreateIntent(t *testing.T) {
	t.Run("gateway order", func(t *testing.T) {
		// setup
		backend := &fakeBackend{checkoutResp: checkoutapi.CheckoutResponse{
			Type:       checkoutapi.OrderTypeGateway,
			OrderID:    intent.InternalOrderID,
			PublicCode: intent.PublicCode,
			GatewayOrder: &checkoutapi.GatewayOrder{
				ID:          intent.GatewayOrderID,
				Provider:    "signature",
				KeyID:       "rzp_test_key",
				AmountMinor: 113000,
				Currency:    "INR",
			},
		}}
		adapter := NewAdapter(backend, nil, time.Second, time.Second)

		// when
		got, err := adapter.CreateIntent(context.TODO(), "key-1", checkoutapi.CheckoutRequest{})

		// then
		require.NoError(t, err)
		assert.Equal(t, intent, got)
		assert.Equal(t, "key-1", backend.lastKey)
	})

	t.Run("manual order cannot be paid", func(t *testing.T) {
		// setup
		backend := &fakeBackend{checkoutResp: checkoutapi.CheckoutResponse{
			Type:    checkoutapi.OrderTypeManual,
			OrderID: intent.InternalOrderID,
		}}
		adapter := NewAdapter(backend, nil, time.Second, time.Second)

		// when
		_, err := adapter.CreateIntent(context.TODO(), "key-1", checkoutapi.CheckoutRequest{})

		// then
		assert.ErrorIs(t, err, ErrNoGatewayOrder)
	})

	t.Run("backend error passed on", func(t *testing.T) {
		// setup
		cause := errors.New("connection refused")
		adapter := NewAdapter(&fakeBackend{checkoutErr: cause}, nil, time.Second, time.Second)

		// when
		_, err := adapter.CreateIntent(context.TODO(), "key-1", checkoutapi.CheckoutRequest{})

		// then
		assert.ErrorIs(t, err, cause)
	})
}

func TestOpenWidget(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		// setup
		widget := widgetFunc(func(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
			return GatewayResult{GatewayOrderID: intent.GatewayOrderID, GatewayPaymentID: "pay_1", Signature: "abc"}, nil
		})
		adapter := NewAdapter(&fakeBackend{}, widget, time.Second, time.Second)

		// when
		result, err := adapter.OpenWidget(context.TODO(), intent, Prefill{Name: "Asha"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "pay_1", result.GatewayPaymentID)
	})

	t.Run("widget never answers", func(t *testing.T) {
		// setup
		release := make(chan struct{})
		defer close(release)
		widget := widgetFunc(func(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
			<-release
			return GatewayResult{}, nil
		})
		adapter := NewAdapter(&fakeBackend{}, widget, 20*time.Millisecond, time.Second)

		// when
		_, err := adapter.OpenWidget(context.TODO(), intent, Prefill{})

		// then
		assert.ErrorIs(t, err, ErrDismissed)
	})

	t.Run("widget closed by shopper", func(t *testing.T) {
		// setup
		widget := widgetFunc(func(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
			return GatewayResult{}, ErrDismissed
		})
		adapter := NewAdapter(&fakeBackend{}, widget, time.Second, time.Second)

		// when
		_, err := adapter.OpenWidget(context.TODO(), intent, Prefill{})

		// then
		assert.ErrorIs(t, err, ErrDismissed)
	})

	t.Run("payment declined", func(t *testing.T) {
		// setup
		widget := widgetFunc(func(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
			return GatewayResult{}, &FailedError{Code: "BAD_REQUEST_ERROR", Description: "card declined"}
		})
		adapter := NewAdapter(&fakeBackend{}, widget, time.Second, time.Second)

		// when
		_, err := adapter.OpenWidget(context.TODO(), intent, Prefill{})

		// then
		failed := &FailedError{}
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "BAD_REQUEST_ERROR", failed.Code)
	})

	t.Run("answer for other order", func(t *testing.T) {
		// setup
		widget := widgetFunc(func(ctx context.Context, intent PaymentIntent, prefill Prefill) (GatewayResult, error) {
			return GatewayResult{GatewayOrderID: "order_other", GatewayPaymentID: "pay_1", Signature: "abc"}, nil
		})
		adapter := NewAdapter(&fakeBackend{}, widget, time.Second, time.Second)

		// when
		_, err := adapter.OpenWidget(context.TODO(), intent, Prefill{})

		// then
		failed := &FailedError{}
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "ORDER_MISMATCH", failed.Code)
	})
}

func TestVerify(t *testing.T) {
	// setup
	backend := &fakeBackend{verifyResp: checkoutapi.OrderRecord{ID: intent.InternalOrderID, Status: checkoutapi.OrderStatusPaid}}
	adapter := NewAdapter(backend, nil, time.Second, 5*time.Second)

	// when
	order, err := adapter.Verify(context.TODO(), intent, GatewayResult{GatewayOrderID: intent.GatewayOrderID, GatewayPaymentID: "pay_1", Signature: "abc"})

	// then
	require.NoError(t, err)
	assert.Equal(t, checkoutapi.OrderStatusPaid, order.Status)
	assert.Equal(t, checkoutapi.VerifyRequest{
		OrderID:          intent.InternalOrderID,
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "abc",
		AmountMinor:      113000,
		Currency:         "INR",
	}, backend.lastVerify)
	_, hasDeadline := backend.verifyCtx.Deadline()
	assert.True(t, hasDeadline)
}
