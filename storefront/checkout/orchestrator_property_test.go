package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/storefront/cart"
	"github.com/MarcGrol/checkoutflow/storefront/coupon"
	"github.com/MarcGrol/checkoutflow/storefront/paymentwidget"
	"github.com/MarcGrol/checkoutflow/storefront/shippingquote"
)

type flatRateEstimator struct{}

func (flatRateEstimator) QuoteAt(ctx context.Context, seq uint64, subtotal checkoutapi.Money, destination shippingquote.Destination) (shippingquote.Quote, error) {
	return shippingquote.Quote{AddressID: destination.AddressID, SubtotalAtQuoteTime: subtotal, Fee: inr(50)}, nil
}

func (flatRateEstimator) CancelAll() {}

// tenPercentOver500 behaves like WELCOME10.
type tenPercentOver500 struct{}

func (tenPercentOver500) Validate(ctx context.Context, code string, customerID string, subtotal checkoutapi.Money, itemCount int) (coupon.Application, error) {
	if subtotal < inr(500) {
		return coupon.Application{}, &coupon.RejectedError{Code: code, Reason: checkoutapi.CouponMinOrderNotMet}
	}
	return welcome10(subtotal, itemCount, subtotal/10), nil
}

type blockingPayments struct {
	intents atomic.Int32
	release chan struct{}
}

func (p *blockingPayments) CreateIntent(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (paymentwidget.PaymentIntent, error) {
	p.intents.Add(1)
	<-p.release
	return paymentwidget.PaymentIntent{}, errors.New("declined")
}

func (p *blockingPayments) OpenWidget(ctx context.Context, intent paymentwidget.PaymentIntent, prefill paymentwidget.Prefill) (paymentwidget.GatewayResult, error) {
	return paymentwidget.GatewayResult{}, paymentwidget.ErrDismissed
}

func (p *blockingPayments) Verify(ctx context.Context, intent paymentwidget.PaymentIntent, result paymentwidget.GatewayResult) (checkoutapi.OrderRecord, error) {
	return checkoutapi.OrderRecord{}, errors.New("not expected")
}

func readyOrchestrator(shoppingCart *cart.Cart, payments PaymentAdapter) (*Orchestrator, error) {
	ctx := context.TODO()
	o := New(Config{CustomerID: customerID, HomeCountry: "IN"}, shoppingCart, flatRateEstimator{}, tenPercentOver500{},
		payments, nil, nil, myuuid.RealUUIDer{})
	err := o.SelectAddress(ctx, domesticAddress)
	if err != nil {
		return nil, err
	}
	err = o.SelectDeliveryPartner(ctx, "bluedart")
	if err != nil {
		return nil, err
	}
	return o, nil
}

func TestOrchestratorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("rapid repeated place creates one intent", prop.ForAll(
		func(clicks int) bool {
			payments := &blockingPayments{release: make(chan struct{})}
			o, err := readyOrchestrator(cart.New(cartLines()...), payments)
			if err != nil {
				return false
			}

			results := make(chan error, clicks)
			for i := 0; i < clicks; i++ {
				go func() {
					results <- o.Place(context.TODO())
				}()
			}

			busy := 0
			for i := 0; i < clicks-1; i++ {
				if KindOf(<-results) == KindBusy {
					busy++
				}
			}
			close(payments.release)
			last := <-results

			return busy == clicks-1 && KindOf(last) == KindSubmission && payments.intents.Load() == 1
		},
		gen.IntRange(2, 8),
	))

	properties.Property("discount always matches the current cart", prop.ForAll(
		func(quantities []int) bool {
			ctx := context.TODO()
			shoppingCart := cart.New(cart.Line{LineID: "l1", ProductID: "p1", Name: "Tea Sampler", UnitPrice: inr(200), Quantity: 6})
			o, err := readyOrchestrator(shoppingCart, &blockingPayments{release: make(chan struct{})})
			if err != nil {
				return false
			}
			if o.ApplyCoupon(ctx, "WELCOME10") != nil {
				return false
			}

			held := true
			for _, quantity := range quantities {
				shoppingCart.Replace([]cart.Line{{LineID: "l1", ProductID: "p1", Name: "Tea Sampler", UnitPrice: inr(200), Quantity: quantity}})
				_ = o.CartChanged(ctx)

				snapshot := o.Snapshot()
				if snapshot.ItemsSubtotal < inr(500) {
					held = false
				}
				expected := checkoutapi.Money(0)
				if held {
					expected = snapshot.ItemsSubtotal / 10
				}
				if snapshot.DiscountTotal != expected {
					return false
				}
				if snapshot.GrandTotal != snapshot.ItemsSubtotal+inr(50)-expected {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 8)),
	))

	properties.TestingRun(t)
}
