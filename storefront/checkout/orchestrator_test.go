package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/storefront/backend"
	"github.com/MarcGrol/checkoutflow/storefront/cart"
	"github.com/MarcGrol/checkoutflow/storefront/coupon"
	"github.com/MarcGrol/checkoutflow/storefront/handoff"
	"github.com/MarcGrol/checkoutflow/storefront/paymentwidget"
	"github.com/MarcGrol/checkoutflow/storefront/shippingquote"
)

const (
	customerID = "cust-1"
	orderUID   = "8f14e45f-ceea-467f-a8f3-2a1c0c6f3f6d"
	publicCode = "ORD-8F14E45F"
)

var (
	inr = checkoutapi.MoneyFromMajor

	domesticAddress = checkoutapi.Address{
		ID:         "addr-1",
		CustomerID: customerID,
		Name:       "Asha Rao",
		Phone:      "+91 98450 00000",
		Line1:      "12 MG Road",
		CountryID:  "IN",
		StateID:    "KA",
		DistrictID: "BLR",
		Pincode:    "560001",
		Active:     true,
	}
	otherDomesticAddress = checkoutapi.Address{
		ID:         "addr-2",
		CustomerID: customerID,
		Name:       "Asha Rao",
		Line1:      "4 Marine Drive",
		CountryID:  "IN",
		StateID:    "MH",
		Pincode:    "400002",
		Active:     true,
	}
	foreignAddress = checkoutapi.Address{
		ID:         "addr-3",
		CustomerID: customerID,
		Name:       "Asha Rao",
		Phone:      "+971 50 000 0000",
		Line1:      "7 Palm Road",
		CountryID:  "AE",
		Pincode:    "00000",
		Active:     true,
	}

	intent = paymentwidget.PaymentIntent{
		GatewayOrderID:   "order_9A33XWu170gUtm",
		AmountMinorUnits: 113000,
		Currency:         "INR",
		InternalOrderID:  orderUID,
		PublicCode:       publicCode,
		Provider:         "signature",
	}
	gatewayResult = paymentwidget.GatewayResult{
		GatewayOrderID:   "order_9A33XWu170gUtm",
		GatewayPaymentID: "pay_29QQoUBi66xm2f",
		Signature:        "9ef4dffbfd84f1318f6739a3ce19f9d85851857ae648f114332d8401e0949a3d",
	}
)

// 1 x 800 + 2 x 200: subtotal 1200 over 3 items
func cartLines() []cart.Line {
	return []cart.Line{
		{LineID: "l1", ProductID: "p1", Name: "Silk Scarf", UnitPrice: inr(800), Quantity: 1, VariantLabel: "Red"},
		{LineID: "l2", ProductID: "p2", Name: "Tea Sampler", UnitPrice: inr(200), Quantity: 2},
	}
}

type mocks struct {
	estimator *MockShippingEstimator
	coupons   *MockCouponValidator
	payments  *MockPaymentAdapter
	orders    *MockOrderRecorder
	opener    *MockLinkOpener
	uuider    *myuuid.MockUUIDer
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *Orchestrator, *cart.Cart, mocks) {
	m := mocks{
		estimator: NewMockShippingEstimator(ctrl),
		coupons:   NewMockCouponValidator(ctrl),
		payments:  NewMockPaymentAdapter(ctrl),
		orders:    NewMockOrderRecorder(ctrl),
		opener:    NewMockLinkOpener(ctrl),
		uuider:    myuuid.NewMockUUIDer(ctrl),
	}
	m.estimator.EXPECT().CancelAll().AnyTimes()

	shoppingCart := cart.New(cartLines()...)
	orchestrator := New(Config{
		CustomerID:     customerID,
		Identity:       handoff.Identity{Name: "Asha Rao", Phone: "+91 98450 00000", Email: "asha@example.com"},
		HomeCountry:    "IN",
		Currency:       "INR",
		ChannelAddress: "+91 80000 12345",
	}, shoppingCart, m.estimator, m.coupons, m.payments, m.orders, m.opener, m.uuider)

	return context.TODO(), orchestrator, shoppingCart, m
}

func quoteFor(address checkoutapi.Address, subtotal checkoutapi.Money, fee checkoutapi.Money) shippingquote.Quote {
	return shippingquote.Quote{AddressID: address.ID, SubtotalAtQuoteTime: subtotal, Fee: fee}
}

func destinationOf(address checkoutapi.Address) shippingquote.Destination {
	return shippingquote.Destination{AddressID: address.ID, StateID: address.StateID, DistrictID: address.DistrictID}
}

func welcome10(subtotal checkoutapi.Money, itemCount int, discount checkoutapi.Money) coupon.Application {
	return coupon.Application{Code: "WELCOME10", DiscountAmount: discount, ValidatedAgainstSubtotal: subtotal, ValidatedAgainstItemCount: itemCount}
}

// readyWithCoupon brings the draft to READY: fee 50, WELCOME10 gives 120 off 1200.
func readyWithCoupon(t *testing.T, ctx context.Context, o *Orchestrator, m mocks) {
	m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(1200), inr(50)), nil)
	require.NoError(t, o.SelectAddress(ctx, domesticAddress))
	require.NoError(t, o.SelectDeliveryPartner(ctx, "bluedart"))

	m.coupons.EXPECT().Validate(gomock.Any(), "WELCOME10", customerID, inr(1200), 3).Return(welcome10(inr(1200), 3, inr(120)), nil)
	require.NoError(t, o.ApplyCoupon(ctx, "WELCOME10"))
	require.Equal(t, StateReady, o.Snapshot().State)
}

func TestDraftToReady(t *testing.T) {
	t.Run("domestic totals", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)

		// when
		readyWithCoupon(t, ctx, o, m)

		// then
		snapshot := o.Snapshot()
		assert.Equal(t, inr(1200), snapshot.ItemsSubtotal)
		assert.Equal(t, inr(50), snapshot.ShippingFee)
		assert.Equal(t, inr(120), snapshot.DiscountTotal)
		assert.Equal(t, inr(1130), snapshot.GrandTotal)
		assert.Equal(t, "WELCOME10", snapshot.CouponCode)
		assert.True(t, snapshot.CanPlace)
	})

	t.Run("no delivery partner", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(1200), inr(50)), nil)

		// when
		err := o.SelectAddress(ctx, domesticAddress)
		require.NoError(t, err)
		err = o.Place(ctx)

		// then
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, StateDraft, o.Snapshot().State)
	})

	t.Run("no address", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, _ := setup(t, ctrl)

		// when
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("foreign address in domestic flow", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, _ := setup(t, ctrl)

		// when
		err := o.SelectAddress(ctx, foreignAddress)

		// then
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Empty(t, o.Snapshot().AddressID)
	})

	t.Run("inactive address", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, _ := setup(t, ctrl)
		inactive := domesticAddress
		inactive.Active = false

		// when
		err := o.SelectAddress(ctx, inactive)

		// then
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("quote unavailable blocks placement until retried", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		gomock.InOrder(
			m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).Return(shippingquote.Quote{}, shippingquote.ErrUnavailable),
			m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(1200), inr(50)), nil),
		)

		// when
		err := o.SelectAddress(ctx, domesticAddress)

		// then
		assert.Equal(t, KindQuoteUnavailable, KindOf(err))
		require.NoError(t, o.SelectDeliveryPartner(ctx, "bluedart"))
		assert.Equal(t, KindQuoteUnavailable, KindOf(o.Place(ctx)))
		assert.Equal(t, inr(0), o.Snapshot().ShippingFee)
		assert.False(t, o.Snapshot().CanPlace)

		// when
		err = o.RefreshShippingQuote(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, StateReady, o.Snapshot().State)
		assert.Equal(t, inr(50), o.Snapshot().ShippingFee)
	})

	t.Run("late quote for previous address is discarded", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		entered := make(chan struct{})
		release := make(chan struct{})
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).DoAndReturn(
			func(ctx context.Context, seq uint64, subtotal checkoutapi.Money, destination shippingquote.Destination) (shippingquote.Quote, error) {
				close(entered)
				<-release
				return quoteFor(domesticAddress, inr(1200), inr(50)), nil
			})
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(otherDomesticAddress)).Return(quoteFor(otherDomesticAddress, inr(1200), inr(80)), nil)

		done := make(chan error, 1)
		go func() {
			done <- o.SelectAddress(ctx, domesticAddress)
		}()
		<-entered

		// when
		err := o.SelectAddress(ctx, otherDomesticAddress)
		require.NoError(t, err)
		close(release)
		require.NoError(t, <-done)

		// then
		snapshot := o.Snapshot()
		assert.Equal(t, "addr-2", snapshot.AddressID)
		assert.Equal(t, inr(80), snapshot.ShippingFee)
		assert.True(t, snapshot.QuoteCurrent)
	})

	t.Run("overlapping quotes keep the newest", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		_, _, _, m := setup(t, ctrl)
		client := &firstPreviewBlocks{entered: make(chan struct{}), release: make(chan struct{})}
		estimator := &firstQuoteDelayed{
			Estimator: shippingquote.NewEstimator(client, 0, mytime.RealNower{}),
			entered:   make(chan struct{}),
			release:   make(chan struct{}),
		}
		ctx := context.TODO()
		o := New(Config{CustomerID: customerID, HomeCountry: "IN", Currency: "INR"}, cart.New(cartLines()...),
			estimator, m.coupons, m.payments, m.orders, m.opener, m.uuider)
		require.NoError(t, o.SelectDeliveryPartner(ctx, "bluedart"))

		// given the address quote is numbered first but reaches the estimator last
		selected := make(chan error, 1)
		go func() {
			selected <- o.SelectAddress(ctx, domesticAddress)
		}()
		<-estimator.entered
		refreshed := make(chan error, 1)
		go func() {
			refreshed <- o.RefreshShippingQuote(ctx)
		}()
		<-client.entered

		// when
		close(estimator.release)
		require.NoError(t, <-selected)
		close(client.release)
		require.NoError(t, <-refreshed)

		// then
		snapshot := o.Snapshot()
		assert.Equal(t, StateReady, snapshot.State)
		assert.True(t, snapshot.QuoteCurrent)
		assert.Equal(t, inr(50), snapshot.ShippingFee)
		assert.True(t, snapshot.CanPlace)
		assert.Nil(t, snapshot.LastError)
	})
}

// fixedPreview grants the same discount for every coupon.
type fixedPreview struct {
	discount checkoutapi.Money
}

func (p fixedPreview) PreviewCoupon(ctx context.Context, code string, request checkoutapi.CouponPreviewRequest) (checkoutapi.CouponPreviewResponse, error) {
	return checkoutapi.CouponPreviewResponse{Code: code, Discount: p.discount}, nil
}

// firstPreviewBlocks quotes a fee of 50; its first call waits for release.
type firstPreviewBlocks struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (c *firstPreviewBlocks) PreviewShipping(ctx context.Context, request checkoutapi.ShippingPreviewRequest) (checkoutapi.ShippingPreviewResponse, error) {
	if c.calls.Add(1) == 1 {
		close(c.entered)
		<-c.release
	}
	return checkoutapi.ShippingPreviewResponse{Fee: inr(50)}, nil
}

// firstQuoteDelayed holds its first request back before it reaches the estimator.
type firstQuoteDelayed struct {
	*shippingquote.Estimator
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (e *firstQuoteDelayed) QuoteAt(ctx context.Context, seq uint64, subtotal checkoutapi.Money, destination shippingquote.Destination) (shippingquote.Quote, error) {
	if e.calls.Add(1) == 1 {
		close(e.entered)
		<-e.release
	}
	return e.Estimator.QuoteAt(ctx, seq, subtotal, destination)
}

func TestCoupons(t *testing.T) {
	t.Run("removing an item revalidates and clears coupon", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.coupons.EXPECT().Validate(gomock.Any(), "WELCOME10", customerID, inr(400), 2).
			Return(coupon.Application{}, &coupon.RejectedError{Code: "WELCOME10", Reason: checkoutapi.CouponMinOrderNotMet})
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(400), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(400), inr(50)), nil)

		// when
		require.NoError(t, shoppingCart.Remove("l1"))
		err := o.CartChanged(ctx)

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, KindValidation, checkoutErr.Kind)
		assert.Equal(t, checkoutapi.CouponMinOrderNotMet, checkoutErr.Reason)

		snapshot := o.Snapshot()
		assert.Empty(t, snapshot.CouponCode)
		assert.Equal(t, inr(0), snapshot.DiscountTotal)
		assert.Equal(t, inr(450), snapshot.GrandTotal)
		assert.Equal(t, StateReady, snapshot.State)
	})

	t.Run("cart changed without notice is caught on place", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(400), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(400), inr(50)), nil)

		// when
		require.NoError(t, shoppingCart.Remove("l1"))
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindStaleInput, KindOf(err))
		snapshot := o.Snapshot()
		assert.Empty(t, snapshot.CouponCode)
		assert.Equal(t, inr(450), snapshot.GrandTotal)
		assert.Equal(t, uint64(0), snapshot.Attempt)
	})

	t.Run("rejected coupon", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		m.coupons.EXPECT().Validate(gomock.Any(), "OLDIE", customerID, inr(1200), 3).
			Return(coupon.Application{}, &coupon.RejectedError{Code: "OLDIE", Reason: checkoutapi.CouponExpired})

		// when
		err := o.ApplyCoupon(ctx, "OLDIE")

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, checkoutapi.CouponExpired, checkoutErr.Reason)
		assert.Empty(t, o.Snapshot().CouponCode)
	})

	t.Run("validation unavailable never applies a discount", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		m.coupons.EXPECT().Validate(gomock.Any(), "WELCOME10", customerID, inr(1200), 3).Return(coupon.Application{}, coupon.ErrUnavailable)

		// when
		err := o.ApplyCoupon(ctx, "WELCOME10")

		// then
		assert.Equal(t, KindQuoteUnavailable, KindOf(err))
		assert.Equal(t, inr(0), o.Snapshot().DiscountTotal)
	})

	t.Run("discount beyond the subtotal is a validation error", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		_, _, _, m := setup(t, ctrl)
		ctx := context.TODO()
		validator := coupon.NewValidator(fixedPreview{discount: inr(1201)})
		o := New(Config{CustomerID: customerID, HomeCountry: "IN", Currency: "INR"}, cart.New(cartLines()...),
			m.estimator, validator, m.payments, m.orders, m.opener, m.uuider)

		// when
		err := o.ApplyCoupon(ctx, "WELCOME10")

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, KindValidation, checkoutErr.Kind)
		assert.Equal(t, checkoutapi.CouponOutOfBounds, checkoutErr.Reason)
		assert.Empty(t, o.Snapshot().CouponCode)
		assert.Equal(t, inr(0), o.Snapshot().DiscountTotal)
	})

	t.Run("applying the current coupon again keeps its discount", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)

		// when
		err := o.ApplyCoupon(ctx, " welcome10")

		// then
		require.NoError(t, err)
		snapshot := o.Snapshot()
		assert.Equal(t, "WELCOME10", snapshot.CouponCode)
		assert.Equal(t, inr(120), snapshot.DiscountTotal)
		assert.Equal(t, StateReady, snapshot.State)
	})

	t.Run("remove coupon", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)

		// when
		err := o.RemoveCoupon(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, inr(1250), o.Snapshot().GrandTotal)
	})

	t.Run("no coupons on international orders", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, _ := setup(t, ctrl)
		require.NoError(t, o.SwitchFlow(ctx, checkoutapi.FlowInternational))

		// when
		err := o.ApplyCoupon(ctx, "WELCOME10")

		// then
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestDomesticPlacement(t *testing.T) {
	t.Run("verified payment settles and clears cart", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)

		var submitted checkoutapi.CheckoutRequest
		m.uuider.EXPECT().Create().Return("key-1")
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).DoAndReturn(
			func(ctx context.Context, key string, request checkoutapi.CheckoutRequest) (paymentwidget.PaymentIntent, error) {
				submitted = request
				return intent, nil
			})
		m.payments.EXPECT().OpenWidget(gomock.Any(), intent, paymentwidget.Prefill{Name: "Asha Rao", Email: "asha@example.com", Phone: "+91 98450 00000"}).Return(gatewayResult, nil)
		m.payments.EXPECT().Verify(gomock.Any(), intent, gatewayResult).Return(checkoutapi.OrderRecord{
			ID:         orderUID,
			PublicCode: publicCode,
			Status:     checkoutapi.OrderStatusPaid,
			GrandTotal: inr(1130),
		}, nil)

		// when
		err := o.Place(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, checkoutapi.OrderDraft{
			CustomerID:        customerID,
			AddressID:         "addr-1",
			Flow:              checkoutapi.FlowDomestic,
			DeliveryPartnerID: "bluedart",
			CouponCode:        "WELCOME10",
			ItemsSubtotal:     inr(1200),
			ShippingFee:       inr(50),
			DiscountTotal:     inr(120),
			GrandTotal:        inr(1130),
			Currency:          "INR",
		}, submitted.Order)
		assert.Len(t, submitted.Items, 2)

		snapshot := o.Snapshot()
		assert.Equal(t, StateSettled, snapshot.State)
		assert.Equal(t, publicCode, snapshot.PublicCode)
		assert.Equal(t, "pay_29QQoUBi66xm2f", snapshot.PaymentReference)
		require.NotNil(t, snapshot.Order)
		assert.Equal(t, checkoutapi.OrderStatusPaid, snapshot.Order.Status)
		assert.True(t, shoppingCart.IsEmpty())
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		tampered := gatewayResult
		tampered.Signature = "forged"
		m.uuider.EXPECT().Create().Return("key-1")
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(intent, nil)
		m.payments.EXPECT().OpenWidget(gomock.Any(), intent, gomock.Any()).Return(tampered, nil)
		m.payments.EXPECT().Verify(gomock.Any(), intent, tampered).Return(checkoutapi.OrderRecord{},
			&backend.Error{StatusCode: http.StatusBadRequest, Message: "invalid payment signature"})

		// when
		err := o.Place(ctx)

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, KindVerificationRejected, checkoutErr.Kind)
		assert.False(t, checkoutErr.RetrySafe)
		assert.Equal(t, StateFailed, o.Snapshot().State)
		assert.Nil(t, o.Snapshot().Order)
		assert.False(t, shoppingCart.IsEmpty())
	})

	t.Run("verification timeout leaves payment unconfirmed", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.uuider.EXPECT().Create().Return("key-1")
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(intent, nil)
		m.payments.EXPECT().OpenWidget(gomock.Any(), intent, gomock.Any()).Return(gatewayResult, nil)
		m.payments.EXPECT().Verify(gomock.Any(), intent, gatewayResult).Return(checkoutapi.OrderRecord{}, context.DeadlineExceeded)

		// when
		err := o.Place(ctx)

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, KindVerificationUnconfirmed, checkoutErr.Kind)
		assert.True(t, checkoutErr.NeedsSupport())
		assert.False(t, checkoutErr.RetrySafe)
		assert.Equal(t, "pay_29QQoUBi66xm2f", checkoutErr.PaymentReference)
		assert.Contains(t, checkoutErr.Error(), "pay_29QQoUBi66xm2f")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		snapshot := o.Snapshot()
		assert.Equal(t, StateFailed, snapshot.State)
		assert.Equal(t, "pay_29QQoUBi66xm2f", snapshot.PaymentReference)
		assert.False(t, shoppingCart.IsEmpty())

		// when
		err = o.Place(ctx)

		// then
		assert.ErrorIs(t, err, ErrFinished)
	})

	t.Run("verified order not paid is unconfirmed", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.uuider.EXPECT().Create().Return("key-1")
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(intent, nil)
		m.payments.EXPECT().OpenWidget(gomock.Any(), intent, gomock.Any()).Return(gatewayResult, nil)
		m.payments.EXPECT().Verify(gomock.Any(), intent, gatewayResult).Return(checkoutapi.OrderRecord{ID: orderUID, Status: checkoutapi.OrderStatusPending}, nil)

		// when
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindVerificationUnconfirmed, KindOf(err))
		assert.Equal(t, StateFailed, o.Snapshot().State)
	})

	t.Run("dismissed widget allows retry with new intent", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		secondIntent := intent
		secondIntent.GatewayOrderID = "order_9A33XWu170gUtn"
		secondResult := gatewayResult
		secondResult.GatewayOrderID = "order_9A33XWu170gUtn"
		gomock.InOrder(
			m.uuider.EXPECT().Create().Return("key-1"),
			m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(intent, nil),
			m.payments.EXPECT().OpenWidget(gomock.Any(), intent, gomock.Any()).Return(paymentwidget.GatewayResult{}, paymentwidget.ErrDismissed),
			m.uuider.EXPECT().Create().Return("key-2"),
			m.payments.EXPECT().CreateIntent(gomock.Any(), "key-2", gomock.Any()).Return(secondIntent, nil),
			m.payments.EXPECT().OpenWidget(gomock.Any(), secondIntent, gomock.Any()).Return(secondResult, nil),
			m.payments.EXPECT().Verify(gomock.Any(), secondIntent, secondResult).Return(checkoutapi.OrderRecord{ID: orderUID, Status: checkoutapi.OrderStatusPaid}, nil),
		)

		// when
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindGatewayFailure, KindOf(err))
		assert.ErrorIs(t, err, paymentwidget.ErrDismissed)
		assert.Equal(t, StateReady, o.Snapshot().State)
		assert.False(t, shoppingCart.IsEmpty())

		// when
		err = o.Place(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, StateSettled, o.Snapshot().State)
		assert.Equal(t, uint64(2), o.Snapshot().Attempt)
	})

	t.Run("backend rejects checkout", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.uuider.EXPECT().Create().Return("key-1")
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(paymentwidget.PaymentIntent{},
			&backend.Error{StatusCode: http.StatusServiceUnavailable, Message: "gateway unavailable"})

		// when
		err := o.Place(ctx)

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, KindSubmission, checkoutErr.Kind)
		assert.Equal(t, StateSubmitting, checkoutErr.Stage)
		assert.True(t, checkoutErr.RetrySafe)
		assert.Equal(t, StateReady, o.Snapshot().State)
	})

	t.Run("unanswered submission is retried with the same key", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.uuider.EXPECT().Create().Return("key-1").Times(1)
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).
			Return(paymentwidget.PaymentIntent{}, context.DeadlineExceeded).Times(2)

		// when
		first := o.Place(ctx)
		second := o.Place(ctx)

		// then
		for _, err := range []error{first, second} {
			checkoutErr := &Error{}
			require.ErrorAs(t, err, &checkoutErr)
			assert.Equal(t, KindSubmission, checkoutErr.Kind)
			assert.True(t, checkoutErr.RetrySafe)
		}
		assert.Equal(t, StateReady, o.Snapshot().State)
	})

	t.Run("changed draft after unanswered submission gets a new key", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		gomock.InOrder(
			m.uuider.EXPECT().Create().Return("key-1"),
			m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(paymentwidget.PaymentIntent{}, context.DeadlineExceeded),
			m.uuider.EXPECT().Create().Return("key-2"),
			m.payments.EXPECT().CreateIntent(gomock.Any(), "key-2", gomock.Any()).Return(paymentwidget.PaymentIntent{}, context.DeadlineExceeded),
		)

		// when
		require.Error(t, o.Place(ctx))
		require.NoError(t, o.SetOrderNotes(ctx, "leave at the gate"))
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindSubmission, KindOf(err))
	})

	t.Run("rejected submission gets a new key", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		gomock.InOrder(
			m.uuider.EXPECT().Create().Return("key-1"),
			m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(paymentwidget.PaymentIntent{},
				&backend.Error{StatusCode: http.StatusBadRequest, Message: "delivery partner unknown"}),
			m.uuider.EXPECT().Create().Return("key-2"),
			m.payments.EXPECT().CreateIntent(gomock.Any(), "key-2", gomock.Any()).Return(paymentwidget.PaymentIntent{},
				&backend.Error{StatusCode: http.StatusBadRequest, Message: "delivery partner unknown"}),
		)

		// when
		require.Error(t, o.Place(ctx))
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindSubmission, KindOf(err))
	})

	t.Run("backend disagrees with totals", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		m.uuider.EXPECT().Create().Return("key-1")
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).Return(paymentwidget.PaymentIntent{},
			&backend.Error{StatusCode: http.StatusUnprocessableEntity, Reason: checkoutapi.RejectionStaleInput, Message: "shipping fee changed"})
		m.coupons.EXPECT().Validate(gomock.Any(), "WELCOME10", customerID, inr(1200), 3).Return(welcome10(inr(1200), 3, inr(120)), nil)
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(1200), inr(60)), nil)

		// when
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindStaleInput, KindOf(err))
		snapshot := o.Snapshot()
		assert.Equal(t, StateReady, snapshot.State)
		assert.Equal(t, inr(60), snapshot.ShippingFee)
		assert.Equal(t, inr(1140), snapshot.GrandTotal)
	})

	t.Run("double click creates one intent", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		readyWithCoupon(t, ctx, o, m)
		entered := make(chan struct{})
		release := make(chan struct{})
		m.uuider.EXPECT().Create().Return("key-1").Times(1)
		m.payments.EXPECT().CreateIntent(gomock.Any(), "key-1", gomock.Any()).DoAndReturn(
			func(ctx context.Context, key string, request checkoutapi.CheckoutRequest) (paymentwidget.PaymentIntent, error) {
				close(entered)
				<-release
				return paymentwidget.PaymentIntent{}, errors.New("connection reset")
			}).Times(1)

		done := make(chan error, 1)
		go func() {
			done <- o.Place(ctx)
		}()
		<-entered

		// when
		err := o.Place(ctx)

		// then
		assert.Equal(t, KindBusy, KindOf(err))
		assert.Equal(t, KindBusy, KindOf(o.ApplyCoupon(ctx, "OTHER")))
		assert.Equal(t, KindBusy, KindOf(o.SwitchFlow(ctx, checkoutapi.FlowInternational)))

		close(release)
		assert.Equal(t, KindSubmission, KindOf(<-done))
		assert.Equal(t, uint64(1), o.Snapshot().Attempt)
	})
}

func TestInternationalPlacement(t *testing.T) {
	t.Run("opens hand-off link and clears cart", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		require.NoError(t, o.SwitchFlow(ctx, checkoutapi.FlowInternational))
		require.NoError(t, o.SelectAddress(ctx, foreignAddress))
		require.NoError(t, o.SetOrderNotes(ctx, "Gift wrap please"))
		require.Equal(t, StateReady, o.Snapshot().State)

		var submitted checkoutapi.CheckoutRequest
		var opened string
		m.uuider.EXPECT().Create().Return("key-1")
		m.orders.EXPECT().Checkout(gomock.Any(), "key-1", gomock.Any()).DoAndReturn(
			func(ctx context.Context, key string, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error) {
				submitted = request
				return checkoutapi.CheckoutResponse{Type: checkoutapi.OrderTypeManual, OrderID: orderUID, PublicCode: publicCode}, nil
			})
		m.opener.EXPECT().Open(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, link string) error {
			opened = link
			return nil
		})

		// when
		err := o.Place(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, checkoutapi.FlowInternational, submitted.Order.Flow)
		assert.Equal(t, inr(1200), submitted.Order.GrandTotal)
		assert.Empty(t, submitted.Order.CouponCode)
		assert.Empty(t, submitted.Order.DeliveryPartnerID)

		link, err := url.Parse(opened)
		require.NoError(t, err)
		assert.Equal(t, "wa.me", link.Host)
		assert.Equal(t, "/918000012345", link.Path)
		text := link.Query().Get("text")
		assert.Contains(t, text, publicCode)
		assert.Contains(t, text, "Silk Scarf (Red) x1")
		assert.Contains(t, text, "Tea Sampler x2")
		assert.Contains(t, text, "7 Palm Road")
		assert.Contains(t, text, "Gift wrap please")

		snapshot := o.Snapshot()
		assert.Equal(t, StateSettled, snapshot.State)
		assert.Equal(t, opened, snapshot.HandoffLink)
		assert.True(t, shoppingCart.IsEmpty())
	})

	t.Run("opener fails", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, shoppingCart, m := setup(t, ctrl)
		require.NoError(t, o.SwitchFlow(ctx, checkoutapi.FlowInternational))
		require.NoError(t, o.SelectAddress(ctx, foreignAddress))
		m.uuider.EXPECT().Create().Return("key-1")
		m.orders.EXPECT().Checkout(gomock.Any(), "key-1", gomock.Any()).Return(checkoutapi.CheckoutResponse{Type: checkoutapi.OrderTypeManual, OrderID: orderUID, PublicCode: publicCode}, nil)
		m.opener.EXPECT().Open(gomock.Any(), gomock.Any()).Return(errors.New("no browser"))

		// when
		err := o.Place(ctx)

		// then
		checkoutErr := &Error{}
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, KindSubmission, checkoutErr.Kind)
		assert.Equal(t, StateSending, checkoutErr.Stage)
		assert.Equal(t, StateReady, o.Snapshot().State)
		assert.False(t, shoppingCart.IsEmpty())
	})

	t.Run("switching flow drops address of other class", func(t *testing.T) {
		// setup
		ctrl := gomock.NewController(t)
		ctx, o, _, m := setup(t, ctrl)
		m.estimator.EXPECT().QuoteAt(gomock.Any(), gomock.Any(), inr(1200), destinationOf(domesticAddress)).Return(quoteFor(domesticAddress, inr(1200), inr(50)), nil)
		require.NoError(t, o.SelectAddress(ctx, domesticAddress))

		// when
		err := o.SwitchFlow(ctx, checkoutapi.FlowInternational)

		// then
		require.NoError(t, err)
		snapshot := o.Snapshot()
		assert.Empty(t, snapshot.AddressID)
		assert.Equal(t, inr(0), snapshot.ShippingFee)
		assert.Equal(t, StateDraft, snapshot.State)
	})
}

func TestClose(t *testing.T) {
	// setup
	ctrl := gomock.NewController(t)
	ctx, o, _, _ := setup(t, ctrl)

	// when
	o.Close(ctx)

	// then
	assert.ErrorIs(t, o.SelectAddress(ctx, domesticAddress), ErrClosed)
	assert.ErrorIs(t, o.Place(ctx), ErrClosed)
	assert.False(t, o.Snapshot().CanPlace)
}
