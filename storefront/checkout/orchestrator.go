// Package checkout drives one checkout session from the first address pick until the order is settled.
//
// Network calls never run while the draft is locked. Every asynchronous result is checked against the
// version of the input it was computed for before it touches the draft, so a late answer cannot overwrite
// a newer one. Only a server-verified payment settles a domestic order; the cart is cleared once, on settlement.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/storefront/backend"
	"github.com/MarcGrol/checkoutflow/storefront/cart"
	"github.com/MarcGrol/checkoutflow/storefront/coupon"
	"github.com/MarcGrol/checkoutflow/storefront/handoff"
	"github.com/MarcGrol/checkoutflow/storefront/paymentwidget"
	"github.com/MarcGrol/checkoutflow/storefront/shippingquote"
)

type Config struct {
	CustomerID     string
	Identity       handoff.Identity
	HomeCountry    string
	Currency       string
	ChannelAddress string
	HandoffBaseURL string
}

// Snapshot is what the checkout screen renders.
type Snapshot struct {
	State               State
	Flow                checkoutapi.Flow
	AddressID           string
	DeliveryPartnerID   string
	Notes               string
	ItemsSubtotal       checkoutapi.Money
	ItemCount           int
	ShippingFee         checkoutapi.Money
	FreeShippingApplied bool
	QuoteCurrent        bool
	CouponCode          string
	DiscountTotal       checkoutapi.Money
	GrandTotal          checkoutapi.Money
	CanPlace            bool
	Attempt             uint64
	PaymentReference    string
	PublicCode          string
	Order               *checkoutapi.OrderRecord
	HandoffLink         string
	LastError           *Error
}

type Orchestrator struct {
	sync.Mutex
	cfg       Config
	cart      *cart.Cart
	estimator ShippingEstimator
	coupons   CouponValidator
	payments  PaymentAdapter
	orders    OrderRecorder
	opener    LinkOpener
	uuider    myuuid.UUIDer
	logger    mylog.Logger

	state             State
	closed            bool
	flow              checkoutapi.Flow
	address           *checkoutapi.Address
	deliveryPartnerID string
	notes             string

	quote         *shippingquote.Quote
	quoteErr      error
	quoteVersion  uint64
	pendingQuotes int

	couponApp      *coupon.Application
	couponVersion  uint64
	pendingCoupons int

	attempt          uint64
	checkoutKey      string
	checkoutRequest  string
	intent           *paymentwidget.PaymentIntent
	paymentReference string
	publicCode       string
	order            *checkoutapi.OrderRecord
	handoffLink      string
	cartCleared      bool
	lastErr          *Error
}

func New(cfg Config, shoppingCart *cart.Cart, estimator ShippingEstimator, coupons CouponValidator, payments PaymentAdapter,
	orders OrderRecorder, opener LinkOpener, uuider myuuid.UUIDer) *Orchestrator {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.HandoffBaseURL == "" {
		cfg.HandoffBaseURL = handoff.DefaultBaseURL
	}
	return &Orchestrator{
		cfg:       cfg,
		cart:      shoppingCart,
		estimator: estimator,
		coupons:   coupons,
		payments:  payments,
		orders:    orders,
		opener:    opener,
		uuider:    uuider,
		logger:    mylog.New("checkout"),
		state:     StateDraft,
		flow:      checkoutapi.FlowDomestic,
	}
}

func (o *Orchestrator) SelectAddress(ctx context.Context, address checkoutapi.Address) error {
	o.Lock()
	err := o.guardEditable()
	if err != nil {
		o.Unlock()
		return err
	}
	if !address.Active {
		o.Unlock()
		return validationError(o.state, "address %s is no longer active", address.ID)
	}
	if !o.fitsFlow(address) {
		o.Unlock()
		return validationError(o.state, "address in %s cannot be used for a %s order", address.CountryID, o.flow)
	}
	if o.address != nil && *o.address == address && o.quote != nil {
		o.Unlock()
		return nil
	}

	o.address = &address
	o.invalidateQuote()
	o.refreshReadiness(ctx)
	o.Unlock()

	return o.requote(ctx)
}

// SwitchFlow drops an address of the other country class and any in-flight quote.
func (o *Orchestrator) SwitchFlow(ctx context.Context, flow checkoutapi.Flow) error {
	o.Lock()
	err := o.guardEditable()
	if err != nil {
		o.Unlock()
		return err
	}
	if flow != checkoutapi.FlowDomestic && flow != checkoutapi.FlowInternational {
		o.Unlock()
		return validationError(o.state, "unknown flow %q", flow)
	}
	if flow == o.flow {
		o.Unlock()
		return nil
	}

	o.flow = flow
	o.invalidateQuote()
	o.couponVersion++
	if flow == checkoutapi.FlowInternational {
		// manual quotes carry no discount
		o.couponApp = nil
	}
	if o.address != nil && !o.fitsFlow(*o.address) {
		o.address = nil
	}
	o.refreshReadiness(ctx)
	o.Unlock()

	return o.requote(ctx)
}

func (o *Orchestrator) SelectDeliveryPartner(ctx context.Context, partnerID string) error {
	o.Lock()
	defer o.Unlock()

	err := o.guardEditable()
	if err != nil {
		return err
	}
	if strings.TrimSpace(partnerID) == "" {
		return validationError(o.state, "no delivery partner selected")
	}
	o.deliveryPartnerID = partnerID
	o.refreshReadiness(ctx)
	return nil
}

func (o *Orchestrator) SetOrderNotes(ctx context.Context, notes string) error {
	o.Lock()
	defer o.Unlock()

	err := o.guardEditable()
	if err != nil {
		return err
	}
	o.notes = strings.TrimSpace(notes)
	return nil
}

// CartChanged must be called after every change of the shared cart. A coupon validated for other
// totals is checked again, and the shipping fee is quoted again.
func (o *Orchestrator) CartChanged(ctx context.Context) error {
	o.Lock()
	err := o.guardEditable()
	if err != nil {
		o.Unlock()
		return err
	}

	o.invalidateQuote()
	o.couponVersion++
	recheck := ""
	if o.couponApp != nil && o.couponApp.IsStaleFor(o.cart.Subtotal(), o.cart.ItemCount()) {
		recheck = o.couponApp.Code
		o.couponApp = nil
	}
	empty := o.cart.IsEmpty()
	if empty {
		o.couponApp = nil
	}
	o.refreshReadiness(ctx)
	o.Unlock()

	if empty {
		return nil
	}

	var couponErr error
	if recheck != "" {
		couponErr = o.validateCoupon(ctx, recheck)
	}
	quoteErr := o.requote(ctx)
	if couponErr != nil {
		return couponErr
	}
	return quoteErr
}

// RefreshShippingQuote retries a quote that was unavailable.
func (o *Orchestrator) RefreshShippingQuote(ctx context.Context) error {
	o.Lock()
	err := o.guardEditable()
	if err == nil && o.flow != checkoutapi.FlowDomestic {
		err = validationError(o.state, "international orders are not quoted for shipping")
	}
	o.Unlock()
	if err != nil {
		return err
	}
	return o.requote(ctx)
}

func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) error {
	o.Lock()
	err := o.guardEditable()
	if err == nil && o.flow != checkoutapi.FlowDomestic {
		err = validationError(o.state, "coupons only apply to domestic orders")
	}
	if err == nil && o.cart.IsEmpty() {
		err = validationError(o.state, "cart is empty")
	}
	current := err == nil && o.couponApp != nil && o.couponApp.IsFor(code) &&
		!o.couponApp.IsStaleFor(o.cart.Subtotal(), o.cart.ItemCount())
	o.Unlock()
	if err != nil {
		return err
	}
	if current {
		return nil
	}
	return o.validateCoupon(ctx, code)
}

func (o *Orchestrator) RemoveCoupon(ctx context.Context) error {
	o.Lock()
	defer o.Unlock()

	err := o.guardEditable()
	if err != nil {
		return err
	}
	o.couponApp = nil
	o.couponVersion++
	o.refreshReadiness(ctx)
	return nil
}

// Place submits the draft. Only one attempt runs at a time: a second call while one is in flight is
// answered with a Busy error. An attempt that got no answer from the backend leaves its idempotency key
// behind, and placing the same draft again reuses it. Every new payment intent gets a fresh key.
func (o *Orchestrator) Place(ctx context.Context) error {
	o.Lock()
	err := o.guardEditable()
	if err != nil {
		o.Unlock()
		return err
	}

	missing := o.missingInput()
	if missing != nil && missing.Kind == KindStaleInput {
		requote := o.recoverStaleInput()
		o.lastErr = missing
		o.refreshReadiness(ctx)
		o.Unlock()

		o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityWarn, "Order not placed: %s", missing)
		if requote {
			_ = o.requote(ctx)
		}
		return missing
	}
	if missing != nil {
		o.lastErr = missing
		o.Unlock()
		return missing
	}

	lines := o.cart.Lines()
	request := o.request(lines)
	address := *o.address
	o.attempt++
	attempt := o.attempt
	key := o.idempotencyKeyFor(request)
	o.lastErr = nil
	o.intent = nil
	o.paymentReference = ""
	international := o.flow == checkoutapi.FlowInternational
	if international {
		o.transition(ctx, StateSending)
	} else {
		o.transition(ctx, StateSubmitting)
	}
	o.Unlock()

	if international {
		return o.send(ctx, attempt, key, request, address, lines)
	}
	return o.pay(ctx, attempt, key, request)
}

// Close ends the session. An attempt in flight still runs to completion.
func (o *Orchestrator) Close(ctx context.Context) {
	o.Lock()
	defer o.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.invalidateQuote()
	o.couponVersion++
	if !o.state.InFlight() {
		o.address = nil
		o.couponApp = nil
	}
	o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityInfo, "Checkout closed in state %s", o.state)
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.Lock()
	defer o.Unlock()

	subtotal := o.cart.Subtotal()
	snapshot := Snapshot{
		State:             o.state,
		Flow:              o.flow,
		DeliveryPartnerID: o.deliveryPartnerID,
		Notes:             o.notes,
		ItemsSubtotal:     subtotal,
		ItemCount:         o.cart.ItemCount(),
		Attempt:           o.attempt,
		PaymentReference:  o.paymentReference,
		PublicCode:        o.publicCode,
		Order:             o.order,
		HandoffLink:       o.handoffLink,
		LastError:         o.lastErr,
	}
	if o.address != nil {
		snapshot.AddressID = o.address.ID
	}
	if o.flow == checkoutapi.FlowDomestic {
		if o.address != nil && o.quote != nil && !o.quote.IsStaleFor(o.address.ID, subtotal) {
			snapshot.QuoteCurrent = true
			snapshot.ShippingFee = o.quote.Fee
			snapshot.FreeShippingApplied = o.quote.FreeShippingApplied
		}
		if o.couponApp != nil && !o.couponApp.IsStaleFor(subtotal, snapshot.ItemCount) {
			snapshot.CouponCode = o.couponApp.Code
			snapshot.DiscountTotal = o.couponApp.DiscountAmount
		}
	}
	snapshot.GrandTotal = subtotal + snapshot.ShippingFee - snapshot.DiscountTotal
	snapshot.CanPlace = !o.closed && o.state == StateReady && o.missingInput() == nil
	return snapshot
}

func (o *Orchestrator) requote(ctx context.Context) error {
	o.Lock()
	if o.flow != checkoutapi.FlowDomestic || o.address == nil || o.cart.IsEmpty() {
		o.Unlock()
		return nil
	}
	o.quoteVersion++
	version := o.quoteVersion
	subtotal := o.cart.Subtotal()
	destination := shippingquote.Destination{
		AddressID:  o.address.ID,
		StateID:    o.address.StateID,
		DistrictID: o.address.DistrictID,
	}
	o.pendingQuotes++
	o.refreshReadiness(ctx)
	o.Unlock()

	quote, err := o.estimator.QuoteAt(ctx, version, subtotal, destination)

	o.Lock()
	defer o.Unlock()
	o.pendingQuotes--
	defer o.refreshReadiness(ctx)

	if errors.Is(err, shippingquote.ErrSuperseded) || version != o.quoteVersion {
		return nil
	}
	if err != nil {
		o.quote = nil
		o.quoteErr = err
		e := newError(KindQuoteUnavailable, StateQuotingShipping, true, err)
		o.lastErr = e
		o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityWarn, "Shipping quote for address %s unavailable: %s", destination.AddressID, err)
		return e
	}
	if o.address == nil || quote.IsStaleFor(o.address.ID, o.cart.Subtotal()) {
		return nil
	}
	o.quote = &quote
	o.quoteErr = nil
	return nil
}

func (o *Orchestrator) validateCoupon(ctx context.Context, code string) error {
	o.Lock()
	o.couponApp = nil
	o.couponVersion++
	version := o.couponVersion
	subtotal := o.cart.Subtotal()
	itemCount := o.cart.ItemCount()
	o.pendingCoupons++
	o.refreshReadiness(ctx)
	o.Unlock()

	application, err := o.coupons.Validate(ctx, code, o.cfg.CustomerID, subtotal, itemCount)

	o.Lock()
	defer o.Unlock()
	o.pendingCoupons--
	defer o.refreshReadiness(ctx)

	if version != o.couponVersion || o.flow != checkoutapi.FlowDomestic {
		return newError(KindStaleInput, o.state, true, fmt.Errorf("draft changed while coupon %s was checked", code))
	}
	if err != nil {
		var rejected *coupon.RejectedError
		if errors.As(err, &rejected) {
			e := newError(KindValidation, o.state, true, err)
			e.Reason = rejected.Reason
			o.lastErr = e
			return e
		}
		e := newError(KindQuoteUnavailable, o.state, true, err)
		o.lastErr = e
		return e
	}
	if application.IsStaleFor(o.cart.Subtotal(), o.cart.ItemCount()) {
		return newError(KindStaleInput, o.state, true, fmt.Errorf("cart changed while coupon %s was checked", code))
	}
	o.couponApp = &application
	o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityInfo, "Coupon %s gives %s off %s", application.Code, application.DiscountAmount, subtotal)
	return nil
}

func (o *Orchestrator) pay(ctx context.Context, attempt uint64, key string, request checkoutapi.CheckoutRequest) error {
	// once sent, the intent exists at the gateway whatever the caller decides
	intent, err := o.payments.CreateIntent(context.WithoutCancel(ctx), key, request)
	o.submissionAnswered(attempt, err)
	if err != nil {
		e := newError(KindSubmission, StateSubmitting, true, err)
		if backend.ReasonOf(err) == checkoutapi.RejectionStaleInput {
			e.Kind = KindStaleInput
			e.Reason = checkoutapi.RejectionStaleInput
		}
		o.backToReady(ctx, attempt, e)
		if e.Kind == KindStaleInput {
			o.recheckAll(ctx)
		}
		return e
	}

	o.Lock()
	o.intent = &intent
	o.publicCode = intent.PublicCode
	o.transition(ctx, StateAwaitingPayment)
	o.Unlock()

	result, err := o.payments.OpenWidget(ctx, intent, paymentwidget.Prefill{
		Name:  o.cfg.Identity.Name,
		Email: o.cfg.Identity.Email,
		Phone: o.cfg.Identity.Phone,
	})
	if err != nil {
		if errors.Is(err, paymentwidget.ErrDismissed) {
			o.Lock()
			o.transition(ctx, StateCancelled)
			o.Unlock()
		}
		e := newError(KindGatewayFailure, StateAwaitingPayment, true, err)
		o.backToReady(ctx, attempt, e)
		return e
	}

	o.Lock()
	o.paymentReference = result.GatewayPaymentID
	o.transition(ctx, StateVerifying)
	o.Unlock()

	order, err := o.payments.Verify(context.WithoutCancel(ctx), intent, result)
	if err == nil && order.Status != checkoutapi.OrderStatusPaid {
		err = fmt.Errorf("order %s is %s after verification", order.ID, order.Status)
	}
	if err != nil {
		return o.verificationFailed(ctx, intent, result, err)
	}

	o.settle(ctx, &order, "")
	return nil
}

// verificationFailed never offers a retry: the payment may have been captured.
func (o *Orchestrator) verificationFailed(ctx context.Context, intent paymentwidget.PaymentIntent, result paymentwidget.GatewayResult, err error) error {
	o.Lock()
	defer o.Unlock()

	kind := KindVerificationUnconfirmed
	if backend.StatusOf(err) == http.StatusBadRequest {
		kind = KindVerificationRejected
	}
	e := newError(kind, StateVerifying, false, err)
	e.PaymentReference = result.GatewayPaymentID
	o.lastErr = e
	o.transition(ctx, StateFailed)

	if kind == KindVerificationUnconfirmed {
		o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityError, "Payment %s for order %s (%s) captured but not confirmed: %s",
			result.GatewayPaymentID, intent.InternalOrderID, intent.PublicCode, err)
	} else {
		o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityWarn, "Payment %s for order %s rejected: %s",
			result.GatewayPaymentID, intent.InternalOrderID, err)
	}
	return e
}

func (o *Orchestrator) send(ctx context.Context, attempt uint64, key string, request checkoutapi.CheckoutRequest,
	address checkoutapi.Address, lines []cart.Line) error {
	resp, err := o.orders.Checkout(context.WithoutCancel(ctx), key, request)
	o.submissionAnswered(attempt, err)
	if err != nil {
		e := newError(KindSubmission, StateSending, true, err)
		o.backToReady(ctx, attempt, e)
		return e
	}

	message := handoff.BuildHandoffMessage(o.cfg.Identity, address, lines, request.Order.ItemsSubtotal,
		handoff.WithCurrency(o.cfg.Currency),
		handoff.WithOrderCode(resp.PublicCode),
		handoff.WithNotes(request.Order.Notes))
	link, err := handoff.BuildDeepLinkOn(o.cfg.HandoffBaseURL, o.cfg.ChannelAddress, message)
	if err != nil {
		e := newError(KindSubmission, StateSending, true, err)
		o.backToReady(ctx, attempt, e)
		return e
	}

	err = o.opener.Open(ctx, link)
	if err != nil {
		e := newError(KindSubmission, StateSending, true, fmt.Errorf("error opening hand-off link: %w", err))
		o.backToReady(ctx, attempt, e)
		return e
	}

	o.Lock()
	o.publicCode = resp.PublicCode
	o.Unlock()
	o.settle(ctx, nil, link)
	return nil
}

func (o *Orchestrator) settle(ctx context.Context, order *checkoutapi.OrderRecord, link string) {
	o.Lock()
	defer o.Unlock()

	o.order = order
	o.handoffLink = link
	o.intent = nil
	o.transition(ctx, StateSettled)
	if !o.cartCleared {
		o.cart.Clear()
		o.cartCleared = true
	}
	o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityInfo, "Order %s settled", o.publicCode)
}

// backToReady discards the intent of a failed attempt. Results of older attempts are ignored.
func (o *Orchestrator) backToReady(ctx context.Context, attempt uint64, e *Error) {
	o.Lock()
	defer o.Unlock()

	if attempt != o.attempt {
		return
	}
	o.intent = nil
	o.lastErr = e
	o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityWarn, "Attempt %d failed: %s", attempt, e)
	o.transition(ctx, o.editableState())
}

func (o *Orchestrator) idempotencyKeyFor(request checkoutapi.CheckoutRequest) string {
	fingerprint := fmt.Sprintf("%v", request)
	if o.checkoutKey == "" || o.checkoutRequest != fingerprint {
		o.checkoutKey = o.uuider.Create()
		o.checkoutRequest = fingerprint
	}
	return o.checkoutKey
}

// submissionAnswered forgets the idempotency key once the backend answered definitively. After a
// transport failure, a 5xx or a 409 the order may exist server side, so the key is kept.
func (o *Orchestrator) submissionAnswered(attempt uint64, err error) {
	o.Lock()
	defer o.Unlock()

	if attempt != o.attempt {
		return
	}
	status := backend.StatusOf(err)
	if err == nil || (status >= 400 && status < 500 && status != http.StatusConflict) {
		o.checkoutKey = ""
		o.checkoutRequest = ""
	}
}

// recheckAll asks for a new quote and re-validates the coupon after the backend disagreed with our totals.
func (o *Orchestrator) recheckAll(ctx context.Context) {
	o.Lock()
	o.invalidateQuote()
	code := ""
	if o.couponApp != nil {
		code = o.couponApp.Code
	}
	o.refreshReadiness(ctx)
	o.Unlock()

	if code != "" {
		_ = o.validateCoupon(ctx, code)
	}
	_ = o.requote(ctx)
}

// recoverStaleInput drops a stale coupon and reports whether the fee must be quoted again.
func (o *Orchestrator) recoverStaleInput() bool {
	subtotal := o.cart.Subtotal()
	if o.couponApp != nil && o.couponApp.IsStaleFor(subtotal, o.cart.ItemCount()) {
		o.couponApp = nil
		o.couponVersion++
	}
	if o.quote != nil && o.quote.IsStaleFor(o.address.ID, subtotal) {
		o.invalidateQuote()
		return true
	}
	return false
}

func (o *Orchestrator) request(lines []cart.Line) checkoutapi.CheckoutRequest {
	items := make([]checkoutapi.OrderItem, 0, len(lines))
	subtotal := checkoutapi.Money(0)
	for _, line := range lines {
		items = append(items, line.OrderItem())
		subtotal += line.Total()
	}

	draft := checkoutapi.OrderDraft{
		CustomerID:    o.cfg.CustomerID,
		AddressID:     o.address.ID,
		Flow:          o.flow,
		Notes:         o.notes,
		ItemsSubtotal: subtotal,
		GrandTotal:    subtotal,
		Currency:      o.cfg.Currency,
	}
	if o.flow == checkoutapi.FlowDomestic {
		draft.DeliveryPartnerID = o.deliveryPartnerID
		draft.ShippingFee = o.quote.Fee
		if o.couponApp != nil {
			draft.CouponCode = o.couponApp.Code
			draft.DiscountTotal = o.couponApp.DiscountAmount
		}
		draft.GrandTotal = subtotal + draft.ShippingFee - draft.DiscountTotal
	}

	return checkoutapi.CheckoutRequest{Order: draft, Items: items}
}

// missingInput returns the first reason the draft cannot be placed.
func (o *Orchestrator) missingInput() *Error {
	if o.cart.IsEmpty() {
		return validationError(o.state, "cart is empty")
	}
	if o.address == nil {
		return validationError(o.state, "no address selected")
	}
	if !o.fitsFlow(*o.address) {
		return validationError(o.state, "address in %s cannot be used for a %s order", o.address.CountryID, o.flow)
	}
	if o.flow == checkoutapi.FlowInternational {
		return nil
	}
	if o.deliveryPartnerID == "" {
		return validationError(o.state, "no delivery partner selected")
	}
	if o.pendingQuotes > 0 {
		return newError(KindQuoteUnavailable, StateQuotingShipping, true, errors.New("shipping fee is being quoted"))
	}
	if o.quote == nil {
		if o.quoteErr != nil {
			return newError(KindQuoteUnavailable, StateQuotingShipping, true, o.quoteErr)
		}
		return newError(KindQuoteUnavailable, StateQuotingShipping, true, errors.New("no shipping quote"))
	}
	if o.pendingCoupons > 0 {
		return newError(KindQuoteUnavailable, o.state, true, errors.New("coupon is being checked"))
	}
	subtotal := o.cart.Subtotal()
	if o.quote.IsStaleFor(o.address.ID, subtotal) {
		return newError(KindStaleInput, o.state, true, fmt.Errorf("shipping fee was quoted for %s, cart is now %s", o.quote.SubtotalAtQuoteTime, subtotal))
	}
	if o.couponApp != nil && o.couponApp.IsStaleFor(subtotal, o.cart.ItemCount()) {
		e := newError(KindStaleInput, o.state, true, fmt.Errorf("coupon %s was validated for %s, cart is now %s", o.couponApp.Code, o.couponApp.ValidatedAgainstSubtotal, subtotal))
		e.Reason = checkoutapi.RejectionStaleInput
		return e
	}
	return nil
}

func (o *Orchestrator) guardEditable() *Error {
	if o.closed {
		return newError(KindValidation, o.state, false, ErrClosed)
	}
	if o.state.InFlight() {
		return newError(KindBusy, o.state, true, fmt.Errorf("checkout is %s", o.state))
	}
	if o.state.Terminal() {
		return newError(KindValidation, o.state, false, ErrFinished)
	}
	return nil
}

func (o *Orchestrator) fitsFlow(address checkoutapi.Address) bool {
	domestic := strings.EqualFold(address.CountryID, o.cfg.HomeCountry)
	return domestic == (o.flow == checkoutapi.FlowDomestic)
}

func (o *Orchestrator) invalidateQuote() {
	o.quote = nil
	o.quoteErr = nil
	o.quoteVersion++
	o.estimator.CancelAll()
}

func (o *Orchestrator) editableState() State {
	if o.flow == checkoutapi.FlowDomestic && o.pendingQuotes > 0 {
		return StateQuotingShipping
	}
	if o.missingInput() == nil {
		return StateReady
	}
	return StateDraft
}

func (o *Orchestrator) refreshReadiness(ctx context.Context) {
	if o.state.InFlight() || o.state.Terminal() {
		return
	}
	o.transition(ctx, o.editableState())
}

func (o *Orchestrator) transition(ctx context.Context, to State) {
	if o.state == to {
		return
	}
	o.logger.Log(ctx, o.cfg.CustomerID, mylog.SeverityInfo, "Checkout %s -> %s", o.state, to)
	o.state = to
}
