package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myevents"
	"github.com/MarcGrol/checkoutflow/lib/myidempotency"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/services/checkoutevents"
	"github.com/MarcGrol/checkoutflow/services/payments"
)

// checkoutOnce runs the checkout at most once per idempotency key. A duplicate of a completed
// checkout gets the original response, a duplicate of a running checkout gets a conflict.
func (s *service) checkoutOnce(c context.Context, key string, fingerprint string, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error) {
	if key == "" {
		return s.checkout(c, request)
	}

	existing, reserved, err := s.idempotency.Reserve(c, key, fingerprint, s.cfg.IdempotencyTTL)
	if err != nil {
		return checkoutapi.CheckoutResponse{}, myerrors.NewInternalError(fmt.Errorf("error reserving idempotency key %s: %w", key, err))
	}
	if !reserved {
		if existing.Fingerprint != fingerprint {
			return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(fmt.Errorf("idempotency key %s was used for a different request", key))
		}
		if existing.State != myidempotency.StateCompleted {
			return checkoutapi.CheckoutResponse{}, myerrors.NewConflictError(fmt.Errorf("checkout with idempotency key %s is still in progress", key))
		}
		resp := checkoutapi.CheckoutResponse{}
		err = json.Unmarshal(existing.Body, &resp)
		if err != nil {
			return checkoutapi.CheckoutResponse{}, myerrors.NewInternalError(fmt.Errorf("error parsing stored response of idempotency key %s: %w", key, err))
		}
		s.logger.Log(c, resp.OrderID, mylog.SeverityInfo, "Replayed checkout of order %s for idempotency key %s", resp.OrderID, key)
		return resp, nil
	}

	resp, err := s.checkout(c, request)
	if err != nil {
		releaseErr := s.idempotency.Release(c, key)
		if releaseErr != nil {
			s.logger.Log(c, key, mylog.SeverityError, "Error releasing idempotency key %s: %s", key, releaseErr)
		}
		return checkoutapi.CheckoutResponse{}, err
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return checkoutapi.CheckoutResponse{}, myerrors.NewInternalError(err)
	}
	err = s.idempotency.Complete(c, key, myidempotency.Record{
		Fingerprint: fingerprint,
		StatusCode:  200,
		Body:        body,
	}, s.cfg.IdempotencyTTL)
	if err != nil {
		// The order exists, so the response must still reach the client.
		s.logger.Log(c, resp.OrderID, mylog.SeverityError, "Error completing idempotency key %s: %s", key, err)
	}

	return resp, nil
}

// checkout recomputes all totals from the server's own rules and creates a pending order.
// Domestic orders also get a gateway order to pay with.
func (s *service) checkout(c context.Context, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error) {
	draft := request.Order

	address, found, err := s.addresses.GetAddress(c, draft.AddressID)
	if err != nil {
		return checkoutapi.CheckoutResponse{}, myerrors.NewInternalError(err)
	}
	if !found || !address.Active {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(fmt.Errorf("address %s is not available", draft.AddressID))
	}
	if address.CustomerID != draft.CustomerID {
		return checkoutapi.CheckoutResponse{}, myerrors.NewInvalidInputErrorf("address %s does not belong to customer %s", draft.AddressID, draft.CustomerID)
	}

	flow := checkoutapi.FlowInternational
	if strings.EqualFold(address.CountryID, s.cfg.HomeCountry) {
		flow = checkoutapi.FlowDomestic
	}
	if draft.Flow != flow {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(fmt.Errorf("address %s in %s needs the %s flow", address.ID, address.CountryID, flow))
	}
	if draft.Currency != "" && !strings.EqualFold(draft.Currency, s.cfg.Currency) {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(fmt.Errorf("currency %s is not supported", draft.Currency))
	}

	subtotal := checkoutapi.Money(0)
	itemCount := 0
	for _, item := range request.Items {
		subtotal += item.LineTotal()
		itemCount += item.Quantity
	}
	if subtotal != draft.ItemsSubtotal {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(staleInputError{field: "items subtotal", client: draft.ItemsSubtotal, computed: subtotal})
	}

	now := s.nower.Now()
	orderID := s.uuider.Create()
	record := checkoutapi.OrderRecord{
		ID:                orderID,
		PublicCode:        publicCodeOf(orderID),
		Flow:              flow,
		Status:            checkoutapi.OrderStatusPending,
		CustomerID:        draft.CustomerID,
		Address:           address,
		Items:             request.Items,
		DeliveryPartnerID: draft.DeliveryPartnerID,
		Notes:             draft.Notes,
		ItemsSubtotal:     subtotal,
		Currency:          s.cfg.Currency,
		CreatedAt:         now,
	}

	if flow == checkoutapi.FlowInternational {
		return s.createManualOrder(c, record, draft)
	}

	return s.createGatewayOrder(c, record, draft, itemCount)
}

func (s *service) createManualOrder(c context.Context, record checkoutapi.OrderRecord, draft checkoutapi.OrderDraft) (checkoutapi.CheckoutResponse, error) {
	if draft.CouponCode != "" {
		return checkoutapi.CheckoutResponse{}, myerrors.NewInvalidInputErrorf("coupons do not apply to international orders")
	}

	record.Type = checkoutapi.OrderTypeManual
	record.GrandTotal = record.ItemsSubtotal

	err := s.storeAndPublish(c, record, checkoutevents.ManualOrderCreated{
		OrderID:       record.ID,
		PublicCode:    record.PublicCode,
		CustomerID:    record.CustomerID,
		CountryID:     record.Address.CountryID,
		ItemsSubtotal: record.ItemsSubtotal,
		Currency:      record.Currency,
		Notes:         record.Notes,
	})
	if err != nil {
		return checkoutapi.CheckoutResponse{}, err
	}

	s.logger.Log(c, record.ID, mylog.SeverityInfo, "Recorded manual order %s for customer %s to %s", record.PublicCode, record.CustomerID, record.Address.CountryID)

	return checkoutapi.CheckoutResponse{
		Type:       checkoutapi.OrderTypeManual,
		OrderID:    record.ID,
		PublicCode: record.PublicCode,
	}, nil
}

func (s *service) createGatewayOrder(c context.Context, record checkoutapi.OrderRecord, draft checkoutapi.OrderDraft, itemCount int) (checkoutapi.CheckoutResponse, error) {
	if draft.DeliveryPartnerID == "" {
		return checkoutapi.CheckoutResponse{}, myerrors.NewInvalidInputErrorf("delivery partner is missing")
	}

	quote, err := s.quoter.Quote(c, record.ItemsSubtotal, record.Address.StateID, record.Address.DistrictID)
	if err != nil {
		return checkoutapi.CheckoutResponse{}, err
	}
	if quote.Fee != draft.ShippingFee {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(staleInputError{field: "shipping fee", client: draft.ShippingFee, computed: quote.Fee})
	}
	record.ShippingFee = quote.Fee

	if draft.CouponCode != "" {
		discount, err := s.coupons.Evaluate(c, draft.CouponCode, draft.CustomerID, record.ItemsSubtotal, itemCount)
		if err != nil {
			return checkoutapi.CheckoutResponse{}, err
		}
		record.CouponCode = strings.ToUpper(strings.TrimSpace(draft.CouponCode))
		record.DiscountTotal = discount
	}
	if record.DiscountTotal != draft.DiscountTotal {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(staleInputError{field: "discount", client: draft.DiscountTotal, computed: record.DiscountTotal})
	}

	record.GrandTotal = record.ItemsSubtotal + record.ShippingFee - record.DiscountTotal
	if record.GrandTotal != draft.GrandTotal {
		return checkoutapi.CheckoutResponse{}, myerrors.NewUnprocessableError(staleInputError{field: "grand total", client: draft.GrandTotal, computed: record.GrandTotal})
	}

	gatewayOrder, err := s.gateway.CreateOrder(c, payments.CreateOrderRequest{
		OrderID:     record.ID,
		CustomerID:  record.CustomerID,
		AmountMinor: record.GrandTotal.MinorUnits(),
		Currency:    record.Currency,
		Description: fmt.Sprintf("Order %s", record.PublicCode),
		ReturnURL:   fmt.Sprintf("%s/orders/%s", s.cfg.PublicBaseURL, record.PublicCode),
		WebhookURL:  fmt.Sprintf("%s/payments/callback", s.cfg.PublicBaseURL),
	})
	if err != nil {
		if myerrors.GetHTTPStatus(err) >= 500 {
			return checkoutapi.CheckoutResponse{}, myerrors.NewUnavailableError(fmt.Errorf("error creating gateway order for %s: %w", record.ID, err))
		}
		return checkoutapi.CheckoutResponse{}, err
	}

	record.Type = checkoutapi.OrderTypeGateway
	record.GatewayProvider = s.gateway.Name()
	record.GatewayOrderID = gatewayOrder.ID

	err = s.storeAndPublish(c, record, checkoutevents.OrderCreated{
		OrderID:        record.ID,
		PublicCode:     record.PublicCode,
		CustomerID:     record.CustomerID,
		CouponCode:     record.CouponCode,
		GatewayOrderID: record.GatewayOrderID,
		GrandTotal:     record.GrandTotal,
		Currency:       record.Currency,
	})
	if err != nil {
		return checkoutapi.CheckoutResponse{}, err
	}

	s.logger.Log(c, record.ID, mylog.SeverityInfo, "Created order %s with gateway order %s for %s %s", record.PublicCode, gatewayOrder.ID, record.GrandTotal, record.Currency)

	return checkoutapi.CheckoutResponse{
		Type:         checkoutapi.OrderTypeGateway,
		OrderID:      record.ID,
		PublicCode:   record.PublicCode,
		GatewayOrder: &gatewayOrder,
	}, nil
}

func (s *service) storeAndPublish(c context.Context, record checkoutapi.OrderRecord, event myevents.Event) error {
	order, err := newOrder(record)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		err := s.orderStore.Put(c, order.UID, order)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing order %s: %w", order.UID, err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, event)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %w", err))
		}
		return nil
	})
}
