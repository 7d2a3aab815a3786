package orders

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/services/checkoutevents"
	"github.com/MarcGrol/checkoutflow/services/payments"
)

// verify is the only way an order becomes PAID. Repeating it for the same payment returns the paid order.
func (s *service) verify(c context.Context, request checkoutapi.VerifyRequest) (checkoutapi.OrderRecord, error) {
	var (
		order Order
		err   error
	)
	if request.OrderID != "" {
		order, err = s.getOrder(c, request.OrderID)
		if err == nil && order.GatewayOrderID != request.GatewayOrderID {
			err = myerrors.NewInvalidInputErrorf("gateway order %s does not belong to order %s", request.GatewayOrderID, request.OrderID)
		}
	} else {
		order, err = s.findOrderOnGatewayOrderID(c, request.GatewayOrderID)
	}
	if err != nil {
		return checkoutapi.OrderRecord{}, err
	}

	switch {
	case order.Status == checkoutapi.OrderStatusPaid && order.GatewayPaymentID == request.GatewayPaymentID:
		s.logger.Log(c, order.UID, mylog.SeverityInfo, "Order %s already paid with %s", order.UID, request.GatewayPaymentID)
		return s.toRecord(order)
	case order.Status == checkoutapi.OrderStatusPaid:
		return checkoutapi.OrderRecord{}, myerrors.NewConflictError(fmt.Errorf("order %s was already paid with another payment", order.UID))
	case order.Type != checkoutapi.OrderTypeGateway:
		return checkoutapi.OrderRecord{}, myerrors.NewConflictError(fmt.Errorf("order %s is not paid through the gateway", order.UID))
	case order.Status == checkoutapi.OrderStatusCancelled:
		return checkoutapi.OrderRecord{}, myerrors.NewConflictError(fmt.Errorf("order %s is cancelled", order.UID))
	}

	if request.AmountMinor != 0 && request.AmountMinor != order.GrandTotal.MinorUnits() {
		return checkoutapi.OrderRecord{}, myerrors.NewUnprocessableError(fmt.Errorf("amount %d does not match order %s total %d", request.AmountMinor, order.UID, order.GrandTotal.MinorUnits()))
	}
	if request.Currency != "" && !strings.EqualFold(request.Currency, order.Currency) {
		return checkoutapi.OrderRecord{}, myerrors.NewUnprocessableError(fmt.Errorf("currency %s does not match order %s currency %s", request.Currency, order.UID, order.Currency))
	}

	verified, err := s.gateway.VerifyPayment(c, payments.VerifyPaymentRequest{
		GatewayOrderID:   request.GatewayOrderID,
		GatewayPaymentID: request.GatewayPaymentID,
		Signature:        request.Signature,
	})
	if err != nil {
		return checkoutapi.OrderRecord{}, s.verificationFailed(c, order, request, err)
	}
	if verified.AmountMinor != 0 && verified.AmountMinor != order.GrandTotal.MinorUnits() {
		s.logger.Log(c, order.UID, mylog.SeverityError, "Gateway confirmed %d for order %s with total %d", verified.AmountMinor, order.UID, order.GrandTotal.MinorUnits())
		return checkoutapi.OrderRecord{}, myerrors.NewUnprocessableError(fmt.Errorf("paid amount %d does not match order %s", verified.AmountMinor, order.UID))
	}

	now := s.nower.Now()
	err = s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		order, err = s.getOrder(c, order.UID)
		if err != nil {
			return err
		}
		if order.Status == checkoutapi.OrderStatusPaid {
			if order.GatewayPaymentID == request.GatewayPaymentID {
				return nil
			}
			return myerrors.NewConflictError(fmt.Errorf("order %s was already paid with another payment", order.UID))
		}

		order.Status = checkoutapi.OrderStatusPaid
		order.GatewayPaymentID = request.GatewayPaymentID
		order.FailureReason = ""
		order.PaidAt = &now
		order.LastModified = &now

		err = s.orderStore.Put(c, order.UID, order)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing order %s: %w", order.UID, err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.OrderPaid{
			OrderID:          order.UID,
			PublicCode:       order.PublicCode,
			CustomerID:       order.CustomerID,
			CouponCode:       order.CouponCode,
			DiscountTotal:    order.DiscountTotal,
			GrandTotal:       order.GrandTotal,
			Currency:         order.Currency,
			GatewayProvider:  order.GatewayProvider,
			GatewayPaymentID: order.GatewayPaymentID,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %w", err))
		}
		return nil
	})
	if err != nil {
		return checkoutapi.OrderRecord{}, err
	}

	s.logger.Log(c, order.UID, mylog.SeverityInfo, "Order %s paid with %s (%s)", order.PublicCode, order.GatewayPaymentID, verified.Method)

	return s.toRecord(order)
}

func (s *service) verificationFailed(c context.Context, order Order, request checkoutapi.VerifyRequest, cause error) error {
	switch {
	case errors.Is(cause, payments.ErrInvalidSignature):
		s.logger.Log(c, order.UID, mylog.SeverityWarn, "Rejected payment proof %s for order %s: %s", request.GatewayPaymentID, order.UID, cause)
		err := s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.OrderVerificationFailed{
			OrderID:          order.UID,
			GatewayOrderID:   request.GatewayOrderID,
			GatewayPaymentID: request.GatewayPaymentID,
			Reason:           cause.Error(),
		})
		if err != nil {
			s.logger.Log(c, order.UID, mylog.SeverityError, "Error publishing rejection of payment %s for order %s: %s", request.GatewayPaymentID, order.UID, err)
		}
		return myerrors.NewInvalidInputError(cause)
	case errors.Is(cause, payments.ErrNotPaid):
		return myerrors.NewUnprocessableError(cause)
	default:
		s.logger.Log(c, order.UID, mylog.SeverityError, "Could not verify payment %s for order %s: %s", request.GatewayPaymentID, order.UID, cause)
		return myerrors.NewUnavailableError(fmt.Errorf("error verifying payment %s: %w", request.GatewayPaymentID, cause))
	}
}

// markFailed records a payment failure the gateway reported on redirect. A paid order stays paid.
func (s *service) markFailed(c context.Context, gatewayOrderID string, reason string) (Order, error) {
	order, err := s.findOrderOnGatewayOrderID(c, gatewayOrderID)
	if err != nil {
		return Order{}, err
	}

	now := s.nower.Now()
	err = s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		order, err = s.getOrder(c, order.UID)
		if err != nil {
			return err
		}
		if order.Status != checkoutapi.OrderStatusPending {
			return nil
		}

		order.Status = checkoutapi.OrderStatusFailed
		order.FailureReason = reason
		order.LastModified = &now

		err = s.orderStore.Put(c, order.UID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Log(c, order.UID, mylog.SeverityInfo, "Payment of order %s failed: %s", order.UID, reason)

	return order, nil
}

// handleCallback verifies a gateway redirect and returns where to send the browser.
func (s *service) handleCallback(c context.Context, callback checkoutapi.CallbackForm) (string, error) {
	if callback.Failed() {
		order, err := s.markFailed(c, callback.GatewayOrderID, strings.TrimSpace(callback.ErrorCode+" "+callback.ErrorDescription))
		if err != nil {
			return "", err
		}
		return s.orderPageURL(order.PublicCode, "failed")
	}

	order, err := s.verify(c, checkoutapi.VerifyRequest{
		GatewayOrderID:   callback.GatewayOrderID,
		GatewayPaymentID: callback.GatewayPaymentID,
		Signature:        callback.Signature,
	})
	if err != nil {
		if myerrors.GetHTTPStatus(err) == 404 {
			return "", err
		}
		existing, findErr := s.findOrderOnGatewayOrderID(c, callback.GatewayOrderID)
		if findErr != nil {
			return "", err
		}
		status := "rejected"
		if myerrors.GetHTTPStatus(err) >= 500 {
			status = "unconfirmed"
		}
		return s.orderPageURL(existing.PublicCode, status)
	}

	return s.orderPageURL(order.PublicCode, "paid")
}

func (s *service) orderPageURL(publicCode string, status string) (string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/orders/%s", s.cfg.PublicBaseURL, url.PathEscape(publicCode)))
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error composing order page url: %w", err))
	}
	params := u.Query()
	params.Set("status", status)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (s *service) toRecord(order Order) (checkoutapi.OrderRecord, error) {
	record, err := order.Record()
	if err != nil {
		return checkoutapi.OrderRecord{}, myerrors.NewInternalError(err)
	}
	return record, nil
}

func (s *service) orderRecord(c context.Context, orderID string) (checkoutapi.OrderRecord, error) {
	order, err := s.getOrder(c, orderID)
	if err != nil {
		return checkoutapi.OrderRecord{}, err
	}
	return s.toRecord(order)
}
