package coupons

import (
	"context"
	"fmt"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/services/checkoutevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.pubsub.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	err = s.pubsub.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/coupons/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *service) OnOrderCreated(c context.Context, topic string, event checkoutevents.OrderCreated) error {
	return nil
}

func (s *service) OnManualOrderCreated(c context.Context, topic string, event checkoutevents.ManualOrderCreated) error {
	return nil
}

func (s *service) OnOrderVerificationFailed(c context.Context, topic string, event checkoutevents.OrderVerificationFailed) error {
	return nil
}

// OnOrderPaid consumes the coupon. Redelivery of the same event counts only once.
func (s *service) OnOrderPaid(c context.Context, topic string, event checkoutevents.OrderPaid) error {
	if event.CouponCode == "" {
		return nil
	}

	err := s.usageStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		_, exists, err := s.usageStore.Get(c, event.OrderID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if exists {
			return nil
		}

		err = s.usageStore.Put(c, event.OrderID, Usage{
			OrderID:    event.OrderID,
			Code:       NormalizeCode(event.CouponCode),
			CustomerID: event.CustomerID,
			Discount:   event.DiscountTotal,
			UsedAt:     s.nower.Now(),
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Log(c, event.OrderID, mylog.SeverityInfo, "Recorded usage of coupon %s by customer %s", event.CouponCode, event.CustomerID)

	return nil
}
