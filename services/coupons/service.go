package coupons

import (
	"context"
	"fmt"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mypubsub"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type service struct {
	logger      mylog.Logger
	couponStore mystore.Store[Coupon]
	usageStore  mystore.Store[Usage]
	nower       mytime.Nower
	pubsub      mypubsub.PubSub
	limiter     *previewLimiter
}

func newService(logger mylog.Logger, couponStore mystore.Store[Coupon], usageStore mystore.Store[Usage], nower mytime.Nower, pubsub mypubsub.PubSub, limiter *previewLimiter) *service {
	return &service{
		logger:      logger,
		couponStore: couponStore,
		usageStore:  usageStore,
		nower:       nower,
		pubsub:      pubsub,
		limiter:     limiter,
	}
}

// Evaluate returns the discount the coupon gives on this order, or a RejectionError wrapped as unprocessable.
func (s *service) Evaluate(c context.Context, code string, customerID string, subtotal checkoutapi.Money, itemCount int) (checkoutapi.Money, error) {
	code = NormalizeCode(code)

	coupon, found, err := s.couponStore.Get(c, code)
	if err != nil {
		return 0, myerrors.NewInternalError(fmt.Errorf("error fetching coupon %s: %w", code, err))
	}
	if !found {
		return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponNotFound))
	}
	if !coupon.Active {
		return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponInactive))
	}

	now := s.nower.Now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponNotStarted))
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponExpired))
	}
	if subtotal < coupon.MinOrder {
		return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponMinOrderNotMet))
	}
	if itemCount < coupon.MinItems {
		return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponMinItemsNotMet))
	}

	if coupon.UsageLimit > 0 {
		usages, err := s.usageStore.Query(c, []mystore.Filter{{Field: "Code", Compare: "=", Value: code}}, "")
		if err != nil {
			return 0, myerrors.NewInternalError(err)
		}
		if len(usages) >= coupon.UsageLimit {
			return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponUsageLimitReached))
		}
	}
	if coupon.PerCustomerLimit > 0 {
		usages, err := s.usageStore.Query(c, []mystore.Filter{
			{Field: "Code", Compare: "=", Value: code},
			{Field: "CustomerID", Compare: "=", Value: customerID},
		}, "")
		if err != nil {
			return 0, myerrors.NewInternalError(err)
		}
		if len(usages) >= coupon.PerCustomerLimit {
			return 0, myerrors.NewUnprocessableError(rejected(code, checkoutapi.CouponCustomerLimitReached))
		}
	}

	discount, err := coupon.discountFor(subtotal)
	if err != nil {
		return 0, myerrors.NewInternalError(err)
	}

	return discount, nil
}

func (s *service) preview(c context.Context, code string, request checkoutapi.CouponPreviewRequest) (checkoutapi.CouponPreviewResponse, error) {
	if !s.limiter.Allow(request.CustomerID) {
		return checkoutapi.CouponPreviewResponse{}, myerrors.NewTooManyRequestsError(fmt.Errorf("too many coupon previews for customer %s", request.CustomerID))
	}

	discount, err := s.Evaluate(c, code, request.CustomerID, request.OrderTotal, request.ItemsCount)
	if err != nil {
		s.logger.Log(c, request.CustomerID, mylog.SeverityInfo, "Coupon %s not applicable: %s", code, err)
		return checkoutapi.CouponPreviewResponse{}, err
	}

	return checkoutapi.CouponPreviewResponse{
		Code:     NormalizeCode(code),
		Discount: discount,
	}, nil
}

func (s *service) getCoupon(c context.Context, code string) (Coupon, error) {
	code = NormalizeCode(code)
	coupon, found, err := s.couponStore.Get(c, code)
	if err != nil {
		return Coupon{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Coupon{}, myerrors.NewNotFoundError(fmt.Errorf("coupon %s not found", code))
	}
	return coupon, nil
}

func (s *service) putCoupon(c context.Context, coupon Coupon) error {
	coupon.Code = NormalizeCode(coupon.Code)
	if coupon.Code == "" {
		return myerrors.NewInvalidInputErrorf("coupon code is missing")
	}
	if coupon.Kind == KindPercent {
		_, err := coupon.percentage()
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
	}
	if coupon.StartsAt != nil && coupon.EndsAt != nil && coupon.EndsAt.Before(*coupon.StartsAt) {
		return myerrors.NewInvalidInputErrorf("coupon %s ends before it starts", coupon.Code)
	}

	err := s.couponStore.Put(c, coupon.Code, coupon)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing coupon %s: %w", coupon.Code, err))
	}

	s.logger.Log(c, coupon.Code, mylog.SeverityInfo, "Stored coupon %s", coupon.Code)
	return nil
}
