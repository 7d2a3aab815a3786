package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myidempotency"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mypublisher"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/services/payments"
)

type Config struct {
	HomeCountry    string
	Currency       string
	PublicBaseURL  string
	IdempotencyTTL time.Duration
}

type service struct {
	cfg         Config
	logger      mylog.Logger
	orderStore  mystore.Store[Order]
	addresses   AddressReader
	quoter      FeeQuoter
	coupons     CouponEvaluator
	gateway     payments.Gateway
	idempotency myidempotency.Store
	nower       mytime.Nower
	uuider      myuuid.UUIDer
	publisher   mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, logger mylog.Logger, orderStore mystore.Store[Order], addresses AddressReader, quoter FeeQuoter, coupons CouponEvaluator,
	gateway payments.Gateway, idempotency myidempotency.Store, nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *service {
	cfg.HomeCountry = strings.ToUpper(cfg.HomeCountry)
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return &service{
		cfg:         cfg,
		logger:      logger,
		orderStore:  orderStore,
		addresses:   addresses,
		quoter:      quoter,
		coupons:     coupons,
		gateway:     gateway,
		idempotency: idempotency,
		nower:       nower,
		uuider:      uuider,
		publisher:   publisher,
	}
}

func (s *service) getOrder(c context.Context, orderID string) (Order, error) {
	order, found, err := s.orderStore.Get(c, orderID)
	if err != nil {
		return Order{}, myerrors.NewInternalError(fmt.Errorf("error fetching order %s: %w", orderID, err))
	}
	if !found {
		return Order{}, myerrors.NewNotFoundError(fmt.Errorf("order %s not found", orderID))
	}
	return order, nil
}

func (s *service) findOrderOnGatewayOrderID(c context.Context, gatewayOrderID string) (Order, error) {
	orders, err := s.orderStore.Query(c, []mystore.Filter{{Field: "GatewayOrderID", Compare: "=", Value: gatewayOrderID}}, "")
	if err != nil {
		return Order{}, myerrors.NewInternalError(fmt.Errorf("error fetching order of gateway order %s: %w", gatewayOrderID, err))
	}
	if len(orders) == 0 {
		return Order{}, myerrors.NewNotFoundError(fmt.Errorf("no order for gateway order %s", gatewayOrderID))
	}
	return orders[0], nil
}
