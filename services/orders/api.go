package orders

import (
	"context"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

//go:generate mockgen -source=api.go -package orders -destination api_mock.go AddressReader,FeeQuoter,CouponEvaluator

type AddressReader interface {
	GetAddress(c context.Context, addressID string) (checkoutapi.Address, bool, error)
}

type FeeQuoter interface {
	Quote(c context.Context, subtotal checkoutapi.Money, stateID string, districtID string) (checkoutapi.ShippingPreviewResponse, error)
}

type CouponEvaluator interface {
	Evaluate(c context.Context, code string, customerID string, subtotal checkoutapi.Money, itemCount int) (checkoutapi.Money, error)
}
