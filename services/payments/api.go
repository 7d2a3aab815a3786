package payments

import (
	"context"
	"errors"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

const (
	ProviderSignature = "signature"
	ProviderStripe    = "stripe"
	ProviderMollie    = "mollie"
)

var (
	// ErrInvalidSignature means the payment proof did not come from the gateway.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrNotPaid means the gateway does not (yet) consider the payment successful.
	ErrNotPaid = errors.New("payment not completed")
)

type CreateOrderRequest struct {
	OrderID     string
	CustomerID  string
	AmountMinor int64
	Currency    string
	Description string
	ReturnURL   string
	WebhookURL  string
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// VerifiedPayment is what the gateway confirmed. AmountMinor is zero when the gateway proof does not carry an amount.
type VerifiedPayment struct {
	GatewayOrderID   string
	GatewayPaymentID string
	AmountMinor      int64
	Currency         string
	Method           string
}

//go:generate mockgen -source=api.go -package payments -destination gateway_mock.go Gateway
type Gateway interface {
	Name() string
	CreateOrder(c context.Context, request CreateOrderRequest) (checkoutapi.GatewayOrder, error)
	VerifyPayment(c context.Context, request VerifyPaymentRequest) (VerifiedPayment, error)
}
