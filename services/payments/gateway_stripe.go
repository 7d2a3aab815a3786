package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

//go:generate mockgen -source=gateway_stripe.go -package payments -destination stripe_payer_mock.go StripePayer
type StripePayer interface {
	UseAPIKey(key string)
	CreatePaymentIntent(ctx context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (stripe.PaymentIntent, error)
}

type stripePayer struct{}

func NewStripePayer() StripePayer {
	return &stripePayer{}
}

func (p *stripePayer) UseAPIKey(apiKey string) {
	stripe.Key = apiKey
}

func (p *stripePayer) CreatePaymentIntent(ctx context.Context, params stripe.PaymentIntentParams) (stripe.PaymentIntent, error) {
	params.Context = ctx
	intent, err := paymentintent.New(&params)
	if err != nil {
		return stripe.PaymentIntent{}, fmt.Errorf("error creating stripe payment-intent: %w", err)
	}
	return *intent, nil
}

func (p *stripePayer) GetPaymentIntent(ctx context.Context, id string) (stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := paymentintent.Get(id, params)
	if err != nil {
		return stripe.PaymentIntent{}, fmt.Errorf("error getting stripe payment-intent %s: %w", id, err)
	}
	return *intent, nil
}

// stripeGateway uses payment-intents. The widget confirms the intent client-side,
// verification fetches the intent and trusts only its server-side status.
type stripeGateway struct {
	payer StripePayer
}

func NewStripeGateway(apiKey string, payer StripePayer) *stripeGateway {
	payer.UseAPIKey(apiKey)
	return &stripeGateway{
		payer: payer,
	}
}

func (g *stripeGateway) Name() string {
	return ProviderStripe
}

func (g *stripeGateway) CreateOrder(c context.Context, request CreateOrderRequest) (checkoutapi.GatewayOrder, error) {
	params := stripe.PaymentIntentParams{
		Amount:      stripe.Int64(request.AmountMinor),
		Currency:    stripe.String(strings.ToLower(request.Currency)),
		Description: stripe.String(request.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("orderId", request.OrderID)
	params.AddMetadata("customerId", request.CustomerID)
	params.SetIdempotencyKey("order-" + request.OrderID)

	intent, err := g.payer.CreatePaymentIntent(c, params)
	if err != nil {
		return checkoutapi.GatewayOrder{}, myerrors.NewUnavailableError(err)
	}

	return checkoutapi.GatewayOrder{
		ID:           intent.ID,
		Provider:     ProviderStripe,
		AmountMinor:  intent.Amount,
		Currency:     strings.ToUpper(string(intent.Currency)),
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (g *stripeGateway) VerifyPayment(c context.Context, request VerifyPaymentRequest) (VerifiedPayment, error) {
	intent, err := g.payer.GetPaymentIntent(c, request.GatewayOrderID)
	if err != nil {
		return VerifiedPayment{}, myerrors.NewUnavailableError(err)
	}

	if !matchesStripePayment(intent, request.GatewayPaymentID) {
		return VerifiedPayment{}, ErrInvalidSignature
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return VerifiedPayment{}, fmt.Errorf("%w: payment-intent %s has status %s", ErrNotPaid, intent.ID, intent.Status)
	}

	method := ""
	if intent.PaymentMethod != nil {
		method = string(intent.PaymentMethod.Type)
	}
	return VerifiedPayment{
		GatewayOrderID:   intent.ID,
		GatewayPaymentID: request.GatewayPaymentID,
		AmountMinor:      intent.Amount,
		Currency:         strings.ToUpper(string(intent.Currency)),
		Method:           method,
	}, nil
}

// The reported payment id is either the intent itself or its latest charge.
func matchesStripePayment(intent stripe.PaymentIntent, paymentID string) bool {
	if paymentID == intent.ID {
		return true
	}
	return intent.LatestCharge != nil && intent.LatestCharge.ID == paymentID
}
