package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/VictorAvelar/mollie-api-go/v3/mollie"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

//go:generate mockgen -source=gateway_mollie.go -package payments -destination mollie_payer_mock.go MolliePayer
type MolliePayer interface {
	UseAPIKey(key string)
	CreatePayment(ctx context.Context, request mollie.Payment) (mollie.Payment, error)
	GetPaymentOnID(ctx context.Context, paymentID string) (mollie.Payment, error)
}

type molliePayer struct {
	client *mollie.Client
}

func NewMolliePayer(testMode bool) (MolliePayer, error) {
	config := mollie.NewAPITestingConfig(testMode)

	client, err := mollie.NewClient(nil, config)
	if err != nil {
		return nil, fmt.Errorf("error creating mollie client: %w", err)
	}

	return &molliePayer{
		client: client,
	}, nil
}

func (p *molliePayer) UseAPIKey(apiKey string) {
	p.client.WithAuthenticationValue(apiKey)
}

func (p *molliePayer) CreatePayment(ctx context.Context, request mollie.Payment) (mollie.Payment, error) {
	_, payment, err := p.client.Payments.Create(ctx, request, nil)
	if err != nil {
		return mollie.Payment{}, fmt.Errorf("error creating mollie payment: %w", err)
	}
	return *payment, nil
}

func (p *molliePayer) GetPaymentOnID(ctx context.Context, id string) (mollie.Payment, error) {
	_, payment, err := p.client.Payments.Get(ctx, id, &mollie.PaymentOptions{})
	if err != nil {
		return mollie.Payment{}, fmt.Errorf("error getting mollie payment %s: %w", id, err)
	}
	return *payment, nil
}

// mollieGateway uses a hosted checkout page. The payment id doubles as gateway order id
// and verification fetches the payment status from mollie.
type mollieGateway struct {
	payer MolliePayer
}

func NewMollieGateway(apiKey string, payer MolliePayer) *mollieGateway {
	payer.UseAPIKey(apiKey)
	return &mollieGateway{
		payer: payer,
	}
}

func (g *mollieGateway) Name() string {
	return ProviderMollie
}

func (g *mollieGateway) CreateOrder(c context.Context, request CreateOrderRequest) (checkoutapi.GatewayOrder, error) {
	payment, err := g.payer.CreatePayment(c, mollie.Payment{
		Amount: &mollie.Amount{
			Currency: strings.ToUpper(request.Currency),
			Value:    checkoutapi.Money(request.AmountMinor).String(),
		},
		Description:       request.Description,
		RedirectURL:       request.ReturnURL,
		WebhookURL:        request.WebhookURL,
		CustomerReference: request.CustomerID,
		Metadata: map[string]string{
			"orderId": request.OrderID,
		},
	})
	if err != nil {
		return checkoutapi.GatewayOrder{}, myerrors.NewUnavailableError(err)
	}

	order := checkoutapi.GatewayOrder{
		ID:          payment.ID,
		Provider:    ProviderMollie,
		AmountMinor: request.AmountMinor,
		Currency:    strings.ToUpper(request.Currency),
	}
	if payment.Links.Checkout != nil {
		order.CheckoutURL = payment.Links.Checkout.Href
	}
	return order, nil
}

func (g *mollieGateway) VerifyPayment(c context.Context, request VerifyPaymentRequest) (VerifiedPayment, error) {
	if request.GatewayPaymentID != request.GatewayOrderID {
		return VerifiedPayment{}, ErrInvalidSignature
	}

	payment, err := g.payer.GetPaymentOnID(c, request.GatewayOrderID)
	if err != nil {
		return VerifiedPayment{}, myerrors.NewUnavailableError(err)
	}
	if payment.Status != "paid" {
		return VerifiedPayment{}, fmt.Errorf("%w: mollie payment %s has status %s", ErrNotPaid, payment.ID, payment.Status)
	}

	verified := VerifiedPayment{
		GatewayOrderID:   payment.ID,
		GatewayPaymentID: payment.ID,
		Method:           string(payment.Method),
	}
	if payment.Amount != nil {
		amount, err := checkoutapi.ParseMoney(payment.Amount.Value)
		if err != nil {
			return VerifiedPayment{}, myerrors.NewInternalError(err)
		}
		verified.AmountMinor = amount.MinorUnits()
		verified.Currency = strings.ToUpper(payment.Amount.Currency)
	}
	return verified, nil
}
