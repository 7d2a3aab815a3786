package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/myhttpclient"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

// signatureGateway talks to an orders api protected with basic-auth and proves payments with
// hex(HMAC-SHA256(gatewayOrderId + "|" + gatewayPaymentId, keySecret)).
type signatureGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	sender    myhttpclient.HTTPSender
}

func NewSignatureGateway(keyID string, keySecret string, baseURL string) *signatureGateway {
	return newSignatureGateway(keyID, keySecret, baseURL, myhttpclient.New(
		myhttpclient.WithBasicAuth(keyID, keySecret),
		myhttpclient.WithTimeout(10*time.Second),
		myhttpclient.WithCircuitBreaker("gateway-orders", 5, 30*time.Second),
	))
}

func newSignatureGateway(keyID string, keySecret string, baseURL string, sender myhttpclient.HTTPSender) *signatureGateway {
	return &signatureGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		sender:    sender,
	}
}

type gatewayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type gatewayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (g *signatureGateway) Name() string {
	return ProviderSignature
}

func (g *signatureGateway) CreateOrder(c context.Context, request CreateOrderRequest) (checkoutapi.GatewayOrder, error) {
	body, err := json.Marshal(gatewayOrderRequest{
		Amount:   request.AmountMinor,
		Currency: request.Currency,
		Receipt:  request.OrderID,
		Notes: map[string]string{
			"orderId":    request.OrderID,
			"customerId": request.CustomerID,
		},
	})
	if err != nil {
		return checkoutapi.GatewayOrder{}, myerrors.NewInternalError(err)
	}

	status, respBody, err := g.sender.Send(c, http.MethodPost, g.baseURL+"/v1/orders", body)
	if err != nil {
		return checkoutapi.GatewayOrder{}, myerrors.NewUnavailableError(fmt.Errorf("error creating gateway order: %w", err))
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return checkoutapi.GatewayOrder{}, myerrors.NewUnavailableError(fmt.Errorf("gateway rejected order creation with status %d: %s", status, respBody))
	}

	resp := gatewayOrderResponse{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil || resp.ID == "" {
		return checkoutapi.GatewayOrder{}, myerrors.NewUnavailableError(fmt.Errorf("error parsing gateway order: %v", err))
	}

	return checkoutapi.GatewayOrder{
		ID:          resp.ID,
		Provider:    ProviderSignature,
		KeyID:       g.keyID,
		AmountMinor: resp.Amount,
		Currency:    strings.ToUpper(resp.Currency),
	}, nil
}

func (g *signatureGateway) VerifyPayment(c context.Context, request VerifyPaymentRequest) (VerifiedPayment, error) {
	expected := ComputeSignature(g.keySecret, request.GatewayOrderID, request.GatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(request.Signature))) {
		return VerifiedPayment{}, ErrInvalidSignature
	}

	return VerifiedPayment{
		GatewayOrderID:   request.GatewayOrderID,
		GatewayPaymentID: request.GatewayPaymentID,
	}, nil
}

func ComputeSignature(keySecret string, gatewayOrderID string, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
