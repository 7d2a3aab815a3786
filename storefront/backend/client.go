// Package backend is the storefront's client of the checkout REST api. Every response passes through
// the checkoutapi normalizers, so the rest of the storefront only sees fixed shapes.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/myhttpclient"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

// Error is a non-2xx answer of the backend.
type Error struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("backend responded %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// StatusOf returns the http status of a backend error, or 0 when the backend never answered.
func StatusOf(err error) int {
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.StatusCode
	}
	return 0
}

func ReasonOf(err error) string {
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.Reason
	}
	return ""
}

type Client struct {
	baseURL string
	sender  myhttpclient.HTTPSender
	logger  mylog.Logger
}

// New creates a client without a circuit breaker: checkout calls must never fail without being sent.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithSender(baseURL, myhttpclient.New(myhttpclient.WithTimeout(timeout)))
}

func NewWithSender(baseURL string, sender myhttpclient.HTTPSender) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		sender:  sender,
		logger:  mylog.New("backend"),
	}
}

func (c *Client) ListAddresses(ctx context.Context, customerID string) ([]checkoutapi.Address, error) {
	body, err := c.call(ctx, http.MethodGet, "/addresses?customerId="+url.QueryEscape(customerID), nil, nil)
	if err != nil {
		return nil, err
	}
	return checkoutapi.NormalizeAddresses(body)
}

func (c *Client) PreviewShipping(ctx context.Context, request checkoutapi.ShippingPreviewRequest) (checkoutapi.ShippingPreviewResponse, error) {
	body, err := c.call(ctx, http.MethodPost, "/shipping/preview", nil, request)
	if err != nil {
		return checkoutapi.ShippingPreviewResponse{}, err
	}
	return checkoutapi.NormalizeShippingQuote(body)
}

func (c *Client) PreviewCoupon(ctx context.Context, code string, request checkoutapi.CouponPreviewRequest) (checkoutapi.CouponPreviewResponse, error) {
	body, err := c.call(ctx, http.MethodPost, "/coupons/"+url.PathEscape(code)+"/preview", nil, request)
	if err != nil {
		return checkoutapi.CouponPreviewResponse{}, err
	}
	return checkoutapi.NormalizeCouponPreview(body)
}

func (c *Client) Checkout(ctx context.Context, idempotencyKey string, request checkoutapi.CheckoutRequest) (checkoutapi.CheckoutResponse, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(checkoutapi.IdempotencyKeyHeader, idempotencyKey)
	}
	body, err := c.call(ctx, http.MethodPost, "/checkout", headers, request)
	if err != nil {
		return checkoutapi.CheckoutResponse{}, err
	}
	return checkoutapi.NormalizeCheckoutResponse(body)
}

func (c *Client) VerifyPayment(ctx context.Context, request checkoutapi.VerifyRequest) (checkoutapi.OrderRecord, error) {
	body, err := c.call(ctx, http.MethodPost, "/payments/verify", nil, request)
	if err != nil {
		return checkoutapi.OrderRecord{}, err
	}
	return checkoutapi.NormalizeOrderRecord(body)
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (checkoutapi.OrderRecord, error) {
	body, err := c.call(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return checkoutapi.OrderRecord{}, err
	}
	return checkoutapi.NormalizeOrderRecord(body)
}

func (c *Client) call(ctx context.Context, method string, path string, headers http.Header, request any) ([]byte, error) {
	var payload []byte
	if request != nil {
		var err error
		payload, err = json.Marshal(request)
		if err != nil {
			return nil, fmt.Errorf("error serializing request for %s %s: %w", method, path, err)
		}
	}

	status, body, err := c.sender.SendWithHeaders(ctx, method, c.baseURL+path, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("error calling %s %s: %w", method, path, err)
	}
	if status < 200 || status >= 300 {
		reason, message := checkoutapi.NormalizeRejection(body)
		c.logger.Log(ctx, "", mylog.SeverityWarn, "%s %s responded %d %s", method, path, status, reason)
		return nil, &Error{StatusCode: status, Reason: reason, Message: message}
	}
	return body, nil
}
