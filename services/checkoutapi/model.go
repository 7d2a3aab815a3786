package checkoutapi

import (
	"time"
)

type Flow string

const (
	FlowDomestic      Flow = "DOMESTIC"
	FlowInternational Flow = "INTERNATIONAL"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type OrderType string

const (
	OrderTypeGateway OrderType = "GATEWAY_ORDER"
	OrderTypeManual  OrderType = "MANUAL"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	CountryID  string `json:"countryId"`
	StateID    string `json:"stateId,omitempty"`
	DistrictID string `json:"districtId,omitempty"`
	Pincode    string `json:"pincode"`
	IsDefault  bool   `json:"isDefault"`
	Active     bool   `json:"active"`
}

type ShippingPreviewRequest struct {
	ItemsSubtotal Money  `json:"itemsSubtotal" validate:"gt=0"`
	StateID       string `json:"stateId" validate:"required"`
	DistrictID    string `json:"districtId"`
}

type ShippingPreviewResponse struct {
	Fee                 Money  `json:"fee"`
	FreeShippingApplied bool   `json:"freeShippingApplied"`
	RuleID              string `json:"ruleId"`
}

type CouponPreviewRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	OrderTotal Money  `json:"orderTotal" validate:"gt=0"`
	ItemsCount int    `json:"itemsCount" validate:"gt=0"`
}

type CouponPreviewResponse struct {
	Code     string `json:"code"`
	Discount Money  `json:"discount"`
}

// CouponRejection reasons, returned in the Reason field of the error response.
const (
	CouponNotFound             = "NOT_FOUND"
	CouponInactive             = "INACTIVE"
	CouponNotStarted           = "NOT_STARTED"
	CouponExpired              = "EXPIRED"
	CouponMinOrderNotMet       = "MIN_ORDER_NOT_MET"
	CouponMinItemsNotMet       = "MIN_ITEMS_NOT_MET"
	CouponUsageLimitReached    = "USAGE_LIMIT_REACHED"
	CouponCustomerLimitReached = "CUSTOMER_LIMIT_REACHED"
	// CouponOutOfBounds is raised by the storefront for a discount below zero or above the subtotal.
	CouponOutOfBounds = "OUT_OF_BOUNDS"
)

type OrderItem struct {
	LineID            string   `json:"lineId"`
	ProductID         string   `json:"productId" validate:"required"`
	Name              string   `json:"name"`
	UnitPrice         Money    `json:"unitPrice" validate:"gt=0"`
	Quantity          int      `json:"quantity" validate:"gt=0"`
	SelectedOptionIDs []string `json:"selectedOptionIds,omitempty"`
	VariantLabel      string   `json:"variantLabel,omitempty"`
}

func (i OrderItem) LineTotal() Money {
	return i.UnitPrice * Money(i.Quantity)
}

type OrderDraft struct {
	CustomerID        string `json:"customerId" validate:"required"`
	AddressID         string `json:"addressId" validate:"required"`
	Flow              Flow   `json:"flow" validate:"oneof=DOMESTIC INTERNATIONAL"`
	DeliveryPartnerID string `json:"deliveryPartnerId,omitempty"`
	CouponCode        string `json:"couponCode,omitempty"`
	Notes             string `json:"notes,omitempty"`
	ItemsSubtotal     Money  `json:"itemsSubtotal"`
	ShippingFee       Money  `json:"shippingFee"`
	DiscountTotal     Money  `json:"discountTotal"`
	GrandTotal        Money  `json:"grandTotal"`
	Currency          string `json:"currency,omitempty"`
}

type CheckoutRequest struct {
	Order OrderDraft  `json:"order"`
	Items []OrderItem `json:"items" validate:"required,min=1,dive"`
}

// GatewayOrder is what the payment widget needs to collect the payment.
type GatewayOrder struct {
	ID           string `json:"id"`
	Provider     string `json:"provider"`
	KeyID        string `json:"keyId,omitempty"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
	CheckoutURL  string `json:"checkoutUrl,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

type CheckoutResponse struct {
	Type         OrderType     `json:"type"`
	OrderID      string        `json:"orderId"`
	PublicCode   string        `json:"publicCode"`
	GatewayOrder *GatewayOrder `json:"gatewayOrder,omitempty"`
}

type VerifyRequest struct {
	OrderID          string `json:"orderId,omitempty"`
	GatewayOrderID   string `json:"gatewayOrderId" validate:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
	AmountMinor      int64  `json:"amount"`
	Currency         string `json:"currency"`
}

type OrderRecord struct {
	ID                string      `json:"id"`
	PublicCode        string      `json:"publicCode"`
	Type              OrderType   `json:"type"`
	Flow              Flow        `json:"flow"`
	Status            OrderStatus `json:"status"`
	CustomerID        string      `json:"customerId"`
	Address           Address     `json:"address"`
	Items             []OrderItem `json:"items"`
	DeliveryPartnerID string      `json:"deliveryPartnerId,omitempty"`
	CouponCode        string      `json:"couponCode,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	ItemsSubtotal     Money       `json:"itemsSubtotal"`
	ShippingFee       Money       `json:"shippingFee"`
	DiscountTotal     Money       `json:"discountTotal"`
	GrandTotal        Money       `json:"grandTotal"`
	Currency          string      `json:"currency"`
	GatewayProvider   string      `json:"gatewayProvider,omitempty"`
	GatewayOrderID    string      `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID  string      `json:"gatewayPaymentId,omitempty"`
	FailureReason     string      `json:"failureReason,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	LastModified      *time.Time  `json:"lastModified,omitempty"`
	PaidAt            *time.Time  `json:"paidAt,omitempty"`
}

// RejectionStaleInput is the reason given when submitted totals no longer match the server's own calculation.
const RejectionStaleInput = "STALE_INPUT"
