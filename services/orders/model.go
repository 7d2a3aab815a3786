package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

// Order is the stored form of an OrderRecord. Nested values are kept as json because datastore
// cannot hold a slice of structs next to other nested structs.
type Order struct {
	UID               string
	PublicCode        string
	Type              checkoutapi.OrderType
	Flow              checkoutapi.Flow
	Status            checkoutapi.OrderStatus
	CustomerID        string
	AddressJSON       string `datastore:",noindex"`
	ItemsJSON         string `datastore:",noindex"`
	DeliveryPartnerID string
	CouponCode        string
	Notes             string `datastore:",noindex"`
	ItemsSubtotal     checkoutapi.Money
	ShippingFee       checkoutapi.Money
	DiscountTotal     checkoutapi.Money
	GrandTotal        checkoutapi.Money
	Currency          string
	GatewayProvider   string
	GatewayOrderID    string
	GatewayPaymentID  string
	FailureReason     string `datastore:",noindex"`
	CreatedAt         time.Time
	LastModified      *time.Time
	PaidAt            *time.Time
}

func newOrder(record checkoutapi.OrderRecord) (Order, error) {
	addressJSON, err := json.Marshal(record.Address)
	if err != nil {
		return Order{}, fmt.Errorf("error serializing address of order %s: %w", record.ID, err)
	}
	itemsJSON, err := json.Marshal(record.Items)
	if err != nil {
		return Order{}, fmt.Errorf("error serializing items of order %s: %w", record.ID, err)
	}

	return Order{
		UID:               record.ID,
		PublicCode:        record.PublicCode,
		Type:              record.Type,
		Flow:              record.Flow,
		Status:            record.Status,
		CustomerID:        record.CustomerID,
		AddressJSON:       string(addressJSON),
		ItemsJSON:         string(itemsJSON),
		DeliveryPartnerID: record.DeliveryPartnerID,
		CouponCode:        record.CouponCode,
		Notes:             record.Notes,
		ItemsSubtotal:     record.ItemsSubtotal,
		ShippingFee:       record.ShippingFee,
		DiscountTotal:     record.DiscountTotal,
		GrandTotal:        record.GrandTotal,
		Currency:          record.Currency,
		GatewayProvider:   record.GatewayProvider,
		GatewayOrderID:    record.GatewayOrderID,
		GatewayPaymentID:  record.GatewayPaymentID,
		FailureReason:     record.FailureReason,
		CreatedAt:         record.CreatedAt,
		LastModified:      record.LastModified,
		PaidAt:            record.PaidAt,
	}, nil
}

func (o Order) Record() (checkoutapi.OrderRecord, error) {
	record := checkoutapi.OrderRecord{
		ID:                o.UID,
		PublicCode:        o.PublicCode,
		Type:              o.Type,
		Flow:              o.Flow,
		Status:            o.Status,
		CustomerID:        o.CustomerID,
		DeliveryPartnerID: o.DeliveryPartnerID,
		CouponCode:        o.CouponCode,
		Notes:             o.Notes,
		ItemsSubtotal:     o.ItemsSubtotal,
		ShippingFee:       o.ShippingFee,
		DiscountTotal:     o.DiscountTotal,
		GrandTotal:        o.GrandTotal,
		Currency:          o.Currency,
		GatewayProvider:   o.GatewayProvider,
		GatewayOrderID:    o.GatewayOrderID,
		GatewayPaymentID:  o.GatewayPaymentID,
		FailureReason:     o.FailureReason,
		CreatedAt:         o.CreatedAt,
		LastModified:      o.LastModified,
		PaidAt:            o.PaidAt,
	}
	if o.AddressJSON != "" {
		err := json.Unmarshal([]byte(o.AddressJSON), &record.Address)
		if err != nil {
			return record, fmt.Errorf("error parsing address of order %s: %w", o.UID, err)
		}
	}
	if o.ItemsJSON != "" {
		err := json.Unmarshal([]byte(o.ItemsJSON), &record.Items)
		if err != nil {
			return record, fmt.Errorf("error parsing items of order %s: %w", o.UID, err)
		}
	}
	return record, nil
}

// staleInputError is returned when the client computed totals the server no longer agrees with.
type staleInputError struct {
	field    string
	client   checkoutapi.Money
	computed checkoutapi.Money
}

func (e staleInputError) Error() string {
	return fmt.Sprintf("submitted %s %s differs from current %s", e.field, e.client, e.computed)
}

func (e staleInputError) Reason() string {
	return checkoutapi.RejectionStaleInput
}

func publicCodeOf(orderID string) string {
	code := orderID
	if len(code) > 8 {
		code = code[:8]
	}
	return "ORD-" + strings.ToUpper(code)
}
