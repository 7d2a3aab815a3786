package checkoutapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The backend has shipped several shapes of the same payloads over time (camelCase, snake_case,
// wrapped in "data", ids under different names). Every response read by the storefront
// passes through the functions below so the rest of the code sees only the types of this package.

type fields map[string]any

func decodeFields(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any
	err := decoder.Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return unwrap(raw), nil
}

// unwrap strips a {"data": ...} envelope.
func unwrap(raw any) any {
	if obj, ok := raw.(map[string]any); ok {
		if inner, found := obj["data"]; found && len(obj) <= 3 {
			if _, isObj := inner.(map[string]any); isObj {
				return inner
			}
			if _, isList := inner.([]any); isList {
				return inner
			}
		}
	}
	return raw
}

func asFields(raw any) (fields, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", raw)
	}
	return fields(obj), nil
}

func (f fields) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, found := f[k]; found && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(keys ...string) string {
	v, found := f.lookup(keys...)
	if !found {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func (f fields) boolean(keys ...string) bool {
	v, found := f.lookup(keys...)
	if !found {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case json.Number:
		return t.String() != "0"
	}
	return false
}

func (f fields) integer(keys ...string) (int64, error) {
	v, found := f.lookup(keys...)
	if !found {
		return 0, nil
	}
	switch t := v.(type) {
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	}
	return 0, fmt.Errorf("field %s is not an integer", keys[0])
}

func (f fields) money(keys ...string) (Money, bool, error) {
	v, found := f.lookup(keys...)
	if !found {
		return 0, false, nil
	}
	switch t := v.(type) {
	case json.Number:
		m, err := ParseMoney(t.String())
		return m, true, err
	case string:
		m, err := ParseMoney(t)
		return m, true, err
	}
	return 0, false, fmt.Errorf("field %s is not an amount", keys[0])
}

func (f fields) object(keys ...string) (fields, bool) {
	v, found := f.lookup(keys...)
	if !found {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return fields(obj), ok
}

func (f fields) timestamp(keys ...string) time.Time {
	ts, _ := time.Parse(time.RFC3339, f.str(keys...))
	return ts
}

func NormalizeAddresses(data []byte) ([]Address, error) {
	raw, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	if obj, ok := raw.(map[string]any); ok {
		if list, found := fields(obj).lookup("addresses", "items", "results"); found {
			raw = list
		}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list of addresses, got %T", raw)
	}

	addresses := make([]Address, 0, len(list))
	for _, item := range list {
		f, err := asFields(item)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, normalizeAddress(f))
	}
	return addresses, nil
}

func normalizeAddress(f fields) Address {
	address := Address{
		ID:         f.str("id", "_id", "addressId", "address_id"),
		CustomerID: f.str("customerId", "customer_id", "userId", "user_id"),
		Name:       f.str("name", "fullName", "full_name"),
		Phone:      f.str("phone", "phoneNumber", "phone_number", "mobile"),
		Line1:      f.str("line1", "addressLine1", "address_line1", "street"),
		Line2:      f.str("line2", "addressLine2", "address_line2"),
		CountryID:  f.str("countryId", "country_id", "country"),
		StateID:    f.str("stateId", "state_id", "state"),
		DistrictID: f.str("districtId", "district_id", "district"),
		Pincode:    f.str("pincode", "pinCode", "postalCode", "postal_code", "zip"),
		IsDefault:  f.boolean("isDefault", "is_default", "default"),
		Active:     true,
	}
	if _, found := f.lookup("active", "isActive", "is_active"); found {
		address.Active = f.boolean("active", "isActive", "is_active")
	}
	if nested, ok := f.object("country"); ok {
		address.CountryID = nested.str("id", "code", "isoCode")
	}
	if nested, ok := f.object("state"); ok {
		address.StateID = nested.str("id", "code")
	}
	if nested, ok := f.object("district"); ok {
		address.DistrictID = nested.str("id", "code")
	}
	return address
}

func NormalizeShippingQuote(data []byte) (ShippingPreviewResponse, error) {
	raw, err := decodeFields(data)
	if err != nil {
		return ShippingPreviewResponse{}, err
	}
	f, err := asFields(raw)
	if err != nil {
		return ShippingPreviewResponse{}, err
	}

	fee, found, err := f.money("fee", "shippingFee", "shipping_fee", "deliveryFee", "delivery_fee")
	if err != nil {
		return ShippingPreviewResponse{}, err
	}
	if !found {
		// an absent fee must never be read as free shipping
		return ShippingPreviewResponse{}, fmt.Errorf("shipping quote without fee")
	}
	return ShippingPreviewResponse{
		Fee:                 fee,
		FreeShippingApplied: f.boolean("freeShippingApplied", "free_shipping_applied", "freeShipping"),
		RuleID:              f.str("ruleId", "rule_id"),
	}, nil
}

func NormalizeCouponPreview(data []byte) (CouponPreviewResponse, error) {
	raw, err := decodeFields(data)
	if err != nil {
		return CouponPreviewResponse{}, err
	}
	f, err := asFields(raw)
	if err != nil {
		return CouponPreviewResponse{}, err
	}

	discount, found, err := f.money("discount", "discountAmount", "discount_amount", "amount")
	if err != nil {
		return CouponPreviewResponse{}, err
	}
	if !found {
		return CouponPreviewResponse{}, fmt.Errorf("coupon preview without discount")
	}
	return CouponPreviewResponse{
		Code:     f.str("code", "couponCode", "coupon_code"),
		Discount: discount,
	}, nil
}

// NormalizeRejection extracts the rejection reason of an error response.
func NormalizeRejection(data []byte) (string, string) {
	raw, err := decodeFields(data)
	if err != nil {
		return "", ""
	}
	f, err := asFields(raw)
	if err != nil {
		return "", ""
	}
	return strings.ToUpper(f.str("Reason", "reason", "code", "errorReason")), f.str("Message", "message", "error", "detail")
}

func NormalizeCheckoutResponse(data []byte) (CheckoutResponse, error) {
	raw, err := decodeFields(data)
	if err != nil {
		return CheckoutResponse{}, err
	}
	f, err := asFields(raw)
	if err != nil {
		return CheckoutResponse{}, err
	}

	resp := CheckoutResponse{
		Type:       OrderType(strings.ToUpper(f.str("type", "orderType", "order_type"))),
		OrderID:    f.str("orderId", "order_id", "id"),
		PublicCode: f.str("publicCode", "public_code", "orderCode", "code"),
	}
	if resp.OrderID == "" {
		return CheckoutResponse{}, fmt.Errorf("checkout response without order id")
	}

	if g, found := f.object("gatewayOrder", "gateway_order", "razorpayOrder", "paymentOrder"); found {
		amount, err := g.integer("amount", "amountMinor", "amount_minor")
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("invalid gateway order amount: %w", err)
		}
		resp.GatewayOrder = &GatewayOrder{
			ID:           g.str("id", "gatewayOrderId", "gateway_order_id", "orderId"),
			Provider:     g.str("provider"),
			KeyID:        g.str("keyId", "key_id", "key"),
			AmountMinor:  amount,
			Currency:     strings.ToUpper(g.str("currency")),
			CheckoutURL:  g.str("checkoutUrl", "checkout_url"),
			ClientSecret: g.str("clientSecret", "client_secret"),
		}
		if resp.GatewayOrder.ID == "" {
			return CheckoutResponse{}, fmt.Errorf("gateway order without id")
		}
	}

	if resp.Type == "" {
		resp.Type = OrderTypeManual
		if resp.GatewayOrder != nil {
			resp.Type = OrderTypeGateway
		}
	}
	if resp.Type == OrderTypeGateway && resp.GatewayOrder == nil {
		return CheckoutResponse{}, fmt.Errorf("gateway checkout response without gateway order")
	}
	return resp, nil
}

func NormalizeOrderRecord(data []byte) (OrderRecord, error) {
	raw, err := decodeFields(data)
	if err != nil {
		return OrderRecord{}, err
	}
	f, err := asFields(raw)
	if err != nil {
		return OrderRecord{}, err
	}
	if nested, found := f.object("order"); found {
		f = nested
	}

	order := OrderRecord{
		ID:               f.str("id", "orderId", "order_id"),
		PublicCode:       f.str("publicCode", "public_code", "orderCode"),
		Type:             OrderType(strings.ToUpper(f.str("type"))),
		Flow:             Flow(strings.ToUpper(f.str("flow"))),
		Status:           OrderStatus(strings.ToUpper(f.str("status", "orderStatus", "order_status"))),
		CustomerID:       f.str("customerId", "customer_id"),
		CouponCode:       f.str("couponCode", "coupon_code"),
		Currency:         strings.ToUpper(f.str("currency")),
		GatewayOrderID:   f.str("gatewayOrderId", "gateway_order_id"),
		GatewayPaymentID: f.str("gatewayPaymentId", "gateway_payment_id", "paymentId"),
		CreatedAt:        f.timestamp("createdAt", "created_at"),
	}
	if order.ID == "" {
		return OrderRecord{}, fmt.Errorf("order without id")
	}

	amounts := []struct {
		target *Money
		keys   []string
	}{
		{&order.ItemsSubtotal, []string{"itemsSubtotal", "items_subtotal", "subtotal"}},
		{&order.ShippingFee, []string{"shippingFee", "shipping_fee", "deliveryFee"}},
		{&order.DiscountTotal, []string{"discountTotal", "discount_total", "discount"}},
		{&order.GrandTotal, []string{"grandTotal", "grand_total", "total"}},
	}
	for _, a := range amounts {
		value, _, err := f.money(a.keys...)
		if err != nil {
			return OrderRecord{}, err
		}
		*a.target = value
	}
	return order, nil
}
