package checkoutapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddresses(t *testing.T) {
	t.Run("Plain camelCase list", func(t *testing.T) {
		addresses, err := NormalizeAddresses([]byte(`[{"id":"a1","customerId":"c1","name":"Asha","countryId":"IN","stateId":"KA","districtId":"BLR","pincode":"560001","isDefault":true,"active":true}]`))
		require.NoError(t, err)
		require.Len(t, addresses, 1)
		assert.Equal(t, Address{ID: "a1", CustomerID: "c1", Name: "Asha", CountryID: "IN", StateID: "KA", DistrictID: "BLR", Pincode: "560001", IsDefault: true, Active: true}, addresses[0])
	})

	t.Run("Wrapped snake_case with nested country", func(t *testing.T) {
		addresses, err := NormalizeAddresses([]byte(`{"data":[{"_id":"a2","user_id":"c1","country":{"id":"US"},"state_id":7,"postal_code":"10001","is_active":false}]}`))
		require.NoError(t, err)
		require.Len(t, addresses, 1)
		assert.Equal(t, "a2", addresses[0].ID)
		assert.Equal(t, "c1", addresses[0].CustomerID)
		assert.Equal(t, "US", addresses[0].CountryID)
		assert.Equal(t, "7", addresses[0].StateID)
		assert.Equal(t, "10001", addresses[0].Pincode)
		assert.False(t, addresses[0].Active)
	})

	t.Run("Named list", func(t *testing.T) {
		addresses, err := NormalizeAddresses([]byte(`{"addresses":[{"addressId":"a3"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "a3", addresses[0].ID)
		assert.True(t, addresses[0].Active)
	})

	t.Run("Not a list", func(t *testing.T) {
		_, err := NormalizeAddresses([]byte(`{"id":"a1"}`))
		assert.Error(t, err)
	})
}

func TestNormalizeShippingQuote(t *testing.T) {
	t.Run("fee", func(t *testing.T) {
		quote, err := NormalizeShippingQuote([]byte(`{"fee":50,"ruleId":"KA"}`))
		require.NoError(t, err)
		assert.Equal(t, MoneyFromMajor(50), quote.Fee)
		assert.Equal(t, "KA", quote.RuleID)
	})

	t.Run("deliveryFee as string", func(t *testing.T) {
		quote, err := NormalizeShippingQuote([]byte(`{"data":{"delivery_fee":"49.50","free_shipping_applied":false}}`))
		require.NoError(t, err)
		assert.Equal(t, Money(4950), quote.Fee)
	})

	t.Run("Zero fee is explicit", func(t *testing.T) {
		quote, err := NormalizeShippingQuote([]byte(`{"shippingFee":0,"freeShippingApplied":true}`))
		require.NoError(t, err)
		assert.Equal(t, Money(0), quote.Fee)
		assert.True(t, quote.FreeShippingApplied)
	})

	t.Run("Missing fee is an error", func(t *testing.T) {
		_, err := NormalizeShippingQuote([]byte(`{"ruleId":"KA"}`))
		assert.Error(t, err)
	})
}

func TestNormalizeCouponPreview(t *testing.T) {
	preview, err := NormalizeCouponPreview([]byte(`{"code":"WELCOME10","discountAmount":120}`))
	require.NoError(t, err)
	assert.Equal(t, CouponPreviewResponse{Code: "WELCOME10", Discount: MoneyFromMajor(120)}, preview)

	_, err = NormalizeCouponPreview([]byte(`{"code":"WELCOME10"}`))
	assert.Error(t, err)
}

func TestNormalizeRejection(t *testing.T) {
	reason, message := NormalizeRejection([]byte(`{"ErrorCode":1,"Message":"minimum order","Reason":"MIN_ORDER_NOT_MET"}`))
	assert.Equal(t, CouponMinOrderNotMet, reason)
	assert.Equal(t, "minimum order", message)

	reason, _ = NormalizeRejection([]byte(`{"code":"expired"}`))
	assert.Equal(t, CouponExpired, reason)
}

func TestNormalizeCheckoutResponse(t *testing.T) {
	t.Run("Gateway order", func(t *testing.T) {
		resp, err := NormalizeCheckoutResponse([]byte(`{"type":"GATEWAY_ORDER","orderId":"o1","publicCode":"ORD-1","gatewayOrder":{"id":"order_9","amount":113000,"currency":"inr","keyId":"rzp_test"}}`))
		require.NoError(t, err)
		assert.Equal(t, OrderTypeGateway, resp.Type)
		assert.Equal(t, "o1", resp.OrderID)
		require.NotNil(t, resp.GatewayOrder)
		assert.Equal(t, GatewayOrder{ID: "order_9", KeyID: "rzp_test", AmountMinor: 113000, Currency: "INR"}, *resp.GatewayOrder)
	})

	t.Run("Type inferred from snake_case gateway order", func(t *testing.T) {
		resp, err := NormalizeCheckoutResponse([]byte(`{"order_id":"o2","gateway_order":{"gateway_order_id":"g2","amount":"100"}}`))
		require.NoError(t, err)
		assert.Equal(t, OrderTypeGateway, resp.Type)
		assert.Equal(t, "g2", resp.GatewayOrder.ID)
	})

	t.Run("Manual", func(t *testing.T) {
		resp, err := NormalizeCheckoutResponse([]byte(`{"type":"manual","id":"o3"}`))
		require.NoError(t, err)
		assert.Equal(t, OrderTypeManual, resp.Type)
		assert.Nil(t, resp.GatewayOrder)
	})

	t.Run("Gateway type without gateway order", func(t *testing.T) {
		_, err := NormalizeCheckoutResponse([]byte(`{"type":"GATEWAY_ORDER","orderId":"o4"}`))
		assert.Error(t, err)
	})

	t.Run("Without order id", func(t *testing.T) {
		_, err := NormalizeCheckoutResponse([]byte(`{"type":"MANUAL"}`))
		assert.Error(t, err)
	})
}

func TestNormalizeOrderRecord(t *testing.T) {
	order, err := NormalizeOrderRecord([]byte(`{"order":{"id":"o1","publicCode":"ORD-1","status":"paid","grand_total":1130,"discount":"120","shippingFee":50,"itemsSubtotal":1200}}`))
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, order.Status)
	assert.Equal(t, MoneyFromMajor(1130), order.GrandTotal)
	assert.Equal(t, MoneyFromMajor(120), order.DiscountTotal)
	assert.Equal(t, MoneyFromMajor(50), order.ShippingFee)
	assert.Equal(t, MoneyFromMajor(1200), order.ItemsSubtotal)

	_, err = NormalizeOrderRecord([]byte(`{"status":"PAID"}`))
	assert.Error(t, err)
}
