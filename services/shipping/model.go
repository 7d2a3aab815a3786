package shipping

import "github.com/MarcGrol/checkoutflow/services/checkoutapi"

// DeliveryRule gives the delivery fee for a destination. A rule without state is the default rule,
// a rule without district covers the whole state.
type DeliveryRule struct {
	UID                   string            `json:"uid"`
	StateID               string            `json:"stateId"`
	DistrictID            string            `json:"districtId"`
	Fee                   checkoutapi.Money `json:"fee" validate:"gte=0"`
	FreeShippingThreshold checkoutapi.Money `json:"freeShippingThreshold" validate:"gte=0"`
	Active                bool              `json:"active"`
}

func (r DeliveryRule) specificity() int {
	switch {
	case r.StateID != "" && r.DistrictID != "":
		return 2
	case r.StateID != "":
		return 1
	default:
		return 0
	}
}

func (r DeliveryRule) covers(stateID string, districtID string) bool {
	if r.StateID != "" && r.StateID != stateID {
		return false
	}
	if r.DistrictID != "" && r.DistrictID != districtID {
		return false
	}
	return true
}
