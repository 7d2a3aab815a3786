package shipping

import (
	"context"
	"fmt"

	"github.com/MarcGrol/checkoutflow/lib/myerrors"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type service struct {
	logger    mylog.Logger
	ruleStore mystore.Store[DeliveryRule]
}

func newService(logger mylog.Logger, ruleStore mystore.Store[DeliveryRule]) *service {
	return &service{
		logger:    logger,
		ruleStore: ruleStore,
	}
}

// Quote picks the most specific active rule: district over state over default.
// Without any matching rule the quote is unavailable, never free.
func (s *service) Quote(c context.Context, subtotal checkoutapi.Money, stateID string, districtID string) (checkoutapi.ShippingPreviewResponse, error) {
	rules, err := s.ruleStore.Query(c, []mystore.Filter{{Field: "Active", Compare: "=", Value: true}}, "")
	if err != nil {
		return checkoutapi.ShippingPreviewResponse{}, myerrors.NewInternalError(fmt.Errorf("error fetching delivery rules: %w", err))
	}

	var best *DeliveryRule
	for i, rule := range rules {
		if !rule.covers(stateID, districtID) {
			continue
		}
		if best == nil || rule.specificity() > best.specificity() {
			best = &rules[i]
		}
	}
	if best == nil {
		return checkoutapi.ShippingPreviewResponse{}, myerrors.NewUnprocessableError(fmt.Errorf("no delivery rule for state %q district %q", stateID, districtID))
	}

	quote := checkoutapi.ShippingPreviewResponse{
		Fee:    best.Fee,
		RuleID: best.UID,
	}
	if best.FreeShippingThreshold > 0 && subtotal >= best.FreeShippingThreshold {
		quote.Fee = 0
		quote.FreeShippingApplied = true
	}

	s.logger.Log(c, stateID, mylog.SeverityDebug, "Quoted fee %s for subtotal %s to %s/%s using rule %s", quote.Fee, subtotal, stateID, districtID, best.UID)

	return quote, nil
}

func (s *service) listRules(c context.Context) ([]DeliveryRule, error) {
	rules, err := s.ruleStore.Query(c, nil, "UID")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}
	return rules, nil
}

func (s *service) putRule(c context.Context, rule DeliveryRule) error {
	if rule.DistrictID != "" && rule.StateID == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("district rule %s needs a state", rule.UID))
	}

	err := s.ruleStore.Put(c, rule.UID, rule)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing delivery rule %s: %w", rule.UID, err))
	}
	return nil
}
