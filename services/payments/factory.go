package payments

import (
	"fmt"

	"github.com/MarcGrol/checkoutflow/lib/myconfig"
)

func New(cfg myconfig.Config) (Gateway, error) {
	switch cfg.Gateway.Provider {
	case ProviderSignature:
		if cfg.Gateway.KeySecret == "" {
			return nil, fmt.Errorf("missing gateway key-secret")
		}
		return NewSignatureGateway(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.BaseURL), nil
	case ProviderStripe:
		return NewStripeGateway(cfg.Stripe.APIKey, NewStripePayer()), nil
	case ProviderMollie:
		payer, err := NewMolliePayer(cfg.App.Environment != "production")
		if err != nil {
			return nil, err
		}
		return NewMollieGateway(cfg.Mollie.APIKey, payer), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Gateway.Provider)
	}
}
