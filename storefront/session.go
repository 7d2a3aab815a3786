// Package storefront assembles a checkout session from configuration.
package storefront

import (
	"net/http"

	"github.com/MarcGrol/checkoutflow/lib/myconfig"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/storefront/backend"
	"github.com/MarcGrol/checkoutflow/storefront/cart"
	"github.com/MarcGrol/checkoutflow/storefront/checkout"
	"github.com/MarcGrol/checkoutflow/storefront/coupon"
	"github.com/MarcGrol/checkoutflow/storefront/handoff"
	"github.com/MarcGrol/checkoutflow/storefront/paymentwidget"
	"github.com/MarcGrol/checkoutflow/storefront/shippingquote"
)

type Customer struct {
	ID    string
	Name  string
	Phone string
	Email string
}

// Session is one checkout of one customer. ReturnHandler must be mounted where the gateway redirects
// the shopper after paying.
type Session struct {
	Backend       *backend.Client
	Checkout      *checkout.Orchestrator
	ReturnHandler http.Handler
}

func NewSession(cfg myconfig.Config, customer Customer, shoppingCart *cart.Cart, opener paymentwidget.LinkOpener) *Session {
	client := backend.New(cfg.Storefront.BackendBaseURL, cfg.Storefront.RequestTimeout)
	widget := paymentwidget.NewRedirectWidget(opener)

	orchestrator := checkout.New(checkout.Config{
		CustomerID:     customer.ID,
		Identity:       handoff.Identity{Name: customer.Name, Phone: customer.Phone, Email: customer.Email},
		HomeCountry:    cfg.App.HomeCountry,
		Currency:       cfg.App.Currency,
		ChannelAddress: cfg.Handoff.ChannelPhone,
		HandoffBaseURL: cfg.Handoff.BaseURL,
	},
		shoppingCart,
		shippingquote.NewEstimator(client, cfg.Storefront.QuoteDebounce, mytime.RealNower{}),
		coupon.NewValidator(client),
		paymentwidget.NewAdapter(client, widget, cfg.Storefront.WidgetTimeout, cfg.Storefront.VerifyTimeout),
		client,
		opener,
		myuuid.RealUUIDer{})

	return &Session{
		Backend:       client,
		Checkout:      orchestrator,
		ReturnHandler: widget,
	}
}
