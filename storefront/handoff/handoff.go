// Package handoff builds the prefilled chat message used for orders that are quoted by hand.
package handoff

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/storefront/cart"
)

const DefaultBaseURL = "https://wa.me"

type Identity struct {
	Name  string
	Phone string
	Email string
}

type options struct {
	currency  string
	orderCode string
	notes     string
}

type Option func(*options)

func WithCurrency(currency string) Option {
	return func(o *options) {
		o.currency = currency
	}
}

func WithOrderCode(code string) Option {
	return func(o *options) {
		o.orderCode = code
	}
}

func WithNotes(notes string) Option {
	return func(o *options) {
		o.notes = notes
	}
}

func BuildHandoffMessage(identity Identity, address checkoutapi.Address, lines []cart.Line, subtotal checkoutapi.Money, opts ...Option) string {
	o := options{currency: "INR"}
	for _, opt := range opts {
		opt(&o)
	}

	sb := strings.Builder{}
	sb.WriteString("Hello! I would like a quote for this order.\n")
	if o.orderCode != "" {
		fmt.Fprintf(&sb, "Order: %s\n", o.orderCode)
	}

	sb.WriteString("\nCustomer\n")
	fmt.Fprintf(&sb, "%s\n", identity.Name)
	if identity.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", identity.Phone)
	}
	if identity.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", identity.Email)
	}

	sb.WriteString("\nShip to\n")
	fmt.Fprintf(&sb, "%s\n", formatAddress(address))

	sb.WriteString("\nItems\n")
	for i, l := range lines {
		name := l.Name
		if l.VariantLabel != "" {
			name = fmt.Sprintf("%s (%s)", l.Name, l.VariantLabel)
		}
		fmt.Fprintf(&sb, "%d. %s x%d @ %s = %s\n", i+1, name, l.Quantity, FormatMoney(l.UnitPrice, o.currency), FormatMoney(l.Total(), o.currency))
	}

	fmt.Fprintf(&sb, "\nSubtotal: %s", FormatMoney(subtotal, o.currency))
	if o.notes != "" {
		fmt.Fprintf(&sb, "\nNotes: %s", o.notes)
	}
	return sb.String()
}

func formatAddress(a checkoutapi.Address) string {
	parts := []string{}
	for _, p := range []string{a.Name, a.Line1, a.Line2, a.DistrictID, a.StateID, a.Pincode, a.CountryID} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	result := strings.Join(parts, ", ")
	if a.Phone != "" {
		result += "\nContact: " + a.Phone
	}
	return result
}

// BuildDeepLink opens a chat with channelAddress, a phone number in any notation.
func BuildDeepLink(channelAddress string, message string) (string, error) {
	return BuildDeepLinkOn(DefaultBaseURL, channelAddress, message)
}

func BuildDeepLinkOn(baseURL string, channelAddress string, message string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, channelAddress)
	if digits == "" {
		return "", fmt.Errorf("channel address %q holds no phone number", channelAddress)
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/" + digits)
	if err != nil {
		return "", fmt.Errorf("error composing deep link: %w", err)
	}
	u.RawQuery = url.Values{"text": []string{message}}.Encode()
	return u.String(), nil
}
