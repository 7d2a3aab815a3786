package myconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Gateway     GatewayConfig
	Stripe      StripeConfig
	Mollie      MollieConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig
	Coupons     CouponsConfig
	Handoff     HandoffConfig
	Storefront  StorefrontConfig
}

type AppConfig struct {
	Port          string
	Environment   string
	PublicBaseURL string
	HomeCountry   string
	Currency      string
}

// GatewayConfig selects the payment provider: "signature", "stripe" or "mollie".
type GatewayConfig struct {
	Provider  string
	KeyID     string
	KeySecret string
	BaseURL   string
}

type StripeConfig struct {
	APIKey string
}

type MollieConfig struct {
	APIKey string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type CouponsConfig struct {
	PreviewsPerMinute int
	PreviewBurst      int
}

type HandoffConfig struct {
	BaseURL      string
	ChannelPhone string
}

type StorefrontConfig struct {
	BackendBaseURL string
	RequestTimeout time.Duration
	QuoteDebounce  time.Duration
	WidgetTimeout  time.Duration
	VerifyTimeout  time.Duration
}

// Load reads defaults, an optional yaml file and CHECKOUT_ prefixed environment variables,
// in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix("CHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Port:          v.GetString("app.port"),
			Environment:   v.GetString("app.environment"),
			PublicBaseURL: v.GetString("app.publicbaseurl"),
			HomeCountry:   strings.ToUpper(v.GetString("app.homecountry")),
			Currency:      strings.ToUpper(v.GetString("app.currency")),
		},
		Gateway: GatewayConfig{
			Provider:  v.GetString("gateway.provider"),
			KeyID:     v.GetString("gateway.keyid"),
			KeySecret: v.GetString("gateway.keysecret"),
			BaseURL:   v.GetString("gateway.baseurl"),
		},
		Stripe: StripeConfig{
			APIKey: v.GetString("stripe.apikey"),
		},
		Mollie: MollieConfig{
			APIKey: v.GetString("mollie.apikey"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Idempotency: IdempotencyConfig{
			TTL: v.GetDuration("idempotency.ttl"),
		},
		Coupons: CouponsConfig{
			PreviewsPerMinute: v.GetInt("coupons.previewsperminute"),
			PreviewBurst:      v.GetInt("coupons.previewburst"),
		},
		Handoff: HandoffConfig{
			BaseURL:      v.GetString("handoff.baseurl"),
			ChannelPhone: v.GetString("handoff.channelphone"),
		},
		Storefront: StorefrontConfig{
			BackendBaseURL: v.GetString("storefront.backendbaseurl"),
			RequestTimeout: v.GetDuration("storefront.requesttimeout"),
			QuoteDebounce:  v.GetDuration("storefront.quotedebounce"),
			WidgetTimeout:  v.GetDuration("storefront.widgettimeout"),
			VerifyTimeout:  v.GetDuration("storefront.verifytimeout"),
		},
	}

	err := cfg.validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.environment", "local")
	v.SetDefault("app.publicbaseurl", "")
	v.SetDefault("app.homecountry", "IN")
	v.SetDefault("app.currency", "INR")
	v.SetDefault("gateway.provider", "signature")
	v.SetDefault("gateway.keyid", "")
	v.SetDefault("gateway.keysecret", "")
	v.SetDefault("gateway.baseurl", "https://api.razorpay.com")
	v.SetDefault("stripe.apikey", "")
	v.SetDefault("mollie.apikey", "")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("idempotency.ttl", 24*time.Hour)
	v.SetDefault("coupons.previewsperminute", 20)
	v.SetDefault("coupons.previewburst", 5)
	v.SetDefault("handoff.baseurl", "https://wa.me")
	v.SetDefault("handoff.channelphone", "")
	v.SetDefault("storefront.backendbaseurl", "http://localhost:8080")
	v.SetDefault("storefront.requesttimeout", 10*time.Second)
	v.SetDefault("storefront.quotedebounce", 300*time.Millisecond)
	v.SetDefault("storefront.widgettimeout", 15*time.Minute)
	v.SetDefault("storefront.verifytimeout", 20*time.Second)
}

func (c Config) validate() error {
	switch c.Gateway.Provider {
	case "signature", "stripe", "mollie":
	default:
		return fmt.Errorf("unsupported gateway provider %q", c.Gateway.Provider)
	}
	if c.App.HomeCountry == "" {
		return errors.New("missing home country")
	}
	if c.App.Currency == "" {
		return errors.New("missing currency")
	}
	return nil
}
