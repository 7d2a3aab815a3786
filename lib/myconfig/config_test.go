package myconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "IN", cfg.App.HomeCountry)
		assert.Equal(t, "INR", cfg.App.Currency)
		assert.Equal(t, "signature", cfg.Gateway.Provider)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, 15*time.Minute, cfg.Storefront.WidgetTimeout)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("CHECKOUT_APP_PORT", "9090")
		t.Setenv("CHECKOUT_GATEWAY_KEYSECRET", "s3cr3t")
		t.Setenv("CHECKOUT_REDIS_ENABLED", "true")
		t.Setenv("CHECKOUT_STOREFRONT_VERIFYTIMEOUT", "5s")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "s3cr3t", cfg.Gateway.KeySecret)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Storefront.VerifyTimeout)
	})

	t.Run("Config file", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "checkout.yaml")
		err := os.WriteFile(filename, []byte("app:\n  homecountry: nl\n  currency: eur\ngateway:\n  provider: mollie\n"), 0o600)
		require.NoError(t, err)

		cfg, err := Load(filename)
		require.NoError(t, err)
		assert.Equal(t, "NL", cfg.App.HomeCountry)
		assert.Equal(t, "EUR", cfg.App.Currency)
		assert.Equal(t, "mollie", cfg.Gateway.Provider)
	})

	t.Run("Missing config file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("Unsupported provider", func(t *testing.T) {
		t.Setenv("CHECKOUT_GATEWAY_PROVIDER", "adyen")
		_, err := Load("")
		assert.Error(t, err)
	})
}
