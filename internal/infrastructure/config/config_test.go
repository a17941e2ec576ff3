package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dropflow", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "manual", cfg.Fulfillment.Strategy)
	assert.Equal(t, 2, cfg.Fulfillment.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Fulfillment.AttemptTimeout)
	assert.Equal(t, 10*time.Second, cfg.Stripe.VerifyTimeout)
	assert.True(t, cfg.Fulfillment.BotHeadless)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "static", cfg.Catalog.Source)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DROPFLOW_APP_PORT", "9090")
	t.Setenv("DROPFLOW_FULFILLMENT_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 4, cfg.Fulfillment.Workers)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Stripe:      StripeConfig{VerifyTimeout: time.Second},
			Fulfillment: FulfillmentConfig{Strategy: "manual", Workers: 1, AttemptTimeout: time.Minute},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := base()
		cfg.Fulfillment.Strategy = "yolo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bot requires credentials", func(t *testing.T) {
		cfg := base()
		cfg.Fulfillment.Strategy = "bot"
		assert.Error(t, cfg.Validate())

		cfg.Fulfillment.SupplierEmail = "ops@example.com"
		cfg.Fulfillment.SupplierPass = "secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("worker and timeout bounds", func(t *testing.T) {
		cfg := base()
		cfg.Fulfillment.Workers = 0
		assert.Error(t, cfg.Validate())

		cfg = base()
		cfg.Fulfillment.AttemptTimeout = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "orders", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=orders sslmode=disable", d.DSN())
}
