package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SALE_PAYMENT_METHODS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"cash", "card", "bank_transfer"}, cfg.Sale.PaymentMethods)
	assert.True(t, cfg.Sale.EnforceCatalogPrice)
	assert.True(t, cfg.Sale.PriceTolerance.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, 80, cfg.Receipt.PageWidthMM)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SALE_PAYMENT_METHODS", "cash, card")
	t.Setenv("SALE_PRICE_TOLERANCE", "0.5")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"cash", "card"}, cfg.Sale.PaymentMethods)
	assert.Equal(t, "0.5", cfg.Sale.PriceTolerance.String())
	assert.Equal(t, 3, cfg.Sale.LowStockThreshold)
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost", Name: "pos", User: "pos"},
		Redis:    RedisConfig{Host: "localhost"},
		JWT:      JWTConfig{Secret: "secret"},
		Sale: SaleConfig{
			PaymentMethods:   []string{"cash"},
			PriceTolerance:   decimal.Zero,
			DefaultListLimit: 50,
			MaxListLimit:     200,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWT.Secret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name: "short secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
			},
			wantErr: "at least 32 characters",
		},
		{
			name:    "non numeric port",
			mutate:  func(c *Config) { c.Server.Port = "http" },
			wantErr: "APP_PORT must be numeric",
		},
		{
			name:    "no payment methods",
			mutate:  func(c *Config) { c.Sale.PaymentMethods = nil },
			wantErr: "at least one method",
		},
		{
			name:    "unsupported payment method",
			mutate:  func(c *Config) { c.Sale.PaymentMethods = []string{"cash", "crypto"} },
			wantErr: `unsupported method "crypto"`,
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Sale.PriceTolerance = decimal.NewFromInt(-1) },
			wantErr: "must not be negative",
		},
		{
			name:    "default limit above max",
			mutate:  func(c *Config) { c.Sale.DefaultListLimit = 500 },
			wantErr: "SALE_LIST_DEFAULT_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
