// Package pgtest starts a throwaway Postgres for integration tests
package pgtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/migrate"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config returns a configuration suitable for tests
func Config() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "pos-backend", Environment: "test"},
		Database: config.DatabaseConfig{TxMaxRetries: 3},
		JWT:      config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "pos-backend"},
		Security: config.SecurityConfig{BcryptCost: 4, MinPasswordLength: 6},
		Sale: config.SaleConfig{
			PaymentMethods:      []string{"cash", "card", "bank_transfer"},
			EnforceCatalogPrice: true,
			PriceTolerance:      decimal.RequireFromString("0.01"),
			LowStockThreshold:   10,
			DefaultListLimit:    50,
			MaxListLimit:        200,
		},
		Seed: config.SeedConfig{
			AdminUsername: "admin",
			AdminEmail:    "admin@example.com",
			AdminPassword: "admin123",
		},
	}
}

// Start runs postgres:14-alpine, migrates every model and returns a gorm
// handle. The test is skipped under -short or when Docker is unavailable.
func Start(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if err := migrate.NewMigration(db, Config(), log).RunAutoMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}
