// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the POS backend
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Sale     SaleConfig
	Cache    CacheConfig
	Receipt  ReceiptConfig
	Logging  LoggingConfig
	Seed     SeedConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	TxMaxRetries int
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// JWTConfig contains JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	MinPasswordLength  int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// SaleConfig controls how checkouts are validated before they are committed.
type SaleConfig struct {
	PaymentMethods      []string
	EnforceCatalogPrice bool
	PriceTolerance      decimal.Decimal
	LowStockThreshold   int
	DefaultListLimit    int
	MaxListLimit        int
}

// CacheConfig contains TTLs for values cached in Redis
type CacheConfig struct {
	PublicSettingsTTL time.Duration
	DashboardStatsTTL time.Duration
}

// ReceiptConfig contains receipt PDF rendering options
type ReceiptConfig struct {
	PageWidthMM int
	DPI         uint
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// SeedConfig holds the bootstrap admin created on first start in development
type SeedConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "POS Backend"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 15*time.Second),
			MaxBodyBytes:   getEnvAsInt64("SERVER_MAX_BODY_BYTES", 2<<20),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "pos_db"),
			User:         getEnv("DB_USER", "pos_user"),
			Password:     getEnv("DB_PASSWORD", "pos_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
			TxMaxRetries: getEnvAsInt("DB_TX_MAX_RETRIES", 3),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "pos-backend-development-secret-change-me"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),
			Issuer:            getEnv("JWT_ISSUER", "pos-backend"),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			MinPasswordLength:  getEnvAsInt("MIN_PASSWORD_LENGTH", 6),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 300),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		Sale: SaleConfig{
			PaymentMethods:      getEnvAsSlice("SALE_PAYMENT_METHODS", []string{"cash", "card", "bank_transfer"}),
			EnforceCatalogPrice: getEnvAsBool("SALE_ENFORCE_CATALOG_PRICE", true),
			PriceTolerance:      getEnvAsDecimal("SALE_PRICE_TOLERANCE", decimal.NewFromFloat(0.01)),
			LowStockThreshold:   getEnvAsInt("LOW_STOCK_THRESHOLD", 10),
			DefaultListLimit:    getEnvAsInt("SALE_LIST_DEFAULT_LIMIT", 50),
			MaxListLimit:        getEnvAsInt("SALE_LIST_MAX_LIMIT", 200),
		},
		Cache: CacheConfig{
			PublicSettingsTTL: getEnvAsDuration("CACHE_PUBLIC_SETTINGS_TTL", 10*time.Minute),
			DashboardStatsTTL: getEnvAsDuration("CACHE_DASHBOARD_STATS_TTL", 30*time.Second),
		},
		Receipt: ReceiptConfig{
			PageWidthMM: getEnvAsInt("RECEIPT_PAGE_WIDTH_MM", 80),
			DPI:         uint(getEnvAsInt("RECEIPT_DPI", 203)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Seed: SeedConfig{
			AdminUsername: getEnv("SEED_ADMIN_USERNAME", "admin"),
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@store.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// supportedPaymentMethods mirrors the check constraint on sales.payment_method
var supportedPaymentMethods = map[string]bool{
	"cash":          true,
	"card":          true,
	"bank_transfer": true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("APP_PORT must be numeric: %w", err)
	}

	if len(c.Sale.PaymentMethods) == 0 {
		return fmt.Errorf("SALE_PAYMENT_METHODS must list at least one method")
	}
	for _, m := range c.Sale.PaymentMethods {
		if !supportedPaymentMethods[m] {
			return fmt.Errorf("SALE_PAYMENT_METHODS: unsupported method %q", m)
		}
	}
	if c.Sale.PriceTolerance.IsNegative() {
		return fmt.Errorf("SALE_PRICE_TOLERANCE must not be negative")
	}
	if c.Sale.DefaultListLimit <= 0 || c.Sale.MaxListLimit < c.Sale.DefaultListLimit {
		return fmt.Errorf("SALE_LIST_DEFAULT_LIMIT must be positive and not exceed SALE_LIST_MAX_LIMIT")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
