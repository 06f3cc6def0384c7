// internal/domain/settings/service.go
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/redis"
	"gorm.io/gorm"
)

const publicCacheKey = "settings:public"

const (
	maxStoreNameLength = 255
	maxAddressLength   = 1000
	maxLogoLength      = 100000
	maxCurrencyLength  = 10
)

// ErrInvalidSettings wraps every validation failure of UpdateRequest
var ErrInvalidSettings = errors.New("invalid settings")

// Service handles store settings
type Service struct {
	db     *gorm.DB
	cache  redis.Cache
	config *config.Config
	log    logrus.FieldLogger
}

// NewService creates a new settings service. cache may be nil.
func NewService(db *gorm.DB, cache redis.Cache, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		cache:  cache,
		config: cfg,
		log:    log,
	}
}

// UpdateRequest represents a full replacement of the store settings
type UpdateRequest struct {
	StoreName     string          `json:"store_name"`
	LogoURL       *string         `json:"logo_url"`
	Address       string          `json:"address"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Currency      string          `json:"currency"`
	ReceiptFooter string          `json:"receipt_footer"`
}

// Validate checks the request and trims it in place
func (r *UpdateRequest) Validate() error {
	r.StoreName = strings.TrimSpace(r.StoreName)
	r.Address = strings.TrimSpace(r.Address)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.ReceiptFooter = strings.TrimSpace(r.ReceiptFooter)
	if r.LogoURL != nil {
		logo := strings.TrimSpace(*r.LogoURL)
		if logo == "" {
			r.LogoURL = nil
		} else {
			r.LogoURL = &logo
		}
	}

	switch {
	case r.StoreName == "" || r.Address == "":
		return fmt.Errorf("%w: store name and address are required", ErrInvalidSettings)
	case utf8.RuneCountInString(r.StoreName) > maxStoreNameLength:
		return fmt.Errorf("%w: store name is too long (max %d characters)", ErrInvalidSettings, maxStoreNameLength)
	case utf8.RuneCountInString(r.Address) > maxAddressLength:
		return fmt.Errorf("%w: address is too long (max %d characters)", ErrInvalidSettings, maxAddressLength)
	case r.LogoURL != nil && len(*r.LogoURL) > maxLogoLength:
		return fmt.Errorf("%w: logo image is too large (max 100KB)", ErrInvalidSettings)
	case r.TaxRate.IsNegative() || r.TaxRate.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: tax rate must be between 0 and 100", ErrInvalidSettings)
	case r.Currency == "" || utf8.RuneCountInString(r.Currency) > maxCurrencyLength:
		return fmt.Errorf("%w: invalid currency", ErrInvalidSettings)
	}
	return nil
}

// Get returns the store settings, creating the default row on first use
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	var st Settings
	err := s.db.WithContext(ctx).Order("id ASC").First(&st).Error
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve settings: %w", err)
	}

	st = Defaults()
	if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	return &st, nil
}

// GetPublic returns the public settings, from cache when possible. Any
// failure to read the database falls back to the defaults.
func (s *Service) GetPublic(ctx context.Context) Public {
	var cached Public
	if s.cache != nil {
		err := s.cache.GetJSON(ctx, publicCacheKey, &cached)
		if err == nil {
			return cached
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.log.WithError(err).Warn("settings cache read failed")
		}
	}

	var st Settings
	if err := s.db.WithContext(ctx).Order("id ASC").First(&st).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.WithError(err).Warn("falling back to default settings")
		}
		def := Defaults()
		return def.Public()
	}

	public := st.Public()
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, publicCacheKey, public, s.config.Cache.PublicSettingsTTL); err != nil {
			s.log.WithError(err).Warn("settings cache write failed")
		}
	}
	return public
}

// Update replaces the settings row, or inserts it if there is none
func (s *Service) Update(ctx context.Context, req *UpdateRequest) (*Settings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var st Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("id ASC").First(&st).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		st.StoreName = req.StoreName
		st.LogoURL = req.LogoURL
		st.Address = req.Address
		st.TaxRate = req.TaxRate
		st.Currency = req.Currency
		st.ReceiptFooter = req.ReceiptFooter

		return tx.Save(&st).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.invalidate(ctx)
	return &st, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, publicCacheKey); err != nil {
		s.log.WithError(err).Warn("settings cache invalidation failed")
	}
}
