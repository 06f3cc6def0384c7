// internal/domain/settings/entity.go
package settings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the single row of store-wide configuration shown on receipts
type Settings struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	StoreName     string          `gorm:"not null;size:255;default:'My Store'" json:"store_name"`
	LogoURL       *string         `gorm:"type:text" json:"logo_url"`
	Address       string          `gorm:"type:text;not null;default:'Store Address'" json:"address"`
	TaxRate       decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0;check:chk_settings_tax_rate,tax_rate >= 0 AND tax_rate <= 100" json:"tax_rate"`
	Currency      string          `gorm:"not null;size:10;default:'LAK'" json:"currency"`
	ReceiptFooter string          `gorm:"type:text" json:"receipt_footer"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName overrides the table name for Settings
func (Settings) TableName() string {
	return "settings"
}

// Defaults is what a fresh install starts with
func Defaults() Settings {
	return Settings{
		StoreName:     "Clothing Store",
		Address:       "123 Main Street, Vientiane, Laos",
		TaxRate:       decimal.NewFromInt(10),
		Currency:      "LAK",
		ReceiptFooter: "Thank you for your purchase!",
	}
}

// Public is the subset of settings served without authentication
type Public struct {
	StoreName string          `json:"store_name"`
	LogoURL   *string         `json:"logo_url"`
	Address   string          `json:"address"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Currency  string          `json:"currency"`
}

// Public strips internal fields
func (s *Settings) Public() Public {
	return Public{
		StoreName: s.StoreName,
		LogoURL:   s.LogoURL,
		Address:   s.Address,
		TaxRate:   s.TaxRate,
		Currency:  s.Currency,
	}
}
