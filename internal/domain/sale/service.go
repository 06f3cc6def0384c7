// internal/domain/sale/service.go
package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"gorm.io/gorm"
)

var ErrSaleNotFound = errors.New("sale not found")

// Service serves the read side of sales history
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new sale query service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListRequest represents sale list query parameters
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// Summary is a sale row as shown in the sales history table
type Summary struct {
	ID            uint            `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	UserID        *uint           `json:"user_id"`
	Username      *string         `json:"username"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        Status          `json:"status"`
	ItemCount     int             `json:"item_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Detail is a sale with its lines and the cashier who rang it up
type Detail struct {
	Sale
	Username *string `json:"username"`
}

// ListSales returns sales newest first. req is normalised to the limit and
// offset actually applied.
func (s *Service) ListSales(ctx context.Context, req *ListRequest) ([]Summary, int64, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.Sale.DefaultListLimit
	}
	if limit > s.config.Sale.MaxListLimit {
		limit = s.config.Sale.MaxListLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	req.Limit, req.Offset = limit, offset

	var total int64
	if err := s.db.WithContext(ctx).Model(&Sale{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	var rows []Summary
	err := s.db.WithContext(ctx).
		Table("sales s").
		Select(`s.id, s.receipt_number, s.user_id, u.username, s.total_amount, s.tax_amount,
			s.payment_method, s.status, s.created_at,
			COALESCE((SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.id), 0) AS item_count`).
		Joins("LEFT JOIN users u ON u.id = s.user_id").
		Order("s.created_at DESC, s.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	return rows, total, nil
}

// GetSale returns a sale with its items
func (s *Service) GetSale(ctx context.Context, id uint) (*Detail, error) {
	var sale Sale
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("User").
		First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}

	detail := &Detail{Sale: sale}
	if sale.User != nil {
		name := sale.User.Username
		detail.Username = &name
	}
	return detail, nil
}
