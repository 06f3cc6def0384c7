// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
)

var (
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")
	ErrNegativeStock     = errors.New("adjustment would make stock negative")
)

// Service handles manual stock changes and the movement ledger
type Service struct {
	db     *gorm.DB
	config *config.Config
	log    logrus.FieldLogger
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		log:    log,
	}
}

// AdjustmentRequest represents a restock or a manual correction.
// Restocks must be positive; adjustments may be negative.
type AdjustmentRequest struct {
	Type     product.MovementType `json:"type" binding:"required"`
	Quantity int                  `json:"quantity" binding:"required"`
	Note     string               `json:"note"`
}

// LowStockItem is a product at or below the alert threshold
type LowStockItem struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Barcode      string `json:"barcode"`
	Stock        int    `json:"stock"`
	CategoryName string `json:"category_name"`
}

// Validate checks the adjustment before any I/O
func (r *AdjustmentRequest) Validate() error {
	switch r.Type {
	case product.MovementRestock:
		if r.Quantity <= 0 {
			return fmt.Errorf("%w: restock quantity must be positive", ErrInvalidAdjustment)
		}
	case product.MovementAdjustment:
		if r.Quantity == 0 {
			return fmt.Errorf("%w: adjustment quantity must not be zero", ErrInvalidAdjustment)
		}
	default:
		return fmt.Errorf("%w: type must be restock or adjustment", ErrInvalidAdjustment)
	}
	if len(r.Note) > 255 {
		return fmt.Errorf("%w: note is too long", ErrInvalidAdjustment)
	}
	return nil
}

// AdjustStock applies a signed stock change with a conditional update so
// stock never drops below zero, and records the movement in the same
// transaction.
func (s *Service) AdjustStock(ctx context.Context, productID uint, req *AdjustmentRequest, userID uint) (*product.StockMovement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var movement *product.StockMovement
	opts := postgres.DefaultTxOptions()
	opts.MaxRetries = s.config.Database.TxMaxRetries

	err := postgres.WithRetry(ctx, s.db, opts, func(tx *gorm.DB) error {
		result := tx.Model(&product.Product{}).
			Where("id = ? AND stock + ? >= 0", productID, req.Quantity).
			Update("stock", gorm.Expr("stock + ?", req.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to update stock: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&product.Product{}).Where("id = ?", productID).Count(&exists).Error; err != nil {
				return fmt.Errorf("failed to check product: %w", err)
			}
			if exists == 0 {
				return product.ErrProductNotFound
			}
			return ErrNegativeStock
		}

		var stockAfter int
		if err := tx.Model(&product.Product{}).Select("stock").Where("id = ?", productID).Scan(&stockAfter).Error; err != nil {
			return fmt.Errorf("failed to read stock: %w", err)
		}

		movement = &product.StockMovement{
			ProductID:  productID,
			Type:       req.Type,
			Quantity:   req.Quantity,
			StockAfter: stockAfter,
			Note:       req.Note,
		}
		if userID != 0 {
			movement.UserID = &userID
		}
		if err := tx.Create(movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"product_id":  productID,
		"type":        req.Type,
		"quantity":    req.Quantity,
		"stock_after": movement.StockAfter,
		"user_id":     userID,
	}).Info("stock adjusted")

	return movement, nil
}

// GetMovements returns the newest movements for a product
func (s *Service) GetMovements(ctx context.Context, productID uint, limit int) ([]product.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var movements []product.StockMovement
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stock movements: %w", err)
	}
	return movements, nil
}

// GetLowStock lists active products at or below threshold, lowest first.
// A non-positive threshold falls back to the configured default.
func (s *Service) GetLowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	if threshold <= 0 {
		threshold = s.config.Sale.LowStockThreshold
	}

	var items []LowStockItem
	err := s.db.WithContext(ctx).
		Table("products p").
		Select("p.id, p.name, COALESCE(p.barcode, '') AS barcode, p.stock, COALESCE(c.name, '') AS category_name").
		Joins("LEFT JOIN categories c ON c.id = p.category_id").
		Where("p.is_active = ? AND p.stock <= ?", true, threshold).
		Order("p.stock ASC, p.name ASC").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve low stock products: %w", err)
	}
	return items, nil
}
