// internal/domain/sale/gorm_store.go
package sale

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore runs sales against Postgres through gorm
type GormStore struct {
	db   *gorm.DB
	opts postgres.TxOptions
}

// NewGormStore creates a store using the configured retry budget
func NewGormStore(db *gorm.DB, cfg *config.Config) *GormStore {
	opts := postgres.DefaultTxOptions()
	opts.MaxRetries = cfg.Database.TxMaxRetries
	return &GormStore{db: db, opts: opts}
}

// WithinTx runs fn in one read-committed transaction, replaying it on
// serialization failures and deadlocks.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return postgres.WithRetry(ctx, s.db, s.opts, func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) GetProduct(ctx context.Context, id uint) (*ProductSnapshot, error) {
	var p product.Product
	err := t.db.WithContext(ctx).
		Select("id", "name", "stock", "selling_price").
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSuchProduct
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return &ProductSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Stock:        p.Stock,
		SellingPrice: p.SellingPrice,
	}, nil
}

func (t *gormTx) CreateSale(ctx context.Context, s *Sale) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (t *gormTx) CreateSaleItem(ctx context.Context, item *SaleItem) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (t *gormTx) DecrementStock(ctx context.Context, d StockDecrement) (int, error) {
	db := t.db.WithContext(ctx)

	result := db.Model(&product.Product{}).
		Where("id = ? AND stock >= ?", d.ProductID, d.Quantity).
		Update("stock", gorm.Expr("stock - ?", d.Quantity))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrStockUnavailable
	}

	var remaining int
	if err := db.Model(&product.Product{}).Select("stock").Where("id = ?", d.ProductID).Scan(&remaining).Error; err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}

	saleID, userID := d.SaleID, d.UserID
	movement := product.StockMovement{
		ProductID:  d.ProductID,
		Type:       product.MovementSale,
		Quantity:   -d.Quantity,
		StockAfter: remaining,
		SaleID:     &saleID,
		UserID:     &userID,
	}
	if err := db.Omit(clause.Associations).Create(&movement).Error; err != nil {
		return 0, fmt.Errorf("failed to record stock movement: %w", err)
	}

	return remaining, nil
}
