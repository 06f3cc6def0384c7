// internal/domain/sale/store.go
package sale

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoSuchProduct is returned by Tx.GetProduct for an unknown id.
	ErrNoSuchProduct = errors.New("product does not exist")
	// ErrStockUnavailable is returned by Tx.DecrementStock when the
	// conditional update matched no row.
	ErrStockUnavailable = errors.New("stock unavailable")
)

// ProductSnapshot is the catalog state a checkout is validated against
type ProductSnapshot struct {
	ID           uint
	Name         string
	Stock        int
	SellingPrice decimal.Decimal
}

// StockDecrement removes Quantity units of a product on behalf of a sale
type StockDecrement struct {
	ProductID uint
	Quantity  int
	SaleID    uint
	UserID    uint
}

// Tx is the unit of work a sale runs in. Everything done through one Tx
// commits or rolls back together.
type Tx interface {
	GetProduct(ctx context.Context, id uint) (*ProductSnapshot, error)
	CreateSale(ctx context.Context, s *Sale) error
	CreateSaleItem(ctx context.Context, item *SaleItem) error
	// DecrementStock must subtract atomically and only if enough stock
	// remains, returning the stock left afterwards.
	DecrementStock(ctx context.Context, d StockDecrement) (int, error)
}

// Store opens units of work. fn may be invoked more than once when the
// store retries a transaction that lost a serialization race.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
