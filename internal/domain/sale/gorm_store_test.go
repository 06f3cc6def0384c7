package sale_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/testutil/pgtest"
	"gorm.io/gorm"
)

func seedCashier(t *testing.T, db *gorm.DB) *sale.Actor {
	t.Helper()
	u := user.User{Username: "cashier", Email: "cashier@example.com", Password: "x", Role: user.RoleCashier, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return &sale.Actor{UserID: u.ID, Role: string(u.Role)}
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int, price string) *product.Product {
	t.Helper()
	p := product.Product{
		Name:         name,
		SellingPrice: decimal.RequireFromString(price),
		CostPrice:    decimal.Zero,
		Stock:        stock,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func line(productID uint, qty int, unit, total string) sale.LineItem {
	return sale.LineItem{
		ProductID:  sale.NumericFromInt(int(productID)),
		Quantity:   sale.NumericFromInt(qty),
		UnitPrice:  sale.NewNumeric(unit),
		TotalPrice: sale.NewNumeric(total),
	}
}

func currentStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func TestGormStore_Integration(t *testing.T) {
	db := pgtest.Start(t)
	cfg := pgtest.Config()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	processor := sale.NewProcessor(sale.NewGormStore(db, cfg), sale.OptionsFromConfig(cfg), log)
	cashier := seedCashier(t, db)
	ctx := context.Background()

	t.Run("commits header items movements and stock together", func(t *testing.T) {
		shirt := seedProduct(t, db, "Oxford Shirt", 10, "1000")

		committed, err := processor.ProcessSale(ctx, cashier, &sale.Request{
			Items:       []sale.LineItem{line(shirt.ID, 3, "1000", "3000")},
			TotalAmount: sale.NewNumeric("3300"),
			TaxAmount:   sale.NewNumeric("300"),
		})
		require.NoError(t, err)
		assert.Equal(t, 7, currentStock(t, db, shirt.ID))

		detail, err := sale.NewService(db, cfg).GetSale(ctx, committed.ID)
		require.NoError(t, err)
		require.Len(t, detail.Items, 1)
		assert.Equal(t, "Oxford Shirt", detail.Items[0].ProductName)
		require.NotNil(t, detail.Username)
		assert.Equal(t, "cashier", *detail.Username)

		var movements []product.StockMovement
		require.NoError(t, db.Where("sale_id = ?", committed.ID).Find(&movements).Error)
		require.Len(t, movements, 1)
		assert.Equal(t, product.MovementSale, movements[0].Type)
		assert.Equal(t, -3, movements[0].Quantity)
		assert.Equal(t, 7, movements[0].StockAfter)
	})

	t.Run("unknown product rolls back earlier lines", func(t *testing.T) {
		tote := seedProduct(t, db, "Canvas Tote", 4, "450")

		var before int64
		require.NoError(t, db.Model(&sale.Sale{}).Count(&before).Error)

		_, err := processor.ProcessSale(ctx, cashier, &sale.Request{
			Items: []sale.LineItem{
				line(tote.ID, 1, "450", "450"),
				line(999999, 1, "100", "100"),
			},
			TotalAmount: sale.NewNumeric("550"),
		})
		var notFound *sale.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)

		var after int64
		require.NoError(t, db.Model(&sale.Sale{}).Count(&after).Error)
		assert.Equal(t, before, after)
		assert.Equal(t, 4, currentStock(t, db, tote.ID))
	})

	t.Run("concurrent checkouts never oversell", func(t *testing.T) {
		scarf := seedProduct(t, db, "Silk Scarf", 5, "200")

		const buyers = 12
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := processor.ProcessSale(ctx, cashier, &sale.Request{
					Items:         []sale.LineItem{line(scarf.ID, 1, "200", "200")},
					TotalAmount:   sale.NewNumeric("200"),
					PaymentMethod: "card",
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
					return
				}
				var stockErr *sale.InsufficientStockError
				if assert.ErrorAs(t, err, &stockErr) {
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, succeeded)
		assert.Equal(t, buyers-5, rejected)
		assert.Equal(t, 0, currentStock(t, db, scarf.ID))

		var sold int64
		require.NoError(t, db.Model(&sale.SaleItem{}).Where("product_id = ?", scarf.ID).Count(&sold).Error)
		assert.Equal(t, int64(5), sold)
	})

	t.Run("stock check constraint holds at the database", func(t *testing.T) {
		belt := seedProduct(t, db, "Leather Belt", 1, "300")
		err := db.Model(&product.Product{}).Where("id = ?", belt.ID).Update("stock", -1).Error
		assert.Error(t, err)
		assert.Equal(t, 1, currentStock(t, db, belt.ID))
	})
}
