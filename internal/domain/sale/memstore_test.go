package sale

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store with all-or-nothing commits
type memStore struct {
	mu       sync.Mutex
	products map[uint]ProductSnapshot
	sales    []Sale
	items    []SaleItem
	nextID   uint

	// failOp makes the named Tx operation fail with errBoom.
	failOp string
	// failAfter lets that many calls of failOp succeed first.
	failAfter int
	// beforeDecrement runs inside DecrementStock before the stock check.
	beforeDecrement func(products map[uint]ProductSnapshot)

	txCount int
}

var errBoom = errors.New("connection reset by peer")

func newMemStore() *memStore {
	return &memStore{products: map[uint]ProductSnapshot{}}
}

func (m *memStore) addProduct(id uint, name string, stock int, price string) {
	m.products[id] = ProductSnapshot{
		ID:           id,
		Name:         name,
		Stock:        stock,
		SellingPrice: decimal.RequireFromString(price),
	}
}

func (m *memStore) stock(id uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memTx{
		store:    m,
		products: make(map[uint]ProductSnapshot, len(m.products)),
		nextID:   m.nextID,
	}
	for id, p := range m.products {
		tx.products[id] = p
	}

	if err := fn(tx); err != nil {
		return err
	}

	m.products = tx.products
	m.sales = append(m.sales, tx.sales...)
	m.items = append(m.items, tx.items...)
	m.nextID = tx.nextID
	return nil
}

type memTx struct {
	store    *memStore
	products map[uint]ProductSnapshot
	sales    []Sale
	items    []SaleItem
	nextID   uint
	calls    map[string]int
}

func (t *memTx) fail(op string) error {
	if t.store.failOp != op {
		return nil
	}
	if t.calls == nil {
		t.calls = map[string]int{}
	}
	t.calls[op]++
	if t.calls[op] > t.store.failAfter {
		return errBoom
	}
	return nil
}

func (t *memTx) GetProduct(ctx context.Context, id uint) (*ProductSnapshot, error) {
	if err := t.fail("get product"); err != nil {
		return nil, err
	}
	p, ok := t.products[id]
	if !ok {
		return nil, ErrNoSuchProduct
	}
	return &p, nil
}

func (t *memTx) CreateSale(ctx context.Context, s *Sale) error {
	if err := t.fail("create sale"); err != nil {
		return err
	}
	t.nextID++
	s.ID = t.nextID
	t.sales = append(t.sales, *s)
	return nil
}

func (t *memTx) CreateSaleItem(ctx context.Context, item *SaleItem) error {
	if err := t.fail("create sale item"); err != nil {
		return err
	}
	t.nextID++
	item.ID = t.nextID
	t.items = append(t.items, *item)
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, d StockDecrement) (int, error) {
	if err := t.fail("decrement stock"); err != nil {
		return 0, err
	}
	if t.store.beforeDecrement != nil {
		t.store.beforeDecrement(t.products)
	}
	p, ok := t.products[d.ProductID]
	if !ok || p.Stock < d.Quantity {
		return 0, ErrStockUnavailable
	}
	p.Stock -= d.Quantity
	t.products[d.ProductID] = p
	return p.Stock, nil
}
