// internal/domain/sale/processor.go
package sale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
)

// Options controls checkout validation
type Options struct {
	PaymentMethods      []string
	EnforceCatalogPrice bool
	PriceTolerance      decimal.Decimal
}

// OptionsFromConfig reads Options from the sale section of the config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PaymentMethods:      cfg.Sale.PaymentMethods,
		EnforceCatalogPrice: cfg.Sale.EnforceCatalogPrice,
		PriceTolerance:      cfg.Sale.PriceTolerance,
	}
}

// Processor turns a validated cart into a committed sale
type Processor struct {
	store Store
	opts  Options
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewProcessor creates a sale processor
func NewProcessor(store Store, opts Options, log logrus.FieldLogger) *Processor {
	return &Processor{
		store: store,
		opts:  opts,
		log:   log,
		now:   time.Now,
	}
}

// ProcessSale validates the cart, then in one transaction checks every line
// against the catalog, writes the sale header, and for each line writes the
// sale item and decrements stock. Any failure leaves no trace in the store.
func (p *Processor) ProcessSale(ctx context.Context, actor *Actor, req *Request) (*Sale, error) {
	if actor == nil || actor.UserID == 0 {
		return nil, ErrUnauthenticated
	}

	co, err := p.validate(req)
	if err != nil {
		p.reject(actor, err)
		return nil, err
	}

	var committed *Sale
	err = p.store.WithinTx(ctx, func(tx Tx) error {
		committed = nil

		snapshots, err := p.checkCatalog(ctx, tx, co)
		if err != nil {
			return err
		}

		userID := actor.UserID
		header := &Sale{
			ReceiptNumber: newReceiptNumber(p.now()),
			UserID:        &userID,
			TotalAmount:   co.total,
			TaxAmount:     co.tax,
			PaymentMethod: co.paymentMethod,
			Status:        StatusCompleted,
		}
		if err := tx.CreateSale(ctx, header); err != nil {
			return &PersistenceError{Op: "create sale", Err: err}
		}

		items := make([]SaleItem, 0, len(co.lines))
		for _, l := range co.lines {
			snap := snapshots[l.productID]
			productID := l.productID
			item := SaleItem{
				SaleID:      header.ID,
				ProductID:   &productID,
				ProductName: snap.Name,
				Quantity:    l.quantity,
				UnitPrice:   l.unitPrice,
				TotalPrice:  l.totalPrice,
				Size:        l.size,
				Color:       l.color,
			}
			if err := tx.CreateSaleItem(ctx, &item); err != nil {
				return &PersistenceError{Op: "create sale item", Err: err}
			}

			_, err := tx.DecrementStock(ctx, StockDecrement{
				ProductID: l.productID,
				Quantity:  l.quantity,
				SaleID:    header.ID,
				UserID:    actor.UserID,
			})
			if errors.Is(err, ErrStockUnavailable) {
				return p.stockConflict(ctx, tx, l.productID, co.quantityOf(l.productID))
			}
			if err != nil {
				return &PersistenceError{Op: "decrement stock", Err: err}
			}
			items = append(items, item)
		}

		header.Items = items
		committed = header
		return nil
	})
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = &PersistenceError{Op: "commit sale", Err: err}
		}
		p.reject(actor, err)
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"sale_id":        committed.ID,
		"receipt_number": committed.ReceiptNumber,
		"user_id":        actor.UserID,
		"total_amount":   committed.TotalAmount.String(),
		"lines":          len(committed.Items),
		"payment_method": committed.PaymentMethod,
	}).Info("sale completed")

	return committed, nil
}

// checkCatalog looks up every product before anything is written. Quantities
// of the same product on several lines count against the same stock.
func (p *Processor) checkCatalog(ctx context.Context, tx Tx, co *checkout) (map[uint]*ProductSnapshot, error) {
	snapshots := make(map[uint]*ProductSnapshot, len(co.lines))
	requested := make(map[uint]int, len(co.lines))

	for _, l := range co.lines {
		snap, ok := snapshots[l.productID]
		if !ok {
			var err error
			snap, err = tx.GetProduct(ctx, l.productID)
			if errors.Is(err, ErrNoSuchProduct) {
				return nil, &ProductNotFoundError{ProductID: l.productID}
			}
			if err != nil {
				return nil, &PersistenceError{Op: "look up product", Err: err}
			}
			snapshots[l.productID] = snap
		}

		requested[l.productID] += l.quantity
		if snap.Stock < requested[l.productID] {
			return nil, &InsufficientStockError{
				ProductID:   snap.ID,
				ProductName: snap.Name,
				Available:   snap.Stock,
				Requested:   requested[l.productID],
			}
		}

		if p.opts.EnforceCatalogPrice && !withinTolerance(l.unitPrice, snap.SellingPrice, p.opts.PriceTolerance) {
			return nil, &PriceMismatchError{
				Index:        l.index,
				ProductID:    snap.ID,
				ProductName:  snap.Name,
				Declared:     l.unitPrice,
				CatalogPrice: snap.SellingPrice,
			}
		}
	}

	return snapshots, nil
}

// stockConflict reports a conditional decrement that lost a race with a
// concurrent sale, using the stock as it stands now.
func (p *Processor) stockConflict(ctx context.Context, tx Tx, productID uint, requested int) error {
	snap, err := tx.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNoSuchProduct) {
			return &ProductNotFoundError{ProductID: productID}
		}
		return &PersistenceError{Op: "look up product", Err: err}
	}
	return &InsufficientStockError{
		ProductID:   snap.ID,
		ProductName: snap.Name,
		Available:   snap.Stock,
		Requested:   requested,
	}
}

func (p *Processor) reject(actor *Actor, err error) {
	entry := p.log.WithFields(logrus.Fields{
		"user_id": actor.UserID,
		"kind":    KindOf(err).String(),
	})
	if KindOf(err) == KindPersistence {
		entry.WithError(err).Error("sale failed")
		return
	}
	entry.WithField("reason", err.Error()).Warn("sale rejected")
}

// newReceiptNumber returns e.g. R20261019-1A2B3C4D
func newReceiptNumber(t time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("R%s-%s", t.UTC().Format("20060102"), id[:8])
}
