// internal/domain/sale/errors.go
package sale

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind tells the caller what to do about a failed sale
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthenticated means no acting user was supplied.
	KindUnauthenticated
	// KindRequestDefect means the cart itself is malformed; fix and resubmit.
	KindRequestDefect
	// KindStateConflict means the catalog disagrees with the cart; refresh and retry.
	KindStateConflict
	// KindPersistence means the store failed; nothing was committed.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRequestDefect:
		return "request_defect"
	case KindStateConflict:
		return "state_conflict"
	case KindPersistence:
		return "persistence_failure"
	}
	return "unknown"
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrEmptyCart       = errors.New("no items in cart")
)

// InvalidLineItemError names the offending cart line by its 1-based position
type InvalidLineItemError struct {
	Index  int
	Label  string
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("item %d (%s): %s", e.Index, e.Label, e.Reason)
}

// InvalidTotalError is raised for a missing, non-numeric or non-positive total,
// an amount a money column cannot store, or a total that does not add up.
type InvalidTotalError struct {
	Reason string
}

func (e *InvalidTotalError) Error() string {
	return e.Reason
}

// InvalidPaymentMethodError is raised for a method this till does not accept
type InvalidPaymentMethodError struct {
	Method  string
	Allowed []string
}

func (e *InvalidPaymentMethodError) Error() string {
	return fmt.Sprintf("payment method %q is not accepted", e.Method)
}

// ProductNotFoundError means a cart line references an unknown product
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ProductID)
}

// InsufficientStockError means a product cannot cover the requested quantity
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// PriceMismatchError means the declared unit price differs from the catalog
type PriceMismatchError struct {
	Index        int
	ProductID    uint
	ProductName  string
	Declared     decimal.Decimal
	CatalogPrice decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("item %d (%s): price %s does not match current price %s",
		e.Index, e.ProductName, e.Declared.StringFixed(2), e.CatalogPrice.StringFixed(2))
}

// PersistenceError wraps a storage failure. The transaction has been rolled
// back when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by the processor
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		lineErr    *InvalidLineItemError
		totalErr   *InvalidTotalError
		payErr     *InvalidPaymentMethodError
		notFound   *ProductNotFoundError
		stockErr   *InsufficientStockError
		priceErr   *PriceMismatchError
		persistErr *PersistenceError
	)

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrEmptyCart),
		errors.As(err, &lineErr),
		errors.As(err, &totalErr),
		errors.As(err, &payErr):
		return KindRequestDefect
	case errors.As(err, &notFound),
		errors.As(err, &stockErr),
		errors.As(err, &priceErr):
		return KindStateConflict
	case errors.As(err, &persistErr):
		return KindPersistence
	}
	return KindUnknown
}
