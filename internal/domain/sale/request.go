// internal/domain/sale/request.go
package sale

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Actor is the authenticated user ringing up the sale
type Actor struct {
	UserID uint
	Role   string
}

// LineItem is one cart line as submitted by the till
type LineItem struct {
	ProductID  Numeric `json:"product_id"`
	Name       string  `json:"name,omitempty"`
	Quantity   Numeric `json:"quantity"`
	UnitPrice  Numeric `json:"unit_price"`
	TotalPrice Numeric `json:"total_price"`
	Size       *string `json:"size,omitempty"`
	Color      *string `json:"color,omitempty"`
}

// Request is a proposed checkout
type Request struct {
	Items         []LineItem `json:"items"`
	TotalAmount   Numeric    `json:"total_amount"`
	TaxAmount     Numeric    `json:"tax_amount"`
	PaymentMethod string     `json:"payment_method"`
}

// line is a cart line that passed structural validation
type line struct {
	index      int
	label      string
	productID  uint
	quantity   int
	unitPrice  decimal.Decimal
	totalPrice decimal.Decimal
	size       *string
	color      *string
}

// checkout is a request that passed structural validation
type checkout struct {
	lines         []line
	total         decimal.Decimal
	tax           decimal.Decimal
	paymentMethod PaymentMethod
}

// quantityOf sums the quantity of productID over every line
func (co *checkout) quantityOf(productID uint) int {
	n := 0
	for _, l := range co.lines {
		if l.productID == productID {
			n += l.quantity
		}
	}
	return n
}

func (li *LineItem) label() string {
	if name := strings.TrimSpace(li.Name); name != "" {
		return name
	}
	return li.ProductID.String()
}

// validate performs every in-memory check, in request order, and returns
// the first violation.
func (p *Processor) validate(req *Request) (*checkout, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total, err := req.TotalAmount.Decimal()
	switch {
	case errors.Is(err, errAbsent):
		return nil, &InvalidTotalError{Reason: "total amount is required"}
	case err != nil:
		return nil, &InvalidTotalError{Reason: "total amount must be a valid number"}
	case !total.IsPositive():
		return nil, &InvalidTotalError{Reason: "total amount must be greater than 0"}
	case !amountFits(total):
		return nil, &InvalidTotalError{Reason: "total amount out of range"}
	}

	method, err := p.paymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	out := &checkout{
		lines:         make([]line, 0, len(req.Items)),
		total:         total,
		tax:           coerceTax(req.TaxAmount),
		paymentMethod: method,
	}
	if !amountFits(out.tax) {
		return nil, &InvalidTotalError{Reason: "tax amount out of range"}
	}

	subtotal := decimal.Zero
	for i := range req.Items {
		l, err := p.validateLine(i+1, &req.Items[i])
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(l.totalPrice)
		out.lines = append(out.lines, l)
	}

	if !withinTolerance(subtotal.Add(out.tax), out.total, p.opts.PriceTolerance) {
		return nil, &InvalidTotalError{
			Reason: "total amount " + out.total.StringFixed(2) +
				" does not equal items " + subtotal.StringFixed(2) +
				" plus tax " + out.tax.StringFixed(2),
		}
	}

	return out, nil
}

func (p *Processor) validateLine(index int, item *LineItem) (line, error) {
	if !item.ProductID.Present() || !item.Quantity.Present() ||
		!item.UnitPrice.Present() || !item.TotalPrice.Present() {
		return line{}, &InvalidLineItemError{Index: index, Reason: "missing required fields"}
	}

	bad := func(reason string) (line, error) {
		return line{}, &InvalidLineItemError{Index: index, Label: item.label(), Reason: reason}
	}

	productID, err := item.ProductID.Int()
	if err != nil || productID <= 0 {
		return bad("invalid product id")
	}
	quantity, err := item.Quantity.Int()
	if err != nil || quantity <= 0 {
		return bad("invalid quantity")
	}
	unitPrice, err := item.UnitPrice.Decimal()
	if err != nil || !unitPrice.IsPositive() {
		return bad("invalid unit price")
	}
	if !amountFits(unitPrice) {
		return bad("unit price out of range")
	}
	totalPrice, err := item.TotalPrice.Decimal()
	if err != nil || !totalPrice.IsPositive() {
		return bad("invalid total price")
	}
	if !amountFits(totalPrice) {
		return bad("total price out of range")
	}

	expected := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if !withinTolerance(totalPrice, expected, p.opts.PriceTolerance) {
		return bad("total price " + totalPrice.StringFixed(2) +
			" does not equal quantity x unit price " + expected.StringFixed(2))
	}

	return line{
		index:      index,
		label:      item.label(),
		productID:  uint(productID),
		quantity:   quantity,
		unitPrice:  unitPrice,
		totalPrice: totalPrice,
		size:       trimOptional(item.Size),
		color:      trimOptional(item.Color),
	}, nil
}

// paymentMethod defaults an empty method to cash and checks the rest
// against the methods this till accepts.
func (p *Processor) paymentMethod(raw string) (PaymentMethod, error) {
	method := strings.ToLower(strings.TrimSpace(raw))
	if method == "" {
		method = string(PaymentCash)
	}
	for _, allowed := range p.opts.PaymentMethods {
		if method == allowed {
			return PaymentMethod(method), nil
		}
	}
	return "", &InvalidPaymentMethodError{Method: raw, Allowed: p.opts.PaymentMethods}
}

// coerceTax treats a missing, unparsable or negative tax as zero
func coerceTax(n Numeric) decimal.Decimal {
	tax, err := n.Decimal()
	if err != nil || tax.IsNegative() {
		return decimal.Zero
	}
	return tax
}

// maxAmount is the largest value a decimal(12,2) money column holds
var maxAmount = decimal.RequireFromString("9999999999.99")

// amountFits reports whether d is storable as decimal(12,2) without
// overflowing or losing fractions of a cent.
func amountFits(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(maxAmount) && d.Equal(d.Truncate(2))
}

func withinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
