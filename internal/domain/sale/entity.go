// internal/domain/sale/entity.go
package sale

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/user"
)

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Status of a sale. Only completed sales exist today.
type Status string

const StatusCompleted Status = "completed"

// Sale is the header row of a checkout. It is written once and never updated.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ReceiptNumber string          `gorm:"uniqueIndex;not null;size:32" json:"receipt_number"`
	UserID        *uint           `gorm:"index" json:"user_id"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_sales_total_amount,total_amount > 0" json:"total_amount"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;check:chk_sales_tax_amount,tax_amount >= 0" json:"tax_amount"`
	PaymentMethod PaymentMethod   `gorm:"not null;size:20;default:'cash';check:chk_sales_payment_method,payment_method IN ('cash','card','bank_transfer')" json:"payment_method"`
	Status        Status          `gorm:"not null;size:20;default:'completed';index" json:"status"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`

	// Relationships
	User  *user.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// SaleItem is one line of a sale. ProductID becomes NULL if the product is
// later deleted; ProductName keeps the line readable.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"not null;index" json:"sale_id"`
	ProductID   *uint           `gorm:"index" json:"product_id"`
	ProductName string          `gorm:"not null;size:255" json:"product_name"`
	Quantity    int             `gorm:"not null;check:chk_sale_items_quantity,quantity > 0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Size        *string         `gorm:"size:50" json:"size,omitempty"`
	Color       *string         `gorm:"size:50" json:"color,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

// TableName overrides
func (Sale) TableName() string     { return "sales" }
func (SaleItem) TableName() string { return "sale_items" }

// Subtotal is the sum of line totals
func (s *Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}
