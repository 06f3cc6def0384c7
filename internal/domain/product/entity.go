// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item on the shop floor that can be rung up at the till
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;size:255" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	ImageURL     string          `gorm:"type:text" json:"image_url"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"selling_price"`
	Barcode      *string         `gorm:"uniqueIndex;size:100" json:"barcode"`
	Stock        int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	Sizes        pq.StringArray  `gorm:"type:text[]" json:"sizes"`
	Colors       pq.StringArray  `gorm:"type:text[]" json:"colors"`
	CategoryID   *uint           `gorm:"index" json:"category_id"`
	IsActive     bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
}

// Category groups products for browsing at the till and for reporting
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// BeforeSave trims the barcode and stores blanks as NULL so the unique index
// only applies to real codes.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Barcode != nil {
		code := strings.TrimSpace(*p.Barcode)
		if code == "" {
			p.Barcode = nil
		} else {
			p.Barcode = &code
		}
	}
	p.Name = strings.TrimSpace(p.Name)
	return nil
}

// Margin returns selling price minus cost price
func (p *Product) Margin() decimal.Decimal {
	return p.SellingPrice.Sub(p.CostPrice)
}

// IsLowStock reports whether stock is at or below the threshold
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock <= threshold
}

// MovementType describes why a product's stock changed
type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementRestock    MovementType = "restock"
	MovementAdjustment MovementType = "adjustment"
	MovementInitial    MovementType = "initial"
)

// StockMovement is an append-only ledger row for every stock change.
// Quantity is signed: negative for stock leaving the shelf.
type StockMovement struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ProductID  uint         `gorm:"not null;index" json:"product_id"`
	Type       MovementType `gorm:"not null;size:20;index" json:"type"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	StockAfter int          `gorm:"not null" json:"stock_after"`
	SaleID     *uint        `gorm:"index" json:"sale_id,omitempty"`
	UserID     *uint        `gorm:"index" json:"user_id,omitempty"`
	Note       string       `gorm:"size:255" json:"note"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName overrides the table name for StockMovement
func (StockMovement) TableName() string { return "stock_movements" }
