// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInvalidCategory   = errors.New("invalid category selected")
	ErrDuplicateBarcode  = errors.New("barcode already exists")
	ErrDuplicateCategory = errors.New("category name already exists")
	ErrProductHasSales   = errors.New("cannot delete product that has been sold")
	ErrCategoryInUse     = errors.New("cannot delete category with existing products")
	ErrInvalidInput      = errors.New("invalid input")
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=50"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	IsActive   *bool  `form:"is_active"`
	InStock    bool   `form:"in_stock"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name         string           `json:"name" binding:"required"`
	Description  string           `json:"description"`
	ImageURL     string           `json:"image_url"`
	CostPrice    *decimal.Decimal `json:"cost_price" binding:"required"`
	SellingPrice *decimal.Decimal `json:"selling_price" binding:"required"`
	Barcode      *string          `json:"barcode"`
	Stock        *int             `json:"stock" binding:"required"`
	Sizes        []string         `json:"sizes"`
	Colors       []string         `json:"colors"`
	CategoryID   *uint            `json:"category_id"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	ImageURL     *string          `json:"image_url"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Barcode      *string          `json:"barcode"`
	Stock        *int             `json:"stock"`
	Sizes        []string         `json:"sizes"`
	Colors       []string         `json:"colors"`
	CategoryID   *uint            `json:"category_id"`
	IsActive     *bool            `json:"is_active"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// maxImageURLBytes bounds inline data URLs stored in image_url
const maxImageURLBytes = 10 << 20

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 200 {
		req.Limit = 50
	}

	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{})

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Search != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(req.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR barcode LIKE ?", search, search)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.InStock {
		query = query.Where("stock > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Preload("Category").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(req.Limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ProductResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// GetProductByBarcode looks up an active product by its scanned barcode
func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("barcode = ? AND is_active = ?", strings.TrimSpace(barcode), true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// CreateProduct creates a product and records its opening stock
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest, userID uint) (*Product, error) {
	if err := validatePricing(req.CostPrice, req.SellingPrice, req.Stock); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if len(req.ImageURL) > maxImageURLBytes {
		return nil, fmt.Errorf("%w: image is too large", ErrInvalidInput)
	}

	product := Product{
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		CostPrice:    *req.CostPrice,
		SellingPrice: *req.SellingPrice,
		Barcode:      req.Barcode,
		Stock:        *req.Stock,
		Sizes:        cleanList(req.Sizes),
		Colors:       cleanList(req.Colors),
		CategoryID:   req.CategoryID,
		IsActive:     true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if product.Stock == 0 {
			return nil
		}
		return tx.Create(&StockMovement{
			ProductID:  product.ID,
			Type:       MovementInitial,
			Quantity:   product.Stock,
			StockAfter: product.Stock,
			UserID:     optionalID(userID),
			Note:       "opening stock",
		}).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "create product")
	}

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies a partial update. A stock change is recorded as an
// adjustment movement in the same transaction.
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest, userID uint) (*Product, error) {
	if err := validatePricing(req.CostPrice, req.SellingPrice, req.Stock); err != nil {
		return nil, err
	}
	if req.ImageURL != nil && len(*req.ImageURL) > maxImageURLBytes {
		return nil, fmt.Errorf("%w: image is too large", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Clauses(lockForUpdate()).First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: product name is required", ErrInvalidInput)
			}
			updates["name"] = name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.ImageURL != nil {
			updates["image_url"] = *req.ImageURL
		}
		if req.CostPrice != nil {
			updates["cost_price"] = *req.CostPrice
		}
		if req.SellingPrice != nil {
			updates["selling_price"] = *req.SellingPrice
		}
		if req.Barcode != nil {
			if code := strings.TrimSpace(*req.Barcode); code != "" {
				updates["barcode"] = code
			} else {
				updates["barcode"] = nil
			}
		}
		if req.Sizes != nil {
			updates["sizes"] = pq.StringArray(cleanList(req.Sizes))
		}
		if req.Colors != nil {
			updates["colors"] = pq.StringArray(cleanList(req.Colors))
		}
		if req.CategoryID != nil {
			if *req.CategoryID == 0 {
				updates["category_id"] = nil
			} else {
				updates["category_id"] = *req.CategoryID
			}
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.Stock != nil && *req.Stock != product.Stock {
			updates["stock"] = *req.Stock
			if err := tx.Create(&StockMovement{
				ProductID:  product.ID,
				Type:       MovementAdjustment,
				Quantity:   *req.Stock - product.Stock,
				StockAfter: *req.Stock,
				UserID:     optionalID(userID),
				Note:       "product edit",
			}).Error; err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&product).Updates(updates).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "update product")
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct hard-deletes a product that has never been sold
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Clauses(lockForUpdate()).First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to find product: %w", err)
		}

		var sold int64
		if err := tx.Table("sale_items").Where("product_id = ?", id).Count(&sold).Error; err != nil {
			return fmt.Errorf("failed to check sale history: %w", err)
		}
		if sold > 0 {
			return ErrProductHasSales
		}

		if err := tx.Delete(&Product{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

func validatePricing(cost, selling *decimal.Decimal, stock *int) error {
	if cost != nil && cost.IsNegative() {
		return fmt.Errorf("%w: price and stock cannot be negative", ErrInvalidInput)
	}
	if selling != nil && !selling.IsPositive() {
		return fmt.Errorf("%w: selling price must be greater than 0", ErrInvalidInput)
	}
	if stock != nil && *stock < 0 {
		return fmt.Errorf("%w: price and stock cannot be negative", ErrInvalidInput)
	}
	return nil
}

// translateWriteError maps constraint violations to domain errors
func translateWriteError(err error, op string) error {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrInvalidInput):
		return err
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateBarcode
	case postgres.IsForeignKeyViolation(err):
		return ErrInvalidCategory
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
