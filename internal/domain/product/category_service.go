// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
	}
}

// CategoryRequest is used for both create and update
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CategoryWithProductCount represents category with product count
type CategoryWithProductCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// GetCategories lists categories by name with the number of products in each
func (s *CategoryService) GetCategories(ctx context.Context) ([]CategoryWithProductCount, error) {
	var result []CategoryWithProductCount

	err := s.db.WithContext(ctx).
		Table("categories c").
		Select("c.*, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_id = c.id").
		Group("c.id").
		Order("c.name ASC").
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	return result, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	category := Category{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return &category, nil
}

// UpdateCategory renames or re-describes a category
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(category).Updates(map[string]interface{}{
		"name":        name,
		"description": strings.TrimSpace(req.Description),
	}).Error
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return s.GetCategory(ctx, id)
}

// DeleteCategory deletes a category that no product references
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)

	var productCount int64
	if err := db.Model(&Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		return ErrCategoryInUse
	}

	result := db.Delete(&Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
