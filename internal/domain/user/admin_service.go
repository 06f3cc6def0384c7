// internal/domain/user/admin_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// AdminService handles staff account management
type AdminService struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
	}
}

// CreateUserRequest represents a new staff account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role"`
}

// UpdateUserRequest replaces a staff account's details. An empty password
// keeps the current one.
type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	Role     Role   `json:"role" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

func normaliseRole(r Role) (Role, error) {
	r = Role(strings.ToLower(strings.TrimSpace(string(r))))
	if r == "" {
		return RoleCashier, nil
	}
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// GetUsers lists every account, newest first, with sales totals
func (s *AdminService) GetUsers(ctx context.Context) ([]UserWithStats, error) {
	var users []UserWithStats
	err := s.db.WithContext(ctx).
		Table("users u").
		Select(`u.*,
			(SELECT COUNT(*) FROM sales s WHERE s.user_id = u.id) AS total_sales,
			(SELECT COALESCE(SUM(s.total_amount), 0) FROM sales s WHERE s.user_id = u.id) AS total_revenue`).
		Order("u.created_at DESC").
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a single account with stats
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*UserWithStats, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return withStats(ctx, s.db, &user)
}

// CreateUser registers a new staff account
func (s *AdminService) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserWithStats, error) {
	role, err := normaliseRole(req.Role)
	if err != nil {
		return nil, err
	}

	hashed, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &UserWithStats{User: user}, nil
}

// UpdateUser replaces username, email and role, and the password if given
func (s *AdminService) UpdateUser(ctx context.Context, userID uint, req *UpdateUserRequest) (*UserWithStats, error) {
	role, err := normaliseRole(req.Role)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"username": strings.TrimSpace(req.Username),
		"email":    strings.ToLower(strings.TrimSpace(req.Email)),
		"role":     role,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != "" {
		hashed, err := s.passwordManager.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// DeleteUser removes an account. Its sales stay, with the cashier cleared.
func (s *AdminService) DeleteUser(ctx context.Context, userID, adminID uint) error {
	if userID == adminID {
		return ErrCannotDeleteSelf
	}

	result := s.db.WithContext(ctx).Delete(&User{}, userID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
