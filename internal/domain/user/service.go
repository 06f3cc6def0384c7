// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrDuplicateUser        = errors.New("username or email already exists")
	ErrCannotDeleteSelf     = errors.New("cannot delete your own account")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrCurrentPasswordEmpty = errors.New("current password is required to change password")
	ErrInvalidRole          = errors.New("role must be admin or cashier")
)

// Service handles authentication and the caller's own profile
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// LoginRequest represents login data
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ProfileUpdateRequest represents changes to the caller's own account
type ProfileUpdateRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserWithStats is a user with their sales totals
type UserWithStats struct {
	User
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// Login authenticates by username. Unknown, inactive and wrong-password
// accounts all fail the same way.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	return &AuthResponse{
		User:        &user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtManager.ExpiresIn(),
	}, nil
}

// GetUser retrieves an active or inactive user by ID
func (s *Service) GetUser(ctx context.Context, userID uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &user, nil
}

// GetProfile returns the user with their sales totals
func (s *Service) GetProfile(ctx context.Context, userID uint) (*UserWithStats, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withStats(ctx, s.db, user)
}

// UpdateProfile changes username and email, and the password when a new one
// is given along with the current one.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *ProfileUpdateRequest) (*UserWithStats, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"username": strings.TrimSpace(req.Username),
		"email":    strings.ToLower(strings.TrimSpace(req.Email)),
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return nil, ErrCurrentPasswordEmpty
		}
		if err := s.passwordManager.VerifyPassword(req.CurrentPassword, user.Password); err != nil {
			return nil, ErrWrongPassword
		}
		hashed, err := s.passwordManager.HashPassword(req.NewPassword)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// withStats attaches sale count and revenue to a user
func withStats(ctx context.Context, db *gorm.DB, user *User) (*UserWithStats, error) {
	var stats struct {
		TotalSales   int64
		TotalRevenue decimal.Decimal
	}
	err := db.WithContext(ctx).
		Table("sales").
		Select("COUNT(*) AS total_sales, COALESCE(SUM(total_amount), 0) AS total_revenue").
		Where("user_id = ?", user.ID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}

	return &UserWithStats{
		User:         *user,
		TotalSales:   stats.TotalSales,
		TotalRevenue: stats.TotalRevenue,
	}, nil
}
