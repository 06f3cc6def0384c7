// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the access level of a staff account
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCashier
}

// User represents a staff account that can log in to the till
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Email       string     `gorm:"uniqueIndex;not null;size:100" json:"email"`
	Password    string     `gorm:"not null;size:255" json:"-"`
	Role        Role       `gorm:"not null;size:20;default:'cashier';check:chk_users_role,role IN ('admin','cashier')" json:"role"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeSave normalises identifiers before they hit the unique indexes
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = RoleCashier
	}
	return nil
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
