// internal/infrastructure/database/migrate/migration.go
package migrate

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/settings"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	cfg *config.Config
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		cfg: cfg,
		log: log,
	}
}

// Models lists every table in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&product.Category{},
		&product.Product{},
		&sale.Sale{},
		&sale.SaleItem{},
		&product.StockMovement{},
		&settings.Settings{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite and ordering indexes gorm tags cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Users
		"CREATE INDEX IF NOT EXISTS idx_users_role_active ON users(role, is_active)",

		// Products
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products(LOWER(name))",
		"CREATE INDEX IF NOT EXISTS idx_products_stock ON products(stock)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Sales
		"CREATE INDEX IF NOT EXISTS idx_sales_created_at_desc ON sales(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sales_user_created ON sales(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sales_payment_method ON sales(payment_method)",

		// Sale items
		"CREATE INDEX IF NOT EXISTS idx_sale_items_sale_product ON sale_items(sale_id, product_id)",

		// Stock movements
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements(product_id, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).WithField("sql", indexSQL).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("database indexes ensured")

	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}
	return nil
}

// SeedInitialData inserts the admin account, store settings and sample categories
func (m *Migration) SeedInitialData() error {
	m.log.Info("seeding initial data")

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedSettings(); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser() error {
	var existing user.User
	err := m.db.Where("username = ?", m.cfg.Seed.AdminUsername).First(&existing).Error
	if err == nil {
		m.log.WithField("user_id", existing.ID).Debug("admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := auth.NewPasswordManager(m.cfg).HashPassword(m.cfg.Seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := user.User{
		Username: m.cfg.Seed.AdminUsername,
		Email:    m.cfg.Seed.AdminEmail,
		Password: hashed,
		Role:     user.RoleAdmin,
		IsActive: true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"user_id":  admin.ID,
		"username": admin.Username,
	}).Info("created admin user")
	return nil
}

func (m *Migration) seedSettings() error {
	var count int64
	if err := m.db.Model(&settings.Settings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	def := settings.Defaults()
	return m.db.Create(&def).Error
}

func (m *Migration) seedCategories() error {
	categories := []product.Category{
		{Name: "Shirts", Description: "T-shirts, polos and button-downs"},
		{Name: "Pants", Description: "Jeans, trousers and shorts"},
		{Name: "Dresses", Description: "Casual and formal dresses"},
		{Name: "Accessories", Description: "Bags, belts, hats and jewellery"},
	}

	for _, category := range categories {
		var existing product.Category
		err := m.db.Where("name = ?", category.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := m.db.Create(&category).Error; err != nil {
			return err
		}
		m.log.WithField("category", category.Name).Info("created category")
	}

	return nil
}

// GetTableInfo logs the row count of every public table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			return err
		}
		m.log.WithFields(logrus.Fields{
			"table": table,
			"rows":  count,
		}).Info("table info")
	}
	return nil
}

// DropAllTables drops every table this service owns
func (m *Migration) DropAllTables() error {
	m.log.Warn("dropping all database tables")

	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	return nil
}
