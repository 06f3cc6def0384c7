// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/analytics"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/settings"
	"github.com/your-org/pos-backend/internal/infrastructure/database/redis"
	"github.com/your-org/pos-backend/internal/interfaces/http/handlers"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"github.com/your-org/pos-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// Dependencies are the shared services the route groups are built from.
// Cache may be nil when Redis is unavailable.
type Dependencies struct {
	DB     *gorm.DB
	Cache  redis.Cache
	Config *config.Config
	Log    logrus.FieldLogger
	JWT    *auth.JWTManager

	settings  *settings.Service
	analytics *analytics.Service
}

func (d *Dependencies) settingsService() *settings.Service {
	if d.settings == nil {
		d.settings = settings.NewService(d.DB, d.Cache, d.Config, d.Log)
	}
	return d.settings
}

func (d *Dependencies) analyticsService() *analytics.Service {
	if d.analytics == nil {
		d.analytics = analytics.NewService(d.DB, d.Cache, d.Config, d.Log)
	}
	return d.analytics
}

// SetupAuthRoutes sets up authentication and profile routes
func SetupAuthRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Config)
	profileHandler := handlers.NewUserProfileHandler(deps.DB, deps.Config)
	requireAuth := middleware.AuthMiddleware(deps.JWT)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", requireAuth, middleware.AdminMiddleware(), authHandler.Register)
		authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
	}

	profile := rg.Group("/profile")
	profile.Use(requireAuth)
	{
		profile.GET("", profileHandler.GetProfile)
		profile.PUT("", profileHandler.UpdateProfile)
	}
}

// SetupCatalogRoutes sets up product and category routes for staff
func SetupCatalogRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	productHandler := handlers.NewProductHandler(deps.DB, deps.Config)
	categoryHandler := handlers.NewCategoryHandler(deps.DB, deps.Config)
	inventoryHandler := handlers.NewInventoryHandler(deps.DB, deps.Config, deps.Log)

	products := rg.Group("/products")
	products.Use(middleware.AuthMiddleware(deps.JWT))
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/low-stock", inventoryHandler.GetLowStock)
		products.GET("/barcode/:barcode", productHandler.GetProductByBarcode)
		products.GET("/:id", productHandler.GetProduct)
	}

	categories := rg.Group("/categories")
	categories.Use(middleware.AuthMiddleware(deps.JWT))
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)
	}
}

// SetupSaleRoutes sets up checkout, sales history and receipt routes
func SetupSaleRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	store := sale.NewGormStore(deps.DB, deps.Config)
	processor := sale.NewProcessor(store, sale.OptionsFromConfig(deps.Config), deps.Log)
	saleService := sale.NewService(deps.DB, deps.Config)

	saleHandler := handlers.NewSaleHandler(processor, saleService, deps.analyticsService())
	receiptHandler := handlers.NewReceiptHandler(saleService, deps.settingsService(), pdf.NewService(deps.Config))

	sales := rg.Group("/sales")
	sales.Use(middleware.AuthMiddleware(deps.JWT))
	{
		sales.POST("", saleHandler.CreateSale)
		sales.GET("", saleHandler.GetSales)
		sales.GET("/:id", saleHandler.GetSale)
		sales.GET("/:id/receipt", receiptHandler.GetReceipt)
	}
}

// SetupSettingsRoutes sets up store settings routes
func SetupSettingsRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	settingsHandler := handlers.NewSettingsHandler(deps.settingsService())

	st := rg.Group("/settings")
	{
		st.GET("/public", settingsHandler.GetPublicSettings)
		st.GET("", middleware.AuthMiddleware(deps.JWT), settingsHandler.GetSettings)
	}
}

// SetupDashboardRoutes sets up dashboard routes
func SetupDashboardRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	analyticsHandler := handlers.NewAnalyticsHandler(deps.analyticsService())

	dashboard := rg.Group("/dashboard")
	dashboard.Use(middleware.AuthMiddleware(deps.JWT))
	{
		dashboard.GET("/stats", analyticsHandler.GetDashboardStats)
		dashboard.GET("/analytics", analyticsHandler.GetDashboardAnalytics)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	productHandler := handlers.NewProductHandler(deps.DB, deps.Config)
	categoryHandler := handlers.NewCategoryHandler(deps.DB, deps.Config)
	inventoryHandler := handlers.NewInventoryHandler(deps.DB, deps.Config, deps.Log)
	userAdminHandler := handlers.NewUserAdminHandler(deps.DB, deps.Config)
	settingsHandler := handlers.NewSettingsHandler(deps.settingsService())
	analyticsHandler := handlers.NewAnalyticsHandler(deps.analyticsService())

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(deps.JWT))
	admin.Use(middleware.AdminMiddleware())
	{
		products := admin.Group("/products")
		{
			products.POST("", productHandler.AdminCreateProduct)
			products.PUT("/:id", productHandler.AdminUpdateProduct)
			products.DELETE("/:id", productHandler.AdminDeleteProduct)
			products.POST("/:id/stock", inventoryHandler.AdjustStock)
			products.GET("/:id/movements", inventoryHandler.GetMovements)
		}

		categories := admin.Group("/categories")
		{
			categories.POST("", categoryHandler.AdminCreateCategory)
			categories.PUT("/:id", categoryHandler.AdminUpdateCategory)
			categories.DELETE("/:id", categoryHandler.AdminDeleteCategory)
		}

		users := admin.Group("/users")
		{
			users.GET("", userAdminHandler.GetUsers)
			users.POST("", userAdminHandler.CreateUser)
			users.GET("/:id", userAdminHandler.GetUser)
			users.PUT("/:id", userAdminHandler.UpdateUser)
			users.DELETE("/:id", userAdminHandler.DeleteUser)
		}

		admin.PUT("/settings", settingsHandler.AdminUpdateSettings)
		admin.GET("/analytics/sales", analyticsHandler.GetSalesReport)
	}
}
