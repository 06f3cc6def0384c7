// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/infrastructure/database/redis"
	"gorm.io/gorm"
)

const (
	statsCacheKey    = "dashboard:stats"
	dashboardWindow  = 30 * 24 * time.Hour
	topProductsLimit = 10
	recentSalesLimit = 10
	salesTrendLimit  = 30
	dateLayout       = "2006-01-02"
)

// ErrInvalidDateRange is returned for unparsable or inverted report ranges
var ErrInvalidDateRange = errors.New("invalid date range")

// Service handles analytics business logic
type Service struct {
	db     *gorm.DB
	cache  redis.Cache
	config *config.Config
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService creates a new analytics service. cache may be nil.
func NewService(db *gorm.DB, cache redis.Cache, cfg *config.Config, log logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		cache:  cache,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// DashboardStats represents the headline numbers on the dashboard
type DashboardStats struct {
	TotalProducts int64           `json:"total_products"`
	TotalUsers    int64           `json:"total_users"`
	TodaySales    int64           `json:"today_sales"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// PaymentMethodStat is the count and value of sales per payment method
type PaymentMethodStat struct {
	Method string          `json:"method"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// TrendingProduct is a product ranked by units sold
type TrendingProduct struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Sold      int64           `json:"sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Price     decimal.Decimal `json:"price"`
}

// DailySales is the sales total for one calendar day
type DailySales struct {
	Date    time.Time       `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// HourlySales is the sales total for one hour of today
type HourlySales struct {
	Hour    int             `json:"hour"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CategoryPerformance is revenue per category
type CategoryPerformance struct {
	Category  string          `json:"category"`
	ItemsSold int64           `json:"items_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// RecentSale is a sale as listed in the recent activity feed
type RecentSale struct {
	ID            uint            `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Date          time.Time       `json:"date"`
	Cashier       string          `json:"cashier"`
}

// DashboardAnalytics represents the dashboard charts for the last 30 days
type DashboardAnalytics struct {
	PaymentMethods      []PaymentMethodStat   `json:"payment_methods"`
	TrendingProducts    []TrendingProduct     `json:"trending_products"`
	DailySales          []DailySales          `json:"daily_sales"`
	HourlySales         []HourlySales         `json:"hourly_sales"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
	RecentSales         []RecentSale          `json:"recent_sales"`
}

// DateRange bounds a sales report. A nil end is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDateRange reads YYYY-MM-DD bounds. The end date is inclusive.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return r, fmt.Errorf("%w: date_from must be YYYY-MM-DD", ErrInvalidDateRange)
		}
		r.From = &t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return r, fmt.Errorf("%w: date_to must be YYYY-MM-DD", ErrInvalidDateRange)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		r.To = &end
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, fmt.Errorf("%w: date_to is before date_from", ErrInvalidDateRange)
	}
	return r, nil
}

// scope limits a query to the range on the given created_at column
func (r DateRange) scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where(column+" >= ?", *r.From)
		}
		if r.To != nil {
			db = db.Where(column+" <= ?", *r.To)
		}
		return db
	}
}

// Overview summarises sales in a report range
type Overview struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	AverageSale       decimal.Decimal `json:"average_sale"`
	TodaySales        int64           `json:"today_sales"`
}

// TopProduct is a best seller with its margin
type TopProduct struct {
	ProductID        uint            `json:"product_id"`
	Name             string          `json:"name"`
	ImageURL         string          `json:"image_url"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	Stock            int             `json:"stock"`
	TotalSold        int64           `json:"total_sold"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	TransactionCount int64           `json:"transaction_count"`
}

// LowStockProduct is a product at or below the low stock threshold
type LowStockProduct struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Stock        int             `json:"stock"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// SalesReport is the admin sales analytics page
type SalesReport struct {
	Overview       Overview            `json:"overview"`
	PaymentMethods []PaymentMethodStat `json:"payment_methods"`
	TopProducts    []TopProduct        `json:"top_products"`
	SalesTrend     []DailySales        `json:"sales_trend"`
	LowStock       []LowStockProduct   `json:"low_stock"`
	RecentSales    []RecentSale        `json:"recent_sales"`
}

// GetDashboardStats returns the headline numbers, cached briefly
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if s.cache != nil {
		err := s.cache.GetJSON(ctx, statsCacheKey, &stats)
		if err == nil {
			return &stats, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.log.WithError(err).Warn("dashboard stats cache read failed")
		}
	}

	db := s.db.WithContext(ctx)

	if err := db.Table("products").Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Table("users").Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Table("sales").Where("created_at >= ?", s.startOfToday()).Count(&stats.TodaySales).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's sales: %w", err)
	}
	if err := db.Table("sales").Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsCacheKey, stats, s.config.Cache.DashboardStatsTTL); err != nil {
			s.log.WithError(err).Warn("dashboard stats cache write failed")
		}
	}
	return &stats, nil
}

// InvalidateStats drops the cached dashboard numbers
func (s *Service) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey); err != nil {
		s.log.WithError(err).Warn("dashboard stats cache invalidation failed")
	}
}

// GetDashboardAnalytics returns the dashboard charts for the last 30 days
func (s *Service) GetDashboardAnalytics(ctx context.Context) (*DashboardAnalytics, error) {
	since := s.startOfToday().Add(-dashboardWindow)
	window := DateRange{From: &since}
	today := s.startOfToday()

	out := &DashboardAnalytics{}
	var err error

	if out.PaymentMethods, err = s.paymentMethods(ctx, window); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("sale_items si").
		Select(`p.id AS product_id, p.name, p.image_url, p.selling_price AS price,
			SUM(si.quantity) AS sold, COALESCE(SUM(si.total_price), 0) AS revenue`).
		Joins("JOIN products p ON p.id = si.product_id").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Scopes(window.scope("s.created_at")).
		Group("p.id, p.name, p.image_url, p.selling_price").
		Order("sold DESC").
		Limit(topProductsLimit).
		Scan(&out.TrendingProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trending products: %w", err)
	}

	if out.DailySales, err = s.dailySales(ctx, window, "date ASC", 0); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("sales").
		Select("EXTRACT(HOUR FROM created_at)::int AS hour, COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("created_at >= ?", today).
		Group("EXTRACT(HOUR FROM created_at)").
		Order("hour ASC").
		Scan(&out.HourlySales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly sales: %w", err)
	}

	err = s.db.WithContext(ctx).
		Table("sale_items si").
		Select("c.name AS category, COALESCE(SUM(si.quantity), 0) AS items_sold, COALESCE(SUM(si.total_price), 0) AS revenue").
		Joins("JOIN products p ON p.id = si.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Scopes(window.scope("s.created_at")).
		Group("c.id, c.name").
		Order("revenue DESC").
		Scan(&out.CategoryPerformance).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load category performance: %w", err)
	}

	if out.RecentSales, err = s.recentSales(ctx, DateRange{}); err != nil {
		return nil, err
	}

	return out, nil
}

// GetSalesReport returns the admin sales analytics for a date range
func (s *Service) GetSalesReport(ctx context.Context, r DateRange) (*SalesReport, error) {
	out := &SalesReport{}
	var err error

	err = s.db.WithContext(ctx).
		Table("sales").
		Select(`COUNT(*) AS total_transactions,
			COALESCE(SUM(total_amount), 0) AS total_sales,
			COALESCE(SUM(tax_amount), 0) AS total_tax,
			COALESCE(ROUND(AVG(total_amount), 2), 0) AS average_sale,
			COUNT(CASE WHEN created_at >= ? THEN 1 END) AS today_sales`, s.startOfToday()).
		Scopes(r.scope("created_at")).
		Scan(&out.Overview).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sales overview: %w", err)
	}

	if out.PaymentMethods, err = s.paymentMethods(ctx, r); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("sale_items si").
		Select(`p.id AS product_id, p.name, p.image_url, p.cost_price, p.selling_price, p.stock,
			SUM(si.quantity) AS total_sold,
			COALESCE(SUM(si.total_price), 0) AS total_revenue,
			COALESCE(SUM(p.cost_price * si.quantity), 0) AS total_cost,
			COALESCE(SUM(si.total_price - p.cost_price * si.quantity), 0) AS total_profit,
			COUNT(DISTINCT s.id) AS transaction_count`).
		Joins("JOIN products p ON p.id = si.product_id").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Scopes(r.scope("s.created_at")).
		Group("p.id, p.name, p.image_url, p.cost_price, p.selling_price, p.stock").
		Order("total_sold DESC").
		Limit(topProductsLimit).
		Scan(&out.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	if out.SalesTrend, err = s.dailySales(ctx, r, "date DESC", salesTrendLimit); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("products").
		Select("id, name, stock, selling_price").
		Where("stock <= ? AND is_active = ?", s.config.Sale.LowStockThreshold, true).
		Order("stock ASC, name ASC").
		Scan(&out.LowStock).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}

	if out.RecentSales, err = s.recentSales(ctx, r); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) paymentMethods(ctx context.Context, r DateRange) ([]PaymentMethodStat, error) {
	var out []PaymentMethodStat
	err := s.db.WithContext(ctx).
		Table("sales").
		Select("payment_method AS method, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Scopes(r.scope("created_at")).
		Group("payment_method").
		Order("amount DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}
	return out, nil
}

func (s *Service) dailySales(ctx context.Context, r DateRange, order string, limit int) ([]DailySales, error) {
	var out []DailySales
	q := s.db.WithContext(ctx).
		Table("sales").
		Select("DATE(created_at) AS date, COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS revenue").
		Scopes(r.scope("created_at")).
		Group("DATE(created_at)").
		Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily sales: %w", err)
	}
	return out, nil
}

func (s *Service) recentSales(ctx context.Context, r DateRange) ([]RecentSale, error) {
	var out []RecentSale
	err := s.db.WithContext(ctx).
		Table("sales s").
		Select(`s.id, s.receipt_number, s.total_amount AS amount, s.payment_method AS method,
			s.created_at AS date, COALESCE(u.username, 'Unknown') AS cashier`).
		Joins("LEFT JOIN users u ON u.id = s.user_id").
		Scopes(r.scope("s.created_at")).
		Order("s.created_at DESC, s.id DESC").
		Limit(recentSalesLimit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent sales: %w", err)
	}
	return out, nil
}

func (s *Service) startOfToday() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
