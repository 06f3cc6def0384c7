// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/domain/analytics"
)

// AnalyticsHandler handles dashboard and report endpoints
type AnalyticsHandler struct {
	analyticsService *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: svc}
}

// GetDashboardStats handles GET /dashboard/stats
func (h *AnalyticsHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard stats retrieved successfully",
		"data":    stats,
	})
}

// GetDashboardAnalytics handles GET /dashboard/analytics
func (h *AnalyticsHandler) GetDashboardAnalytics(c *gin.Context) {
	data, err := h.analyticsService.GetDashboardAnalytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard analytics retrieved successfully",
		"data":    data,
	})
}

// GetSalesReport handles GET /admin/analytics/sales?date_from=&date_to=
func (h *AnalyticsHandler) GetSalesReport(c *gin.Context) {
	dateRange, err := analytics.ParseDateRange(c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.analyticsService.GetSalesReport(c.Request.Context(), dateRange)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales report retrieved successfully",
		"data":    report,
	})
}
