// internal/interfaces/http/handlers/receipt.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/settings"
)

// ReceiptRenderer turns a sale into printable output
type ReceiptRenderer interface {
	RenderReceipt(detail *sale.Detail, st *settings.Settings) (string, error)
	GenerateReceipt(detail *sale.Detail, st *settings.Settings) (*bytes.Buffer, error)
}

// SettingsReader returns the store settings printed on receipts
type SettingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// ReceiptHandler serves printable receipts
type ReceiptHandler struct {
	sales    SaleReader
	settings SettingsReader
	renderer ReceiptRenderer
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(sales SaleReader, st SettingsReader, renderer ReceiptRenderer) *ReceiptHandler {
	return &ReceiptHandler{
		sales:    sales,
		settings: st,
		renderer: renderer,
	}
}

// GetReceipt handles GET /sales/:id/receipt. ?format=html returns the markup
// instead of a PDF.
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "sale")
	if !ok {
		return
	}

	detail, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	st, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "html" {
		page, err := h.renderer.RenderReceipt(detail, st)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}

	pdfBuffer, err := h.renderer.GenerateReceipt(detail, st)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%s.pdf", detail.ReceiptNumber))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
