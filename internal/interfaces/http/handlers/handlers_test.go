package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/analytics"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/settings"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pos-backend/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProcessor struct {
	gotActor *sale.Actor
	gotReq   *sale.Request
	result   *sale.Sale
	err      error
}

func (f *fakeProcessor) ProcessSale(_ context.Context, actor *sale.Actor, req *sale.Request) (*sale.Sale, error) {
	f.gotActor = actor
	f.gotReq = req
	return f.result, f.err
}

type fakeSales struct {
	list    []sale.Summary
	total   int64
	details map[uint]*sale.Detail
	err     error
}

func (f *fakeSales) ListSales(_ context.Context, req *sale.ListRequest) ([]sale.Summary, int64, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return f.list, f.total, f.err
}

func (f *fakeSales) GetSale(_ context.Context, id uint) (*sale.Detail, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.details[id]
	if !ok {
		return nil, sale.ErrSaleNotFound
	}
	return d, nil
}

type fakeStats struct{ invalidated int }

func (f *fakeStats) InvalidateStats(context.Context) { f.invalidated++ }

type fakeSettings struct{ st *settings.Settings }

func (f *fakeSettings) Get(context.Context) (*settings.Settings, error) { return f.st, nil }

type fakeRenderer struct {
	pdfErr error
}

func (f *fakeRenderer) RenderReceipt(d *sale.Detail, st *settings.Settings) (string, error) {
	return fmt.Sprintf("<html>%s %s</html>", st.StoreName, d.ReceiptNumber), nil
}

func (f *fakeRenderer) GenerateReceipt(d *sale.Detail, _ *settings.Settings) (*bytes.Buffer, error) {
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return bytes.NewBufferString("%PDF-1.4 " + d.ReceiptNumber), nil
}

func testJWT() *auth.JWTManager {
	return auth.NewJWTManager(&config.Config{
		JWT: config.JWTConfig{Secret: "handler-test-secret", AccessTokenExpiry: time.Hour, Issuer: "test"},
	})
}

func saleRouter(h *SaleHandler, rh *ReceiptHandler, jwtManager *auth.JWTManager) *gin.Engine {
	r := gin.New()
	sales := r.Group("/sales", middleware.AuthMiddleware(jwtManager))
	sales.POST("", h.CreateSale)
	sales.GET("", h.GetSales)
	sales.GET("/:id", h.GetSale)
	if rh != nil {
		sales.GET("/:id/receipt", rh.GetReceipt)
	}
	return r
}

func do(t *testing.T, r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const validCart = `{
	"items": [{"product_id": 1, "quantity": 3, "unit_price": 1000, "total_price": 3000}],
	"total_amount": 3300,
	"tax_amount": 300,
	"payment_method": "cash"
}`

func TestSaleHandler_CreateSale(t *testing.T) {
	jwtManager := testJWT()
	token, err := jwtManager.GenerateAccessToken(5, "cashier1", "cashier")
	require.NoError(t, err)

	t.Run("committed", func(t *testing.T) {
		committed := &sale.Sale{
			ID:            12,
			ReceiptNumber: "R-20261019-ABCD",
			TotalAmount:   decimal.NewFromInt(3300),
			TaxAmount:     decimal.NewFromInt(300),
			PaymentMethod: sale.PaymentCash,
			Items: []sale.SaleItem{{
				ProductName: "Linen Shirt",
				Quantity:    3,
				UnitPrice:   decimal.NewFromInt(1000),
				TotalPrice:  decimal.NewFromInt(3000),
			}},
		}
		proc := &fakeProcessor{result: committed}
		stats := &fakeStats{}
		r := saleRouter(NewSaleHandler(proc, &fakeSales{}, stats), nil, jwtManager)

		w := do(t, r, http.MethodPost, "/sales", validCart, token)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, float64(12), body["sale_id"])
		assert.Equal(t, "3300", body["total_amount"])

		require.NotNil(t, proc.gotActor)
		assert.Equal(t, uint(5), proc.gotActor.UserID)
		assert.Equal(t, "cashier", proc.gotActor.Role)
		require.Len(t, proc.gotReq.Items, 1)
		assert.Equal(t, "cash", proc.gotReq.PaymentMethod)
		assert.Equal(t, 1, stats.invalidated)
	})

	t.Run("rejections map to status codes", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
			kind   string
		}{
			{"empty cart", sale.ErrEmptyCart, http.StatusBadRequest, "request_defect"},
			{"bad line", &sale.InvalidLineItemError{Index: 1, Reason: "missing required fields"}, http.StatusBadRequest, "request_defect"},
			{"bad payment", &sale.InvalidPaymentMethodError{Method: "crypto"}, http.StatusBadRequest, "request_defect"},
			{"unknown product", &sale.ProductNotFoundError{ProductID: 9999}, http.StatusBadRequest, "state_conflict"},
			{"oversell", &sale.InsufficientStockError{ProductName: "Canvas Tote", Available: 2, Requested: 5}, http.StatusBadRequest, "state_conflict"},
			{"store failure", &sale.PersistenceError{Op: "create sale", Err: errors.New("connection reset")}, http.StatusInternalServerError, ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				stats := &fakeStats{}
				r := saleRouter(NewSaleHandler(&fakeProcessor{err: tt.err}, &fakeSales{}, stats), nil, jwtManager)

				w := do(t, r, http.MethodPost, "/sales", validCart, token)

				assert.Equal(t, tt.status, w.Code)
				body := decode(t, w)
				if tt.kind != "" {
					assert.Equal(t, tt.kind, body["kind"])
					assert.Equal(t, tt.err.Error(), body["error"])
				} else {
					assert.Equal(t, "Internal server error", body["error"])
					assert.NotContains(t, w.Body.String(), "connection reset")
				}
				assert.Zero(t, stats.invalidated)
			})
		}
	})

	t.Run("numeric strings reach the processor", func(t *testing.T) {
		proc := &fakeProcessor{result: &sale.Sale{ID: 3, TotalAmount: decimal.NewFromInt(3300)}}
		r := saleRouter(NewSaleHandler(proc, &fakeSales{}, nil), nil, jwtManager)

		w := do(t, r, http.MethodPost, "/sales", `{
			"items": [{"product_id": "1", "quantity": "3", "unit_price": "1000.00", "total_price": 3000}],
			"total_amount": "3300.00",
			"tax_amount": null
		}`, token)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NotNil(t, proc.gotReq)
		require.Len(t, proc.gotReq.Items, 1)
		assert.Equal(t, "3", proc.gotReq.Items[0].Quantity.String())
		assert.Equal(t, "1000.00", proc.gotReq.Items[0].UnitPrice.String())
		assert.Equal(t, "3300.00", proc.gotReq.TotalAmount.String())
		assert.False(t, proc.gotReq.TaxAmount.Present())
	})

	t.Run("malformed json", func(t *testing.T) {
		proc := &fakeProcessor{}
		r := saleRouter(NewSaleHandler(proc, &fakeSales{}, nil), nil, jwtManager)

		w := do(t, r, http.MethodPost, "/sales", `{"items": [`, token)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid JSON data", decode(t, w)["error"])
		assert.Nil(t, proc.gotReq)
	})

	t.Run("no token", func(t *testing.T) {
		proc := &fakeProcessor{}
		r := saleRouter(NewSaleHandler(proc, &fakeSales{}, nil), nil, jwtManager)

		w := do(t, r, http.MethodPost, "/sales", validCart, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, proc.gotReq)
	})
}

func TestSaleHandler_CreateSale_WithoutClaims(t *testing.T) {
	proc := &fakeProcessor{err: sale.ErrUnauthenticated}
	h := NewSaleHandler(proc, &fakeSales{}, nil)

	r := gin.New()
	r.POST("/sales", h.CreateSale)

	w := do(t, r, http.MethodPost, "/sales", validCart, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, proc.gotActor)
}

func TestSaleHandler_ReadSide(t *testing.T) {
	jwtManager := testJWT()
	token, err := jwtManager.GenerateAccessToken(1, "admin", "admin")
	require.NoError(t, err)

	username := "cashier1"
	sales := &fakeSales{
		list:  []sale.Summary{{ID: 2, ReceiptNumber: "R-2"}, {ID: 1, ReceiptNumber: "R-1"}},
		total: 2,
		details: map[uint]*sale.Detail{
			1: {Sale: sale.Sale{ID: 1, ReceiptNumber: "R-1", TotalAmount: decimal.NewFromInt(100)}, Username: &username},
		},
	}
	st := settings.Defaults()
	rh := NewReceiptHandler(sales, &fakeSettings{st: &st}, &fakeRenderer{})
	r := saleRouter(NewSaleHandler(&fakeProcessor{}, sales, nil), rh, jwtManager)

	t.Run("list", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales?offset=0", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		assert.Len(t, body["data"], 2)
		pagination := body["pagination"].(map[string]interface{})
		assert.Equal(t, float64(2), pagination["total"])
		assert.Equal(t, float64(50), pagination["limit"])
	})

	t.Run("get", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales/1", "", token)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "cashier1", data["username"])
	})

	t.Run("not found", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales/404", "", token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales/abc", "", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid sale ID", decode(t, w)["error"])
	})

	t.Run("receipt pdf", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales/1/receipt", "", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt-R-1.pdf")
		assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	})

	t.Run("receipt html", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales/1/receipt?format=html", "", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Clothing Store R-1")
	})

	t.Run("receipt for missing sale", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/sales/404/receipt", "", token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReceiptHandler_RendererFailure(t *testing.T) {
	sales := &fakeSales{details: map[uint]*sale.Detail{1: {Sale: sale.Sale{ID: 1, ReceiptNumber: "R-1"}}}}
	st := settings.Defaults()
	h := NewReceiptHandler(sales, &fakeSettings{st: &st}, &fakeRenderer{pdfErr: errors.New("wkhtmltopdf not found")})

	r := gin.New()
	r.GET("/sales/:id/receipt", h.GetReceipt)

	w := do(t, r, http.MethodGet, "/sales/1/receipt", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "wkhtmltopdf")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{user.ErrInvalidCredentials, http.StatusUnauthorized},
		{user.ErrUserNotFound, http.StatusNotFound},
		{product.ErrProductNotFound, http.StatusNotFound},
		{product.ErrCategoryNotFound, http.StatusNotFound},
		{user.ErrDuplicateUser, http.StatusConflict},
		{product.ErrDuplicateBarcode, http.StatusConflict},
		{product.ErrProductHasSales, http.StatusConflict},
		{product.ErrCategoryInUse, http.StatusConflict},
		{inventory.ErrNegativeStock, http.StatusConflict},
		{user.ErrCannotDeleteSelf, http.StatusBadRequest},
		{user.ErrWrongPassword, http.StatusBadRequest},
		{fmt.Errorf("%w: name is required", product.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: tax rate must be between 0 and 100", settings.ErrInvalidSettings), http.StatusBadRequest},
		{fmt.Errorf("%w: bad", inventory.ErrInvalidAdjustment), http.StatusBadRequest},
		{analytics.ErrInvalidDateRange, http.StatusBadRequest},
		{fmt.Errorf("%w: too short", auth.ErrWeakPassword), http.StatusBadRequest},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}
