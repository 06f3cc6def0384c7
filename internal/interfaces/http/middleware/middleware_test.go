package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:            "middleware-test-secret",
			AccessTokenExpiry: time.Hour,
			Issuer:            "pos-backend-test",
		},
		Security: config.SecurityConfig{
			RateLimitPerMinute: 2,
			CORSAllowedOrigins: []string{"http://localhost:3000", "*.store.example"},
			CORSAllowedMethods: []string{"GET", "POST"},
			CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
		},
	}
}

func perform(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, jwtManager *auth.JWTManager, id uint, role string) http.Header {
	t.Helper()
	token, err := jwtManager.GenerateAccessToken(id, "staff", role)
	require.NoError(t, err)
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager(testConfig())

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtManager), func(c *gin.Context) {
		id, ok := GetUserIDFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": GetRoleFromContext(c)})
	})
	r.GET("/admin", AuthMiddleware(jwtManager), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	t.Run("missing token", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization token required")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/me", http.Header{"Authorization": []string{"Token abc"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/me", http.Header{"Authorization": []string{"Bearer not.a.jwt"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})

	t.Run("valid token", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/me", bearer(t, jwtManager, 7, "cashier"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":7,"role":"cashier"}`, w.Body.String())
	})

	t.Run("cashier is not admin", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/admin", bearer(t, jwtManager, 7, "cashier"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/admin", bearer(t, jwtManager, 1, "admin"))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestAdminMiddleware_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := perform(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := perform(r, http.MethodGet, "/", nil)
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	const caller = "3f2c1d7e-8a4b-4c5d-9e6f-0a1b2c3d4e5f"
	w = perform(r, http.MethodGet, "/", http.Header{"X-Request-Id": []string{caller}})
	assert.Equal(t, caller, w.Header().Get("X-Request-ID"))

	w = perform(r, http.MethodGet, "/", http.Header{"X-Request-Id": []string{"<script>"}})
	assert.NotEqual(t, "<script>", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(testConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:3000", true},
		{"https://till.store.example", true},
		{"https://store.example.evil", false},
		{"http://localhost:4000", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/", http.Header{"Origin": []string{tt.origin}})
			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}

	t.Run("preflight", func(t *testing.T) {
		w := perform(r, http.MethodOptions, "/", http.Header{"Origin": []string{"http://localhost:3000"}})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	})
}

type fakeLimiter struct {
	hits map[string]int
	err  error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, int, error) {
	if f.err != nil {
		return true, limit, f.err
	}
	f.hits[key]++
	remaining := limit - f.hits[key]
	if remaining < 0 {
		remaining = 0
	}
	return f.hits[key] <= limit, remaining, nil
}

func TestRateLimit(t *testing.T) {
	log, _ := test.NewNullLogger()

	t.Run("blocks after limit", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimit(testConfig(), &fakeLimiter{hits: map[string]int{}}, log))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
		w := perform(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		w = perform(r, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("fails open when the limiter errors", func(t *testing.T) {
		nullLog, hook := test.NewNullLogger()
		r := gin.New()
		r.Use(RateLimit(testConfig(), &fakeLimiter{err: errors.New("connection refused")}, nullLog))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
		}
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})

	t.Run("no limiter", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimit(testConfig(), nil, log))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
		}
	})
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(16))
	r.POST("/", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":"`+strings.Repeat("x", 64)+`"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusGatewayTimeout, perform(r, http.MethodGet, "/slow", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/fast", nil).Code)
}

func TestRecoveryAndLogger(t *testing.T) {
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "recovered from panic", entries[0].Message)
	assert.Equal(t, http.StatusInternalServerError, entries[1].Data["status_code"])
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
	assert.NotEmpty(t, entries[1].Data["request_id"])
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "POS API", w.Header().Get("Server"))
}
