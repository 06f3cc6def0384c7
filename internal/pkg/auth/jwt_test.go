package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pos-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:            "unit-test-secret-that-is-long-enough",
			AccessTokenExpiry: time.Hour,
			Issuer:            "pos-backend-test",
		},
		Security: config.SecurityConfig{
			BcryptCost:        4,
			MinPasswordLength: 6,
		},
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateAccessToken(42, "cashier1", "cashier")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "cashier1", claims.Username)
	assert.False(t, claims.IsAdmin())
	assert.Equal(t, int64(3600), m.ExpiresIn())
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	other := testConfig()
	other.JWT.Secret = "a-completely-different-signing-secret"

	token, err := NewJWTManager(other).GenerateAccessToken(1, "admin", "admin")
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig()).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	cfg := testConfig()
	m := NewJWTManager(cfg)

	past := time.Now().Add(-2 * time.Hour)
	claims := &Claims{
		UserID: 7,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
			Issuer:    cfg.JWT.Issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTokenFromHeader(tt.header))
		})
	}
}
