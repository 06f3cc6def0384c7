package settings

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() UpdateRequest {
	return UpdateRequest{
		StoreName: "  Corner Shop ",
		Address:   "1 Lane Xang Ave",
		TaxRate:   decimal.NewFromInt(7),
		Currency:  "lak",
	}
}

func TestUpdateRequest_Validate(t *testing.T) {
	req := validRequest()
	blank := "  "
	req.LogoURL = &blank

	require.NoError(t, req.Validate())
	assert.Equal(t, "Corner Shop", req.StoreName)
	assert.Equal(t, "LAK", req.Currency)
	assert.Nil(t, req.LogoURL)
}

func TestUpdateRequest_ValidateRejects(t *testing.T) {
	bigLogo := strings.Repeat("a", maxLogoLength+1)

	tests := []struct {
		name    string
		mutate  func(r *UpdateRequest)
		message string
	}{
		{"missing name", func(r *UpdateRequest) { r.StoreName = "" }, "store name and address are required"},
		{"missing address", func(r *UpdateRequest) { r.Address = " " }, "store name and address are required"},
		{"long name", func(r *UpdateRequest) { r.StoreName = strings.Repeat("n", 256) }, "store name is too long"},
		{"long address", func(r *UpdateRequest) { r.Address = strings.Repeat("a", 1001) }, "address is too long"},
		{"large logo", func(r *UpdateRequest) { r.LogoURL = &bigLogo }, "logo image is too large"},
		{"negative tax", func(r *UpdateRequest) { r.TaxRate = decimal.NewFromInt(-1) }, "tax rate must be between 0 and 100"},
		{"tax above 100", func(r *UpdateRequest) { r.TaxRate = decimal.RequireFromString("100.01") }, "tax rate must be between 0 and 100"},
		{"missing currency", func(r *UpdateRequest) { r.Currency = "" }, "invalid currency"},
		{"long currency", func(r *UpdateRequest) { r.Currency = "ABCDEFGHIJK" }, "invalid currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			require.ErrorIs(t, err, ErrInvalidSettings)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDefaults(t *testing.T) {
	def := Defaults()
	assert.Equal(t, "LAK", def.Currency)
	assert.True(t, def.TaxRate.Equal(decimal.NewFromInt(10)))

	public := def.Public()
	assert.Equal(t, def.StoreName, public.StoreName)
	assert.Nil(t, public.LogoURL)
}
