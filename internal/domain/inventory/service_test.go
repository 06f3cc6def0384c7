package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/pos-backend/internal/domain/product"
)

func TestAdjustmentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AdjustmentRequest
		wantErr bool
	}{
		{"restock", AdjustmentRequest{Type: product.MovementRestock, Quantity: 5}, false},
		{"negative restock", AdjustmentRequest{Type: product.MovementRestock, Quantity: -5}, true},
		{"write off", AdjustmentRequest{Type: product.MovementAdjustment, Quantity: -2}, false},
		{"zero adjustment", AdjustmentRequest{Type: product.MovementAdjustment}, true},
		{"sale is not manual", AdjustmentRequest{Type: product.MovementSale, Quantity: 1}, true},
		{"long note", AdjustmentRequest{Type: product.MovementRestock, Quantity: 1, Note: strings.Repeat("n", 256)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAdjustment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
