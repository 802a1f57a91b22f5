package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "contractpay/pkg/domain"
	dErrors "contractpay/pkg/domain-errors"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount id.Cents
		valid  bool
	}{
		{"zero", 0, false},
		{"negative", -1, false},
		{"one cent", 1, true},
		{"cap", MaxAmount, true},
		{"above cap", MaxAmount + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
