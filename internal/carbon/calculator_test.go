package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/carbontrack/internal/models"
)

func price(v float64) *float64 { return &v }

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		factor   models.EmissionFactor
		expected float64
		cost     *float64
	}{
		{
			name:     "unpriced factor multiplies",
			amount:   100,
			factor:   models.EmissionFactor{EmissionFactor: 0.5},
			expected: 50,
		},
		{
			name:     "priced factor converts spend to quantity",
			amount:   200,
			factor:   models.EmissionFactor{EmissionFactor: 2, Price: price(5)},
			expected: 80,
			cost:     price(1000),
		},
		{
			name:     "zero price behaves like no price",
			amount:   100,
			factor:   models.EmissionFactor{EmissionFactor: 0.5, Price: price(0)},
			expected: 50,
		},
		{
			name:     "zero factor",
			amount:   42,
			factor:   models.EmissionFactor{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.amount, tt.factor)
			assert.InDelta(t, tt.expected, got.CarbonValue, 1e-9)
			if tt.cost == nil {
				assert.Nil(t, got.Cost)
				return
			}
			require.NotNil(t, got.Cost)
			assert.InDelta(t, *tt.cost, *got.Cost, 1e-9)
		})
	}
}
