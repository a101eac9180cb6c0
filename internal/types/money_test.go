package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEUR_RoundsToCents(t *testing.T) {
	m := EUR(10.0 / 3 * 2)
	assert.Equal(t, "6.67", m.Amount.StringFixed(2))
	assert.Equal(t, "6.67 EUR", m.String())
}

func TestEUR_NonFiniteIsZero(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.NotPanics(t, func() {
			assert.True(t, EUR(v).Amount.IsZero())
		})
	}
}
