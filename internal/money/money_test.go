package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected Amount
	}{
		{"twenty cents", 0.20, 20},
		{"one unit", 1.00, 100},
		{"float noise rounds up", 0.29999999, 30},
		{"half cent rounds away", 0.005, 1},
		{"negative", -0.50, -50},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromFloat(tt.input))
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.20", Amount(20).String())
	assert.Equal(t, "1.00", Amount(100).String())
	assert.Equal(t, "10.05", Amount(1005).String())
	assert.Equal(t, "-0.50", Amount(-50).String())
}

func TestCommission(t *testing.T) {
	// 5% of 0.40 is 0.02
	assert.Equal(t, Amount(2), Commission(40, 5))
	// truncation: 5% of 0.50 is 0.025, kept as 0.02
	assert.Equal(t, Amount(2), Commission(50, 5))
	assert.Equal(t, Amount(0), Commission(0, 5))
	assert.Equal(t, Amount(0), Commission(19, 5))
}

func TestCommissionNeverExceedsPot(t *testing.T) {
	for pot := Amount(0); pot < 500; pot++ {
		c := Commission(pot, 5)
		assert.LessOrEqual(t, c, pot)
		assert.GreaterOrEqual(t, c, Amount(0))
	}
}

func TestSplitEven(t *testing.T) {
	share, rem := SplitEven(100, 2)
	assert.Equal(t, Amount(50), share)
	assert.Equal(t, Amount(0), rem)

	share, rem = SplitEven(101, 2)
	assert.Equal(t, Amount(50), share)
	assert.Equal(t, Amount(1), rem)

	share, rem = SplitEven(100, 3)
	assert.Equal(t, Amount(33), share)
	assert.Equal(t, Amount(1), rem)

	share, rem = SplitEven(100, 0)
	assert.Equal(t, Amount(0), share)
	assert.Equal(t, Amount(100), rem)
}
