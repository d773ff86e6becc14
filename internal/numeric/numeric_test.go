package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"inside", 5, 5},
		{"below", -3, 0},
		{"above", 12, 10},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.v, 0, 10))
		})
	}
}

func TestMeanAndVariance(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 4.0, Variance(values), 1e-9)
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Variance(nil))
}

func TestTail(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{4, 5}, Tail(s, 2))
	assert.Equal(t, s, Tail(s, 10))
	assert.Empty(t, Tail(s, 0))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.2, Round(1.234, 1))
	assert.Equal(t, 2.0, Round(1.96, 1))
}
