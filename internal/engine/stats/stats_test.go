package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSumDoublingDoublesClassicalPower(t *testing.T) {
	samples := []float64{0.5, -0.5, 0.25, -0.25}

	classical := Compute(samples, Classical)
	doubled := Compute(samples, SumDoubling)

	assert.InDelta(t, classical.RMSSquared*2, doubled.RMSSquared, 1e-12)
	assert.Equal(t, classical.Peak, doubled.Peak)
}

func TestComputePeakIsMaxAbsolute(t *testing.T) {
	samples := []float64{0.1, -0.9, 0.3, -0.2}

	b := Compute(samples, Classical)
	assert.InDelta(t, 0.9, b.Peak, 1e-12)
}

func TestComputeConstantSignal(t *testing.T) {
	samples := []float64{0.5, 0.5, 0.5, 0.5}

	b := Compute(samples, Classical)
	assert.InDelta(t, 0.25, b.RMSSquared, 1e-12)
	assert.InDelta(t, 0.5, b.Peak, 1e-12)
}

func TestComputeSilence(t *testing.T) {
	samples := make([]float64, 8)

	b := Compute(samples, SumDoubling)
	assert.Equal(t, 0.0, b.RMSSquared)
	assert.Equal(t, 0.0, b.Peak)
	assert.False(t, math.IsNaN(b.RMSSquared))
}
