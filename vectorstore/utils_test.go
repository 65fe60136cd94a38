package vectorstore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeReturnsUnitVector(t *testing.T) {
	normalized := Normalize([]float32{3, 4})

	assert.InDelta(t, 0.6, float64(normalized[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(normalized[1]), 1e-6)

	var norm float64
	for _, v := range normalized {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestNormalizeLeavesZeroVector(t *testing.T) {
	normalized := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, normalized)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	input := []float32{3, 4}
	_ = Normalize(input)
	assert.Equal(t, []float32{3, 4}, input)
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, float64(Dot([]float32{1, 2}, []float32{3, 4})), 1e-6)
	assert.InDelta(t, 0.0, float64(Dot([]float32{1, 0}, []float32{0, 1})), 1e-6)
}
