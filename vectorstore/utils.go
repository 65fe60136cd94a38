package vectorstore

import "math"

// Normalize returns a unit-L2 copy of vec so inner products become cosine
// similarities. Zero vectors are returned as-is.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	cpy := make([]float32, len(vec))
	copy(cpy, vec)

	norm := math.Sqrt(sum)
	if norm == 0 {
		return cpy
	}

	for i := range cpy {
		cpy[i] = float32(float64(cpy[i]) / norm)
	}

	return cpy
}

func Dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}

	return float32(sum)
}
