package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPooling_WeightedByMask(t *testing.T) {
	// Two real tokens, one padding token with garbage values that must be
	// ignored.
	embeddings := []float32{
		1, 2, // token 0
		3, 4, // token 1
		99, 99, // padding
	}
	mask := []int64{1, 1, 0}

	result := meanPooling(embeddings, mask, 3, 2)

	require.Len(t, result, 2)
	assert.InDelta(t, 2.0, result[0], 1e-6)
	assert.InDelta(t, 3.0, result[1], 1e-6)
}

func TestMeanPooling_SingleToken(t *testing.T) {
	embeddings := []float32{0.5, -0.5, 1.5}
	mask := []int64{1}

	result := meanPooling(embeddings, mask, 1, 3)

	assert.Equal(t, []float32{0.5, -0.5, 1.5}, result)
}

func TestMeanPooling_AllPadding(t *testing.T) {
	// An attention mask of all zeros must not divide by zero; the floored
	// divisor yields a zero vector.
	embeddings := []float32{1, 2, 3, 4}
	mask := []int64{0, 0}

	result := meanPooling(embeddings, mask, 2, 2)

	require.Len(t, result, 2)
	for i, v := range result {
		assert.False(t, math.IsNaN(float64(v)), "index %d is NaN", i)
		assert.False(t, math.IsInf(float64(v), 0), "index %d is Inf", i)
		assert.Equal(t, float32(0), v)
	}
}

func TestClsPooling(t *testing.T) {
	embeddings := []float32{
		1, 2, 3, // CLS token
		4, 5, 6,
	}

	result := clsPooling(embeddings, 3)

	assert.Equal(t, []float32{1, 2, 3}, result)
}

func TestL2Normalize_UnitNorm(t *testing.T) {
	v := l2Normalize([]float32{3, 4})

	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestL2Normalize_ZeroVector(t *testing.T) {
	v := l2Normalize([]float32{0, 0, 0})

	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestL2Normalize_AlreadyNormalized(t *testing.T) {
	v := l2Normalize([]float32{1, 0, 0})

	assert.InDelta(t, 1.0, v[0], 1e-7)
	assert.InDelta(t, 0.0, v[1], 1e-7)
}
