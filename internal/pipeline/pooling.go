package pipeline

import "math"

// PoolingStrategy defines how token-level model output becomes a single
// sentence embedding.
type PoolingStrategy string

const (
	// PoolingNone means the model already outputs sentence embeddings
	// directly (pooling and normalization are baked into the graph).
	PoolingNone PoolingStrategy = "none"
	// PoolingMean averages token embeddings weighted by the attention mask.
	PoolingMean PoolingStrategy = "mean"
	// PoolingCLS uses only the [CLS] token embedding.
	PoolingCLS PoolingStrategy = "cls"
)

// maskSumFloor is the minimum divisor for mean pooling. An input that is
// entirely padding must produce a zero vector, not a division by zero.
const maskSumFloor = 1e-9

// meanPooling averages token embeddings weighted by the attention mask.
// embeddings holds a [seqLen, hiddenSize] tensor flattened row-major;
// the result has length hiddenSize.
func meanPooling(embeddings []float32, attentionMask []int64, seqLen, hiddenSize int) []float32 {
	result := make([]float32, hiddenSize)
	var maskSum float32

	for s := 0; s < seqLen; s++ {
		maskVal := float32(attentionMask[s])
		maskSum += maskVal

		if maskVal > 0 {
			offset := s * hiddenSize
			for h := 0; h < hiddenSize; h++ {
				result[h] += embeddings[offset+h] * maskVal
			}
		}
	}

	if maskSum < maskSumFloor {
		maskSum = maskSumFloor
	}
	for h := 0; h < hiddenSize; h++ {
		result[h] /= maskSum
	}

	return result
}

// clsPooling extracts the [CLS] token embedding (position 0) from a
// flattened [seqLen, hiddenSize] tensor.
func clsPooling(embeddings []float32, hiddenSize int) []float32 {
	result := make([]float32, hiddenSize)
	copy(result, embeddings[:hiddenSize])
	return result
}

// l2Normalize scales v to unit Euclidean length in place and returns it.
// A zero vector is left unchanged.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}

	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
