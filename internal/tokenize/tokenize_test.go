package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedShape_PadsShortInput(t *testing.T) {
	enc := FixedShape([]int{101, 2023, 102}, []int{1, 1, 1}, []int{0, 0, 0}, 8)

	require.Equal(t, 8, enc.Len())
	assert.Equal(t, []int64{101, 2023, 102, 0, 0, 0, 0, 0}, enc.IDs)
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 0, 0, 0}, enc.AttentionMask)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0, 0, 0}, enc.TypeIDs)
	assert.Equal(t, 3, enc.ActiveTokens())
}

func TestFixedShape_TruncatesLongInput(t *testing.T) {
	ids := make([]int, 12)
	mask := make([]int, 12)
	for i := range ids {
		ids[i] = 100 + i
		mask[i] = 1
	}

	enc := FixedShape(ids, mask, make([]int, 12), 4)

	require.Equal(t, 4, enc.Len())
	assert.Equal(t, []int64{100, 101, 102, 103}, enc.IDs)
	assert.Equal(t, 4, enc.ActiveTokens())
}

func TestFixedShape_ExactLength(t *testing.T) {
	enc := FixedShape([]int{1, 2}, []int{1, 1}, []int{0, 0}, 2)

	assert.Equal(t, []int64{1, 2}, enc.IDs)
	assert.Equal(t, []int64{1, 1}, enc.AttentionMask)
}

func TestFixedShape_EmptyInput(t *testing.T) {
	enc := FixedShape(nil, nil, nil, 4)

	require.Equal(t, 4, enc.Len())
	assert.Equal(t, 0, enc.ActiveTokens())
	for i := 0; i < 4; i++ {
		assert.Equal(t, int64(0), enc.IDs[i])
		assert.Equal(t, int64(0), enc.AttentionMask[i])
	}
}

func TestNewEncoder_InvalidMaxLen(t *testing.T) {
	_, err := NewEncoder("tokenizer.json", 0)
	require.Error(t, err)
}

func TestNewEncoder_MissingFile(t *testing.T) {
	_, err := NewEncoder("/nonexistent/tokenizer.json", 128)
	require.Error(t, err)
}
