// Package tokenize turns raw text into the fixed-shape tensors the
// embedding models expect. The tokenizer itself (a HuggingFace
// tokenizer.json) is treated as a black box; this package only fixes the
// output shape: max_length padding, truncation, int64 tensors.
package tokenize

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Encoding is a single tokenized input in the exact form both pipelines
// consume it. All three slices have identical length (the encoder's
// fixed sequence length); AttentionMask holds 1 for real tokens and 0
// for padding.
type Encoding struct {
	IDs           []int64
	AttentionMask []int64
	TypeIDs       []int64
}

// Len returns the fixed sequence length of the encoding.
func (e Encoding) Len() int {
	return len(e.IDs)
}

// ActiveTokens returns the number of non-padding positions.
func (e Encoding) ActiveTokens() int {
	n := 0
	for _, m := range e.AttentionMask {
		if m != 0 {
			n++
		}
	}
	return n
}

// Encoder wraps a HuggingFace tokenizer and emits fixed-length encodings.
type Encoder struct {
	tk     *tokenizer.Tokenizer
	maxLen int
}

// NewEncoder loads a tokenizer.json from disk. maxLen is the fixed
// sequence length every encoding is padded or truncated to.
func NewEncoder(path string, maxLen int) (*Encoder, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("invalid max sequence length %d", maxLen)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}

	tk, err := pretrained.FromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLen,
		Strategy:  tokenizer.LongestFirst,
	})

	return &Encoder{tk: tk, maxLen: maxLen}, nil
}

// MaxLen returns the fixed sequence length.
func (e *Encoder) MaxLen() int {
	return e.maxLen
}

// Encode tokenizes a single text into a fixed-length encoding.
func (e *Encoder) Encode(text string) (Encoding, error) {
	input := tokenizer.NewSingleEncodeInput(tokenizer.NewRawInputSequence(text))

	encodings, err := e.tk.EncodeBatch([]tokenizer.EncodeInput{input}, true)
	if err != nil {
		return Encoding{}, fmt.Errorf("tokenize: %w", err)
	}
	if len(encodings) == 0 {
		return Encoding{}, fmt.Errorf("tokenize: no encoding produced")
	}

	enc := encodings[0]
	return FixedShape(enc.Ids, enc.AttentionMask, enc.TypeIds, e.maxLen), nil
}

// FixedShape pads or truncates raw tokenizer output to exactly maxLen
// positions. Padding positions get id 0, mask 0, type id 0, matching the
// max_length padding the models were traced with.
func FixedShape(ids, attentionMask, typeIDs []int, maxLen int) Encoding {
	out := Encoding{
		IDs:           make([]int64, maxLen),
		AttentionMask: make([]int64, maxLen),
		TypeIDs:       make([]int64, maxLen),
	}

	copyInto(out.IDs, ids, maxLen)
	copyInto(out.AttentionMask, attentionMask, maxLen)
	copyInto(out.TypeIDs, typeIDs, maxLen)

	return out
}

func copyInto(dst []int64, src []int, maxLen int) {
	n := len(src)
	if n > maxLen {
		n = maxLen
	}
	for i := 0; i < n; i++ {
		dst[i] = int64(src[i])
	}
}
