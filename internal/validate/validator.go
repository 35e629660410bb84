// Package validate proves (or disproves) that a candidate embedding
// pipeline is numerically interchangeable with its reference pipeline.
// Both pipelines receive byte-identical tokenized input per case; the
// verdict is an element-wise maximum-difference check against a
// configured tolerance.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AshrithaB/modelport/internal/pipeline"
	"github.com/AshrithaB/modelport/internal/tokenize"
)

const (
	// DefaultTolerance is the maximum permitted per-element absolute
	// difference. Tight enough to catch structural conversion defects
	// (wrong pooling, missing normalization), loose enough to absorb
	// floating-point rounding between backends.
	DefaultTolerance = 1e-5

	// DefaultNormTolerance bounds how far an output vector's L2 norm may
	// drift from 1.0 before the normalization diagnostic flags it.
	DefaultNormTolerance = 1e-4
)

// Status classifies a single case outcome. Shape mismatches are kept
// distinct from tolerance failures: the former indicates a structural
// conversion defect, the latter a numeric-precision one.
type Status string

const (
	StatusPass              Status = "pass"
	StatusToleranceExceeded Status = "tolerance_exceeded"
	StatusShapeMismatch     Status = "shape_mismatch"
)

// Case pairs an input text with its tokenized form. The encoding is
// produced once and handed to both pipelines unchanged.
type Case struct {
	Text  string
	Input tokenize.Encoding
}

// BuildCases tokenizes a list of literal test sentences.
func BuildCases(enc *tokenize.Encoder, texts []string) ([]Case, error) {
	cases := make([]Case, 0, len(texts))
	for _, text := range texts {
		input, err := enc.Encode(text)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", text, err)
		}
		cases = append(cases, Case{Text: text, Input: input})
	}
	return cases, nil
}

// Result holds the comparison outcome for one case. The raw vectors are
// kept for debugging but excluded from serialized reports; dimensions
// and derived statistics carry the diagnostic load.
type Result struct {
	Text      string    `json:"text"`
	Reference []float32 `json:"-"`
	Candidate []float32 `json:"-"`
	RefDim    int       `json:"reference_dim"`
	CandDim   int       `json:"candidate_dim"`
	MaxDiff   float64   `json:"max_diff"`
	MeanDiff  float64   `json:"mean_diff"`
	Cosine    float64   `json:"cosine_similarity"`
	RefNorm   float64   `json:"reference_norm"`
	CandNorm  float64   `json:"candidate_norm"`
	NormOK    bool      `json:"norm_ok"`
	Status    Status    `json:"status"`
}

// Passed reports whether the case met the tolerance contract.
func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// InvocationError reports an inference failure. It is fatal for the run
// and names the pipeline and input that triggered it.
type InvocationError struct {
	Pipeline string
	Text     string
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("pipeline %s failed on input %q: %v", e.Pipeline, e.Text, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Options configures a Validator. Zero values select defaults.
type Options struct {
	// Tolerance is the per-element absolute difference threshold.
	Tolerance float64
	// NormTolerance bounds the unit-norm diagnostic.
	NormTolerance float64
}

// Validator compares two pipelines over a suite of cases.
type Validator struct {
	ref  pipeline.Pipeline
	cand pipeline.Pipeline
	opts Options
}

// New creates a Validator for a reference/candidate pipeline pair.
func New(ref, cand pipeline.Pipeline, opts Options) *Validator {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.NormTolerance <= 0 {
		opts.NormTolerance = DefaultNormTolerance
	}
	return &Validator{ref: ref, cand: cand, opts: opts}
}

// Run processes the cases strictly sequentially. Numeric failures
// (tolerance, shape) are recorded and the loop continues; an inference
// failure aborts the run. On abort the partial report is still returned
// alongside the *InvocationError so callers can print a summary; the
// aborted report is marked failed because it compared fewer cases than
// the suite.
func (v *Validator) Run(cases []Case) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Reference: v.ref.Name(),
		Candidate: v.cand.Name(),
		Tolerance: v.opts.Tolerance,
		StartedAt: time.Now().UTC(),
	}

	for _, c := range cases {
		refVec, err := v.ref.Embed(c.Input)
		if err != nil {
			report.finish(true)
			return report, &InvocationError{Pipeline: v.ref.Name(), Text: c.Text, Err: err}
		}

		candVec, err := v.cand.Embed(c.Input)
		if err != nil {
			report.finish(true)
			return report, &InvocationError{Pipeline: v.cand.Name(), Text: c.Text, Err: err}
		}

		report.Results = append(report.Results, v.compare(c.Text, refVec, candVec))
	}

	report.finish(false)
	return report, nil
}

func (v *Validator) compare(text string, ref, cand []float32) Result {
	result := Result{
		Text:      text,
		Reference: ref,
		Candidate: cand,
		RefDim:    len(ref),
		CandDim:   len(cand),
		RefNorm:   l2Norm(ref),
		CandNorm:  l2Norm(cand),
	}

	result.NormOK = math.Abs(result.RefNorm-1.0) <= v.opts.NormTolerance &&
		math.Abs(result.CandNorm-1.0) <= v.opts.NormTolerance

	if len(ref) != len(cand) {
		result.Status = StatusShapeMismatch
		return result
	}

	var maxDiff, sumDiff float64
	for i := range ref {
		diff := math.Abs(float64(ref[i]) - float64(cand[i]))
		sumDiff += diff
		if diff > maxDiff {
			maxDiff = diff
		}
	}

	result.MaxDiff = maxDiff
	if len(ref) > 0 {
		result.MeanDiff = sumDiff / float64(len(ref))
	}
	result.Cosine = cosineSimilarity(ref, cand)

	// Identical outputs pass at any tolerance, including zero.
	if maxDiff == 0 || maxDiff < v.opts.Tolerance {
		result.Status = StatusPass
	} else {
		result.Status = StatusToleranceExceeded
	}

	return result
}

// l2Norm computes the Euclidean norm of a float32 vector in float64.
func l2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity computes the cosine similarity between two float32
// vectors. Returns a value in [-1, 1], where 1 means identical direction.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dotProduct += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
