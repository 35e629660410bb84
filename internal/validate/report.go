package validate

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// Report aggregates a validation run. Pass is the logical AND over all
// case verdicts; a run that aborted before comparing the whole suite
// never passes.
type Report struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	Candidate  string    `json:"candidate"`
	Tolerance  float64   `json:"tolerance"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Results    []Result  `json:"results"`
	Aborted    bool      `json:"aborted"`
	Pass       bool      `json:"pass"`
}

func (r *Report) finish(aborted bool) {
	r.DurationMS = time.Since(r.StartedAt).Milliseconds()
	r.Aborted = aborted

	r.Pass = !aborted && len(r.Results) > 0
	for _, res := range r.Results {
		if !res.Passed() {
			r.Pass = false
			break
		}
	}
}

// Counts returns how many cases passed and failed.
func (r *Report) Counts() (passed, failed int) {
	for _, res := range r.Results {
		if res.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// JSON renders the report for machine consumption. Raw vectors are
// excluded; dimensions and statistics are enough to diagnose a failure.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Render writes the human-readable per-case report and summary. It is
// written even for partial runs, so an aborted validation still shows
// what completed.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Validating %s against %s (tolerance %.1e)\n\n", r.Candidate, r.Reference, r.Tolerance)

	for i, res := range r.Results {
		fmt.Fprintf(w, "Case %d: %q\n", i+1, res.Text)

		switch res.Status {
		case StatusShapeMismatch:
			fmt.Fprintf(w, "  shape mismatch: reference dim %d, candidate dim %d\n", res.RefDim, res.CandDim)
		default:
			fmt.Fprintf(w, "  dim: %d\n", res.RefDim)
			fmt.Fprintf(w, "  max diff:  %.2e\n", res.MaxDiff)
			fmt.Fprintf(w, "  mean diff: %.2e\n", res.MeanDiff)
			fmt.Fprintf(w, "  cosine:    %.6f\n", res.Cosine)
		}

		if !res.NormOK {
			fmt.Fprintf(w, "  warning: norms off unit sphere (reference %.6f, candidate %.6f)\n",
				res.RefNorm, res.CandNorm)
		}

		if res.Passed() {
			fmt.Fprintf(w, "  PASS\n\n")
		} else {
			fmt.Fprintf(w, "  FAIL (%s)\n\n", res.Status)
		}
	}

	passed, failed := r.Counts()
	switch {
	case r.Pass:
		fmt.Fprintf(w, "All %d cases passed. Candidate is interchangeable within tolerance.\n", passed)
	case r.Aborted:
		fmt.Fprintf(w, "Run aborted after %d completed cases.\n", passed+failed)
	default:
		fmt.Fprintf(w, "%d of %d cases failed.\n", failed, passed+failed)
	}
}
