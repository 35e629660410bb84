package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run id has no history record.
var ErrRunNotFound = errors.New("validation run not found")

// RunRecord is one validation run's summary row.
type RunRecord struct {
	ID          string
	CreatedAt   time.Time
	Reference   string
	Candidate   string
	Tolerance   float64
	TotalCases  int
	PassedCases int
	FailedCases int
	Pass        bool
	DurationMS  int64
}

// CaseRecord is one per-case comparison row.
type CaseRecord struct {
	RunID    string
	Text     string
	Status   string
	MaxDiff  float64
	MeanDiff float64
	Cosine   float64
	RefNorm  float64
	CandNorm float64
	RefDim   int
	CandDim  int
}

// SaveRun stores a run and its case results atomically.
func (s *Store) SaveRun(ctx context.Context, run RunRecord, cases []CaseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	pass := 0
	if run.Pass {
		pass = 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO validation_runs
			(id, created_at, created_at_epoch, reference_model, candidate_model,
			 tolerance, total_cases, passed_cases, failed_cases, overall_pass, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.CreatedAt.UnixMilli(),
		run.Reference,
		run.Candidate,
		run.Tolerance,
		run.TotalCases,
		run.PassedCases,
		run.FailedCases,
		pass,
		run.DurationMS,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO case_results
			(run_id, input_text, status, max_diff, mean_diff, cosine,
			 reference_norm, candidate_norm, reference_dim, candidate_dim)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare case insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cases {
		if _, err := stmt.ExecContext(ctx,
			run.ID, c.Text, c.Status, c.MaxDiff, c.MeanDiff, c.Cosine,
			c.RefNorm, c.CandNorm, c.RefDim, c.CandDim,
		); err != nil {
			return fmt.Errorf("insert case result: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun loads one run and its case results.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, []CaseRecord, error) {
	row := s.QueryRowContext(ctx, `
		SELECT id, created_at, reference_model, candidate_model, tolerance,
		       total_cases, passed_cases, failed_cases, overall_pass, duration_ms
		FROM validation_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, nil, ErrRunNotFound
		}
		return RunRecord{}, nil, err
	}

	rows, err := s.QueryContext(ctx, `
		SELECT run_id, input_text, status, max_diff, mean_diff, cosine,
		       reference_norm, candidate_norm, reference_dim, candidate_dim
		FROM case_results WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return RunRecord{}, nil, err
	}
	defer rows.Close()

	var cases []CaseRecord
	for rows.Next() {
		var c CaseRecord
		if err := rows.Scan(&c.RunID, &c.Text, &c.Status, &c.MaxDiff, &c.MeanDiff,
			&c.Cosine, &c.RefNorm, &c.CandNorm, &c.RefDim, &c.CandDim); err != nil {
			return RunRecord{}, nil, err
		}
		cases = append(cases, c)
	}

	return run, cases, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.QueryContext(ctx, `
		SELECT id, created_at, reference_model, candidate_model, tolerance,
		       total_cases, passed_cases, failed_cases, overall_pass, duration_ms
		FROM validation_runs
		ORDER BY created_at_epoch DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var run RunRecord
	var createdAt string
	var pass int

	if err := row.Scan(&run.ID, &createdAt, &run.Reference, &run.Candidate,
		&run.Tolerance, &run.TotalCases, &run.PassedCases, &run.FailedCases,
		&pass, &run.DurationMS); err != nil {
		return RunRecord{}, err
	}

	run.Pass = pass != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}
