// Package main provides the entry point for browsing validation run
// history: recent runs, or the per-case results of a single run. This
// is the read side of the history database cmd/validate writes, so a
// regression introduced by an artifact re-export can be traced back to
// the run where the numbers moved.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AshrithaB/modelport/internal/config"
	"github.com/AshrithaB/modelport/internal/db/sqlite"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 2
	}

	dbPath := flag.String("db", cfg.DBPath, "history database path")
	runID := flag.String("run", "", "show one run's case results")
	limit := flag.Int("limit", 20, "how many recent runs to list")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Error().Err(err).Msg("No history database")
		return 2
	}

	store, err := sqlite.NewStore(sqlite.StoreConfig{Path: *dbPath})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open history database")
		return 2
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *runID != "" {
		return showRun(ctx, store, *runID)
	}
	return listRuns(ctx, store, *limit)
}

func listRuns(ctx context.Context, store *sqlite.Store, limit int) int {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list runs")
		return 2
	}
	if len(runs) == 0 {
		fmt.Println("No validation runs recorded.")
		return 0
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  %s  %d/%d passed  tolerance %.1e  %dms\n",
			r.CreatedAt.Format(time.RFC3339), r.ID, verdict(r.Pass),
			r.PassedCases, r.TotalCases, r.Tolerance, r.DurationMS)
	}
	return 0
}

func showRun(ctx context.Context, store *sqlite.Store, id string) int {
	run, cases, err := store.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			log.Error().Str("run_id", id).Msg("Run not found")
			return 1
		}
		log.Error().Err(err).Msg("Failed to load run")
		return 2
	}

	fmt.Printf("Run %s (%s)\n", run.ID, run.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  reference: %s\n", run.Reference)
	fmt.Printf("  candidate: %s\n", run.Candidate)
	fmt.Printf("  tolerance: %.1e\n", run.Tolerance)
	fmt.Printf("  verdict:   %s (%d/%d passed, %dms)\n\n",
		verdict(run.Pass), run.PassedCases, run.TotalCases, run.DurationMS)

	for i, c := range cases {
		fmt.Printf("Case %d: %q\n", i+1, c.Text)
		if c.Status == "shape_mismatch" {
			fmt.Printf("  shape mismatch: reference dim %d, candidate dim %d\n", c.RefDim, c.CandDim)
		} else {
			fmt.Printf("  max diff:  %.2e\n", c.MaxDiff)
			fmt.Printf("  mean diff: %.2e\n", c.MeanDiff)
			fmt.Printf("  cosine:    %.6f\n", c.Cosine)
		}
		fmt.Printf("  %s\n\n", c.Status)
	}
	return 0
}

func verdict(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
