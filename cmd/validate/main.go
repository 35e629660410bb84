// Package main provides the entry point for artifact validation: it
// proves an exported mobile embedding artifact numerically
// interchangeable with its reference model, or says why not.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AshrithaB/modelport/internal/config"
	"github.com/AshrithaB/modelport/internal/db/sqlite"
	"github.com/AshrithaB/modelport/internal/manifest"
	"github.com/AshrithaB/modelport/internal/pipeline"
	"github.com/AshrithaB/modelport/internal/tokenize"
	"github.com/AshrithaB/modelport/internal/validate"
)

var Version = "dev"

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

	referencePath := flag.String("reference", cfg.ReferenceModel, "reference model .onnx path")
	candidatePath := flag.String("candidate", cfg.CandidateModel, "candidate artifact .onnx path")
	tokenizerPath := flag.String("tokenizer", cfg.TokenizerPath, "tokenizer.json path")
	manifestPath := flag.String("manifest", cfg.ManifestPath, "optional artifact manifest (yaml)")
	tolerance := flag.Float64("tolerance", cfg.Tolerance, "max per-element absolute difference")
	maxSeqLen := flag.Int("max-seq-len", cfg.MaxSeqLen, "fixed token sequence length")
	runtimeLib := flag.String("onnxruntime", cfg.OnnxRuntimeLib, "onnxruntime shared library path")
	jsonOut := flag.Bool("json", false, "emit the report as JSON on stdout")
	noHistory := flag.Bool("no-history", false, "skip recording the run in the history database")
	flag.Parse()

	if *referencePath == "" || *candidatePath == "" || *tokenizerPath == "" {
		log.Error().Msg("reference, candidate and tokenizer paths are required")
		flag.Usage()
		return 2
	}

	log.Info().
		Str("version", Version).
		Str("reference", *referencePath).
		Str("candidate", *candidatePath).
		Float64("tolerance", *tolerance).
		Msg("Starting validation")

	// Manifest cross-check runs before any model loads: a dimension
	// disagreement is a conversion defect, no inference needed.
	if *manifestPath != "" {
		m, err := manifest.Load(*manifestPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load manifest")
			return 2
		}
		if err := m.CheckDimensions(cfg.HiddenSize, *maxSeqLen); err != nil {
			log.Error().Err(err).Msg("Manifest disagrees with configured geometry")
			return 1
		}
		log.Info().Str("model", m.Name).Str("model_version", m.Version).Msg("Manifest OK")
	}

	if err := pipeline.InitRuntime(*runtimeLib); err != nil {
		log.Error().Err(err).Msg("Failed to initialize ONNX runtime")
		return 2
	}
	defer func() {
		if err := pipeline.ShutdownRuntime(); err != nil {
			log.Warn().Err(err).Msg("Runtime shutdown error")
		}
	}()

	ref, err := pipeline.OpenONNX(pipeline.Config{
		Name:         "reference",
		ArtifactPath: *referencePath,
		InputNames:   cfg.ReferenceInputs,
		OutputNames:  []string{cfg.ReferenceOutput},
		Pooling:      pipeline.PoolingStrategy(cfg.ReferencePooling),
		HiddenSize:   cfg.HiddenSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open reference pipeline")
		return 2
	}
	defer ref.Close()

	cand, err := pipeline.OpenONNX(pipeline.Config{
		Name:         "candidate",
		ArtifactPath: *candidatePath,
		InputNames:   cfg.CandidateInputs,
		OutputNames:  []string{cfg.CandidateOutput},
		Pooling:      pipeline.PoolingStrategy(cfg.CandidatePooling),
		HiddenSize:   cfg.HiddenSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open candidate pipeline")
		return 2
	}
	defer cand.Close()

	encoder, err := tokenize.NewEncoder(*tokenizerPath, *maxSeqLen)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load tokenizer")
		return 2
	}

	cases, err := validate.BuildCases(encoder, validate.DefaultCases)
	if err != nil {
		log.Error().Err(err).Msg("Failed to tokenize test cases")
		return 2
	}

	validator := validate.New(ref, cand, validate.Options{
		Tolerance:     *tolerance,
		NormTolerance: cfg.NormTolerance,
	})

	report, runErr := validator.Run(cases)

	// The summary is printed even when the run aborted partway.
	if *jsonOut {
		data, err := report.JSON()
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal report")
			return 2
		}
		fmt.Println(string(data))
	} else {
		report.Render(os.Stdout)
	}

	if !*noHistory && cfg.HistoryEnabled {
		saveHistory(cfg, *referencePath, *candidatePath, report)
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Validation aborted")
		return 2
	}
	if !report.Pass {
		log.Warn().Msg("Validation failed")
		return 1
	}

	log.Info().Msg("Validation passed")
	return 0
}

// saveHistory records the run. Best effort: a history failure is logged
// and never changes the exit status.
func saveHistory(cfg *config.Config, referencePath, candidatePath string, report *validate.Report) {
	if err := config.EnsureDataDir(); err != nil {
		log.Warn().Err(err).Msg("Failed to create data directory, skipping history")
		return
	}

	store, err := sqlite.NewStore(sqlite.StoreConfig{Path: cfg.DBPath})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open history database, skipping history")
		return
	}
	defer store.Close()

	passed, failed := report.Counts()
	run := sqlite.RunRecord{
		ID:          report.ID,
		CreatedAt:   report.StartedAt,
		Reference:   referencePath,
		Candidate:   candidatePath,
		Tolerance:   report.Tolerance,
		TotalCases:  len(report.Results),
		PassedCases: passed,
		FailedCases: failed,
		Pass:        report.Pass,
		DurationMS:  report.DurationMS,
	}

	cases := make([]sqlite.CaseRecord, 0, len(report.Results))
	for _, res := range report.Results {
		cases = append(cases, sqlite.CaseRecord{
			RunID:    report.ID,
			Text:     res.Text,
			Status:   string(res.Status),
			MaxDiff:  res.MaxDiff,
			MeanDiff: res.MeanDiff,
			Cosine:   res.Cosine,
			RefNorm:  res.RefNorm,
			CandNorm: res.CandNorm,
			RefDim:   res.RefDim,
			CandDim:  res.CandDim,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.SaveRun(ctx, run, cases); err != nil {
		log.Warn().Err(err).Msg("Failed to record run history")
		return
	}
	log.Info().Str("run_id", report.ID).Msg("Run recorded")
}
