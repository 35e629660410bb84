// Package config provides configuration management for modelport.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// DefaultMaxSeqLen is the fixed token sequence length the models were
	// exported with.
	DefaultMaxSeqLen = 128
	// DefaultHiddenSize is the embedding dimension of the MiniLM-class
	// models this tool targets.
	DefaultHiddenSize = 384
	// DefaultTolerance is the per-element absolute difference threshold.
	DefaultTolerance = 1e-5
	// DefaultNormTolerance bounds the unit-norm diagnostic.
	DefaultNormTolerance = 1e-4
)

// Config holds the application configuration.
type Config struct {
	// Artifact paths
	ReferenceModel string `json:"reference_model"`
	CandidateModel string `json:"candidate_model"`
	TokenizerPath  string `json:"tokenizer_path"`
	ManifestPath   string `json:"manifest_path"`

	// ONNX runtime shared library (empty = system linker resolves it)
	OnnxRuntimeLib string `json:"onnx_runtime_lib"`

	// Model geometry
	MaxSeqLen  int `json:"max_seq_len"`
	HiddenSize int `json:"hidden_size"`

	// Tensor bindings. The reference export emits token-level hidden
	// states; the candidate artifact typically bakes pooling and
	// normalization into the graph.
	ReferenceInputs  []string `json:"reference_inputs"`
	ReferenceOutput  string   `json:"reference_output"`
	ReferencePooling string   `json:"reference_pooling"`
	CandidateInputs  []string `json:"candidate_inputs"`
	CandidateOutput  string   `json:"candidate_output"`
	CandidatePooling string   `json:"candidate_pooling"`

	// Validation settings
	Tolerance     float64 `json:"tolerance"`
	NormTolerance float64 `json:"norm_tolerance"`

	// Run history
	DBPath         string `json:"db_path"`
	HistoryEnabled bool   `json:"history_enabled"`
}

// DataDir returns the data directory path (~/.modelport).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".modelport")
}

// DBPath returns the default run-history database path.
func DBPath() string {
	return filepath.Join(DataDir(), "modelport.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		MaxSeqLen:        DefaultMaxSeqLen,
		HiddenSize:       DefaultHiddenSize,
		ReferenceInputs:  []string{"input_ids", "attention_mask", "token_type_ids"},
		ReferenceOutput:  "last_hidden_state",
		ReferencePooling: "mean",
		CandidateInputs:  []string{"input_ids", "attention_mask"},
		CandidateOutput:  "embeddings",
		CandidatePooling: "none",
		Tolerance:        DefaultTolerance,
		NormTolerance:    DefaultNormTolerance,
		DBPath:           DBPath(),
		HistoryEnabled:   true,
	}
}

// Load builds the effective configuration: defaults, overridden by the
// settings file if present, overridden by MODELPORT_* environment
// variables. Flags layered on top are the caller's concern.
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(SettingsPath()); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", SettingsPath(), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.ReferenceModel, "MODELPORT_REFERENCE_MODEL")
	setString(&c.CandidateModel, "MODELPORT_CANDIDATE_MODEL")
	setString(&c.TokenizerPath, "MODELPORT_TOKENIZER")
	setString(&c.ManifestPath, "MODELPORT_MANIFEST")
	setString(&c.OnnxRuntimeLib, "MODELPORT_ONNXRUNTIME_LIB")
	setString(&c.DBPath, "MODELPORT_DB_PATH")
	setInt(&c.MaxSeqLen, "MODELPORT_MAX_SEQ_LEN")
	setInt(&c.HiddenSize, "MODELPORT_HIDDEN_SIZE")
	setFloat(&c.Tolerance, "MODELPORT_TOLERANCE")
	setFloat(&c.NormTolerance, "MODELPORT_NORM_TOLERANCE")
	setBool(&c.HistoryEnabled, "MODELPORT_HISTORY")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
