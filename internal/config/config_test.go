package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultMaxSeqLen, cfg.MaxSeqLen)
	assert.Equal(t, DefaultHiddenSize, cfg.HiddenSize)
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, DefaultNormTolerance, cfg.NormTolerance)
	assert.Equal(t, "mean", cfg.ReferencePooling)
	assert.Equal(t, "none", cfg.CandidatePooling)
	assert.True(t, cfg.HistoryEnabled)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("MODELPORT_REFERENCE_MODEL", "/models/ref.onnx")
	t.Setenv("MODELPORT_CANDIDATE_MODEL", "/models/cand.onnx")
	t.Setenv("MODELPORT_MAX_SEQ_LEN", "256")
	t.Setenv("MODELPORT_TOLERANCE", "0.001")
	t.Setenv("MODELPORT_HISTORY", "false")

	cfg := Default()
	cfg.applyEnv()

	assert.Equal(t, "/models/ref.onnx", cfg.ReferenceModel)
	assert.Equal(t, "/models/cand.onnx", cfg.CandidateModel)
	assert.Equal(t, 256, cfg.MaxSeqLen)
	assert.Equal(t, 0.001, cfg.Tolerance)
	assert.False(t, cfg.HistoryEnabled)
}

func TestApplyEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("MODELPORT_MAX_SEQ_LEN", "not-a-number")
	t.Setenv("MODELPORT_TOLERANCE", "-1")
	t.Setenv("MODELPORT_HIDDEN_SIZE", "0")

	cfg := Default()
	cfg.applyEnv()

	assert.Equal(t, DefaultMaxSeqLen, cfg.MaxSeqLen)
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, DefaultHiddenSize, cfg.HiddenSize)
}

func TestApplyEnv_EmptyStringIgnored(t *testing.T) {
	t.Setenv("MODELPORT_REFERENCE_MODEL", "")

	cfg := Default()
	cfg.ReferenceModel = "/keep/this.onnx"
	cfg.applyEnv()

	assert.Equal(t, "/keep/this.onnx", cfg.ReferenceModel)
}

func TestPaths(t *testing.T) {
	require.NotEmpty(t, DataDir())
	assert.Contains(t, SettingsPath(), ".modelport")
	assert.Contains(t, DBPath(), "modelport.db")
}
