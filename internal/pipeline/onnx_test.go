package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshrithaB/modelport/internal/tokenize"
)

func validConfig() Config {
	return Config{
		Name:         "reference",
		ArtifactPath: "model.onnx",
		InputNames:   []string{TensorInputIDs, TensorAttentionMask, TensorTokenTypeIDs},
		OutputNames:  []string{"last_hidden_state"},
		Pooling:      PoolingMean,
		HiddenSize:   384,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing artifact path",
			mutate:  func(c *Config) { c.ArtifactPath = "" },
			wantErr: "artifact path",
		},
		{
			name:    "zero hidden size",
			mutate:  func(c *Config) { c.HiddenSize = 0 },
			wantErr: "hidden size",
		},
		{
			name:    "no inputs",
			mutate:  func(c *Config) { c.InputNames = nil },
			wantErr: "input tensor name",
		},
		{
			name:    "unknown input name",
			mutate:  func(c *Config) { c.InputNames = []string{"pixel_values"} },
			wantErr: "unknown input tensor name",
		},
		{
			name:    "no outputs",
			mutate:  func(c *Config) { c.OutputNames = nil },
			wantErr: "output tensor name",
		},
		{
			name:    "two outputs",
			mutate:  func(c *Config) { c.OutputNames = []string{"a", "b"} },
			wantErr: "output tensor name",
		},
		{
			name:    "unknown pooling",
			mutate:  func(c *Config) { c.Pooling = "max" },
			wantErr: "pooling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOpenONNX_MissingArtifact(t *testing.T) {
	cfg := validConfig()
	cfg.ArtifactPath = "/nonexistent/model.onnx"

	_, err := OpenONNX(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactMissing)
	assert.Contains(t, err.Error(), "reference")
}

func TestOpenONNX_InvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.HiddenSize = -1

	_, err := OpenONNX(cfg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrArtifactMissing)
}

// TestONNX_EmbedDeterministic exercises a real model end to end. It only
// runs when MODELPORT_TEST_MODEL and MODELPORT_TEST_ONNXRUNTIME point at
// a local ONNX export and runtime library.
func TestONNX_EmbedDeterministic(t *testing.T) {
	modelPath := os.Getenv("MODELPORT_TEST_MODEL")
	libPath := os.Getenv("MODELPORT_TEST_ONNXRUNTIME")
	if modelPath == "" {
		t.Skip("MODELPORT_TEST_MODEL not set")
	}

	require.NoError(t, InitRuntime(libPath))
	defer func() { _ = ShutdownRuntime() }()

	cfg := validConfig()
	cfg.ArtifactPath = modelPath

	p, err := OpenONNX(cfg)
	require.NoError(t, err)
	defer p.Close()

	in := tokenize.FixedShape(
		[]int{101, 2023, 2003, 1037, 3231, 6251, 1012, 102},
		[]int{1, 1, 1, 1, 1, 1, 1, 1},
		make([]int, 8),
		128,
	)

	first, err := p.Embed(in)
	require.NoError(t, err)
	require.Len(t, first, cfg.HiddenSize)

	second, err := p.Embed(in)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same encoding must yield identical output")
}
