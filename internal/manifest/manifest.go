// Package manifest reads and checks the YAML description that ships next
// to an exported artifact: model identity, license, tensor shapes, and
// the post-processing contract the artifact claims to implement.
package manifest

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TensorSpec describes one input or output tensor of the artifact.
type TensorSpec struct {
	Name        string `yaml:"name"`
	Shape       []int  `yaml:"shape,flow"`
	DType       string `yaml:"dtype"`
	Description string `yaml:"description"`
}

// Manifest describes an exported embedding artifact.
type Manifest struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Author      string `yaml:"author"`
	License     string `yaml:"license"`
	Description string `yaml:"description"`

	Inputs  []TensorSpec `yaml:"inputs"`
	Outputs []TensorSpec `yaml:"outputs"`

	// EmbeddingDim is the output vector length the artifact promises.
	EmbeddingDim int `yaml:"embedding_dim"`
	// MaxSeqLen is the fixed input sequence length the model was traced with.
	MaxSeqLen int `yaml:"max_seq_len"`
	// Pooling names the strategy baked into (or expected around) the graph.
	Pooling string `yaml:"pooling"`
	// Normalized records whether outputs are L2-normalized in the graph.
	Normalized bool `yaml:"normalized"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the fields the validator depends on.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if m.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be positive, got %d", m.EmbeddingDim)
	}
	if m.MaxSeqLen <= 0 {
		return fmt.Errorf("max_seq_len must be positive, got %d", m.MaxSeqLen)
	}
	if len(m.Inputs) == 0 {
		return fmt.Errorf("at least one input tensor is required")
	}
	if len(m.Outputs) == 0 {
		return fmt.Errorf("at least one output tensor is required")
	}
	return nil
}

// CheckDimensions cross-checks the manifest against the configured
// pipeline geometry. A disagreement here is a conversion defect caught
// before any inference runs.
func (m *Manifest) CheckDimensions(embeddingDim, maxSeqLen int) error {
	if m.EmbeddingDim != embeddingDim {
		return fmt.Errorf("manifest embedding_dim %d does not match configured dimension %d",
			m.EmbeddingDim, embeddingDim)
	}
	if m.MaxSeqLen != maxSeqLen {
		return fmt.Errorf("manifest max_seq_len %d does not match configured length %d",
			m.MaxSeqLen, maxSeqLen)
	}
	return nil
}

// Render writes the manifest in a human-readable layout.
func (m *Manifest) Render(w io.Writer) {
	fmt.Fprintf(w, "Name:        %s\n", m.Name)
	fmt.Fprintf(w, "Version:     %s\n", m.Version)
	if m.Author != "" {
		fmt.Fprintf(w, "Author:      %s\n", m.Author)
	}
	if m.License != "" {
		fmt.Fprintf(w, "License:     %s\n", m.License)
	}
	if m.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(w, "Embedding:   %d dims, max %d tokens, pooling=%s, normalized=%t\n",
		m.EmbeddingDim, m.MaxSeqLen, m.Pooling, m.Normalized)

	fmt.Fprintln(w, "Inputs:")
	for _, in := range m.Inputs {
		renderTensor(w, in)
	}
	fmt.Fprintln(w, "Outputs:")
	for _, out := range m.Outputs {
		renderTensor(w, out)
	}
}

func renderTensor(w io.Writer, t TensorSpec) {
	fmt.Fprintf(w, "  - %s %v %s", t.Name, t.Shape, t.DType)
	if t.Description != "" {
		fmt.Fprintf(w, ": %s", t.Description)
	}
	fmt.Fprintln(w)
}
