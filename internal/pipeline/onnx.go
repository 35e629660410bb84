package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/AshrithaB/modelport/internal/tokenize"
)

// ErrArtifactMissing is returned when a pipeline's backing model file
// cannot be located. It is a structural failure: validation must abort
// before any comparison is attempted.
var ErrArtifactMissing = errors.New("model artifact missing")

// Tensor names a Config may bind to encoding fields.
const (
	TensorInputIDs      = "input_ids"
	TensorAttentionMask = "attention_mask"
	TensorTokenTypeIDs  = "token_type_ids"
)

// Config describes how to run one ONNX model as an embedding pipeline.
// Different exports of the same model disagree on tensor names and on
// whether pooling/normalization live inside the graph, so all of it is
// configuration rather than assumption.
type Config struct {
	// Name identifies the pipeline in reports (e.g. "reference", "candidate").
	Name string
	// ArtifactPath is the .onnx file to load.
	ArtifactPath string
	// InputNames are the model's input tensor names in order. Each must be
	// one of TensorInputIDs, TensorAttentionMask, TensorTokenTypeIDs.
	InputNames []string
	// OutputNames are the model's output tensor names.
	OutputNames []string
	// Pooling selects how token-level output becomes a sentence embedding.
	Pooling PoolingStrategy
	// HiddenSize is the embedding dimension.
	HiddenSize int
	// SkipNormalize disables the trailing L2 normalization. Set it when the
	// exported graph already normalizes its output.
	SkipNormalize bool
}

func (c Config) validate() error {
	if c.ArtifactPath == "" {
		return fmt.Errorf("artifact path is required")
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden size must be positive, got %d", c.HiddenSize)
	}
	if len(c.InputNames) == 0 {
		return fmt.Errorf("at least one input tensor name is required")
	}
	for _, name := range c.InputNames {
		switch name {
		case TensorInputIDs, TensorAttentionMask, TensorTokenTypeIDs:
		default:
			return fmt.Errorf("unknown input tensor name %q", name)
		}
	}
	if len(c.OutputNames) != 1 {
		return fmt.Errorf("exactly one output tensor name is required, got %d", len(c.OutputNames))
	}
	switch c.Pooling {
	case PoolingNone, PoolingMean, PoolingCLS:
	default:
		return fmt.Errorf("unknown pooling strategy %q", c.Pooling)
	}
	return nil
}

// ONNX is a Pipeline backed by an ONNX runtime session. Both the
// reference model and the candidate artifact run through this type with
// different configurations.
type ONNX struct {
	cfg     Config
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

var _ Pipeline = (*ONNX)(nil)

// OpenONNX loads the model file named by cfg and creates an inference
// session for it. InitRuntime must have been called first. A missing
// file reports ErrArtifactMissing.
func OpenONNX(cfg Config) (*ONNX, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", cfg.Name, err)
	}

	data, err := os.ReadFile(cfg.ArtifactPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pipeline %s: %w: %s", cfg.Name, ErrArtifactMissing, cfg.ArtifactPath)
		}
		return nil, fmt.Errorf("pipeline %s: read artifact: %w", cfg.Name, err)
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(data, cfg.InputNames, cfg.OutputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: create session: %w", cfg.Name, err)
	}

	return &ONNX{cfg: cfg, session: session}, nil
}

// Name returns the pipeline's report name.
func (p *ONNX) Name() string {
	return p.cfg.Name
}

// Dimensions returns the configured embedding dimension.
func (p *ONNX) Dimensions() int {
	return p.cfg.HiddenSize
}

// Embed runs inference on a single tokenized input and applies the
// configured pooling and normalization.
func (p *ONNX) Embed(in tokenize.Encoding) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, fmt.Errorf("pipeline %s: session closed", p.cfg.Name)
	}

	seqLen := in.Len()
	if seqLen == 0 {
		return nil, fmt.Errorf("pipeline %s: empty encoding", p.cfg.Name)
	}

	inputShape := ort.NewShape(1, int64(seqLen))

	inputTensors := make([]ort.Value, 0, len(p.cfg.InputNames))
	defer func() {
		for _, t := range inputTensors {
			t.Destroy()
		}
	}()

	for _, name := range p.cfg.InputNames {
		var data []int64
		switch name {
		case TensorInputIDs:
			data = in.IDs
		case TensorAttentionMask:
			data = in.AttentionMask
		case TensorTokenTypeIDs:
			data = in.TypeIDs
		}

		tensor, err := ort.NewTensor(inputShape, data)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: create %s tensor: %w", p.cfg.Name, name, err)
		}
		inputTensors = append(inputTensors, tensor)
	}

	var outputShape ort.Shape
	switch p.cfg.Pooling {
	case PoolingNone:
		outputShape = ort.NewShape(1, int64(p.cfg.HiddenSize))
	default:
		outputShape = ort.NewShape(1, int64(seqLen), int64(p.cfg.HiddenSize))
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: create output tensor: %w", p.cfg.Name, err)
	}
	defer outputTensor.Destroy()

	if err := p.session.Run(inputTensors, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("pipeline %s: run inference: %w", p.cfg.Name, err)
	}

	flat := outputTensor.GetData()

	var embedding []float32
	switch p.cfg.Pooling {
	case PoolingNone:
		if len(flat) != p.cfg.HiddenSize {
			return nil, fmt.Errorf("pipeline %s: unexpected output size: got %d, expected %d",
				p.cfg.Name, len(flat), p.cfg.HiddenSize)
		}
		embedding = make([]float32, p.cfg.HiddenSize)
		copy(embedding, flat)
	default:
		expected := seqLen * p.cfg.HiddenSize
		if len(flat) != expected {
			return nil, fmt.Errorf("pipeline %s: unexpected output size: got %d, expected %d",
				p.cfg.Name, len(flat), expected)
		}
		if p.cfg.Pooling == PoolingMean {
			embedding = meanPooling(flat, in.AttentionMask, seqLen, p.cfg.HiddenSize)
		} else {
			embedding = clsPooling(flat, p.cfg.HiddenSize)
		}
	}

	if !p.cfg.SkipNormalize {
		embedding = l2Normalize(embedding)
	}

	return embedding, nil
}

// Close destroys the inference session. The shared runtime environment
// is left alone; shut it down via ShutdownRuntime.
func (p *ONNX) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	session := p.session
	p.session = nil

	if err := session.Destroy(); err != nil {
		return fmt.Errorf("pipeline %s: destroy session: %w", p.cfg.Name, err)
	}
	return nil
}
