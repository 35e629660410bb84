// Package pipeline runs sentence-embedding inference. A Pipeline maps a
// tokenized input to an embedding vector; the reference model and the
// exported candidate artifact are two implementations of the same
// contract, compared elsewhere for numerical interchangeability.
package pipeline

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/AshrithaB/modelport/internal/tokenize"
)

// Pipeline is a stateless map from tokenized input to embedding vector.
// Implementations must be deterministic: the same encoding yields the
// same vector on every call.
type Pipeline interface {
	// Name identifies the pipeline in reports and errors.
	Name() string

	// Dimensions returns the declared embedding vector size.
	Dimensions() int

	// Embed runs inference on a single tokenized input.
	Embed(in tokenize.Encoding) ([]float32, error)

	// Close releases model resources.
	Close() error
}

var (
	runtimeMu      sync.Mutex
	runtimeActive  bool
	runtimeLibPath string
)

// InitRuntime initializes the shared ONNX runtime environment. libPath
// may be empty if onnxruntime is resolvable by the system linker. Safe to
// call more than once; later calls must not change the library path.
func InitRuntime(libPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeActive {
		if libPath != "" && libPath != runtimeLibPath {
			return fmt.Errorf("onnx runtime already initialized with library %q", runtimeLibPath)
		}
		return nil
	}

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}

	runtimeActive = true
	runtimeLibPath = libPath
	return nil
}

// ShutdownRuntime destroys the shared ONNX runtime environment. Call once
// after all pipelines are closed.
func ShutdownRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !runtimeActive {
		return nil
	}
	runtimeActive = false

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("destroy onnx runtime: %w", err)
	}
	return nil
}
