package model

import (
	"fmt"
	"sync"

	"github.com/Brownie44l1/fashion-api/internal/preprocess"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu    sync.Mutex
	envReady bool

	ortSetLibraryPath = ort.SetSharedLibraryPath
	ortInitialize     = func() error { return ort.InitializeEnvironment() }
	ortDestroy        = func() error { return ort.DestroyEnvironment() }
)

// initEnvironment initializes the ONNX runtime once per process. A failed
// attempt is not remembered, so a later call tries again.
func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envReady {
		return nil
	}
	if libraryPath != "" {
		ortSetLibraryPath(libraryPath)
	}
	if err := ortInitialize(); err != nil {
		return err
	}
	envReady = true
	return nil
}

// Shutdown releases the ONNX runtime. Close every Server first. A later
// NewServer initializes the runtime again.
func Shutdown() error {
	envMu.Lock()
	defer envMu.Unlock()
	if !envReady {
		return nil
	}
	envReady = false
	return ortDestroy()
}

// Server runs an ONNX classifier. Tensors are allocated per call, so one
// Server can serve concurrent requests.
type Server struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
}

func NewServer(modelPath string, metadata Metadata, libraryPath string) (*Server, error) {
	if err := initEnvironment(libraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:  session,
		Metadata: metadata,
	}, nil
}

// Classify implements Classifier. The native tensors live only for the
// duration of the call.
func (s *Server) Classify(t *preprocess.Tensor) ([]float32, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(s.Metadata.InputShape...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := outputTensor.GetData()
	scores := make([]float32, len(outputData))
	copy(scores, outputData)
	return scores, nil
}

// Warmup pushes one all-zero tensor through the model so the first real
// request does not pay for lazy initialization.
func (s *Server) Warmup() error {
	if _, err := s.Classify(preprocess.NewZeroTensor()); err != nil {
		return fmt.Errorf("warmup failed: %w", err)
	}
	return nil
}

// Close destroys the session. The runtime stays up for other servers; see
// Shutdown.
func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}
