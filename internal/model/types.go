package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/fashion-api/internal/preprocess"
)

// Labels is an ordered class-name table indexed by model output position.
type Labels []string

// FashionLabels are the ten Fashion-MNIST categories.
var FashionLabels = Labels{
	"T-shirt/top",
	"Trouser",
	"Pullover",
	"Dress",
	"Coat",
	"Sandal",
	"Shirt",
	"Sneaker",
	"Bag",
	"Ankle boot",
}

// Label names the predicted class, checking that the result was produced
// for a model with exactly this many classes.
func (l Labels) Label(r *PredictionResult) (string, error) {
	if len(r.Scores) != len(l) {
		return "", fmt.Errorf("model returned %d scores for %d labels", len(r.Scores), len(l))
	}
	if r.Index < 0 || r.Index >= len(l) {
		return "", fmt.Errorf("predicted index %d out of range", r.Index)
	}
	return l[r.Index], nil
}

type Metadata struct {
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	Classes     Labels  `json:"classes"`
	ImageSize   int     `json:"image_size"`
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
}

// DefaultMetadata describes a Fashion-MNIST classifier with NHWC input.
func DefaultMetadata() Metadata {
	return Metadata{
		InputShape:  []int64{1, 28, 28, 1},
		OutputShape: []int64{1, int64(len(FashionLabels))},
		Classes:     FashionLabels,
		ImageSize:   preprocess.ImageSize,
		InputName:   "input",
		OutputName:  "output",
	}
}

// LoadMetadata reads a metadata file over the defaults. An empty path or a
// missing file yields the defaults unchanged.
func LoadMetadata(path string) (Metadata, error) {
	metadata := DefaultMetadata()
	if path == "" {
		return metadata, nil
	}

	metaFile, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return metadata, nil
	}
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadata.validate(); err != nil {
		return metadata, err
	}
	return metadata, nil
}

func (m Metadata) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("metadata lists no classes")
	}
	if len(m.OutputShape) == 0 {
		return fmt.Errorf("metadata has no output shape")
	}
	if n := m.OutputShape[len(m.OutputShape)-1]; n != int64(len(m.Classes)) {
		return fmt.Errorf("output shape %v does not match %d classes", m.OutputShape, len(m.Classes))
	}
	if m.ImageSize != preprocess.ImageSize {
		return fmt.Errorf("image size %d unsupported, preprocessing produces %dx%d", m.ImageSize, preprocess.ImageSize, preprocess.ImageSize)
	}
	var size int64 = 1
	for _, d := range m.InputShape {
		size *= d
	}
	if size != preprocess.TensorLen {
		return fmt.Errorf("input shape %v does not hold a 28x28 grayscale image", m.InputShape)
	}
	return nil
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Index       int                `json:"index"`
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
	Scores      []float32          `json:"scores"`
}

// NewPredictionResponse labels r for the wire.
func NewPredictionResponse(r *PredictionResult, labels Labels) (*PredictionResponse, error) {
	class, err := labels.Label(r)
	if err != nil {
		return nil, err
	}
	predictions := make(map[string]float32, len(labels))
	for i, val := range r.Scores {
		predictions[labels[i]] = val
	}
	return &PredictionResponse{
		Index:       r.Index,
		Class:       class,
		Confidence:  r.Confidence,
		Predictions: predictions,
		Scores:      r.Scores,
	}, nil
}
