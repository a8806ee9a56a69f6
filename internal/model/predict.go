package model

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/fashion-api/internal/preprocess"
)

// ErrEmptyScoreVector means the classifier returned no scores at all.
var ErrEmptyScoreVector = errors.New("classifier returned an empty score vector")

// ClassifierInvocationError wraps a failure raised by the classifier itself.
type ClassifierInvocationError struct {
	Err error
}

func (e *ClassifierInvocationError) Error() string {
	return fmt.Sprintf("classifier invocation failed: %v", e.Err)
}

func (e *ClassifierInvocationError) Unwrap() error { return e.Err }

// Classifier maps a normalized tensor to one score per class.
type Classifier interface {
	Classify(t *preprocess.Tensor) ([]float32, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(t *preprocess.Tensor) ([]float32, error)

func (f ClassifierFunc) Classify(t *preprocess.Tensor) ([]float32, error) { return f(t) }

// PredictionResult is the reduced output of one classification.
type PredictionResult struct {
	Index      int
	Confidence float32
	Scores     []float32
}

// Predict runs c once on t and picks the highest score. Ties go to the
// lowest index. Scores are expected to be probabilities already.
func Predict(t *preprocess.Tensor, c Classifier) (*PredictionResult, error) {
	scores, err := c.Classify(t)
	if err != nil {
		return nil, &ClassifierInvocationError{Err: err}
	}
	if len(scores) == 0 {
		return nil, ErrEmptyScoreVector
	}

	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	owned := make([]float32, len(scores))
	copy(owned, scores)

	return &PredictionResult{
		Index:      maxIdx,
		Confidence: maxVal,
		Scores:     owned,
	}, nil
}
