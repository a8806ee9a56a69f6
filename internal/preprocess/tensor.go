package preprocess

import (
	"fmt"
	"image"
	"math"
)

const (
	// ImageSize is the side length of the square grid the classifier was trained on.
	ImageSize = 28
	// TensorLen is the number of values in a normalized tensor.
	TensorLen = ImageSize * ImageSize
)

// InputShape is the NHWC shape of every normalized tensor.
var InputShape = [4]int{1, ImageSize, ImageSize, 1}

// Tensor is a normalized [1, 28, 28, 1] float32 tensor in NHWC order.
type Tensor struct {
	Shape [4]int
	Data  []float32
}

// NewZeroTensor returns an all-zero tensor, used to warm up a model.
func NewZeroTensor() *Tensor {
	return &Tensor{Shape: InputShape, Data: make([]float32, TensorLen)}
}

// TensorFromValues copies already-normalized values into a new tensor.
func TensorFromValues(values []float32) (*Tensor, error) {
	if len(values) != TensorLen {
		return nil, fmt.Errorf("expected %d values, got %d", TensorLen, len(values))
	}
	t := &Tensor{Shape: InputShape, Data: make([]float32, TensorLen)}
	copy(t.Data, values)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MinMax returns the smallest and largest values in the tensor.
func (t *Tensor) MinMax() (float32, float32) {
	if len(t.Data) == 0 {
		return 0, 0
	}
	lo, hi := t.Data[0], t.Data[0]
	for _, v := range t.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Validate checks the shape and that every value lies in [0, 1].
func (t *Tensor) Validate() error {
	if t.Shape != InputShape {
		return fmt.Errorf("tensor shape %v, want %v", t.Shape, InputShape)
	}
	if len(t.Data) != TensorLen {
		return fmt.Errorf("tensor has %d values, want %d", len(t.Data), TensorLen)
	}
	for i, v := range t.Data {
		if math.IsNaN(float64(v)) {
			return fmt.Errorf("tensor value %d is NaN", i)
		}
	}
	if lo, hi := t.MinMax(); lo < 0 || hi > 1 {
		return fmt.Errorf("tensor range [%.4f, %.4f] outside [0, 1]", lo, hi)
	}
	return nil
}

// Image renders the tensor as a 28x28 grayscale image for previews.
func (t *Tensor) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, t.Shape[2], t.Shape[1]))
	for i, v := range t.Data {
		img.Pix[i] = uint8(math.Round(float64(v) * 255))
	}
	return img
}
