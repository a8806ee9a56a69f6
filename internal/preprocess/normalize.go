package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/nfnt/resize"
)

// ResizeMethod selects the resampling used to bring images down to 28x28.
type ResizeMethod string

const (
	ResizeBilinear ResizeMethod = "bilinear"
	ResizeNearest  ResizeMethod = "nearest"
)

// ParseResizeMethod accepts "bilinear" or "nearest", case-insensitively.
func ParseResizeMethod(s string) (ResizeMethod, error) {
	switch m := ResizeMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case ResizeBilinear, ResizeNearest:
		return m, nil
	case "":
		return ResizeBilinear, nil
	default:
		return "", fmt.Errorf("unknown resize method %q", s)
	}
}

func (m ResizeMethod) interpolation() resize.InterpolationFunction {
	if m == ResizeNearest {
		return resize.NearestNeighbor
	}
	return resize.Bilinear
}

// Normalizer turns raster images into classifier input tensors. The zero
// value resizes bilinearly. It holds no per-call state.
type Normalizer struct {
	Resize ResizeMethod
}

// NewNormalizer returns a Normalizer using the given resize method.
func NewNormalizer(method ResizeMethod) Normalizer {
	return Normalizer{Resize: method}
}

// Normalize converts img into a [1, 28, 28, 1] tensor: grayscale, resize,
// invert, scale to [0, 1]. The steps run in that order; swapping grayscale
// and inversion changes the output.
func (n Normalizer) Normalize(img *RasterImage) (*Tensor, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	gray := grayscale(img)
	small := resize.Resize(ImageSize, ImageSize, gray, n.Resize.interpolation())

	t := &Tensor{Shape: InputShape, Data: make([]float32, 0, TensorLen)}
	b := small.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t.Data = append(t.Data, float32(invert(grayAt(small, x, y)))/0xffff)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("normalization produced a bad tensor: %w", err)
	}
	return t, nil
}

// grayscale averages RGB channels into one value per pixel. Single-channel
// values are only widened to 16 bits (v*257). The 16-bit range lets the mean
// of three bytes keep its fractional part through the resize.
func grayscale(img *RasterImage) *image.Gray16 {
	g := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		var v int
		if img.Channels == 1 {
			v = int(img.Pix[i]) * 257
		} else {
			p := img.Pix[i*3 : i*3+3]
			sum := int(p[0]) + int(p[1]) + int(p[2])
			v = (sum*257 + 1) / 3
		}
		g.Pix[2*i] = uint8(v >> 8)
		g.Pix[2*i+1] = uint8(v)
	}
	return g
}

// invert flips an intensity: dark garments on light backgrounds become
// light on dark, matching the training images. On byte-valued pixels it
// equals 255 - v scaled by 257.
func invert(v uint16) uint16 {
	return 0xffff - v
}

func grayAt(img image.Image, x, y int) uint16 {
	if g, ok := img.(*image.Gray16); ok {
		return g.Gray16At(x, y).Y
	}
	return color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
}
