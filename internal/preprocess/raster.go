package preprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RasterImage is a decoded image as a row-major grid of 8-bit pixels.
// Pix holds Channels interleaved values per pixel (1 for gray, 3 for RGB).
type RasterImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRasterImage wraps an existing pixel buffer. The buffer is checked by
// Normalize, not here, so callers can build deliberately malformed images.
func NewRasterImage(width, height, channels int, pix []uint8) *RasterImage {
	return &RasterImage{Width: width, Height: height, Channels: channels, Pix: pix}
}

// FromImage converts a decoded image into a RasterImage. Gray images keep
// a single channel; everything else becomes RGB with transparent regions
// flattened onto white.
func FromImage(img image.Image) *RasterImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		pix := make([]uint8, 0, w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := g.PixOffset(bounds.Min.X, y)
			pix = append(pix, g.Pix[off:off+w]...)
		}
		return NewRasterImage(w, h, 1, pix)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Over)

	pix := make([]uint8, 0, w*h*3)
	for i := 0; i < len(canvas.Pix); i += 4 {
		pix = append(pix, canvas.Pix[i], canvas.Pix[i+1], canvas.Pix[i+2])
	}
	return NewRasterImage(w, h, 3, pix)
}

func (r *RasterImage) validate() error {
	if r == nil {
		return &InvalidImageError{Reason: "image is nil"}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return &InvalidImageError{Reason: "image has zero width or height", Width: r.Width, Height: r.Height, Channels: r.Channels}
	}
	if r.Channels != 1 && r.Channels != 3 {
		return &InvalidImageError{Reason: "unsupported channel count", Width: r.Width, Height: r.Height, Channels: r.Channels}
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return &InvalidImageError{Reason: "pixel buffer size mismatch", Width: r.Width, Height: r.Height, Channels: r.Channels}
	}
	return nil
}
