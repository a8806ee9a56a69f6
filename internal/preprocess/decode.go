package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotAnImage is returned by Decode when the payload does not sniff as an image.
var ErrNotAnImage = errors.New("payload is not an image")

// Decode sniffs data, decodes it and returns the raster plus the detected
// format. Images with more than maxPixels pixels are rejected from their
// header, before any pixel buffer is allocated. maxPixels <= 0 disables
// the check.
func Decode(data []byte, maxPixels int) (*RasterImage, string, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", fmt.Errorf("%w: detected %s", ErrNotAnImage, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s header: %w", mtype.String(), err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", &InvalidImageError{Reason: fmt.Sprintf("image exceeds %d pixels", maxPixels), Width: cfg.Width, Height: cfg.Height}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", mtype.String(), err)
	}
	return FromImage(img), format, nil
}
