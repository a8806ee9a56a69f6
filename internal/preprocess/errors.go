package preprocess

import "fmt"

// InvalidImageError reports an input image the normalizer cannot accept.
type InvalidImageError struct {
	Reason   string
	Width    int
	Height   int
	Channels int
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image (%dx%d, %d channels): %s", e.Width, e.Height, e.Channels, e.Reason)
}
