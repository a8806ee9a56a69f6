package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/fashion-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlackPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.Black)
		}
	}
	path := filepath.Join(dir, "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestPreprocessCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeBlackPNG(t, dir)
	out := filepath.Join(dir, "out.png")

	var stdout bytes.Buffer
	cli := NewCLI()
	cli.SetOut(&stdout)
	cli.SetArgs([]string{"preprocess", in, "-o", out, "--resize", "nearest"})
	require.NoError(t, cli.Execute())

	assert.Contains(t, stdout.String(), "shape [1 28 28 1]")
	assert.Contains(t, stdout.String(), "range [1.0000, 1.0000]")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 28, img.Bounds().Dx())
	r, _, _, _ := img.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestPreprocessRejectsUnknownResize(t *testing.T) {
	dir := t.TempDir()
	cli := NewCLI()
	cli.SetOut(&bytes.Buffer{})
	cli.SetErr(&bytes.Buffer{})
	cli.SetArgs([]string{"preprocess", writeBlackPNG(t, dir), "--resize", "cubic"})
	assert.Error(t, cli.Execute())
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	result := &model.PredictionResult{Index: 1, Confidence: 0.75, Scores: []float32{0.25, 0.75}}
	require.NoError(t, printResult(&buf, result, model.Labels{"Bag", "Coat"}))
	assert.Contains(t, buf.String(), "1: Coat (75.00%)")
}

type closeRecorder struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (w *closeRecorder) Close() error {
	w.closed = true
	return w.closeErr
}

func TestWritePNGReportsCloseError(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))

	ok := &closeRecorder{}
	require.NoError(t, writePNG(ok, img))
	assert.True(t, ok.closed)
	_, err := png.Decode(&ok.Buffer)
	require.NoError(t, err)

	failing := &closeRecorder{closeErr: errors.New("no space left on device")}
	err = writePNG(failing, img)
	assert.EqualError(t, err, "no space left on device")
	assert.True(t, failing.closed)
}
