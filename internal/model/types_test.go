package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFashionLabels(t *testing.T) {
	require.Len(t, FashionLabels, 10)
	assert.Equal(t, "T-shirt/top", FashionLabels[0])
	assert.Equal(t, "Ankle boot", FashionLabels[9])
}

func TestLabelChecksScoreLength(t *testing.T) {
	_, err := FashionLabels.Label(&PredictionResult{Index: 2, Scores: []float32{0.1, 0.05, 0.7, 0.15}})
	assert.Error(t, err)

	_, err = Labels{"a", "b"}.Label(&PredictionResult{Index: 5, Scores: []float32{0.5, 0.5}})
	assert.Error(t, err)

	label, err := Labels{"a", "b"}.Label(&PredictionResult{Index: 1, Scores: []float32{0.2, 0.8}})
	require.NoError(t, err)
	assert.Equal(t, "b", label)
}

func TestNewPredictionResponse(t *testing.T) {
	result := &PredictionResult{Index: 1, Confidence: 0.6, Scores: []float32{0.4, 0.6}}
	resp, err := NewPredictionResponse(result, Labels{"Bag", "Coat"})
	require.NoError(t, err)
	assert.Equal(t, "Coat", resp.Class)
	assert.Equal(t, map[string]float32{"Bag": 0.4, "Coat": 0.6}, resp.Predictions)
	assert.Equal(t, []float32{0.4, 0.6}, resp.Scores)
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file uses defaults", func(t *testing.T) {
		metadata, err := LoadMetadata(filepath.Join(dir, "nope.json"))
		require.NoError(t, err)
		assert.Equal(t, DefaultMetadata(), metadata)
	})

	t.Run("overrides", func(t *testing.T) {
		path := filepath.Join(dir, "meta.json")
		body := `{"input_shape":[1,1,28,28],"output_shape":[1,3],"classes":["a","b","c"],"input_name":"x"}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		metadata, err := LoadMetadata(path)
		require.NoError(t, err)
		assert.Equal(t, Labels{"a", "b", "c"}, metadata.Classes)
		assert.Equal(t, []int64{1, 1, 28, 28}, metadata.InputShape)
		assert.Equal(t, "x", metadata.InputName)
		assert.Equal(t, "output", metadata.OutputName)
	})

	t.Run("class count mismatch", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"classes":["a","b"]}`), 0o644))
		_, err := LoadMetadata(path)
		assert.Error(t, err)
	})

	t.Run("wrong input size", func(t *testing.T) {
		path := filepath.Join(dir, "rgb.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"input_shape":[1,28,28,3]}`), 0o644))
		_, err := LoadMetadata(path)
		assert.Error(t, err)
	})

	t.Run("image size other than 28", func(t *testing.T) {
		path := filepath.Join(dir, "size.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"image_size":32}`), 0o644))
		_, err := LoadMetadata(path)
		assert.ErrorContains(t, err, "image size 32")
	})

	t.Run("image size 28 accepted", func(t *testing.T) {
		path := filepath.Join(dir, "size28.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"image_size":28}`), 0o644))
		metadata, err := LoadMetadata(path)
		require.NoError(t, err)
		assert.Equal(t, 28, metadata.ImageSize)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
		_, err := LoadMetadata(path)
		assert.Error(t, err)
	})
}
