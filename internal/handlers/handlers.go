package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Brownie44l1/fashion-api/internal/model"
	"github.com/Brownie44l1/fashion-api/internal/preprocess"
	"github.com/rs/zerolog"
)

type Handler struct {
	classifier     model.Classifier
	labels         model.Labels
	normalizer     preprocess.Normalizer
	maxUploadBytes int64
	maxImagePixels int
}

// NewHandler wires the API. maxUploadBytes caps the request body;
// maxImagePixels caps the decoded image, which can be far larger.
func NewHandler(classifier model.Classifier, labels model.Labels, normalizer preprocess.Normalizer, maxUploadBytes int64, maxImagePixels int) *Handler {
	return &Handler{
		classifier:     classifier,
		labels:         labels,
		normalizer:     normalizer,
		maxUploadBytes: maxUploadBytes,
		maxImagePixels: maxImagePixels,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	tensor, err := preprocess.TensorFromValues(req.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.respond(w, r, tensor)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	raster, format, err := preprocess.Decode(data, h.maxImagePixels)
	if errors.Is(err, preprocess.ErrNotAnImage) {
		http.Error(w, "Please upload an image file", http.StatusUnsupportedMediaType)
		return
	}
	var invalid *preprocess.InvalidImageError
	if errors.As(err, &invalid) {
		http.Error(w, invalid.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	logger.Debug().
		Str("file", header.Filename).
		Int64("size", header.Size).
		Str("format", format).
		Int("width", raster.Width).
		Int("height", raster.Height).
		Msg("image received")

	tensor, err := h.normalizer.Normalize(raster)
	if err != nil {
		if errors.As(err, &invalid) {
			http.Error(w, invalid.Error(), http.StatusBadRequest)
			return
		}
		logger.Error().Err(err).Msg("preprocessing failed")
		http.Error(w, "Failed to preprocess image", http.StatusInternalServerError)
		return
	}

	h.respond(w, r, tensor)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, tensor *preprocess.Tensor) {
	logger := zerolog.Ctx(r.Context())

	result, err := model.Predict(tensor, h.classifier)
	if err != nil {
		logger.Error().Err(err).Msg("prediction failed")
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	resp, err := model.NewPredictionResponse(result, h.labels)
	if err != nil {
		logger.Error().Err(err).Msg("prediction does not match label table")
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("class", resp.Class).
		Float32("confidence", resp.Confidence).
		Msgf("predicted class %d", resp.Index)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
