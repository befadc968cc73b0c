package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/petminder/breed-api/internal/config"
	"github.com/petminder/breed-api/internal/inference"
	"github.com/petminder/breed-api/internal/model"
	"github.com/petminder/breed-api/internal/registry"
)

// ModelStore is the registry surface the handlers need: cached
// classifiers for the strategies plus model listings for /models.
type ModelStore interface {
	inference.Registry
	Models() ([]registry.ModelInfo, error)
}

// Handler serves the prediction API.
type Handler struct {
	store ModelStore
	cfg   config.Config

	mu         sync.RWMutex
	strategies map[string]inference.Strategy
}

// NewHandler builds the handler over a model store and the loaded
// configuration.
func NewHandler(store ModelStore, cfg config.Config) *Handler {
	return &Handler{
		store:      store,
		cfg:        cfg,
		strategies: make(map[string]inference.Strategy),
	}
}

// Health reports service readiness: 503 until at least one model is
// discoverable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	models, err := h.store.Models()
	if err != nil || len(models) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "error",
			"message": "no models available",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"models":      len(models),
		"strategies":  inference.Names(),
		"api_version": "1.0.0",
	})
}

// Models lists every discoverable model with its metadata.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	models, err := h.store.Models()
	if err != nil {
		log.Printf("listing models: %v", err)
		http.Error(w, "Failed to list models", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

type predictResponse struct {
	Strategy string `json:"strategy"`
	Model    string `json:"model,omitempty"`
	*inference.Result
}

// Predict classifies an uploaded image with the requested strategy.
// Query params: strategy (default base), model (default from config),
// k (default from config, mix uses its own depth).
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := int64(h.cfg.MaxImageMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse form (limit %d MB)", h.cfg.MaxImageMB), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	strategyName := r.URL.Query().Get("strategy")
	if strategyName == "" {
		strategyName = inference.StrategyBase
	}

	modelPath := r.URL.Query().Get("model")
	if modelPath == "" && strategyName != inference.StrategyEnsemble {
		modelPath = h.cfg.DefaultModel
	}

	k, err := h.topK(r.URL.Query().Get("k"), strategyName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	strategy, err := h.strategy(strategyName, modelPath)
	if err != nil {
		h.writeError(w, err)
		return
	}

	log.Printf("predict: strategy=%s model=%s k=%d file=%s size=%d format=%s",
		strategyName, modelPath, k, header.Filename, header.Size, format)

	result, err := strategy.Predict(img, k)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Strategy: strategyName,
		Model:    modelPath,
		Result:   result,
	})
}

// topK resolves the requested list depth; mix defaults to its own
// configured depth.
func (h *Handler) topK(raw, strategyName string) (int, error) {
	if raw == "" {
		if strategyName == inference.StrategyMix {
			return h.cfg.Strategy.MixTopK, nil
		}
		return h.cfg.Strategy.TopK, nil
	}

	k, err := strconv.Atoi(raw)
	if err != nil || k < 1 {
		return 0, fmt.Errorf("invalid k %q: must be a positive integer", raw)
	}
	return k, nil
}

// strategy returns the cached instance for (name, model), building it
// on first use. A race to build the same key keeps the first stored
// instance.
func (h *Handler) strategy(name, modelPath string) (inference.Strategy, error) {
	key := name + "|" + modelPath

	h.mu.RLock()
	s, ok := h.strategies[key]
	h.mu.RUnlock()
	if ok {
		return s, nil
	}

	built, err := inference.New(name, modelPath, h.store, inference.Options{
		TTAAugmentations: h.cfg.Strategy.TTAAugmentations,
		PurityThreshold:  h.cfg.Strategy.PurityThreshold,
		MarginThreshold:  h.cfg.Strategy.MarginThreshold,
	})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.strategies[key]; ok {
		return existing, nil
	}
	h.strategies[key] = built
	return built, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inference.ErrUnknownStrategy),
		errors.Is(err, inference.ErrModelPathRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrModelLoad):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inference.ErrNoModels),
		errors.Is(err, inference.ErrAllModelsFailed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Printf("prediction error: %v", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}
