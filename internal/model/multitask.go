package model

import (
	"fmt"
	"image"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/petminder/breed-api/internal/inference"
)

// MultitaskSession wraps a two-headed ONNX model that predicts species
// and breed jointly from one forward pass.
type MultitaskSession struct {
	mu            sync.Mutex
	session       *ort.AdvancedSession
	inputTensor   *ort.Tensor[float32]
	speciesTensor *ort.Tensor[float32]
	breedTensor   *ort.Tensor[float32]
	meta          Metadata
	path          string
}

// NewMultitaskSession loads a multitask model artifact. The metadata
// sidecar must carry both the breed vocabulary (classes) and the
// species vocabulary.
func NewMultitaskSession(modelPath string) (*MultitaskSession, error) {
	if err := initEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: initializing ONNX environment: %v", ErrModelLoad, err)
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: model file not found: %s", ErrModelLoad, modelPath)
	}

	meta, err := LoadMetadata(modelPath)
	if err != nil {
		return nil, err
	}
	if len(meta.SpeciesClasses) == 0 || len(meta.SpeciesShape) == 0 {
		return nil, fmt.Errorf("%w: %s: metadata has no species head", ErrModelLoad, modelPath)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("%w: creating input tensor: %v", ErrModelLoad, err)
	}

	speciesTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.SpeciesShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%w: creating species tensor: %v", ErrModelLoad, err)
	}

	breedTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		speciesTensor.Destroy()
		return nil, fmt.Errorf("%w: creating breed tensor: %v", ErrModelLoad, err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"species", "breed"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{speciesTensor, breedTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		speciesTensor.Destroy()
		breedTensor.Destroy()
		return nil, fmt.Errorf("%w: creating ONNX session for %s: %v", ErrModelLoad, modelPath, err)
	}

	return &MultitaskSession{
		session:       session,
		inputTensor:   inputTensor,
		speciesTensor: speciesTensor,
		breedTensor:   breedTensor,
		meta:          meta,
		path:          modelPath,
	}, nil
}

// BreedLabels returns the breed vocabulary in its stable order.
func (s *MultitaskSession) BreedLabels() []string { return s.meta.Classes }

// ClassifyHeads runs one forward pass and returns the argmax of each
// head after softmax.
func (s *MultitaskSession) ClassifyHeads(img image.Image) (inference.MultitaskPrediction, error) {
	inputData := Preprocess(img, s.meta.ImageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), inputData)

	if err := s.session.Run(); err != nil {
		return inference.MultitaskPrediction{}, fmt.Errorf("%w: %s: %v", ErrInference, s.path, err)
	}

	species, err := headPrediction(s.speciesTensor.GetData(), s.meta.SpeciesClasses, s.path)
	if err != nil {
		return inference.MultitaskPrediction{}, err
	}
	breed, err := headPrediction(s.breedTensor.GetData(), s.meta.Classes, s.path)
	if err != nil {
		return inference.MultitaskPrediction{}, err
	}

	return inference.MultitaskPrediction{Species: species, Breed: breed}, nil
}

// Close releases the session and its tensors.
func (s *MultitaskSession) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.speciesTensor != nil {
		s.speciesTensor.Destroy()
	}
	if s.breedTensor != nil {
		s.breedTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

func headPrediction(logits []float32, labels []string, path string) (inference.Prediction, error) {
	if len(logits) < len(labels) {
		return inference.Prediction{}, fmt.Errorf("%w: %s: head has %d values for %d labels",
			ErrInference, path, len(logits), len(labels))
	}

	probs := softmax(logits[:len(labels)])

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	return inference.Prediction{Label: labels[best], Confidence: probs[best]}, nil
}
