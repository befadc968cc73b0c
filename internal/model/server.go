package model

import (
	"fmt"
	"image"
	"math"
	"os"
	"sort"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/petminder/breed-api/internal/inference"
)

var ortInit sync.Once

func initEnvironment() error {
	var err error
	ortInit.Do(func() {
		err = ort.InitializeEnvironment()
	})
	return err
}

// Session wraps one ONNX model behind the classifier contract the
// inference strategies run against. The input/output tensors are
// reused across calls, so Run is serialized with a mutex.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	meta         Metadata
	path         string
}

// NewSession loads a model artifact and its metadata sidecar. A
// missing or corrupt artifact surfaces as ErrModelLoad.
func NewSession(modelPath string) (*Session, error) {
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

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("%w: creating input tensor: %v", ErrModelLoad, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%w: creating output tensor: %v", ErrModelLoad, err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: creating ONNX session for %s: %v", ErrModelLoad, modelPath, err)
	}

	return &Session{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		meta:         meta,
		path:         modelPath,
	}, nil
}

// Metadata returns the sidecar metadata the session was loaded with.
func (s *Session) Metadata() Metadata { return s.meta }

// Path returns the model file the session was loaded from.
func (s *Session) Path() string { return s.path }

// Labels returns the label vocabulary in its stable metadata order.
func (s *Session) Labels() []string { return s.meta.Classes }

// Classify runs one forward pass and returns the full label list
// sorted by descending probability.
func (s *Session) Classify(img image.Image) (inference.RankedList, error) {
	probs, err := s.ClassifyRaw(img)
	if err != nil {
		return nil, err
	}

	ranked := make(inference.RankedList, len(s.meta.Classes))
	for i, label := range s.meta.Classes {
		ranked[i] = inference.Prediction{Label: label, Confidence: probs[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	return ranked, nil
}

// ClassifyRaw runs one forward pass and returns the probability
// vector aligned to Labels().
func (s *Session) ClassifyRaw(img image.Image) ([]float64, error) {
	inputData := Preprocess(img, s.meta.ImageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), inputData)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInference, s.path, err)
	}

	output := s.outputTensor.GetData()
	if len(output) < len(s.meta.Classes) {
		return nil, fmt.Errorf("%w: %s: output has %d values for %d classes",
			ErrInference, s.path, len(output), len(s.meta.Classes))
	}

	return softmax(output[:len(s.meta.Classes)]), nil
}

// Close releases the session and its tensors.
func (s *Session) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

// softmax converts the model's logits into probabilities summing to 1.
func softmax(logits []float32) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v - maxLogit))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
