package inference

import "image"

// Prediction is a single label with its confidence score.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Unknown is the sentinel returned when no prediction survives
// filtering or combination.
var Unknown = Prediction{Label: "unknown", Confidence: 0.0}

// RankedList is a confidence-descending list of predictions with
// unique labels.
type RankedList []Prediction

// Truncate returns the first k entries, or the whole list if it is
// shorter than k.
func (l RankedList) Truncate(k int) RankedList {
	if k < 0 || k >= len(l) {
		return l
	}
	return l[:k]
}

// MultitaskPrediction holds the two independent heads of a multitask
// model, predicted jointly from one forward pass.
type MultitaskPrediction struct {
	Species Prediction `json:"species"`
	Breed   Prediction `json:"breed"`
}

// Result is the outcome of a strategy's Predict call. Top mirrors
// Ranked[0] when Ranked is non-empty, otherwise it is the Unknown
// sentinel. The counter fields are populated only by the strategy
// they belong to.
type Result struct {
	Top        Prediction `json:"prediction"`
	Ranked     RankedList `json:"top_k"`
	ClassCount int        `json:"num_classes"`

	TTAAugmentations int `json:"tta_augmentations,omitempty"`

	BaseFiltered int `json:"base_filtered,omitempty"`
	TTAFiltered  int `json:"tta_filtered,omitempty"`

	EnsembleSize int `json:"ensemble_size,omitempty"`
	ModelsUsed   int `json:"models_used,omitempty"`

	Multitask *MultitaskPrediction `json:"multitask,omitempty"`
}

// Strategy produces a ranked prediction for one image. Implementations
// are safe for reuse across requests.
type Strategy interface {
	Predict(img image.Image, k int) (*Result, error)
}

// Classifier is the adapter contract the inference strategies run
// against. Classify returns a full, confidence-descending label list.
// ClassifyRaw returns the raw probability vector aligned to Labels();
// every call must use the same stable label ordering.
type Classifier interface {
	Classify(img image.Image) (RankedList, error)
	ClassifyRaw(img image.Image) ([]float64, error)
	Labels() []string
}

// Registry hands out cached classifiers by model path and enumerates
// the models available for ensembling.
type Registry interface {
	Classifier(modelPath string) (Classifier, error)
	Multitask(modelPath string) (HeadClassifier, error)
	ModelPaths() ([]string, error)
}
