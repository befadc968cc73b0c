package inference

import "image"

// HeadClassifier is the adapter contract for models emitting two
// classification heads, species and breed, from one forward pass.
type HeadClassifier interface {
	ClassifyHeads(img image.Image) (MultitaskPrediction, error)
	BreedLabels() []string
}

// Multitask predicts species and breed jointly from a two-headed
// model. The per-head result keeps its own shape instead of being
// flattened into a single ranked list.
type Multitask struct {
	classifier HeadClassifier
}

// NewMultitask wraps a two-headed classifier.
func NewMultitask(c HeadClassifier) *Multitask {
	return &Multitask{classifier: c}
}

func (m *Multitask) Predict(img image.Image, k int) (*Result, error) {
	heads, err := m.classifier.ClassifyHeads(img)
	if err != nil {
		return nil, err
	}

	// The breed head is the primary answer; the joint shape rides
	// alongside for callers that want both heads.
	return &Result{
		Top:        heads.Breed,
		Ranked:     RankedList{heads.Breed},
		ClassCount: len(m.classifier.BreedLabels()),
		Multitask:  &heads,
	}, nil
}
