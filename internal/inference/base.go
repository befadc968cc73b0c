package inference

import "image"

// Base runs a single classifier pass and returns its ranked output
// truncated to the requested k.
type Base struct {
	classifier Classifier
}

// NewBase wraps a classifier in the base strategy.
func NewBase(c Classifier) *Base {
	return &Base{classifier: c}
}

func (b *Base) Predict(img image.Image, k int) (*Result, error) {
	ranked, err := b.classifier.Classify(img)
	if err != nil {
		return nil, err
	}

	ranked = ranked.Truncate(k)

	top := Unknown
	if len(ranked) > 0 {
		top = ranked[0]
	}

	return &Result{
		Top:        top,
		Ranked:     ranked,
		ClassCount: len(b.classifier.Labels()),
	}, nil
}
