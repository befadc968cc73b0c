package inference

import (
	"fmt"
	"image"
	"math/rand"
	"sort"
)

// TTA averages classifier probabilities over several randomly augmented
// copies of the same image. The first pass always runs on the original
// image; each further pass applies a coin-flip horizontal mirror. All
// passes must report probabilities over the identical label ordering,
// which the Classifier contract guarantees.
type TTA struct {
	classifier    Classifier
	augmentations int
}

// NewTTA wraps a classifier in the TTA strategy running n total passes.
// n below 1 is clamped to 1 (a single unaugmented pass).
func NewTTA(c Classifier, n int) *TTA {
	if n < 1 {
		n = 1
	}
	return &TTA{classifier: c, augmentations: n}
}

func (t *TTA) Predict(img image.Image, k int) (*Result, error) {
	labels := t.classifier.Labels()
	sums := make([]float64, len(labels))

	for pass := 0; pass < t.augmentations; pass++ {
		in := img
		if pass > 0 {
			in = t.augment(img)
		}

		probs, err := t.classifier.ClassifyRaw(in)
		if err != nil {
			return nil, fmt.Errorf("tta pass %d/%d: %w", pass+1, t.augmentations, err)
		}
		if len(probs) != len(labels) {
			return nil, fmt.Errorf("tta pass %d/%d: got %d probabilities for %d labels",
				pass+1, t.augmentations, len(probs), len(labels))
		}

		for i, p := range probs {
			sums[i] += p
		}
	}

	ranked := make(RankedList, len(labels))
	for i, label := range labels {
		ranked[i] = Prediction{Label: label, Confidence: sums[i] / float64(t.augmentations)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	ranked = ranked.Truncate(k)

	top := Unknown
	if len(ranked) > 0 {
		top = ranked[0]
	}

	return &Result{
		Top:              top,
		Ranked:           ranked,
		ClassCount:       len(labels),
		TTAAugmentations: t.augmentations,
	}, nil
}

// augment applies a coin-flip horizontal mirror. Flipping preserves
// label semantics for pet photos. The top-level rand source is locked,
// so cached TTA instances stay safe under concurrent requests.
func (t *TTA) augment(img image.Image) image.Image {
	if rand.Intn(2) == 0 {
		return img
	}
	return flipHorizontal(img)
}

func flipHorizontal(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(bounds.Max.X-1-(x-bounds.Min.X), y, img.At(x, y))
		}
	}
	return out
}
