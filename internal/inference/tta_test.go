package inference

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceClassifier returns a different probability vector per pass.
type sequenceClassifier struct {
	labels []string
	passes [][]float64
	next   int
}

func (s *sequenceClassifier) Classify(image.Image) (RankedList, error) { return nil, nil }

func (s *sequenceClassifier) ClassifyRaw(image.Image) ([]float64, error) {
	probs := s.passes[s.next%len(s.passes)]
	s.next++
	return probs, nil
}

func (s *sequenceClassifier) Labels() []string { return s.labels }

func TestTTAAveragesAcrossPasses(t *testing.T) {
	c := &sequenceClassifier{
		labels: []string{"A", "B"},
		passes: [][]float64{{0.8, 0.2}, {0.6, 0.4}},
	}

	result, err := NewTTA(c, 2).Predict(testImage(), 2)
	require.NoError(t, err)

	assert.Equal(t, "A", result.Top.Label)
	assert.InDelta(t, 0.7, result.Top.Confidence, 1e-9)
	require.Len(t, result.Ranked, 2)
	assert.Equal(t, "B", result.Ranked[1].Label)
	assert.InDelta(t, 0.3, result.Ranked[1].Confidence, 1e-9)
	assert.Equal(t, 2, result.TTAAugmentations)
}

func TestTTARunsConfiguredNumberOfPasses(t *testing.T) {
	c := &fakeClassifier{labels: []string{"A", "B"}, raw: []float64{0.9, 0.1}}

	result, err := NewTTA(c, 8).Predict(testImage(), 1)
	require.NoError(t, err)

	assert.Equal(t, 8, c.rawCalls)
	require.Len(t, result.Ranked, 1)
	assert.InDelta(t, 0.9, result.Top.Confidence, 1e-9)
}

func TestTTASinglePassFailureAbortsPrediction(t *testing.T) {
	c := &fakeClassifier{labels: []string{"A"}, rawErr: errFakeInference}

	_, err := NewTTA(c, 4).Predict(testImage(), 1)
	assert.ErrorIs(t, err, errFakeInference)
}

func TestTTARejectsMisalignedProbabilityVector(t *testing.T) {
	c := &fakeClassifier{labels: []string{"A", "B", "C"}, raw: []float64{0.5, 0.5}}

	_, err := NewTTA(c, 1).Predict(testImage(), 3)
	assert.Error(t, err)
}

// constClassifier is stateless so a shared TTA instance can be
// exercised from many goroutines at once.
type constClassifier struct {
	labels []string
	raw    []float64
}

func (c *constClassifier) Classify(image.Image) (RankedList, error) { return nil, nil }

func (c *constClassifier) ClassifyRaw(image.Image) ([]float64, error) { return c.raw, nil }

func (c *constClassifier) Labels() []string { return c.labels }

func TestTTAConcurrentPredictsOnSharedInstance(t *testing.T) {
	// Strategy instances are cached and reused across in-flight
	// requests, so one TTA must serve concurrent Predict calls.
	tta := NewTTA(&constClassifier{
		labels: []string{"A", "B"},
		raw:    []float64{0.9, 0.1},
	}, 8)

	const goroutines = 8
	errs := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				result, err := tta.Predict(testImage(), 2)
				if err != nil {
					errs <- err
					return
				}
				if result.Top.Label != "A" {
					errs <- fmt.Errorf("got top %q, want A", result.Top.Label)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}

func TestFlipHorizontalMirrorsPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	flipped := flipHorizontal(img)

	r, _, _, _ := flipped.At(1, 0).RGBA()
	_, _, b, _ := flipped.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), b)
}
