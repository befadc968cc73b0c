package inference

import (
	"errors"
	"fmt"
	"image"
)

// fakeClassifier returns canned results regardless of the input image.
type fakeClassifier struct {
	labels      []string
	ranked      RankedList
	raw         []float64
	classifyErr error
	rawErr      error
	rawCalls    int
}

func (f *fakeClassifier) Classify(image.Image) (RankedList, error) {
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.ranked, nil
}

func (f *fakeClassifier) ClassifyRaw(image.Image) ([]float64, error) {
	f.rawCalls++
	if f.rawErr != nil {
		return nil, f.rawErr
	}
	return f.raw, nil
}

func (f *fakeClassifier) Labels() []string { return f.labels }

// fakeRegistry serves fixed classifiers by path.
type fakeRegistry struct {
	classifiers map[string]Classifier
	multitask   map[string]HeadClassifier
	paths       []string
	pathsErr    error
}

func (r *fakeRegistry) Classifier(path string) (Classifier, error) {
	c, ok := r.classifiers[path]
	if !ok {
		return nil, fmt.Errorf("model not found: %s", path)
	}
	return c, nil
}

func (r *fakeRegistry) Multitask(path string) (HeadClassifier, error) {
	c, ok := r.multitask[path]
	if !ok {
		return nil, fmt.Errorf("model not found: %s", path)
	}
	return c, nil
}

func (r *fakeRegistry) ModelPaths() ([]string, error) {
	return r.paths, r.pathsErr
}

type fakeHeadClassifier struct {
	heads  MultitaskPrediction
	breeds []string
	err    error
}

func (f *fakeHeadClassifier) ClassifyHeads(image.Image) (MultitaskPrediction, error) {
	if f.err != nil {
		return MultitaskPrediction{}, f.err
	}
	return f.heads, nil
}

func (f *fakeHeadClassifier) BreedLabels() []string { return f.breeds }

var errFakeInference = errors.New("fake inference failure")

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}
