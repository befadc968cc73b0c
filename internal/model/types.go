package model

import "errors"

// Metadata is the JSON sidecar describing a model artifact: tensor
// shapes, label vocabulary and training provenance.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`

	// Present only for multitask models with a species head.
	SpeciesClasses []string `json:"species_classes,omitempty"`
	SpeciesShape   []int64  `json:"species_shape,omitempty"`

	Architecture string  `json:"architecture,omitempty"`
	Accuracy     float64 `json:"accuracy,omitempty"`
	Description  string  `json:"description,omitempty"`
}

var (
	// ErrModelLoad marks a missing or corrupt model artifact.
	ErrModelLoad = errors.New("failed to load model")

	// ErrInference marks a failed inference call against a loaded
	// model.
	ErrInference = errors.New("inference failed")
)
