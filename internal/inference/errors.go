package inference

import "errors"

var (
	// ErrUnknownStrategy is returned by the factory for a strategy
	// name outside the supported set.
	ErrUnknownStrategy = errors.New("unknown inference strategy")

	// ErrModelPathRequired is returned by the factory when a strategy
	// that runs a single model is requested without one.
	ErrModelPathRequired = errors.New("model path required")

	// ErrNoModels is returned by the ensemble strategy when no model
	// could be loaded from the registry.
	ErrNoModels = errors.New("no models available for ensemble inference")

	// ErrAllModelsFailed is returned by the ensemble strategy when
	// models loaded but every prediction call failed.
	ErrAllModelsFailed = errors.New("all models failed to make predictions")
)
