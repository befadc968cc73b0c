package inference

import (
	"image"
	"log"
	"sync"
)

// Ensemble runs every model the registry can load through the base
// strategy and merges their top-k lists. Models that fail to load or
// fail to predict are skipped rather than failing the whole request.
type Ensemble struct {
	strategies []*Base
}

// NewEnsemble loads every model the registry advertises. A model that
// fails to load is logged and skipped; returns ErrNoModels when none
// load at all.
func NewEnsemble(reg Registry) (*Ensemble, error) {
	paths, err := reg.ModelPaths()
	if err != nil {
		return nil, err
	}

	var strategies []*Base
	for _, path := range paths {
		c, err := reg.Classifier(path)
		if err != nil {
			log.Printf("ensemble: skipping model %s: %v", path, err)
			continue
		}
		strategies = append(strategies, NewBase(c))
	}
	if len(strategies) == 0 {
		return nil, ErrNoModels
	}

	return &Ensemble{strategies: strategies}, nil
}

func (e *Ensemble) Predict(img image.Image, k int) (*Result, error) {
	lists := make([]RankedList, len(e.strategies))
	succeeded := make([]bool, len(e.strategies))
	classCounts := make([]int, len(e.strategies))

	// Per-model predictions are independent; run them concurrently and
	// treat individual failures as missing contributions.
	var wg sync.WaitGroup
	for i, s := range e.strategies {
		wg.Add(1)
		go func(i int, s *Base) {
			defer wg.Done()
			result, err := s.Predict(img, k)
			if err != nil {
				log.Printf("ensemble: model %d prediction failed: %v", i, err)
				return
			}
			succeeded[i] = true
			lists[i] = result.Ranked
			classCounts[i] = result.ClassCount
		}(i, s)
	}
	wg.Wait()

	// A model counts as used when its prediction call succeeded, even
	// if it ranked nothing; only failed calls are terminal.
	used := 0
	var contributions []RankedList
	for i, ok := range succeeded {
		if !ok {
			continue
		}
		used++
		if len(lists[i]) > 0 {
			contributions = append(contributions, lists[i])
		}
	}
	if used == 0 {
		return nil, ErrAllModelsFailed
	}

	combined := Combine(contributions, k)

	top := Unknown
	if len(combined) > 0 {
		top = combined[0]
	}

	classCount := 0
	for _, n := range classCounts {
		if n > 0 {
			classCount = n
			break
		}
	}

	return &Result{
		Top:          top,
		Ranked:       combined,
		ClassCount:   classCount,
		EnsembleSize: len(e.strategies),
		ModelsUsed:   used,
	}, nil
}
