package inference

import (
	"image"

	"golang.org/x/sync/errgroup"
)

// Mix runs the base and TTA strategies over the same image, gates each
// result set through the purity and margin filters, and merges whatever
// survives. When both sets are filtered away it falls back to the raw
// base output so the caller still gets an answer whenever the
// classifier produced one.
type Mix struct {
	base            *Base
	tta             *TTA
	purityThreshold float64
	marginThreshold float64
}

// NewMix builds the mix strategy on top of an existing base and TTA
// pair sharing one classifier.
func NewMix(base *Base, tta *TTA, purityThreshold, marginThreshold float64) *Mix {
	return &Mix{
		base:            base,
		tta:             tta,
		purityThreshold: purityThreshold,
		marginThreshold: marginThreshold,
	}
}

func (m *Mix) Predict(img image.Image, k int) (*Result, error) {
	var baseResult, ttaResult *Result

	// Both legs must succeed; either failure aborts the mix.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		baseResult, err = m.base.Predict(img, k)
		return err
	})
	g.Go(func() error {
		var err error
		ttaResult, err = m.tta.Predict(img, k)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseFiltered := FilterByMargin(FilterByPurity(baseResult.Ranked, m.purityThreshold), m.marginThreshold)
	ttaFiltered := FilterByMargin(FilterByPurity(ttaResult.Ranked, m.purityThreshold), m.marginThreshold)

	var lists []RankedList
	if len(baseFiltered) > 0 {
		lists = append(lists, baseFiltered)
	}
	if len(ttaFiltered) > 0 {
		lists = append(lists, ttaFiltered)
	}

	var combined RankedList
	if len(lists) == 0 {
		// Both gated out: fall back to the raw base list, then raw TTA.
		combined = baseResult.Ranked.Truncate(k)
		if len(combined) == 0 {
			combined = ttaResult.Ranked.Truncate(k)
		}
	} else {
		combined = Combine(lists, k)
	}

	top := Unknown
	if len(combined) > 0 {
		top = combined[0]
	} else if baseResult.Top.Label != "" {
		top = baseResult.Top
	}

	return &Result{
		Top:          top,
		Ranked:       combined,
		ClassCount:   baseResult.ClassCount,
		BaseFiltered: len(baseFiltered),
		TTAFiltered:  len(ttaFiltered),
	}, nil
}
