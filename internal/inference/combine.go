package inference

import "sort"

// FilterByPurity gates a ranked list on how decisive its top prediction
// is. Purity is the confidence gap between the top two entries; a list
// whose gap falls below the threshold is discarded entirely. Lists with
// fewer than two entries pass through unchanged.
func FilterByPurity(preds RankedList, threshold float64) RankedList {
	if len(preds) < 2 {
		return preds
	}
	purity := preds[0].Confidence - preds[1].Confidence
	if purity >= threshold {
		return preds
	}
	return nil
}

// FilterByMargin gates a ranked list on the absolute confidence of its
// top prediction. A non-empty list whose top confidence falls below the
// threshold is discarded entirely.
func FilterByMargin(preds RankedList, threshold float64) RankedList {
	if len(preds) == 0 {
		return nil
	}
	if preds[0].Confidence >= threshold {
		return preds
	}
	return nil
}

// Combine merges several ranked lists into one by averaging confidence
// per label across the lists the label appears in. The divisor is the
// label's occurrence count, not the number of input lists; a label
// absent from a list does not count as zero there. Ties are broken by
// first-seen label order, so identical inputs always produce identical
// output. Returns at most k entries; an empty input yields an empty
// list.
func Combine(lists []RankedList, k int) RankedList {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string

	for _, list := range lists {
		for _, p := range list {
			if _, seen := counts[p.Label]; !seen {
				order = append(order, p.Label)
			}
			sums[p.Label] += p.Confidence
			counts[p.Label]++
		}
	}

	combined := make(RankedList, 0, len(order))
	for _, label := range order {
		combined = append(combined, Prediction{
			Label:      label,
			Confidence: sums[label] / float64(counts[label]),
		})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Confidence > combined[j].Confidence
	})

	return combined.Truncate(k)
}
