// Package progress computes task weights, the cumulative planned/actual
// S-curve series over timeline buckets, and the derived schedule fields of
// group rows.
package progress

import "girder-cli/internal/model"

// ComputeWeights returns each task's share of total project weight as a
// fraction in [0,1]. Group rows carry no weight of their own (their fields
// are derived from leaves) and are excluded from both numerator and base.
//
// The weighting policy is decided once per task set: if any task has
// cost > 0, weights are cost-based; otherwise they fall back to inclusive
// plan duration in days. A non-positive total base yields zero weights for
// everything rather than dividing by zero.
func ComputeWeights(tasks []model.Task) map[string]float64 {
	out := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		out[t.ID] = 0
	}

	costBased := false
	for _, t := range tasks {
		if !t.IsGroup() && t.Cost > 0 {
			costBased = true
			break
		}
	}

	base := 0.0
	val := func(t model.Task) float64 {
		if costBased {
			if t.Cost > 0 {
				return t.Cost
			}
			return 0
		}
		return float64(t.PlanDuration())
	}
	for _, t := range tasks {
		if t.IsGroup() {
			continue
		}
		base += val(t)
	}
	if base <= 0 {
		return out
	}
	for _, t := range tasks {
		if t.IsGroup() {
			continue
		}
		out[t.ID] = val(t) / base
	}
	return out
}
