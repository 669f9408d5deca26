package progress

import (
	"math"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
)

// GroupRollup is the derived schedule of a group row, recomputed from leaf
// descendants on every read. Groups with no leaves have no defined schedule
// (Defined == false) and render as empty containers.
type GroupRollup struct {
	Defined bool

	PlanStart model.Date
	PlanEnd   model.Date

	// Actual range is only meaningful once a leaf has started.
	Started     bool
	ActualStart model.Date
	ActualEnd   model.Date

	Cost     float64
	Progress int
}

// ComputeGroupRollup derives a group's cost, date range and progress from
// its leaf descendants.
//
// Progress is the cost-weighted mean of leaf progress (each leaf weighted 1
// when no leaf carries cost), rounded to the nearest integer. The actual
// range uses the same open-ended inference as the S-curve: a started leaf
// with no recorded end extends the group's actual range to now.
func ComputeGroupRollup(x *graph.Index, groupID string, now model.Date) GroupRollup {
	leaves := x.LeafDescendantsOf(groupID)
	if len(leaves) == 0 {
		return GroupRollup{}
	}

	out := GroupRollup{Defined: true}

	anyCost := false
	for _, l := range leaves {
		if l.Cost > 0 {
			anyCost = true
			break
		}
	}

	weightSum := 0.0
	weighted := 0.0
	for _, l := range leaves {
		out.PlanStart = model.MinDate(out.PlanStart, l.PlanStart)
		out.PlanEnd = model.MaxDate(out.PlanEnd, l.PlanEnd)
		out.Cost += l.Cost

		w := 1.0
		if anyCost {
			w = l.Cost
		}
		weightSum += w
		weighted += w * float64(model.ClampProgress(l.Progress))

		if l.ActualStart != nil && l.ActualStart.Valid() {
			out.Started = true
			out.ActualStart = model.MinDate(out.ActualStart, *l.ActualStart)
			leafEnd := now
			if l.ActualEnd != nil && l.ActualEnd.Valid() {
				leafEnd = *l.ActualEnd
			}
			out.ActualEnd = model.MaxDate(out.ActualEnd, leafEnd)
		}
	}

	if weightSum > 0 {
		out.Progress = model.ClampProgress(int(math.Round(weighted / weightSum)))
	}
	if out.Started && out.ActualEnd.Before(out.ActualStart) {
		out.ActualEnd = out.ActualStart
	}
	return out
}
