package progress

import (
	"girder-cli/internal/model"
	"girder-cli/internal/timeline"
)

// Point is one bucket of the cumulative S-curve, both values in [0,100].
type Point struct {
	Cell    timeline.Cell `json:"cell"`
	Planned float64       `json:"planned"`
	Actual  float64       `json:"actual"`
}

// ActualSpan resolves the date range a task's reported progress is
// attributed to:
//   - explicit actual dates win;
//   - a started task with no recorded end is treated as running through now
//     (an open-ended span, so its contribution keeps stretching day by day);
//   - a task with no actual dates at all falls back to its plan span.
//
// ok is false when no usable span exists.
func ActualSpan(t model.Task, now model.Date) (start, end model.Date, ok bool) {
	if t.ActualStart != nil && t.ActualStart.Valid() {
		start = *t.ActualStart
	} else {
		start = t.PlanStart
	}
	if t.ActualEnd != nil && t.ActualEnd.Valid() {
		end = *t.ActualEnd
	} else if t.ActualStart != nil && t.ActualStart.Valid() {
		end = model.MaxDate(start, now)
	} else {
		end = t.PlanEnd
	}
	if !start.Valid() || !end.Valid() {
		return "", "", false
	}
	if end.Before(start) {
		end = start
	}
	return start, end, true
}

// ComputeProgressSeries produces the running planned% and actual% at every
// timeline cell.
//
// Planned at bucket i is the weight-sum of each task's plan-range fraction
// that falls inside [timeline start, cell i end]; by construction it is
// monotonic and reaches 100 once every plan range is behind the last bucket.
//
// Actual at bucket i distributes each task's completed share
// (weight x progress/100) linearly across its actual span. The actual curve
// is reported as-is: editing historical actuals can make it flat or regress,
// and masking that would hide real schedule slips.
func ComputeProgressSeries(tasks []model.Task, tl timeline.Timeline, now model.Date) []Point {
	weights := ComputeWeights(tasks)
	out := make([]Point, 0, len(tl.Cells))

	for _, cell := range tl.Cells {
		bucketEnd := cell.End
		planned := 0.0
		actual := 0.0
		for _, t := range tasks {
			if t.IsGroup() {
				continue
			}
			w := weights[t.ID]
			if w <= 0 {
				continue
			}
			planned += w * elapsedFraction(t.PlanStart, t.PlanEnd, bucketEnd)
			if t.Progress > 0 {
				if as, ae, ok := ActualSpan(t, now); ok {
					actual += w * float64(model.ClampProgress(t.Progress)) / 100 * elapsedFraction(as, ae, bucketEnd)
				}
			}
		}
		out = append(out, Point{
			Cell:    cell,
			Planned: clampPercent(planned * 100),
			Actual:  clampPercent(actual * 100),
		})
	}
	return out
}

// elapsedFraction is the share of the inclusive range [start, end] that has
// elapsed by bucketEnd: 0 before the range, 1 after it, linear in between.
func elapsedFraction(start, end, bucketEnd model.Date) float64 {
	dur, ok := model.DaysBetween(start, end)
	if !ok || dur < 0 {
		return 0
	}
	elapsed, ok := model.DaysBetween(start, bucketEnd)
	if !ok {
		return 0
	}
	if elapsed < 0 {
		return 0
	}
	if elapsed >= dur {
		return 1
	}
	return float64(elapsed+1) / float64(dur+1)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
