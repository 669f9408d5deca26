package timeline

import (
	"math"
	"testing"

	"girder-cli/internal/model"
)

func TestComputeDayCells(t *testing.T) {
	tl := Compute("2025-03-10", "2025-03-12", GranularityDay, 0)
	if len(tl.Cells) != 3 {
		t.Fatalf("cells = %d, want 3", len(tl.Cells))
	}
	if tl.Cells[0].Start != "2025-03-10" || tl.Cells[0].End != "2025-03-10" {
		t.Fatalf("first cell = %+v", tl.Cells[0])
	}
	if tl.CellWidth != baseCellWidthDay {
		t.Fatalf("cell width = %v", tl.CellWidth)
	}
	if len(tl.GroupHeaders) != 1 || tl.GroupHeaders[0].Label != "Mar 2025" || tl.GroupHeaders[0].Span != 3 {
		t.Fatalf("headers = %+v", tl.GroupHeaders)
	}
}

func TestComputeWeekCellsClipAndMondayStart(t *testing.T) {
	// 2025-03-12 is a Wednesday; the first week cell clips to the range start
	// but still belongs to the Monday-anchored ISO week.
	tl := Compute("2025-03-12", "2025-03-24", GranularityWeek, 0)
	if len(tl.Cells) != 3 {
		t.Fatalf("cells = %d, want 3", len(tl.Cells))
	}
	if tl.Cells[0].Start != "2025-03-12" || tl.Cells[0].End != "2025-03-16" {
		t.Fatalf("first week = %+v", tl.Cells[0])
	}
	if tl.Cells[1].Start != "2025-03-17" || tl.Cells[1].End != "2025-03-23" {
		t.Fatalf("second week = %+v", tl.Cells[1])
	}
	if tl.Cells[2].End != "2025-03-24" {
		t.Fatalf("last week end = %s", tl.Cells[2].End)
	}
}

func TestComputeMonthCellsAndYearHeaders(t *testing.T) {
	tl := Compute("2025-11-15", "2026-02-10", GranularityMonth, 0)
	if len(tl.Cells) != 4 {
		t.Fatalf("cells = %d, want 4", len(tl.Cells))
	}
	if tl.Cells[0].Start != "2025-11-15" {
		t.Fatalf("first month clipped start = %s", tl.Cells[0].Start)
	}
	if tl.Cells[3].End != "2026-02-10" {
		t.Fatalf("last month clipped end = %s", tl.Cells[3].End)
	}
	if len(tl.GroupHeaders) != 2 || tl.GroupHeaders[0].Label != "2025" || tl.GroupHeaders[1].Label != "2026" {
		t.Fatalf("year headers = %+v", tl.GroupHeaders)
	}
	if tl.GroupHeaders[0].Span != 2 || tl.GroupHeaders[1].Span != 2 {
		t.Fatalf("year spans = %+v", tl.GroupHeaders)
	}
}

func TestComputeInvalidRangeFallsBackToYearWindow(t *testing.T) {
	for _, tc := range [][2]model.Date{
		{"", ""},
		{"garbage", "2025-01-01"},
		{"2025-06-01", "2025-01-01"},
	} {
		tl := Compute(tc[0], tc[1], GranularityMonth, 0)
		if len(tl.Cells) < 12 || len(tl.Cells) > 14 {
			t.Fatalf("fallback(%q,%q) cells = %d, want about 13", tc[0], tc[1], len(tl.Cells))
		}
		if !tl.Start.Valid() || !tl.End.Valid() {
			t.Fatalf("fallback produced invalid range")
		}
	}
}

func TestComputeUnknownGranularityDefaultsToDay(t *testing.T) {
	tl := Compute("2025-03-10", "2025-03-11", Granularity("fortnight"), 0)
	if tl.Granularity != GranularityDay {
		t.Fatalf("granularity = %s", tl.Granularity)
	}
}

func TestAutoFitStretchesNarrowRanges(t *testing.T) {
	tl := Compute("2025-03-10", "2025-03-13", GranularityDay, 1000)
	if tl.CellWidth != 250 {
		t.Fatalf("stretched width = %v, want 250", tl.CellWidth)
	}
	// A range wider than the viewport keeps the base width and scrolls.
	tl = Compute("2025-01-01", "2025-12-31", GranularityDay, 1000)
	if tl.CellWidth != baseCellWidthDay {
		t.Fatalf("wide range width = %v", tl.CellWidth)
	}
}

func TestOffsetRoundTripDay(t *testing.T) {
	tl := Compute("2025-03-01", "2025-04-30", GranularityDay, 0)
	for _, d := range []model.Date{"2025-03-01", "2025-03-15", "2025-04-30"} {
		if got := tl.DateAtOffset(tl.OffsetOf(d)); got != d {
			t.Fatalf("round trip %s -> %s", d, got)
		}
	}
}

func TestOffsetRoundTripWeekWithinOneDay(t *testing.T) {
	tl := Compute("2025-01-01", "2025-12-31", GranularityWeek, 0)
	for _, d := range []model.Date{"2025-02-14", "2025-07-01", "2025-11-30"} {
		got := tl.DateAtOffset(tl.OffsetOf(d))
		days, ok := model.DaysBetween(d, got)
		if !ok || int(math.Abs(float64(days))) > 1 {
			t.Fatalf("round trip %s -> %s drifted %d days", d, got, days)
		}
	}
}

func TestDaysForOffsetRoundsToNearest(t *testing.T) {
	tl := Compute("2025-03-01", "2025-03-31", GranularityDay, 0)
	dw := tl.DayWidth()
	if got := tl.DaysForOffset(2.6 * dw); got != 3 {
		t.Fatalf("2.6 days of travel = %d, want 3", got)
	}
	if got := tl.DaysForOffset(-1.4 * dw); got != -1 {
		t.Fatalf("-1.4 days of travel = %d, want -1", got)
	}
	if got := tl.DaysForOffset(0.2 * dw); got != 0 {
		t.Fatalf("sub-day travel = %d, want 0", got)
	}
}

func TestMonthDayWidthUsesAverageMonth(t *testing.T) {
	tl := Compute("2025-01-01", "2025-12-31", GranularityMonth, 0)
	want := tl.CellWidth / daysPerMonth
	if tl.DayWidth() != want {
		t.Fatalf("day width = %v, want %v", tl.DayWidth(), want)
	}
}
