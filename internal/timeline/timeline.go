// Package timeline maps a project date range and a granularity onto a
// discrete cell sequence plus a date<->offset transform, in logical units
// that the rendering layer scales to its own geometry.
package timeline

import (
	"fmt"
	"math"
	"time"

	"girder-cli/internal/model"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Base cell widths in logical units, before auto-fit stretching.
const (
	baseCellWidthDay   = 28.0
	baseCellWidthWeek  = 56.0
	baseCellWidthMonth = 72.0
)

// daysPerMonth is the average Gregorian month length. Month-granularity
// offsets use this constant scale instead of exact calendar month lengths:
// a deliberate approximation that keeps the transform linear, at the cost
// of up to a day of drift (see DateAtOffset).
const daysPerMonth = 30.44

// Cell is one column of the board: a day, an ISO week (Monday-start), or a
// calendar month.
type Cell struct {
	Start model.Date `json:"start"`
	End   model.Date `json:"end"`
	Label string     `json:"label"`
}

// GroupHeader spans a contiguous run of cells: months above day/week cells,
// years above month cells.
type GroupHeader struct {
	Label     string `json:"label"`
	StartCell int    `json:"startCell"`
	Span      int    `json:"span"`
}

type Timeline struct {
	Start        model.Date    `json:"start"`
	End          model.Date    `json:"end"`
	Granularity  Granularity   `json:"granularity"`
	Cells        []Cell        `json:"cells"`
	GroupHeaders []GroupHeader `json:"groupHeaders"`
	CellWidth    float64       `json:"cellWidth"`
}

// Compute builds the cell sequence covering [start, end]. An unparseable or
// inverted range falls back to a one-year window anchored at today; the
// board must keep rendering even when handed garbage, validation belongs to
// the store.
//
// Auto-fit: when the natural width (cells x base width) is narrower than
// viewportWidth, the cell width stretches uniformly so the range exactly
// fills the viewport. Otherwise the base width is kept and the view scrolls.
func Compute(start, end model.Date, g Granularity, viewportWidth float64) Timeline {
	ts, okS := start.Time()
	te, okE := end.Time()
	if !okS || !okE || te.Before(ts) {
		now := time.Now().UTC()
		ts = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		te = ts.AddDate(1, 0, 0)
		start = model.DateOf(ts)
		end = model.DateOf(te)
	}

	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
	default:
		g = GranularityDay
	}

	tl := Timeline{Start: start, End: end, Granularity: g}
	switch g {
	case GranularityDay:
		tl.Cells = dayCells(ts, te)
		tl.GroupHeaders = monthHeaders(tl.Cells)
		tl.CellWidth = fitCellWidth(len(tl.Cells), baseCellWidthDay, viewportWidth)
	case GranularityWeek:
		tl.Cells = weekCells(ts, te)
		tl.GroupHeaders = monthHeaders(tl.Cells)
		tl.CellWidth = fitCellWidth(len(tl.Cells), baseCellWidthWeek, viewportWidth)
	case GranularityMonth:
		tl.Cells = monthCells(ts, te)
		tl.GroupHeaders = yearHeaders(tl.Cells)
		tl.CellWidth = fitCellWidth(len(tl.Cells), baseCellWidthMonth, viewportWidth)
	}
	return tl
}

func fitCellWidth(cells int, base, viewport float64) float64 {
	if cells <= 0 {
		return base
	}
	natural := float64(cells) * base
	if viewport > 0 && natural < viewport {
		return viewport / float64(cells)
	}
	return base
}

func dayCells(ts, te time.Time) []Cell {
	var out []Cell
	for d := ts; !d.After(te); d = d.AddDate(0, 0, 1) {
		out = append(out, Cell{
			Start: model.DateOf(d),
			End:   model.DateOf(d),
			Label: fmt.Sprintf("%d", d.Day()),
		})
	}
	return out
}

// weekCells buckets by ISO week starting Monday. The first and last cells
// are clipped to the project range so cell spans never exceed it.
func weekCells(ts, te time.Time) []Cell {
	var out []Cell
	cur := mondayOf(ts)
	for !cur.After(te) {
		weekEnd := cur.AddDate(0, 0, 6)
		cs, ce := clipRange(cur, weekEnd, ts, te)
		_, wk := cur.ISOWeek()
		out = append(out, Cell{
			Start: model.DateOf(cs),
			End:   model.DateOf(ce),
			Label: fmt.Sprintf("W%d", wk),
		})
		cur = cur.AddDate(0, 0, 7)
	}
	return out
}

func monthCells(ts, te time.Time) []Cell {
	var out []Cell
	cur := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(te) {
		monthEnd := cur.AddDate(0, 1, -1)
		cs, ce := clipRange(cur, monthEnd, ts, te)
		out = append(out, Cell{
			Start: model.DateOf(cs),
			End:   model.DateOf(ce),
			Label: cur.Format("Jan"),
		})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

func mondayOf(t time.Time) time.Time {
	wd := int(t.Weekday())
	// time.Sunday == 0; shift so Monday == 0.
	off := (wd + 6) % 7
	return t.AddDate(0, 0, -off)
}

func clipRange(s, e, lo, hi time.Time) (time.Time, time.Time) {
	if s.Before(lo) {
		s = lo
	}
	if e.After(hi) {
		e = hi
	}
	return s, e
}

func monthHeaders(cells []Cell) []GroupHeader {
	return runHeaders(cells, func(c Cell) string {
		t, ok := c.Start.Time()
		if !ok {
			return ""
		}
		return t.Format("Jan 2006")
	})
}

func yearHeaders(cells []Cell) []GroupHeader {
	return runHeaders(cells, func(c Cell) string {
		t, ok := c.Start.Time()
		if !ok {
			return ""
		}
		return fmt.Sprintf("%d", t.Year())
	})
}

func runHeaders(cells []Cell, label func(Cell) string) []GroupHeader {
	var out []GroupHeader
	for i, c := range cells {
		l := label(c)
		if n := len(out); n > 0 && out[n-1].Label == l {
			out[n-1].Span++
			continue
		}
		out = append(out, GroupHeader{Label: l, StartCell: i, Span: 1})
	}
	return out
}

// DayWidth is the logical width of one calendar day at this granularity.
func (tl Timeline) DayWidth() float64 {
	switch tl.Granularity {
	case GranularityWeek:
		return tl.CellWidth / 7
	case GranularityMonth:
		return tl.CellWidth / daysPerMonth
	default:
		return tl.CellWidth
	}
}

// TotalWidth is the full board width in logical units.
func (tl Timeline) TotalWidth() float64 {
	return float64(len(tl.Cells)) * tl.CellWidth
}

// OffsetOf maps a date to its logical x offset from the timeline start.
// Dates outside the range extrapolate linearly; invalid dates map to 0.
func (tl Timeline) OffsetOf(d model.Date) float64 {
	days, ok := model.DaysBetween(tl.Start, d)
	if !ok {
		return 0
	}
	return float64(days) * tl.DayWidth()
}

// DateAtOffset inverts OffsetOf, rounding to the nearest whole day. Exact
// for day granularity; within a day for week/month due to the average-month
// scale.
func (tl Timeline) DateAtOffset(off float64) model.Date {
	dw := tl.DayWidth()
	if dw <= 0 {
		return tl.Start
	}
	days := int(math.Round(off / dw))
	return tl.Start.AddDays(days)
}

// DaysForOffset converts a logical x delta into a whole-day delta, rounding
// to nearest. This is the scale drag sessions use to turn pointer movement
// into date movement.
func (tl Timeline) DaysForOffset(delta float64) int {
	dw := tl.DayWidth()
	if dw <= 0 {
		return 0
	}
	return int(math.Round(delta / dw))
}
