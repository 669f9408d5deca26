package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"girder-cli/internal/drag"
	"girder-cli/internal/model"
	"girder-cli/internal/progress"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const headerRows = 3

// paint classes for board cells. Styling is applied after the visible column
// window is sliced out, so horizontal scrolling never has to cut through
// escape sequences.
type paintClass int

const (
	paintBlank paintClass = iota
	paintPlan
	paintPreview
	paintActual
	paintGroup
	paintToday
)

type paint struct {
	ch    rune
	class paintClass
	color string
}

func (m appModel) visibleRowCount() int {
	n := m.height - headerRows - 1
	if n < 1 {
		n = 1
	}
	return n
}

func (m appModel) View() string {
	if m.pickingProject {
		return m.projectList.View()
	}
	if m.showHelp {
		return m.helpView()
	}
	if m.idx == nil {
		return styleMuted().Render("loading…")
	}

	rows := m.rows()
	catColors := m.categoryColors(rows)

	var b strings.Builder
	b.WriteString(m.titleLine())
	b.WriteByte('\n')
	b.WriteString(m.groupHeaderLine())
	b.WriteByte('\n')
	b.WriteString(m.cellLabelLine())
	b.WriteByte('\n')

	visible := m.visibleRowCount()
	for i := 0; i < visible; i++ {
		ri := m.scrollRows + i
		if ri < len(rows) {
			b.WriteString(m.renderRow(rows[ri], ri, catColors))
		}
		b.WriteByte('\n')
	}

	b.WriteString(m.footerLine())
	return b.String()
}

func (m appModel) boardCols() int {
	n := m.width - namePaneWidth
	if n < 20 {
		n = 20
	}
	return n
}

// colAt maps a cell index to its left column, with rounding applied to the
// cumulative width so per-cell drift never accumulates.
func (m appModel) colAt(cell int) int {
	return int(math.Round(float64(cell) * m.tl.CellWidth / unitsPerCol))
}

func (m appModel) totalCols() int {
	return m.colAt(len(m.tl.Cells))
}

// colOf maps a date to a board column via the timeline's logical offset.
func (m appModel) colOf(d model.Date) int {
	return int(math.Round(m.tl.OffsetOf(d) / unitsPerCol))
}

func (m appModel) titleLine() string {
	title := lipgloss.NewStyle().Bold(true).Render("girder")
	proj := m.projectID
	if proj == "" {
		proj = "(no project)"
	}
	left := " " + title + "  " + proj + "  " + styleMuted().Render(string(m.granularity)+" view")
	right := ""
	if m.inFlight {
		right = m.spin.View() + " saving "
	} else if m.status != "" {
		right = styleMuted().Render(m.status) + " "
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// groupHeaderLine renders the month/year band above the cells.
func (m appModel) groupHeaderLine() string {
	line := make([]rune, m.totalCols())
	for i := range line {
		line[i] = ' '
	}
	for _, h := range m.tl.GroupHeaders {
		lo := m.colAt(h.StartCell)
		hi := m.colAt(h.StartCell + h.Span)
		label := h.Label
		if len(label) > hi-lo {
			label = xansi.Truncate(label, hi-lo, "")
		}
		for j, r := range label {
			if lo+j < len(line) {
				line[lo+j] = r
			}
		}
	}
	hdr := lipgloss.NewStyle().Foreground(colorHeaderFg)
	return strings.Repeat(" ", namePaneWidth) + hdr.Render(m.windowRunes(line))
}

func (m appModel) cellLabelLine() string {
	line := make([]rune, m.totalCols())
	for i := range line {
		line[i] = ' '
	}
	for i, c := range m.tl.Cells {
		lo := m.colAt(i)
		hi := m.colAt(i + 1)
		label := c.Label
		if len(label) >= hi-lo {
			label = xansi.Truncate(label, hi-lo, "")
		}
		for j, r := range label {
			if lo+j < len(line) {
				line[lo+j] = r
			}
		}
	}
	return strings.Repeat(" ", namePaneWidth) + styleMuted().Render(m.windowRunes(line))
}

// windowRunes slices the horizontal scroll window out of a full-width line
// and pads it to the board width.
func (m appModel) windowRunes(line []rune) string {
	cols := m.boardCols()
	lo := m.scrollCols
	if lo > len(line) {
		lo = len(line)
	}
	hi := lo + cols
	if hi > len(line) {
		hi = len(line)
	}
	s := string(line[lo:hi])
	if pad := cols - (hi - lo); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (m appModel) categoryColors(rows []ganttRow) map[string]string {
	out := map[string]string{}
	var cats []string
	seen := map[string]bool{}
	for _, r := range rows {
		if !seen[r.task.Category] {
			seen[r.task.Category] = true
			cats = append(cats, r.task.Category)
		}
	}
	sort.Strings(cats)
	for i, c := range cats {
		if v := m.p.CategoryColors[c]; v != "" {
			out[c] = v
			continue
		}
		out[c] = categoryPalette[i%len(categoryPalette)]
	}
	return out
}

func (m appModel) renderRow(r ganttRow, rowIdx int, catColors map[string]string) string {
	name := m.renderName(r, rowIdx)
	bars := m.renderBars(r, catColors)
	return name + bars
}

func (m appModel) renderName(r ganttRow, rowIdx int) string {
	label := rowLabel(r)
	if r.task.IsGroup() {
		label = lipgloss.NewStyle().Foreground(colorGroupFg).Render(label)
	}
	prefix := " "
	if m.rowDrag.active && rowIdx == m.rowDrag.overRow && r.task.ID != m.rowDrag.taskID {
		prefix = lipgloss.NewStyle().Foreground(colorDropFg).Render("▶")
	}
	s := prefix + xansi.Truncate(label, namePaneWidth-2, "…")
	if pad := namePaneWidth - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	if rowIdx == m.selected {
		s = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(
			xansi.Strip(s))
		if pad := namePaneWidth - lipgloss.Width(s); pad > 0 {
			s += strings.Repeat(" ", pad)
		}
	}
	return s
}

// renderBars paints one task row of the chart: plan bar, actual overlay,
// today marker. Drag previews replace the stored range for the dragged row
// and shift descendant rows that travel with a plan move.
func (m appModel) renderBars(r ganttRow, catColors map[string]string) string {
	t := r.task
	cols := m.totalCols()
	line := make([]paint, cols)
	for i := range line {
		line[i] = paint{ch: ' ', class: paintBlank}
	}

	color := catColors[t.Category]
	if t.Color != "" {
		color = t.Color
	}

	planStart, planEnd := t.PlanStart, t.PlanEnd
	planClass := paintPlan
	if m.session.Dragging() && m.session.TaskID() == t.ID && m.session.Bar() == drag.BarPlan {
		planStart, planEnd = m.session.PreviewRange()
		planClass = paintPreview
	} else if m.session.InPreviewCascade(t.ID) {
		d := m.session.PreviewDelta()
		planStart = planStart.AddDays(d)
		planEnd = planEnd.AddDays(d)
		planClass = paintPreview
	}

	if t.IsGroup() {
		m.paintGroupBar(line, t)
	} else {
		m.paintSpan(line, planStart, planEnd, '░', planClass, color)
		m.paintActualBar(line, t)
	}

	// Today marker overlays everything on its column.
	todayCol := m.colOf(model.Today())
	if todayCol >= 0 && todayCol < cols {
		line[todayCol] = paint{ch: '│', class: paintToday}
	}

	return m.renderPaints(line)
}

func (m appModel) paintSpan(line []paint, start, end model.Date, ch rune, class paintClass, color string) {
	if !start.Valid() || !end.Valid() {
		return
	}
	lo := m.colOf(start)
	hi := m.colOf(end.AddDays(1))
	if hi <= lo {
		hi = lo + 1
	}
	for i := lo; i < hi && i < len(line); i++ {
		if i < 0 {
			continue
		}
		line[i] = paint{ch: ch, class: class, color: color}
	}
}

func (m appModel) paintActualBar(line []paint, t model.Task) {
	cur := m.session.Dragging() && m.session.TaskID() == t.ID && m.session.Bar() == drag.BarActual
	if cur {
		start, end := m.session.PreviewRange()
		m.paintSpan(line, start, end, '█', paintActual, "")
		return
	}
	// Untouched tasks carry no actual bar; progress or a recorded start is
	// what makes one appear.
	if t.Progress == 0 && t.ActualStart == nil && t.ActualEnd == nil {
		return
	}
	start, end, ok := progress.ActualSpan(t, model.Today())
	if !ok {
		return
	}
	m.paintSpan(line, start, end, '█', paintActual, "")
}

// paintGroupBar draws the derived rollup span as a thin bracket bar. Groups
// with no leaf descendants paint nothing.
func (m appModel) paintGroupBar(line []paint, t model.Task) {
	ru := progress.ComputeGroupRollup(m.idx, t.ID, model.Today())
	if !ru.Defined {
		return
	}
	m.paintSpan(line, ru.PlanStart, ru.PlanEnd, '━', paintGroup, "")
	lo := m.colOf(ru.PlanStart)
	hi := m.colOf(ru.PlanEnd.AddDays(1)) - 1
	if lo >= 0 && lo < len(line) {
		line[lo] = paint{ch: '┣', class: paintGroup}
	}
	if hi > lo && hi < len(line) {
		line[hi] = paint{ch: '┫', class: paintGroup}
	}
}

func (m appModel) renderPaints(full []paint) string {
	cols := m.boardCols()
	lo := m.scrollCols
	if lo > len(full) {
		lo = len(full)
	}
	hi := lo + cols
	if hi > len(full) {
		hi = len(full)
	}
	window := full[lo:hi]

	var b strings.Builder
	i := 0
	for i < len(window) {
		j := i
		for j < len(window) && window[j].class == window[i].class && window[j].color == window[i].color {
			j++
		}
		seg := make([]rune, 0, j-i)
		for _, p := range window[i:j] {
			seg = append(seg, p.ch)
		}
		b.WriteString(m.styleFor(window[i]).Render(string(seg)))
		i = j
	}
	if pad := cols - len(window); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}

func (m appModel) styleFor(p paint) lipgloss.Style {
	switch p.class {
	case paintPlan:
		if p.color != "" {
			return lipgloss.NewStyle().Foreground(lipgloss.Color(p.color))
		}
		return lipgloss.NewStyle().Foreground(colorAccent)
	case paintPreview:
		if p.color != "" {
			return lipgloss.NewStyle().Foreground(lipgloss.Color(p.color)).Bold(true)
		}
		return lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	case paintActual:
		return lipgloss.NewStyle().Foreground(colorActualFg)
	case paintGroup:
		return lipgloss.NewStyle().Foreground(colorGroupFg)
	case paintToday:
		return lipgloss.NewStyle().Foreground(colorTodayFg)
	default:
		return lipgloss.NewStyle()
	}
}

// footerLine shows the cumulative planned vs actual percentage as of today
// plus the selected task's range and key hints.
func (m appModel) footerLine() string {
	planned, actual := m.progressToday()
	left := fmt.Sprintf(" planned %.0f%%  actual %.0f%%", planned, actual)

	sel := ""
	if r, ok := m.selectedRow(); ok {
		t := r.task
		sel = fmt.Sprintf("  %s → %s", t.PlanStart, t.PlanEnd)
		if !t.IsGroup() {
			sel += fmt.Sprintf("  %d%%", t.Progress)
		}
	}

	hints := "↑↓ move  ␣ fold  d/w/m zoom  H/L shift  ] progress  ? help  q quit "
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(sel) - lipgloss.Width(hints)
	if gap < 1 {
		gap = 1
	}
	return left + sel + strings.Repeat(" ", gap) + styleMuted().Render(hints)
}

func (m appModel) progressToday() (planned, actual float64) {
	series := progress.ComputeProgressSeries(m.snapshot, m.tl, model.Today())
	today := model.Today()
	for _, pt := range series {
		if pt.Cell.Start.After(today) {
			break
		}
		planned, actual = pt.Planned, pt.Actual
	}
	return planned, actual
}

// rowAtY maps a screen row to a visible board row index, or -1.
func (m appModel) rowAtY(y int) int {
	ri := y - headerRows + m.scrollRows
	if ri < 0 || ri >= len(m.rows()) || y >= headerRows+m.visibleRowCount() || y < headerRows {
		return -1
	}
	return ri
}

// logicalX converts a terminal column to timeline logical units.
func (m appModel) logicalX(x int) float64 {
	return float64(x-namePaneWidth+m.scrollCols) * unitsPerCol
}
