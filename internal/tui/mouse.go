package tui

import (
	"context"

	"girder-cli/internal/drag"
	"girder-cli/internal/reorder"

	tea "github.com/charmbracelet/bubbletea"
)

// Edge grab tolerance in terminal columns.
const edgeGrabCols = 1

func (m appModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.pickingProject || m.showHelp {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Action == tea.MouseActionPress {
			m.moveSelection(-1)
		}
		return m, nil
	case tea.MouseButtonWheelDown:
		if msg.Action == tea.MouseActionPress {
			m.moveSelection(1)
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.mousePress(msg)
	case tea.MouseActionMotion:
		return m.mouseMotion(msg)
	case tea.MouseActionRelease:
		return m.mouseRelease(msg)
	}
	return m, nil
}

func (m appModel) mousePress(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	ri := m.rowAtY(msg.Y)
	if ri < 0 {
		return m, nil
	}
	rows := m.rows()
	m.selected = ri
	r := rows[ri]

	if msg.X < namePaneWidth {
		// Grabbing the name cell starts a row reorder gesture.
		m.rowDrag = rowDragState{active: true, taskID: r.task.ID, originRow: ri, overRow: ri}
		return m, nil
	}

	if r.task.IsGroup() {
		return m, nil
	}

	bar := drag.BarPlan
	if msg.Shift {
		bar = drag.BarActual
	}
	kind := m.hitKind(r, msg.X, bar)
	m.session.Begin(r.task.ID, kind, bar, m.logicalX(msg.X))
	return m, nil
}

// hitKind classifies a press within a bar: near either end it is a resize,
// anywhere else a whole-bar move.
func (m appModel) hitKind(r ganttRow, x int, bar drag.Bar) drag.Kind {
	start, end := r.task.PlanStart, r.task.PlanEnd
	if bar == drag.BarActual {
		return drag.KindResizeRight
	}
	col := x - namePaneWidth + m.scrollCols
	lo := m.colOf(start)
	hi := m.colOf(end.AddDays(1)) - 1
	switch {
	case col <= lo+edgeGrabCols:
		return drag.KindResizeLeft
	case col >= hi-edgeGrabCols:
		return drag.KindResizeRight
	default:
		return drag.KindMove
	}
}

func (m appModel) mouseMotion(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.session.Dragging() {
		m.session.Update(m.logicalX(msg.X))
		return m, nil
	}
	if m.rowDrag.active {
		if ri := m.rowAtY(msg.Y); ri >= 0 {
			m.rowDrag.overRow = ri
		}
		return m, nil
	}
	return m, nil
}

func (m appModel) mouseRelease(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.session.Dragging() {
		m.session.Update(m.logicalX(msg.X))
		return m.finishCommit(m.session.CommitContext(context.Background()))
	}
	if m.rowDrag.active {
		d := m.rowDrag
		m.rowDrag = rowDragState{}
		ri := m.rowAtY(msg.Y)
		if ri < 0 || ri == d.originRow {
			return m, nil
		}
		rows := m.rows()
		target := rows[ri]

		// Terminal rows are one character tall, so the quartile drop zones
		// collapse: releasing on a container nests, otherwise the row lands
		// on the side the drag came from.
		pos := reorder.PositionBelow
		switch {
		case target.task.IsGroup() && target.task.ID != d.taskID:
			pos = reorder.PositionChild
		case ri < d.originRow:
			pos = reorder.PositionAbove
		}
		return m.applyDrop(d.taskID, target.task.ID, pos)
	}
	return m, nil
}
