package tui

import (
	"context"
	"sort"
	"time"

	"girder-cli/internal/drag"
	"girder-cli/internal/graph"
	"girder-cli/internal/model"
	"girder-cli/internal/prefs"
	"girder-cli/internal/reorder"
	"girder-cli/internal/store"
	"girder-cli/internal/timeline"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// unitsPerCol scales timeline logical units to terminal columns. At the
// default base cell widths this renders a day cell 4 columns wide, a week
// cell 8 and a month cell about 10.
const unitsPerCol = 7.0

const namePaneWidth = 34

// Pointer-move handling is effectively throttled to the redraw rate by the
// bubbletea event loop; the drag session's Update is idempotent per frame.

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type commitDoneMsg struct{}

type reloadTickMsg struct{}

type rowDragState struct {
	active    bool
	taskID    string
	originRow int
	overRow   int
}

type appModel struct {
	tasks *store.TaskStore
	prefs prefs.Store

	projectID string

	projectList    list.Model
	pickingProject bool

	snapshot []model.Task
	idx      *graph.Index
	tl       timeline.Timeline
	session  *drag.Session

	p         *prefs.Prefs
	collapsed map[string]bool

	granularity timeline.Granularity

	width  int
	height int

	selected   int
	scrollRows int
	scrollCols int

	rowDrag rowDragState

	spin     spinner.Model
	inFlight bool

	showHelp bool
	status   string
}

func newAppModel(ts *store.TaskStore, ps prefs.Store, projectID string) appModel {
	p, err := ps.Load()
	if err != nil || p == nil {
		p = &prefs.Prefs{Version: 1}
	}
	if projectID == "" {
		projectID = p.LastProjectID
	}
	g := timeline.Granularity(p.Granularity)
	switch g {
	case timeline.GranularityDay, timeline.GranularityWeek, timeline.GranularityMonth:
	default:
		g = timeline.GranularityWeek
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := appModel{
		tasks:       ts,
		prefs:       ps,
		projectID:   projectID,
		p:           p,
		collapsed:   p.CollapsedSet(projectID),
		granularity: g,
		session:     drag.NewSession(ts, nil),
		spin:        sp,
	}
	m.projectList = newProjectList()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tickReload())
}

func (m appModel) loadCmd() tea.Cmd {
	ts := m.tasks
	projectID := m.projectID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tasks, err := ts.ListTasks(ctx, projectID)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func tickReload() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.projectList.SetSize(msg.Width, listHeight(msg.Height))
		m.rebuildTimeline()
		return m, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.applySnapshot(msg.tasks)
		if m.projectID == "" {
			return m.enterProjectPicker()
		}
		return m, nil

	case projectsLoadedMsg:
		return m.updateProjectsLoaded(msg)

	case reloadTickMsg:
		// Skip the refresh while a gesture or commit is in progress so the
		// optimistic overlay isn't clobbered mid-interaction.
		if m.session.Idle() && !m.rowDrag.active && !m.inFlight {
			return m, tea.Batch(m.loadCmd(), tickReload())
		}
		return m, tickReload()

	case commitDoneMsg:
		m.inFlight = false
		// Reconciliation-by-refresh: pull the store's view of the cascade.
		return m, m.loadCmd()

	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	if m.pickingProject {
		var cmd tea.Cmd
		m.projectList, cmd = m.projectList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pickingProject {
		return m.updateProjectPickerKeys(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.savePrefs()
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "r":
		return m, m.loadCmd()
	case "p":
		return m.enterProjectPicker()
	case "esc":
		if m.session.Dragging() {
			m.session.Cancel()
			return m, nil
		}
		if m.rowDrag.active {
			m.rowDrag = rowDragState{}
			return m, nil
		}
		return m, nil

	case "up", "k":
		m.moveSelection(-1)
		return m, nil
	case "down", "j":
		m.moveSelection(1)
		return m, nil
	case "left", "h":
		m.scrollCols -= 4
		if m.scrollCols < 0 {
			m.scrollCols = 0
		}
		return m, nil
	case "right", "l":
		m.scrollCols += 4
		return m, nil

	case " ":
		m.toggleCollapse()
		return m, nil

	case "d":
		return m.setGranularity(timeline.GranularityDay)
	case "w":
		return m.setGranularity(timeline.GranularityWeek)
	case "m":
		return m.setGranularity(timeline.GranularityMonth)

	// Keyboard schedule edits funnel through the same drag session as the
	// mouse, one-day gestures at a time.
	case "H":
		return m.nudge(drag.KindMove, drag.BarPlan, -1)
	case "L":
		return m.nudge(drag.KindMove, drag.BarPlan, +1)
	case "<":
		return m.nudge(drag.KindResizeRight, drag.BarPlan, -1)
	case ">":
		return m.nudge(drag.KindResizeRight, drag.BarPlan, +1)
	case "[":
		return m.nudge(drag.KindResizeRight, drag.BarActual, -1)
	case "]":
		return m.nudge(drag.KindResizeRight, drag.BarActual, +1)

	case "K":
		return m.reorderSelected(-1)
	case "J":
		return m.reorderSelected(1)
	case "N":
		return m.nestSelected()
	}
	return m, nil
}

func (m *appModel) applySnapshot(tasks []model.Task) {
	m.snapshot = tasks
	m.idx = graph.NewIndex(tasks)
	m.assignCategoryColors()
	m.rebuildTimeline()
}

// assignCategoryColors gives every new category a palette color and persists
// the assignment, so colors stay stable across relaunches even as categories
// come and go.
func (m *appModel) assignCategoryColors() {
	if m.p.CategoryColors == nil {
		m.p.CategoryColors = map[string]string{}
	}
	var cats []string
	seen := map[string]bool{}
	for _, t := range m.snapshot {
		if t.Category != "" && !seen[t.Category] {
			seen[t.Category] = true
			cats = append(cats, t.Category)
		}
	}
	sort.Strings(cats)
	changed := false
	for i, c := range cats {
		if m.p.CategoryColors[c] == "" {
			m.p.CategoryColors[c] = categoryPalette[i%len(categoryPalette)]
			changed = true
		}
	}
	if changed {
		m.savePrefs()
	}
}

func (m *appModel) rebuildTimeline() {
	if m.idx == nil {
		return
	}
	start, end := snapshotRange(m.snapshot)
	boardCols := m.width - namePaneWidth
	if boardCols < 20 {
		boardCols = 20
	}
	m.tl = timeline.Compute(start, end, m.granularity, float64(boardCols)*unitsPerCol)
	m.session.SetSnapshot(m.idx, m.tl, model.Today())
	m.clampSelection()
}

func snapshotRange(tasks []model.Task) (model.Date, model.Date) {
	var start, end model.Date
	for _, t := range tasks {
		start = model.MinDate(start, t.PlanStart)
		end = model.MaxDate(end, t.PlanEnd)
		if t.ActualStart != nil {
			start = model.MinDate(start, *t.ActualStart)
		}
		if t.ActualEnd != nil {
			end = model.MaxDate(end, *t.ActualEnd)
		}
	}
	return start, end
}

func (m *appModel) rows() []ganttRow {
	if m.idx == nil {
		return nil
	}
	return flattenTasks(m.idx, m.collapsed)
}

func (m *appModel) selectedRow() (ganttRow, bool) {
	rows := m.rows()
	if m.selected < 0 || m.selected >= len(rows) {
		return ganttRow{}, false
	}
	return rows[m.selected], true
}

func (m *appModel) moveSelection(delta int) {
	rows := m.rows()
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(rows) {
		m.selected = len(rows) - 1
	}
	m.scrollIntoView(len(rows))
}

func (m *appModel) clampSelection() {
	rows := m.rows()
	if m.selected >= len(rows) {
		m.selected = len(rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *appModel) scrollIntoView(total int) {
	visible := m.visibleRowCount()
	if m.selected < m.scrollRows {
		m.scrollRows = m.selected
	}
	if m.selected >= m.scrollRows+visible {
		m.scrollRows = m.selected - visible + 1
	}
	if m.scrollRows < 0 {
		m.scrollRows = 0
	}
	if m.scrollRows > total-1 && total > 0 {
		m.scrollRows = total - 1
	}
}

func (m *appModel) toggleCollapse() {
	r, ok := m.selectedRow()
	if !ok || !r.hasChildren {
		return
	}
	if m.collapsed == nil {
		m.collapsed = map[string]bool{}
	}
	m.collapsed[r.task.ID] = !m.collapsed[r.task.ID]
	m.savePrefs()
}

func (m appModel) setGranularity(g timeline.Granularity) (tea.Model, tea.Cmd) {
	m.granularity = g
	m.scrollCols = 0
	m.rebuildTimeline()
	m.savePrefs()
	return m, nil
}

// nudge performs a whole keyboard-driven drag gesture: begin, move by n
// days, commit.
func (m appModel) nudge(kind drag.Kind, bar drag.Bar, days int) (tea.Model, tea.Cmd) {
	r, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	if !m.session.Begin(r.task.ID, kind, bar, 0) {
		return m, nil
	}
	m.session.Update(float64(days) * m.tl.DayWidth())
	return m.finishCommit(m.session.CommitContext(context.Background()))
}

// finishCommit applies a commit's patch set to the local snapshot in one
// step and starts the in-flight wait. Cascades hold the indicator for a
// short minimum so a multi-row jump isn't mistaken for lag.
func (m appModel) finishCommit(c *drag.Commit) (tea.Model, tea.Cmd) {
	if c == nil {
		return m, nil
	}
	now := time.Now().UTC()
	next := make([]model.Task, len(m.snapshot))
	copy(next, m.snapshot)
	for i := range next {
		if p, ok := c.Patches[next[i].ID]; ok {
			p.Apply(&next[i], now)
		}
	}
	m.applySnapshot(next)

	m.inFlight = true
	hold := time.Duration(0)
	if len(c.Patches) > 1 {
		hold = 400 * time.Millisecond
	}
	done := c.Done
	wait := func() tea.Msg {
		started := time.Now()
		<-done
		if rest := hold - time.Since(started); rest > 0 {
			time.Sleep(rest)
		}
		return commitDoneMsg{}
	}
	return m, tea.Batch(wait, m.spin.Tick)
}

func (m appModel) reorderSelected(dir int) (tea.Model, tea.Cmd) {
	rows := m.rows()
	if m.selected < 0 || m.selected >= len(rows) {
		return m, nil
	}
	targetIdx := m.selected + dir
	if targetIdx < 0 || targetIdx >= len(rows) {
		return m, nil
	}
	pos := reorder.PositionAbove
	if dir > 0 {
		pos = reorder.PositionBelow
	}
	return m.applyDrop(rows[m.selected].task.ID, rows[targetIdx].task.ID, pos)
}

func (m appModel) nestSelected() (tea.Model, tea.Cmd) {
	rows := m.rows()
	if m.selected <= 0 || m.selected >= len(rows) {
		return m, nil
	}
	return m.applyDrop(rows[m.selected].task.ID, rows[m.selected-1].task.ID, reorder.PositionChild)
}

// applyDrop funnels a reorder gesture through the engine and persists the
// single resulting patch. Illegal gestures plan to nil and are dropped
// silently, leaving the tree untouched.
func (m appModel) applyDrop(draggedID, targetID string, pos reorder.Position) (tea.Model, tea.Cmd) {
	drop := reorder.PlanDrop(m.idx, draggedID, targetID, pos)
	if drop == nil {
		return m, nil
	}
	if drop.AutoExpandID != "" && m.collapsed[drop.AutoExpandID] {
		m.collapsed[drop.AutoExpandID] = false
		m.savePrefs()
	}

	now := time.Now().UTC()
	next := make([]model.Task, len(m.snapshot))
	copy(next, m.snapshot)
	for i := range next {
		if next[i].ID == drop.TaskID {
			drop.Patch.Apply(&next[i], now)
		}
	}
	m.applySnapshot(next)
	m.followSelection(drop.TaskID)

	ts := m.tasks
	patch := drop.Patch
	id := drop.TaskID
	persist := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ts.UpdateTask(ctx, id, patch)
		return commitDoneMsg{}
	}
	m.inFlight = true
	return m, tea.Batch(persist, m.spin.Tick)
}

func (m *appModel) followSelection(taskID string) {
	for i, r := range m.rows() {
		if r.task.ID == taskID {
			m.selected = i
			m.scrollIntoView(i + 1)
			return
		}
	}
}

func (m *appModel) savePrefs() {
	if m.p == nil {
		m.p = &prefs.Prefs{Version: 1}
	}
	m.p.SetCollapsed(m.projectID, m.collapsed)
	m.p.Granularity = string(m.granularity)
	m.p.LastProjectID = m.projectID
	// Best-effort: prefs are view state, losing them is not an error.
	_ = m.prefs.Save(m.p)
}
