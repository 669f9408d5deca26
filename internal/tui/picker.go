package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type projectsLoadedMsg struct {
	projects []string
	err      error
}

type projectItem string

func (p projectItem) Title() string       { return string(p) }
func (p projectItem) Description() string { return "" }
func (p projectItem) FilterValue() string { return string(p) }

func newProjectList() list.Model {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	l := list.New(nil, d, 0, 0)
	l.Title = "Choose a project"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	return l
}

func listHeight(h int) int {
	if h < 5 {
		return 5
	}
	return h - 2
}

func (m appModel) enterProjectPicker() (tea.Model, tea.Cmd) {
	m.pickingProject = true
	ts := m.tasks
	load := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		projects, err := ts.ListProjects(ctx)
		return projectsLoadedMsg{projects: projects, err: err}
	}
	return m, load
}

func (m appModel) updateProjectsLoaded(msg projectsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = "projects: " + msg.err.Error()
		m.pickingProject = false
		return m, nil
	}
	items := make([]list.Item, 0, len(msg.projects))
	for _, p := range msg.projects {
		items = append(items, projectItem(p))
	}
	cmd := m.projectList.SetItems(items)
	m.projectList.SetSize(m.width, listHeight(m.height))
	return m, cmd
}

func (m appModel) updateProjectPickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		if it, ok := m.projectList.SelectedItem().(projectItem); ok {
			m.pickingProject = false
			m.projectID = string(it)
			m.collapsed = m.p.CollapsedSet(m.projectID)
			m.selected = 0
			m.scrollRows = 0
			m.scrollCols = 0
			m.savePrefs()
			return m, m.loadCmd()
		}
		return m, nil
	case "esc":
		if m.projectID != "" {
			m.pickingProject = false
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}
