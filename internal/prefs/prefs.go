// Package prefs holds small, user-facing view state (collapsed rows,
// category colors, last granularity) behind a narrow store interface so the
// engine never assumes a specific storage medium.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const prefsFileName = "prefs.json"

// Prefs is best-effort state for restoring the last view on relaunch.
// Callers must tolerate missing or invalid data.
type Prefs struct {
	Version int `json:"version"`

	// CollapsedByProject maps project id -> collapsed task ids.
	CollapsedByProject map[string][]string `json:"collapsedByProject,omitempty"`

	// CategoryColors maps category label -> color (lipgloss-compatible).
	CategoryColors map[string]string `json:"categoryColors,omitempty"`

	// Granularity is one of: day|week|month.
	Granularity string `json:"granularity,omitempty"`

	LastProjectID string `json:"lastProjectId,omitempty"`
}

// Store is the persistence seam the view talks to.
type Store interface {
	Load() (*Prefs, error)
	Save(*Prefs) error
}

// FileStore keeps prefs as JSON inside the workspace dir, next to the task
// db, so state is naturally scoped per workspace.
type FileStore struct {
	Dir string
}

func (s FileStore) path() string {
	return filepath.Join(s.Dir, prefsFileName)
}

func (s FileStore) Load() (*Prefs, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &Prefs{Version: 1}, nil
	}
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Prefs{Version: 1}, nil
		}
		return nil, err
	}
	var p Prefs
	if err := json.Unmarshal(b, &p); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &Prefs{Version: 1}, nil
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return &p, nil
}

func (s FileStore) Save(p *Prefs) error {
	if p == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	if p.Version == 0 {
		p.Version = 1
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	path := s.path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// CollapsedSet returns the collapsed ids for a project as a set.
func (p *Prefs) CollapsedSet(projectID string) map[string]bool {
	out := map[string]bool{}
	if p == nil {
		return out
	}
	for _, id := range p.CollapsedByProject[projectID] {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = true
		}
	}
	return out
}

// SetCollapsed replaces the collapsed set for a project.
func (p *Prefs) SetCollapsed(projectID string, collapsed map[string]bool) {
	if p == nil {
		return
	}
	if p.CollapsedByProject == nil {
		p.CollapsedByProject = map[string][]string{}
	}
	ids := make([]string, 0, len(collapsed))
	for id, on := range collapsed {
		if on {
			ids = append(ids, id)
		}
	}
	p.CollapsedByProject[projectID] = ids
}
