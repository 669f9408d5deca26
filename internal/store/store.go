// Package store is the persistence collaborator behind the schedule engine:
// a sqlite-backed task store exposing list/create/update/delete by project.
// The engine itself never talks to sqlite; it emits TaskPatch updates
// against the UpdateTask contract and is handed fresh snapshots by the host.
package store

import (
	"os"
	"path/filepath"
)

const dbFileName = "girder.sqlite"

type Store struct {
	Dir string
}

// DiscoverDir walks upward from start looking for a .girder directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".girder")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir resolves the store directory: the nearest .girder above the
// working directory, or a fresh .girder in it.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, ".girder"), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) dbPath() string {
	return filepath.Join(s.Dir, dbFileName)
}
