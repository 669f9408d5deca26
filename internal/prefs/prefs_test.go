package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsFresh(t *testing.T) {
	fs := FileStore{Dir: t.TempDir()}
	p, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p == nil || p.Version != 1 {
		t.Fatalf("fresh prefs = %+v", p)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := FileStore{Dir: t.TempDir()}
	p := &Prefs{
		Granularity:   "month",
		LastProjectID: "proj",
	}
	p.SetCollapsed("proj", map[string]bool{"g1": true, "g2": false})
	if err := fs.Save(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Granularity != "month" || got.LastProjectID != "proj" {
		t.Fatalf("round trip = %+v", got)
	}
	set := got.CollapsedSet("proj")
	if !set["g1"] || set["g2"] {
		t.Fatalf("collapsed = %v", set)
	}
	if len(got.CollapsedSet("other")) != 0 {
		t.Fatalf("foreign project collapsed set leaked")
	}
}

func TestCorruptedFileTreatedAsMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "prefs.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p, err := FileStore{Dir: dir}.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Version != 1 || len(p.CollapsedByProject) != 0 {
		t.Fatalf("corrupted prefs not reset: %+v", p)
	}
}

func TestEmptyDirIsNoOp(t *testing.T) {
	fs := FileStore{}
	if _, err := fs.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := fs.Save(&Prefs{Version: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
}
