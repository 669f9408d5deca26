package tui

import (
	"sort"
	"strings"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
)

// ganttRow is one visible line of the board: a task plus its display
// context (depth, collapse state).
type ganttRow struct {
	task        model.Task
	depth       int
	hasChildren bool
	collapsed   bool
}

// flattenTasks walks the forest depth-first in sibling order, skipping the
// subtrees of collapsed rows. Tasks whose parent is missing from the
// snapshot surface as roots so a dangling reference never hides a subtree.
func flattenTasks(idx *graph.Index, collapsed map[string]bool) []ganttRow {
	var out []ganttRow
	seen := map[string]bool{}
	var walk func(t model.Task, depth int)
	walk = func(t model.Task, depth int) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		children := idx.ChildrenOf(t.ID)
		out = append(out, ganttRow{
			task:        t,
			depth:       depth,
			hasChildren: len(children) > 0,
			collapsed:   collapsed[t.ID],
		})
		if collapsed[t.ID] {
			return
		}
		for _, c := range children {
			walk(c, depth+1)
		}
	}

	roots := idx.Roots()
	// Category blocks stay contiguous: categories in first-seen order, then
	// sibling order within each.
	byCat := map[string][]model.Task{}
	var cats []string
	for _, r := range roots {
		if _, ok := byCat[r.Category]; !ok {
			cats = append(cats, r.Category)
		}
		byCat[r.Category] = append(byCat[r.Category], r)
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, cat := range cats {
		for _, r := range byCat[cat] {
			walk(r, 0)
		}
	}
	return out
}

func rowLabel(r ganttRow) string {
	glyph := "  "
	if r.hasChildren {
		if r.collapsed {
			glyph = "▸ "
		} else {
			glyph = "▾ "
		}
	}
	return strings.Repeat("  ", r.depth) + glyph + r.task.Name
}
