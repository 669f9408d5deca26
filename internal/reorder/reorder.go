// Package reorder converts row drag-and-drop gestures into sibling-order and
// parent-reassignment patches. Ordering uses fractional numeric keys:
// inserting between two rows assigns the midpoint of their orders, so the
// rest of the sibling set is never renumbered.
package reorder

import (
	"sort"
	"strings"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
)

type Position string

const (
	PositionAbove Position = "above"
	PositionBelow Position = "below"
	PositionChild Position = "child"
)

// DropPosition interprets the vertical pointer position within the target
// row's bounds. Container (group) targets expose a nesting zone in the
// middle half, with above/below in the outer quartiles; plain task targets
// split at the midpoint.
func DropPosition(pointerY, rowTop, rowHeight float64, targetIsGroup bool) Position {
	if rowHeight <= 0 {
		return PositionBelow
	}
	frac := (pointerY - rowTop) / rowHeight
	if targetIsGroup {
		switch {
		case frac < 0.25:
			return PositionAbove
		case frac >= 0.75:
			return PositionBelow
		default:
			return PositionChild
		}
	}
	if frac < 0.5 {
		return PositionAbove
	}
	return PositionBelow
}

// Drop is the single-task patch realizing a reorder/renest gesture. No
// cascade runs for pure reordering. AutoExpandID names a collapsed container
// the host should expand so the dropped row stays visible.
type Drop struct {
	TaskID       string
	Patch        model.TaskPatch
	AutoExpandID string
}

// PlanDrop computes the patch for dropping draggedID at pos relative to
// targetID. Illegal gestures (self-drop, nesting a task under its own
// descendant, nesting under a non-container, unknown ids) return nil: the
// gesture is silently discarded and the tree is left untouched.
func PlanDrop(x *graph.Index, draggedID, targetID string, pos Position) *Drop {
	draggedID = strings.TrimSpace(draggedID)
	targetID = strings.TrimSpace(targetID)
	if x == nil || draggedID == "" || targetID == "" || draggedID == targetID {
		return nil
	}
	dragged, ok := x.Task(draggedID)
	if !ok {
		return nil
	}
	target, ok := x.Task(targetID)
	if !ok {
		return nil
	}

	if pos == PositionChild {
		return planNest(x, dragged, target)
	}
	return planSiblingInsert(x, dragged, target, pos)
}

func planNest(x *graph.Index, dragged, target model.Task) *Drop {
	if !target.IsGroup() {
		return nil
	}
	// Making a task the child of its own descendant would close a parent
	// cycle; the forest invariant is checked before every re-parent.
	if x.IsDescendant(target.ID, dragged.ID) {
		return nil
	}

	order := 1.0
	if ch := x.ChildrenOf(target.ID); len(ch) > 0 {
		order = ch[len(ch)-1].Order + 1
	}

	parent := target.ID
	cat := target.Category
	return &Drop{
		TaskID: dragged.ID,
		Patch: model.TaskPatch{
			SetParent:    true,
			ParentTaskID: &parent,
			Category:     &cat,
			Order:        &order,
		},
		AutoExpandID: target.ID,
	}
}

func planSiblingInsert(x *graph.Index, dragged, target model.Task, pos Position) *Drop {
	// Re-parenting onto the target's level can still form a cycle when the
	// target sits inside the dragged subtree.
	if target.ParentTaskID != nil {
		pid := strings.TrimSpace(*target.ParentTaskID)
		if pid == dragged.ID || x.IsDescendant(pid, dragged.ID) {
			return nil
		}
	}

	sibs := siblingsOf(x, target)
	idx := -1
	for i := range sibs {
		if sibs[i].ID == target.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	insertAt := idx
	if pos == PositionBelow {
		insertAt = idx + 1
	}

	// The dragged task may already sit in this sibling set; neighbors are
	// taken from the set without it.
	rest := make([]model.Task, 0, len(sibs))
	for _, s := range sibs {
		if s.ID == dragged.ID {
			if posOf(sibs, s.ID) < insertAt {
				insertAt--
			}
			continue
		}
		rest = append(rest, s)
	}
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(rest) {
		insertAt = len(rest)
	}

	order := orderAt(rest, insertAt)
	cat := target.Category
	patch := model.TaskPatch{
		Order:    &order,
		Category: &cat,
	}
	patch.SetParent = true
	patch.ParentTaskID = cloneParent(target.ParentTaskID)

	return &Drop{TaskID: dragged.ID, Patch: patch}
}

// orderAt picks the fractional key for inserting at index i of an ordered
// sibling list: the midpoint of the two neighbors, or 1 beyond the boundary
// sibling at either end. Repeated insertions at the same point halve the gap
// each time; the upstream scheme never renormalizes, so precision can in
// principle be exhausted (see DESIGN.md).
func orderAt(sibs []model.Task, i int) float64 {
	switch {
	case len(sibs) == 0:
		return 1
	case i <= 0:
		return sibs[0].Order - 1
	case i >= len(sibs):
		return sibs[len(sibs)-1].Order + 1
	default:
		return OrderBetween(sibs[i-1].Order, sibs[i].Order)
	}
}

// OrderBetween returns the midpoint key between two sibling orders.
func OrderBetween(a, b float64) float64 {
	return a + (b-a)/2
}

// AppendOrder returns the order key for appending under parentID (the empty
// id means the root level): max sibling order + 1, or 1 for the first child.
func AppendOrder(x *graph.Index, parentID string) float64 {
	var sibs []model.Task
	if strings.TrimSpace(parentID) == "" {
		sibs = x.Roots()
	} else {
		sibs = x.ChildrenOf(parentID)
	}
	if len(sibs) == 0 {
		return 1
	}
	max := sibs[0].Order
	for _, s := range sibs[1:] {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + 1
}

// siblingsOf returns tasks sharing the target's parent and category, sorted
// by order (ties by id).
func siblingsOf(x *graph.Index, target model.Task) []model.Task {
	pid := ""
	if target.ParentTaskID != nil {
		pid = strings.TrimSpace(*target.ParentTaskID)
	}
	var pool []model.Task
	if pid == "" {
		pool = x.Roots()
	} else {
		pool = x.ChildrenOf(pid)
	}
	var out []model.Task
	for _, t := range pool {
		if t.Category == target.Category {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func posOf(sibs []model.Task, id string) int {
	for i := range sibs {
		if sibs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneParent(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
