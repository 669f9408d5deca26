// Package graph provides derived, read-only queries over a task snapshot:
// hierarchy walks (children, descendants, ancestors), dependency walks
// (successors), and the topology checks that guard re-parenting and new
// predecessor edges.
//
// An Index is built once per snapshot and never mutated; callers rebuild it
// after every store refresh rather than patching it in place.
package graph

import (
	"sort"
	"strings"

	"girder-cli/internal/model"
)

type Index struct {
	tasks []model.Task

	byID       map[string]int
	children   map[string][]int
	successors map[string][]int
	roots      []int
}

// NewIndex builds the parent->children and predecessor->successors adjacency
// maps. Dangling ParentTaskID or predecessor references (pointing at no task
// in the snapshot) are treated as absent links: the child becomes a root and
// the edge is dropped.
func NewIndex(tasks []model.Task) *Index {
	x := &Index{
		tasks:      append([]model.Task{}, tasks...),
		byID:       make(map[string]int, len(tasks)),
		children:   map[string][]int{},
		successors: map[string][]int{},
	}
	for i := range x.tasks {
		id := strings.TrimSpace(x.tasks[i].ID)
		if id == "" {
			continue
		}
		x.byID[id] = i
	}
	for i := range x.tasks {
		t := &x.tasks[i]
		pid := ""
		if t.ParentTaskID != nil {
			pid = strings.TrimSpace(*t.ParentTaskID)
		}
		if pid == "" || pid == t.ID {
			x.roots = append(x.roots, i)
		} else if _, ok := x.byID[pid]; ok {
			x.children[pid] = append(x.children[pid], i)
		} else {
			x.roots = append(x.roots, i)
		}
		for _, pred := range t.Predecessors {
			pred = strings.TrimSpace(pred)
			if pred == "" || pred == t.ID {
				continue
			}
			if _, ok := x.byID[pred]; ok {
				x.successors[pred] = append(x.successors[pred], i)
			}
		}
	}
	for pid := range x.children {
		x.sortSiblings(x.children[pid])
	}
	x.sortSiblings(x.roots)
	return x
}

func (x *Index) sortSiblings(idxs []int) {
	sort.SliceStable(idxs, func(a, b int) bool {
		ta, tb := x.tasks[idxs[a]], x.tasks[idxs[b]]
		if ta.Order != tb.Order {
			return ta.Order < tb.Order
		}
		return ta.ID < tb.ID
	})
}

// Task returns a copy of the task with the given id.
func (x *Index) Task(id string) (model.Task, bool) {
	i, ok := x.byID[strings.TrimSpace(id)]
	if !ok {
		return model.Task{}, false
	}
	return x.tasks[i], true
}

// Tasks returns the snapshot in input order.
func (x *Index) Tasks() []model.Task {
	return append([]model.Task{}, x.tasks...)
}

// Roots returns tasks with no (resolvable) parent, ordered by Order.
func (x *Index) Roots() []model.Task {
	return x.collect(x.roots)
}

// ChildrenOf returns the direct children of id ordered by Order ascending,
// ties broken by id.
func (x *Index) ChildrenOf(id string) []model.Task {
	return x.collect(x.children[strings.TrimSpace(id)])
}

// DescendantsOf returns the transitive children of id, pre-order. The task
// itself is never included. A seen-guard bounds the walk even if the parent
// links are corrupted into a cycle.
func (x *Index) DescendantsOf(id string) []model.Task {
	var out []model.Task
	seen := map[string]bool{strings.TrimSpace(id): true}
	var walk func(pid string)
	walk = func(pid string) {
		for _, ci := range x.children[pid] {
			c := x.tasks[ci]
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			walk(c.ID)
		}
	}
	walk(strings.TrimSpace(id))
	return out
}

// DescendantIDs returns the id set of DescendantsOf. Drag sessions capture
// this once at drag entry for O(1) membership checks per frame.
func (x *Index) DescendantIDs(id string) map[string]bool {
	out := map[string]bool{}
	for _, t := range x.DescendantsOf(id) {
		out[t.ID] = true
	}
	return out
}

// AncestorsOf returns the parent chain from the immediate parent upward.
func (x *Index) AncestorsOf(id string) []model.Task {
	var out []model.Task
	seen := map[string]bool{}
	cur, ok := x.Task(id)
	for ok {
		if cur.ParentTaskID == nil {
			break
		}
		pid := strings.TrimSpace(*cur.ParentTaskID)
		if pid == "" || seen[pid] {
			break
		}
		seen[pid] = true
		cur, ok = x.Task(pid)
		if ok {
			out = append(out, cur)
		}
	}
	return out
}

// SuccessorsOf returns every task whose Predecessors contains id.
func (x *Index) SuccessorsOf(id string) []model.Task {
	return x.collect(x.successors[strings.TrimSpace(id)])
}

// IsDescendant reports whether candidateID sits anywhere below ancestorID.
// Used to veto re-parenting a task under its own subtree.
func (x *Index) IsDescendant(candidateID, ancestorID string) bool {
	candidateID = strings.TrimSpace(candidateID)
	ancestorID = strings.TrimSpace(ancestorID)
	if candidateID == "" || ancestorID == "" {
		return false
	}
	return x.DescendantIDs(ancestorID)[candidateID]
}

// CreatesDependencyCycle reports whether adding predecessorID to taskID's
// predecessor set would close a finish-to-start loop. Only one edge is added
// at a time, so a single reachability walk over existing predecessor links
// suffices: the new edge cycles iff taskID is reachable from predecessorID.
func (x *Index) CreatesDependencyCycle(taskID, predecessorID string) bool {
	taskID = strings.TrimSpace(taskID)
	predecessorID = strings.TrimSpace(predecessorID)
	if taskID == "" || predecessorID == "" {
		return false
	}
	if taskID == predecessorID {
		return true
	}
	seen := map[string]bool{}
	stack := []string{predecessorID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		t, ok := x.Task(cur)
		if !ok {
			continue
		}
		for _, p := range t.Predecessors {
			p = strings.TrimSpace(p)
			if p == taskID {
				return true
			}
			if p != "" && !seen[p] {
				stack = append(stack, p)
			}
		}
	}
	return false
}

// LeafDescendantsOf returns the non-group tasks under id. Group rows are
// containers whose fields are derived, so only task rows contribute to
// rollups. A task is never its own leaf.
func (x *Index) LeafDescendantsOf(id string) []model.Task {
	var out []model.Task
	for _, t := range x.DescendantsOf(id) {
		if !t.IsGroup() {
			out = append(out, t)
		}
	}
	return out
}

func (x *Index) collect(idxs []int) []model.Task {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]model.Task, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, x.tasks[i])
	}
	return out
}
