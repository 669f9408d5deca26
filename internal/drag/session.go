// Package drag turns continuous pointer movement into whole-day schedule
// edits: moving or resizing a task's plan/actual bar, with cascading
// propagation to descendants and finish-to-start successors on commit.
//
// A Session is an explicit state machine (Idle -> Dragging -> Committing ->
// Idle) with begin/update/commit/cancel methods; the hosting view wires real
// input events to these calls. There is no ambient global drag state.
package drag

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
	"girder-cli/internal/timeline"
)

type Kind int

const (
	KindMove Kind = iota
	KindResizeLeft
	KindResizeRight
)

type Bar int

const (
	BarPlan Bar = iota
	BarActual
)

type state int

const (
	stateIdle state = iota
	stateDragging
)

// Updater is the persistence contract the engine emits against. Calls are
// asynchronous and never retried here; on failure the optimistic local state
// may diverge from the store until the next full snapshot refresh
// (reconciliation-by-refresh, not transactional rollback).
type Updater interface {
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error
}

// Commit is the outcome of a completed drag: the full optimistic patch set
// (self plus cascaded descendants and successors) and a channel closed once
// every persistence call has returned. The host applies Patches to its
// snapshot in a single step so the cascade renders atomically, and may hold
// a brief in-flight indication on Done so a multi-row cascade doesn't read
// as lag.
type Commit struct {
	Patches map[string]model.TaskPatch
	Done    <-chan struct{}
}

type Session struct {
	updater Updater
	logger  *slog.Logger

	idx *graph.Index
	tl  timeline.Timeline
	now model.Date

	st     state
	kind   Kind
	bar    Bar
	taskID string

	origStart model.Date
	origEnd   model.Date
	curStart  model.Date
	curEnd    model.Date
	originX   float64
	lastX     float64

	// Captured once at drag entry for O(1) membership checks per frame while
	// previewing a plan-move cascade.
	descendants map[string]bool

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewSession creates an idle session. updater may be nil, which degrades
// every commit to a read-only no-op.
func NewSession(updater Updater, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		updater:  updater,
		logger:   logger,
		inFlight: map[string]bool{},
	}
}

// SetSnapshot hands the session the current task index, timeline and "now".
// The host calls this after every store refresh and after applying a
// commit's patch set. Calling it mid-drag cancels the drag.
func (s *Session) SetSnapshot(idx *graph.Index, tl timeline.Timeline, now model.Date) {
	s.idx = idx
	s.tl = tl
	s.now = now
	s.reset()
}

func (s *Session) Idle() bool     { return s.st == stateIdle }
func (s *Session) Dragging() bool { return s.st == stateDragging }
func (s *Session) TaskID() string { return s.taskID }
func (s *Session) Bar() Bar       { return s.bar }
func (s *Session) Kind() Kind     { return s.kind }

// InFlight reports whether a prior commit touching id has not finished
// persisting yet. Begin refuses such rows so two optimistic writes for the
// same task can't overlap.
func (s *Session) InFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[id]
}

// Begin enters Dragging for the chosen bar of the task, capturing its
// current effective range and the pointer origin. It returns false (and
// stays Idle) when the gesture is not permitted: unknown task, group row
// (derived, read-only), no persistence contract, or a row still committing.
func (s *Session) Begin(taskID string, kind Kind, bar Bar, pointerX float64) bool {
	if s.st != stateIdle || s.idx == nil || s.updater == nil {
		return false
	}
	t, ok := s.idx.Task(taskID)
	if !ok || t.IsGroup() {
		return false
	}
	if s.InFlight(taskID) {
		return false
	}

	start, end, ok := effectiveRange(t, bar)
	if !ok {
		return false
	}

	s.st = stateDragging
	s.kind = kind
	s.bar = bar
	s.taskID = t.ID
	s.origStart, s.origEnd = start, end
	s.curStart, s.curEnd = start, end
	s.originX = pointerX
	s.lastX = pointerX
	if bar == BarPlan && kind == KindMove {
		s.descendants = s.idx.DescendantIDs(t.ID)
	} else {
		s.descendants = nil
	}
	return true
}

// effectiveRange resolves the start/end the drag operates on. The actual bar
// synthesizes an end date from progress when none is recorded, collapsing to
// a single-day marker at progress 0.
func effectiveRange(t model.Task, bar Bar) (model.Date, model.Date, bool) {
	if bar == BarPlan {
		if !t.PlanStart.Valid() || !t.PlanEnd.Valid() {
			return "", "", false
		}
		return t.PlanStart, t.PlanEnd, true
	}

	start := t.PlanStart
	if t.ActualStart != nil && t.ActualStart.Valid() {
		start = *t.ActualStart
	}
	if !start.Valid() {
		return "", "", false
	}
	if t.ActualEnd != nil && t.ActualEnd.Valid() {
		return start, model.MaxDate(start, *t.ActualEnd), true
	}
	p := model.ClampProgress(t.Progress)
	if p == 0 {
		return start, start, true
	}
	span := int(math.Round(float64(t.PlanDuration()) * float64(p) / 100))
	if span < 1 {
		span = 1
	}
	return start, start.AddDays(span - 1), true
}

// Update recomputes the candidate range from the pointer position. It is
// idempotent per frame: the host may coalesce bursts of pointer events and
// call this once per redraw. The dragged edge clamps to the fixed edge, so
// the preview range never inverts. No persistence happens here.
func (s *Session) Update(pointerX float64) (start, end model.Date, changed bool) {
	if s.st != stateDragging {
		return "", "", false
	}
	s.lastX = pointerX
	delta := s.tl.DaysForOffset(pointerX - s.originX)

	ns, ne := s.origStart, s.origEnd
	switch s.kind {
	case KindMove:
		ns = s.origStart.AddDays(delta)
		ne = s.origEnd.AddDays(delta)
	case KindResizeLeft:
		ns = s.origStart.AddDays(delta)
		if ne.Before(ns) {
			ns = ne
		}
	case KindResizeRight:
		ne = s.origEnd.AddDays(delta)
		if ne.Before(ns) {
			ne = ns
		}
	}
	changed = ns != s.curStart || ne != s.curEnd
	s.curStart, s.curEnd = ns, ne
	return ns, ne, changed
}

// PreviewRange returns the candidate range while dragging.
func (s *Session) PreviewRange() (model.Date, model.Date) {
	return s.curStart, s.curEnd
}

// PreviewDelta returns the whole-day displacement of the dragged edge(s).
func (s *Session) PreviewDelta() int {
	d, _ := model.DaysBetween(s.origEnd, s.curEnd)
	if s.kind == KindResizeLeft {
		d, _ = model.DaysBetween(s.origStart, s.curStart)
	}
	return d
}

// InPreviewCascade reports whether id moves along with the dragged task in
// the visual preview (plan-move only: children travel with their parent).
func (s *Session) InPreviewCascade(id string) bool {
	return s.st == stateDragging && s.descendants != nil && s.descendants[id]
}

// Cancel discards the drag with no side effects.
func (s *Session) Cancel() {
	s.reset()
}

// CommitContext completes the drag. A zero-displacement drag returns nil and
// no persistence call is made. Otherwise the patch set is computed (self,
// hierarchy cascade, dependency cascade), the updateTask calls are fired
// concurrently, and the session returns to Idle immediately; callers observe
// completion through Commit.Done.
func (s *Session) CommitContext(ctx context.Context) *Commit {
	if s.st != stateDragging {
		return nil
	}
	defer s.reset()

	if s.curStart == s.origStart && s.curEnd == s.origEnd {
		return nil
	}

	patches := s.buildPatches()
	if len(patches) == 0 {
		return nil
	}

	s.mu.Lock()
	for id := range patches {
		s.inFlight[id] = true
	}
	s.mu.Unlock()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for id, p := range patches {
		wg.Add(1)
		go func(id string, p model.TaskPatch) {
			defer wg.Done()
			if err := s.updater.UpdateTask(ctx, id, p); err != nil {
				// Not retried: the next snapshot refresh reconciles any
				// divergence between optimistic state and the store.
				s.logger.Warn("task update failed", "taskId", id, "err", err)
			}
			s.mu.Lock()
			delete(s.inFlight, id)
			s.mu.Unlock()
		}(id, p)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	s.logger.Info("drag committed",
		"taskId", s.taskID, "bar", int(s.bar), "kind", int(s.kind), "updates", len(patches))
	return &Commit{Patches: patches, Done: done}
}

func (s *Session) buildPatches() map[string]model.TaskPatch {
	patches := map[string]model.TaskPatch{}

	t, ok := s.idx.Task(s.taskID)
	if !ok {
		return nil
	}

	if s.bar == BarActual {
		start, end := s.curStart, s.curEnd
		dur, _ := model.DaysBetween(start, end)
		actualDur := dur + 1
		prog := 0
		if pd := t.PlanDuration(); pd > 0 {
			prog = model.ClampProgress(int(math.Round(100 * float64(actualDur) / float64(pd))))
		}
		patches[t.ID] = model.TaskPatch{
			SetActualStart: true, ActualStart: &start,
			SetActualEnd: true, ActualEnd: &end,
			Progress: &prog,
		}
		return patches
	}

	start, end := s.curStart, s.curEnd
	patches[t.ID] = model.TaskPatch{PlanStart: &start, PlanEnd: &end}

	// Hierarchy cascade: moving a parent carries its children by the same
	// whole-range shift.
	delta := 0
	if s.kind == KindMove {
		delta, _ = model.DaysBetween(s.origStart, s.curStart)
		for id := range s.descendants {
			c, ok := s.idx.Task(id)
			if !ok {
				continue
			}
			shiftPlan(patches, c, delta)
		}
	}

	// Dependency cascade: pushing this task's finish pushes everything
	// chained after it. The delta is measured at the moved edge; resize-left
	// leaves the finish untouched and propagates nothing.
	if s.kind == KindMove || s.kind == KindResizeRight {
		edgeDelta, _ := model.DaysBetween(s.origEnd, s.curEnd)
		if edgeDelta != 0 {
			s.cascadeSuccessors(patches, t.ID, edgeDelta)
		}
	}

	return patches
}

// cascadeSuccessors shifts successor plan ranges breadth-first. The
// successor graph may reconverge on a shared downstream task, so ids already
// patched in this commit are not shifted twice.
func (s *Session) cascadeSuccessors(patches map[string]model.TaskPatch, fromID string, delta int) {
	queue := []string{fromID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, succ := range s.idx.SuccessorsOf(cur) {
			if _, done := patches[succ.ID]; done {
				continue
			}
			shiftPlan(patches, succ, delta)
			queue = append(queue, succ.ID)
		}
	}
}

func shiftPlan(patches map[string]model.TaskPatch, t model.Task, delta int) {
	if _, done := patches[t.ID]; done {
		return
	}
	ns := t.PlanStart.AddDays(delta)
	ne := t.PlanEnd.AddDays(delta)
	if !ns.Valid() || !ne.Valid() {
		return
	}
	patches[t.ID] = model.TaskPatch{PlanStart: &ns, PlanEnd: &ne}
}

func (s *Session) reset() {
	s.st = stateIdle
	s.taskID = ""
	s.descendants = nil
	s.origStart, s.origEnd = "", ""
	s.curStart, s.curEnd = "", ""
}
