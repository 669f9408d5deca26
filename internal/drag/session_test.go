package drag

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
	"girder-cli/internal/timeline"
)

type fakeUpdater struct {
	mu    sync.Mutex
	calls map[string]model.TaskPatch
	block chan struct{}
	err   error
}

func (f *fakeUpdater) UpdateTask(ctx context.Context, id string, p model.TaskPatch) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]model.TaskPatch{}
	}
	f.calls[id] = p
	return f.err
}

func (f *fakeUpdater) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func sp(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, tasks []model.Task, u Updater) *Session {
	t.Helper()
	s := NewSession(u, testLogger())
	tl := timeline.Compute("2025-03-01", "2025-04-30", timeline.GranularityDay, 0)
	s.SetSnapshot(graph.NewIndex(tasks), tl, "2025-03-15")
	return s
}

func dragDays(t *testing.T, s *Session, id string, kind Kind, bar Bar, days int) *Commit {
	t.Helper()
	if !s.Begin(id, kind, bar, 0) {
		t.Fatalf("Begin(%s) refused", id)
	}
	tl := timeline.Compute("2025-03-01", "2025-04-30", timeline.GranularityDay, 0)
	s.Update(float64(days) * tl.DayWidth())
	return s.CommitContext(context.Background())
}

func waitDone(t *testing.T, c *Commit) {
	t.Helper()
	select {
	case <-c.Done:
	case <-time.After(5 * time.Second):
		t.Fatalf("commit did not finish")
	}
}

func planOf(t *testing.T, p model.TaskPatch) (model.Date, model.Date) {
	t.Helper()
	if p.PlanStart == nil || p.PlanEnd == nil {
		t.Fatalf("patch has no plan range: %+v", p)
	}
	return *p.PlanStart, *p.PlanEnd
}

func TestMoveCascadesThroughDependencyChain(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	b := model.Task{ID: "b", Type: model.TaskTypeTask, PlanStart: "2025-03-10", PlanEnd: "2025-03-14", Predecessors: []string{"a"}}
	c := model.Task{ID: "c", Type: model.TaskTypeTask, PlanStart: "2025-03-17", PlanEnd: "2025-03-21", Predecessors: []string{"b"}}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a, b, c}, u)

	commit := dragDays(t, s, "a", KindMove, BarPlan, 3)
	if commit == nil {
		t.Fatalf("commit is nil")
	}
	if len(commit.Patches) != 3 {
		t.Fatalf("patches = %d, want 3", len(commit.Patches))
	}

	cases := map[string][2]model.Date{
		"a": {"2025-03-06", "2025-03-10"},
		"b": {"2025-03-13", "2025-03-17"},
		"c": {"2025-03-20", "2025-03-24"},
	}
	for id, want := range cases {
		gs, ge := planOf(t, commit.Patches[id])
		if gs != want[0] || ge != want[1] {
			t.Fatalf("%s moved to %s..%s, want %s..%s", id, gs, ge, want[0], want[1])
		}
	}

	waitDone(t, commit)
	if u.count() != 3 {
		t.Fatalf("updater calls = %d, want 3", u.count())
	}
}

func TestMoveCarriesDescendants(t *testing.T) {
	p := model.Task{ID: "p", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-14"}
	c1 := model.Task{ID: "c1", Type: model.TaskTypeTask, ParentTaskID: sp("p"), PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	c2 := model.Task{ID: "c2", Type: model.TaskTypeTask, ParentTaskID: sp("p"), PlanStart: "2025-03-10", PlanEnd: "2025-03-14"}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{p, c1, c2}, u)

	commit := dragDays(t, s, "p", KindMove, BarPlan, -2)
	if commit == nil || len(commit.Patches) != 3 {
		t.Fatalf("commit = %+v", commit)
	}
	gs, _ := planOf(t, commit.Patches["c1"])
	if gs != "2025-03-01" {
		t.Fatalf("c1 start = %s", gs)
	}
	_, ge := planOf(t, commit.Patches["c2"])
	if ge != "2025-03-12" {
		t.Fatalf("c2 end = %s", ge)
	}
	waitDone(t, commit)
}

func TestResizeRightCascadesSuccessorsOnly(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	child := model.Task{ID: "child", Type: model.TaskTypeTask, ParentTaskID: sp("a"), PlanStart: "2025-03-03", PlanEnd: "2025-03-05"}
	succ := model.Task{ID: "succ", Type: model.TaskTypeTask, PlanStart: "2025-03-10", PlanEnd: "2025-03-12", Predecessors: []string{"a"}}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a, child, succ}, u)

	commit := dragDays(t, s, "a", KindResizeRight, BarPlan, 2)
	if commit == nil {
		t.Fatalf("commit is nil")
	}
	if _, ok := commit.Patches["child"]; ok {
		t.Fatalf("resize must not move children")
	}
	gs, ge := planOf(t, commit.Patches["a"])
	if gs != "2025-03-03" || ge != "2025-03-09" {
		t.Fatalf("a = %s..%s", gs, ge)
	}
	gs, _ = planOf(t, commit.Patches["succ"])
	if gs != "2025-03-12" {
		t.Fatalf("succ start = %s", gs)
	}
	waitDone(t, commit)
}

func TestResizeLeftDoesNotCascade(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	succ := model.Task{ID: "succ", Type: model.TaskTypeTask, PlanStart: "2025-03-10", PlanEnd: "2025-03-12", Predecessors: []string{"a"}}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a, succ}, u)

	commit := dragDays(t, s, "a", KindResizeLeft, BarPlan, 1)
	if commit == nil || len(commit.Patches) != 1 {
		t.Fatalf("patches = %+v", commit)
	}
	gs, ge := planOf(t, commit.Patches["a"])
	if gs != "2025-03-04" || ge != "2025-03-07" {
		t.Fatalf("a = %s..%s", gs, ge)
	}
	waitDone(t, commit)
}

func TestSharedSuccessorShiftedOnce(t *testing.T) {
	// a -> b, a -> c, b -> d, c -> d: d is reachable twice but must shift once.
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-04"}
	b := model.Task{ID: "b", Type: model.TaskTypeTask, PlanStart: "2025-03-05", PlanEnd: "2025-03-06", Predecessors: []string{"a"}}
	c := model.Task{ID: "c", Type: model.TaskTypeTask, PlanStart: "2025-03-05", PlanEnd: "2025-03-06", Predecessors: []string{"a"}}
	d := model.Task{ID: "d", Type: model.TaskTypeTask, PlanStart: "2025-03-07", PlanEnd: "2025-03-08", Predecessors: []string{"b", "c"}}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a, b, c, d}, u)

	commit := dragDays(t, s, "a", KindMove, BarPlan, 2)
	if commit == nil || len(commit.Patches) != 4 {
		t.Fatalf("patches = %d", len(commit.Patches))
	}
	gs, ge := planOf(t, commit.Patches["d"])
	if gs != "2025-03-09" || ge != "2025-03-10" {
		t.Fatalf("d = %s..%s", gs, ge)
	}
	waitDone(t, commit)
}

func TestActualDragSetsProgressFromPlanRatio(t *testing.T) {
	// 10 plan days; an actual bar covering 4 of them is 40% done.
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-12"}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a}, u)

	commit := dragDays(t, s, "a", KindResizeRight, BarActual, 3)
	if commit == nil || len(commit.Patches) != 1 {
		t.Fatalf("commit = %+v", commit)
	}
	p := commit.Patches["a"]
	if !p.SetActualStart || !p.SetActualEnd || p.Progress == nil {
		t.Fatalf("patch = %+v", p)
	}
	if *p.ActualStart != "2025-03-03" || *p.ActualEnd != "2025-03-06" {
		t.Fatalf("actual = %s..%s", *p.ActualStart, *p.ActualEnd)
	}
	if *p.Progress != 40 {
		t.Fatalf("progress = %d, want 40", *p.Progress)
	}
	waitDone(t, commit)
}

func TestZeroDisplacementCommitsNothing(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a}, u)

	if commit := dragDays(t, s, "a", KindMove, BarPlan, 0); commit != nil {
		t.Fatalf("zero drag produced a commit")
	}
	if u.count() != 0 {
		t.Fatalf("updater calls = %d, want 0", u.count())
	}
	if !s.Idle() {
		t.Fatalf("session not idle after commit")
	}
}

func TestBeginRejectsGroupsAndUnknown(t *testing.T) {
	g := model.Task{ID: "g", Type: model.TaskTypeGroup, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{g}, u)

	if s.Begin("g", KindMove, BarPlan, 0) {
		t.Fatalf("group row accepted")
	}
	if s.Begin("nope", KindMove, BarPlan, 0) {
		t.Fatalf("unknown task accepted")
	}
	a := model.Task{ID: "a", Type: model.TaskTypeTask}
	s = newTestSession(t, []model.Task{a}, u)
	if s.Begin("a", KindMove, BarPlan, 0) {
		t.Fatalf("dateless plan bar accepted")
	}
}

func TestResizeClampsToFixedEdge(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-10", PlanEnd: "2025-03-12"}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a}, u)

	commit := dragDays(t, s, "a", KindResizeRight, BarPlan, -10)
	if commit == nil {
		t.Fatalf("commit is nil")
	}
	gs, ge := planOf(t, commit.Patches["a"])
	if gs != "2025-03-10" || ge != "2025-03-10" {
		t.Fatalf("a = %s..%s, want single day", gs, ge)
	}
	waitDone(t, commit)
}

func TestInFlightRowRefusesNewDrag(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	u := &fakeUpdater{block: make(chan struct{})}
	s := newTestSession(t, []model.Task{a}, u)

	commit := dragDays(t, s, "a", KindMove, BarPlan, 1)
	if commit == nil {
		t.Fatalf("commit is nil")
	}
	if s.Begin("a", KindMove, BarPlan, 0) {
		t.Fatalf("in-flight row accepted a new drag")
	}
	close(u.block)
	waitDone(t, commit)
	if !s.Begin("a", KindMove, BarPlan, 0) {
		t.Fatalf("settled row refused a drag")
	}
	s.Cancel()
}

func TestPersistenceFailureStillCompletes(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	u := &fakeUpdater{err: context.DeadlineExceeded}
	s := newTestSession(t, []model.Task{a}, u)

	commit := dragDays(t, s, "a", KindMove, BarPlan, 1)
	if commit == nil {
		t.Fatalf("commit is nil")
	}
	// Done must close even when every write fails; the next refresh reconciles.
	waitDone(t, commit)
	if s.InFlight("a") {
		t.Fatalf("row stuck in flight after failed write")
	}
}

func TestActualBarFromExistingProgress(t *testing.T) {
	// 50% of a 10-day plan synthesizes a 5-day actual bar; growing it by two
	// days lands at 70%.
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-12", Progress: 50}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a}, u)

	commit := dragDays(t, s, "a", KindResizeRight, BarActual, 2)
	if commit == nil {
		t.Fatalf("commit is nil")
	}
	p := commit.Patches["a"]
	if *p.ActualEnd != "2025-03-09" || *p.Progress != 70 {
		t.Fatalf("end = %s progress = %d", *p.ActualEnd, *p.Progress)
	}
	waitDone(t, commit)
}

func TestSetSnapshotCancelsDrag(t *testing.T) {
	a := model.Task{ID: "a", Type: model.TaskTypeTask, PlanStart: "2025-03-03", PlanEnd: "2025-03-07"}
	u := &fakeUpdater{}
	s := newTestSession(t, []model.Task{a}, u)

	if !s.Begin("a", KindMove, BarPlan, 0) {
		t.Fatalf("Begin refused")
	}
	s.SetSnapshot(graph.NewIndex([]model.Task{a}), timeline.Compute("2025-03-01", "2025-04-30", timeline.GranularityDay, 0), "2025-03-15")
	if !s.Idle() {
		t.Fatalf("refresh did not cancel the drag")
	}
	if s.CommitContext(context.Background()) != nil {
		t.Fatalf("cancelled drag still committed")
	}
}
