package model

import (
	"testing"
	"time"
)

func TestPatchIsZero(t *testing.T) {
	if !(TaskPatch{}).IsZero() {
		t.Fatalf("empty patch not zero")
	}
	name := "x"
	if (TaskPatch{Name: &name}).IsZero() {
		t.Fatalf("named patch is zero")
	}
	// Clearing the parent is a change even though the value is nil.
	if (TaskPatch{SetParent: true}).IsZero() {
		t.Fatalf("parent clear is zero")
	}
	if (TaskPatch{SetActualEnd: true}).IsZero() {
		t.Fatalf("actual clear is zero")
	}
}

func TestPatchApplyTriStateParent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	pid := "p1"
	tk := Task{ID: "a", ParentTaskID: &pid}

	// Absent field: parent untouched.
	(TaskPatch{Order: f(2)}).Apply(&tk, now)
	if tk.ParentTaskID == nil || *tk.ParentTaskID != "p1" {
		t.Fatalf("parent changed by unrelated patch")
	}

	// Explicit nil: parent cleared.
	(TaskPatch{SetParent: true}).Apply(&tk, now)
	if tk.ParentTaskID != nil {
		t.Fatalf("parent not cleared")
	}

	p2 := "p2"
	(TaskPatch{SetParent: true, ParentTaskID: &p2}).Apply(&tk, now)
	if tk.ParentTaskID == nil || *tk.ParentTaskID != "p2" {
		t.Fatalf("parent not set")
	}
}

func TestPatchApplyProgressClampAndStamp(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tk := Task{ID: "a"}

	(TaskPatch{Progress: i(130)}).Apply(&tk, now)
	if tk.Progress != 100 {
		t.Fatalf("progress = %d, want clamped 100", tk.Progress)
	}
	if tk.ProgressUpdatedAt == nil || !tk.ProgressUpdatedAt.Equal(now) {
		t.Fatalf("progress stamp = %v", tk.ProgressUpdatedAt)
	}
	if !tk.UpdatedAt.Equal(now) {
		t.Fatalf("updated stamp = %v", tk.UpdatedAt)
	}

	stamp := *tk.ProgressUpdatedAt
	later := now.Add(time.Hour)
	(TaskPatch{Order: f(3)}).Apply(&tk, later)
	if !tk.ProgressUpdatedAt.Equal(stamp) {
		t.Fatalf("progress stamp moved without a progress change")
	}
	if !tk.UpdatedAt.Equal(later) {
		t.Fatalf("updated stamp not refreshed")
	}
}

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
