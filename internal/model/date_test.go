package model

import "testing"

func TestDateValidAndAddDays(t *testing.T) {
	if !Date("2025-03-10").Valid() {
		t.Fatalf("valid date rejected")
	}
	for _, bad := range []Date{"", "  ", "2025-3-1", "garbage", "2025-13-01"} {
		if bad.Valid() {
			t.Fatalf("%q accepted", bad)
		}
		if got := bad.AddDays(1); got != "" {
			t.Fatalf("AddDays(%q) = %q", bad, got)
		}
	}
	if got := Date("2025-02-27").AddDays(2); got != "2025-03-01" {
		t.Fatalf("month rollover = %s", got)
	}
	if got := Date("2025-03-01").AddDays(-1); got != "2025-02-28" {
		t.Fatalf("backward shift = %s", got)
	}
}

func TestDaysBetween(t *testing.T) {
	if d, ok := DaysBetween("2025-03-03", "2025-03-07"); !ok || d != 4 {
		t.Fatalf("forward = %d ok=%v", d, ok)
	}
	if d, ok := DaysBetween("2025-03-07", "2025-03-03"); !ok || d != -4 {
		t.Fatalf("backward = %d ok=%v", d, ok)
	}
	if _, ok := DaysBetween("", "2025-03-03"); ok {
		t.Fatalf("invalid date compared")
	}
}

func TestMinMaxDateTolerateInvalid(t *testing.T) {
	if got := MinDate("", "2025-03-03"); got != "2025-03-03" {
		t.Fatalf("min = %s", got)
	}
	if got := MaxDate("2025-03-03", "junk"); got != "2025-03-03" {
		t.Fatalf("max = %s", got)
	}
	if got := MinDate("2025-03-01", "2025-03-03"); got != "2025-03-01" {
		t.Fatalf("min = %s", got)
	}
	if got := MaxDate("", ""); got != "" {
		t.Fatalf("both invalid = %q", got)
	}
}

func TestPlanDuration(t *testing.T) {
	tk := Task{PlanStart: "2025-03-03", PlanEnd: "2025-03-12"}
	if d := tk.PlanDuration(); d != 10 {
		t.Fatalf("duration = %d, want 10", d)
	}
	tk.PlanEnd = "2025-03-03"
	if d := tk.PlanDuration(); d != 1 {
		t.Fatalf("single day = %d", d)
	}
	tk.PlanEnd = "2025-03-01" // inverted
	if d := tk.PlanDuration(); d != 0 {
		t.Fatalf("inverted = %d", d)
	}
	tk.PlanEnd = ""
	if d := tk.PlanDuration(); d != 0 {
		t.Fatalf("missing end = %d", d)
	}
}
