package model

import "time"

type TaskType string

const (
	TaskTypeTask  TaskType = "task"
	TaskTypeGroup TaskType = "group"
)

// Task is a single row in the project schedule.
//
// Tasks form a forest via ParentTaskID, and a finish-to-start dependency
// graph via Predecessors. For Type == TaskTypeGroup, the schedule, cost and
// progress fields are derived from leaf descendants on every read and must
// never be edited directly (see internal/progress).
type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`

	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Type        TaskType `json:"type"`

	ParentTaskID *string `json:"parentTaskId,omitempty"`

	// Order sorts siblings ascending. Values are real numbers, not contiguous
	// integers: reordering assigns fractional midpoints so neighbors never
	// need renumbering. Ties break by ID.
	Order float64 `json:"order"`

	// Predecessors holds ids of tasks that must finish before this one starts.
	Predecessors []string `json:"predecessors,omitempty"`

	PlanStart   Date  `json:"planStartDate"`
	PlanEnd     Date  `json:"planEndDate"`
	ActualStart *Date `json:"actualStartDate,omitempty"`
	ActualEnd   *Date `json:"actualEndDate,omitempty"`

	Cost     float64 `json:"cost"`
	Quantity string  `json:"quantity,omitempty"`
	Color    string  `json:"color,omitempty"`

	// Progress is a whole percentage in [0,100]. Authoritative for
	// TaskTypeTask; recomputed from descendants for TaskTypeGroup.
	Progress          int        `json:"progress"`
	ProgressUpdatedAt *time.Time `json:"progressUpdatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlanDuration returns the inclusive plan length in days, or 0 when either
// date is unparseable or the range is inverted.
func (t Task) PlanDuration() int {
	d, ok := DaysBetween(t.PlanStart, t.PlanEnd)
	if !ok || d < 0 {
		return 0
	}
	return d + 1
}

// IsGroup reports whether the task is a derived container row.
func (t Task) IsGroup() bool {
	return t.Type == TaskTypeGroup
}

func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
