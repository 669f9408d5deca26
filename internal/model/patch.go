package model

import "time"

// TaskPatch is the partial field set accepted by the task store's
// UpdateTask contract. Nil fields are left untouched.
//
// ParentTaskID is tri-state: it only applies when SetParent is true, and a
// nil value then clears the parent (moves the task to the root of its
// category). This mirrors per-document atomic merge semantics: a patch is
// applied to a single task as one write, never field-by-field interleaved
// with another patch for the same task.
type TaskPatch struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Subcategory *string `json:"subcategory,omitempty"`

	SetParent    bool    `json:"setParent,omitempty"`
	ParentTaskID *string `json:"parentTaskId,omitempty"`

	Order        *float64  `json:"order,omitempty"`
	Predecessors *[]string `json:"predecessors,omitempty"`

	PlanStart *Date `json:"planStartDate,omitempty"`
	PlanEnd   *Date `json:"planEndDate,omitempty"`

	SetActualStart bool  `json:"setActualStart,omitempty"`
	ActualStart    *Date `json:"actualStartDate,omitempty"`
	SetActualEnd   bool  `json:"setActualEnd,omitempty"`
	ActualEnd      *Date `json:"actualEndDate,omitempty"`

	Cost     *float64 `json:"cost,omitempty"`
	Quantity *string  `json:"quantity,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Progress *int     `json:"progress,omitempty"`
}

// IsZero reports whether applying the patch would change nothing.
func (p TaskPatch) IsZero() bool {
	return p.Name == nil &&
		p.Category == nil &&
		p.Subcategory == nil &&
		!p.SetParent &&
		p.Order == nil &&
		p.Predecessors == nil &&
		p.PlanStart == nil &&
		p.PlanEnd == nil &&
		!p.SetActualStart &&
		!p.SetActualEnd &&
		p.Cost == nil &&
		p.Quantity == nil &&
		p.Color == nil &&
		p.Progress == nil
}

// Apply merges the patch into t. now stamps UpdatedAt (and
// ProgressUpdatedAt when progress changes).
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if t == nil {
		return
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subcategory != nil {
		t.Subcategory = *p.Subcategory
	}
	if p.SetParent {
		t.ParentTaskID = p.ParentTaskID
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.Predecessors != nil {
		t.Predecessors = append([]string{}, (*p.Predecessors)...)
	}
	if p.PlanStart != nil {
		t.PlanStart = *p.PlanStart
	}
	if p.PlanEnd != nil {
		t.PlanEnd = *p.PlanEnd
	}
	if p.SetActualStart {
		t.ActualStart = p.ActualStart
	}
	if p.SetActualEnd {
		t.ActualEnd = p.ActualEnd
	}
	if p.Cost != nil {
		t.Cost = *p.Cost
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Progress != nil {
		t.Progress = ClampProgress(*p.Progress)
		stamp := now
		t.ProgressUpdatedAt = &stamp
	}
	t.UpdatedAt = now
}
