package model

import (
	"strings"
	"time"
)

// Date is a calendar date in "YYYY-MM-DD" form (no time component).
// All schedule ranges are inclusive on both ends.
type Date string

const dateLayout = "2006-01-02"

func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func Today() Date {
	return DateOf(time.Now())
}

// Time parses the date at midnight UTC. ok is false for empty or malformed
// values; callers are expected to treat those as "absent", not as errors.
func (d Date) Time() (time.Time, bool) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (d Date) Valid() bool {
	_, ok := d.Time()
	return ok
}

// AddDays shifts the date by n calendar days. Invalid dates shift to empty.
func (d Date) AddDays(n int) Date {
	t, ok := d.Time()
	if !ok {
		return ""
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Before reports a < b; invalid dates compare as "not before".
func (d Date) Before(other Date) bool {
	a, okA := d.Time()
	b, okB := other.Time()
	if !okA || !okB {
		return false
	}
	return a.Before(b)
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

// DaysBetween returns the signed number of days from a to b.
// ok is false when either date is unparseable.
func DaysBetween(a, b Date) (int, bool) {
	ta, okA := a.Time()
	tb, okB := b.Time()
	if !okA || !okB {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}

// MinDate and MaxDate ignore invalid values; both-invalid yields "".
func MinDate(a, b Date) Date {
	if !a.Valid() {
		return b
	}
	if !b.Valid() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

func MaxDate(a, b Date) Date {
	if !a.Valid() {
		return b
	}
	if !b.Valid() {
		return a
	}
	if a.Before(b) {
		return b
	}
	return a
}
