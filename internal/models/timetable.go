package models

import (
	"fmt"
	"time"
)

// CounterPart is the entity on the opposite side of a course pairing:
// the teacher for a class's cell, the class for a teacher's cell.
type CounterPart struct {
	Participant string `json:"participant"`
	URL         string `json:"url"`
}

// CourseInfo is one grid cell. A nil *CourseInfo is a free period.
type CourseInfo struct {
	Subject     string        `json:"subject"`
	Counterpart []CounterPart `json:"counterpart,omitempty"`
}

// Equal reports whether two cells hold the same lesson. Both nil (free)
// compare equal; subject and the full counterpart list must match.
func (c *CourseInfo) Equal(o *CourseInfo) bool {
	if c == nil || o == nil {
		return c == nil && o == nil
	}
	if c.Subject != o.Subject || len(c.Counterpart) != len(o.Counterpart) {
		return false
	}
	for i := range c.Counterpart {
		if c.Counterpart[i] != o.Counterpart[i] {
			return false
		}
	}
	return true
}

// TimeInfo is a clock range in "HH:MM" form.
type TimeInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Period pairs a period name with its clock times. Periods are kept as a
// slice so that the name list matches period indices one-to-one in
// upstream order.
type Period struct {
	Name string   `json:"name"`
	Time TimeInfo `json:"time"`
}

// Timetable is one entity's weekly grid: a 5-row matrix indexed
// [weekday][period] plus the period clock and an optional lunch-break
// sidecar row that sits outside the matrix.
type Timetable struct {
	Target   string `json:"target"`
	Category string `json:"category"`
	Role     Role   `json:"role"`
	ID       string `json:"id"`
	URL      string `json:"url"`

	LastUpdate   string     `json:"last_update"`
	CacheFetchAt *time.Time `json:"cache_fetch_at,omitempty"`

	Table   [][]*CourseInfo `json:"table"`
	Periods []Period        `json:"periods"`

	LunchBreak        []*CourseInfo `json:"lunch_break,omitempty"`
	LunchBreakPeriods []Period      `json:"lunch_break_periods,omitempty"`
}

// Validate enforces the matrix invariants: exactly 5 weekday rows, every
// row the same length, and one period entry per column.
func (t *Timetable) Validate() error {
	if len(t.Table) != 5 {
		return fmt.Errorf("timetable for %s has %d weekday rows, want 5", t.Target, len(t.Table))
	}
	width := len(t.Table[0])
	for i, row := range t.Table {
		if len(row) != width {
			return fmt.Errorf("timetable for %s: weekday %d has %d periods, want %d", t.Target, i+1, len(row), width)
		}
	}
	if len(t.Periods) != width {
		return fmt.Errorf("timetable for %s has %d period entries for %d columns", t.Target, len(t.Periods), width)
	}
	if t.LunchBreak != nil && len(t.LunchBreak) != 5 {
		return fmt.Errorf("timetable for %s has %d lunch-break slots, want 5", t.Target, len(t.LunchBreak))
	}
	return nil
}
