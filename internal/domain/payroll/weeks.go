package payroll

import (
	"fmt"
	"sort"
	"time"
)

// Day is one calendar day of an employee's work.
type Day struct {
	Date  string // YYYY-MM-DD
	Tasks DayTasks
}

// Week is a Monday-start ISO week of an employee's days.
type Week struct {
	Key    string // e.g. 2024-W23
	Year   int
	Number int
	Days   []Day // chronological
}

// WeekKey formats an ISO year and week as used in Week.Key.
func WeekKey(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

// GroupWeeks partitions an employee's days into ISO weeks, returned in
// chronological order. Days whose date cannot be parsed are ignored; the
// aggregator only produces well-formed dates.
func GroupWeeks(days EmployeeDays) []Week {
	byKey := make(map[string]*Week)
	for date, tasks := range days {
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			continue
		}
		year, number := t.ISOWeek()
		key := WeekKey(year, number)
		w, ok := byKey[key]
		if !ok {
			w = &Week{Key: key, Year: year, Number: number}
			byKey[key] = w
		}
		w.Days = append(w.Days, Day{Date: date, Tasks: tasks})
	}

	weeks := make([]Week, 0, len(byKey))
	for _, w := range byKey {
		sort.Slice(w.Days, func(i, j int) bool { return w.Days[i].Date < w.Days[j].Date })
		weeks = append(weeks, *w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year < weeks[j].Year
		}
		return weeks[i].Number < weeks[j].Number
	})
	return weeks
}

// WeekRange returns the Monday and Sunday bounding the ISO week of t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := t.AddDate(0, 0, -offset+1)
	return start, start.AddDate(0, 0, 6)
}
