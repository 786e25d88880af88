package payroll

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/roster"
	"github.com/okian/harvestpay/pkg/logger"
)

// Tally accumulates work for one (employee, day, task).
type Tally struct {
	Hours  decimal.Decimal
	Pieces decimal.Decimal
}

// DayTasks maps task id to its tally for one day.
type DayTasks map[string]*Tally

// EmployeeDays maps a YYYY-MM-DD calendar day to that day's task tallies.
type EmployeeDays map[string]DayTasks

// Activity maps employee id to the employee's days.
type Activity map[string]EmployeeDays

func (a Activity) tally(employeeID, day, taskID string) *Tally {
	days, ok := a[employeeID]
	if !ok {
		days = make(EmployeeDays)
		a[employeeID] = days
	}
	tasks, ok := days[day]
	if !ok {
		tasks = make(DayTasks)
		days[day] = tasks
	}
	t, ok := tasks[taskID]
	if !ok {
		t = &Tally{}
		tasks[taskID] = t
	}
	return t
}

// Aggregate folds time entries and piecework tickets into per-employee,
// per-day, per-task tallies. Records that cannot be attributed are skipped
// and counted in the returned Stats.
func Aggregate(entries []model.TimeEntry, tickets []model.Piecework, dir *roster.Directory, window Window, loc *time.Location) (Activity, Stats) {
	a := aggregator{dir: dir, window: window, loc: loc, log: logger.Nop()}
	return a.run(context.Background(), entries, tickets)
}

type aggregator struct {
	dir    *roster.Directory
	window Window
	loc    *time.Location
	log    logger.Logger
}

func (a aggregator) run(ctx context.Context, entries []model.TimeEntry, tickets []model.Piecework) (Activity, Stats) {
	activity := make(Activity)
	stats := newStats()

	for i := range entries {
		if reason, ok := a.addTimeEntry(activity, &entries[i]); !ok {
			stats.skip(KindTimeEntry, reason)
			a.log.Debug(ctx, "time entry skipped",
				logger.Int("index", i),
				logger.String("id", entries[i].ID),
				logger.String("reason", string(reason)),
			)
			continue
		}
		stats.TimeEntriesUsed++
	}

	for i := range tickets {
		if reason, ok := a.addPiecework(activity, &tickets[i]); !ok {
			stats.skip(KindPiecework, reason)
			a.log.Debug(ctx, "piecework ticket skipped",
				logger.Int("index", i),
				logger.String("id", tickets[i].ID),
				logger.String("reason", string(reason)),
			)
			continue
		}
		stats.PieceworkUsed++
	}

	return activity, stats
}

func (a aggregator) addTimeEntry(activity Activity, e *model.TimeEntry) (SkipReason, bool) {
	if strings.TrimSpace(e.EmployeeID) == "" || strings.TrimSpace(e.TaskID) == "" || strings.TrimSpace(e.Timestamp) == "" {
		return SkipMalformed, false
	}
	if e.Active() {
		return SkipActive, false
	}

	start, err := parseInstant(e.Timestamp, a.loc)
	if err != nil {
		return SkipMalformed, false
	}
	end, err := parseInstant(*e.EndTime, a.loc)
	if err != nil {
		return SkipMalformed, false
	}

	day := calendarDay(start, a.loc)
	if !a.window.Contains(day) {
		return SkipOutOfWindow, false
	}
	employee, ok := a.dir.ResolveEmployee(e.EmployeeID)
	if !ok {
		return SkipUnknownEmployee, false
	}
	task, ok := a.dir.Task(e.TaskID)
	if !ok {
		return SkipUnknownTask, false
	}

	hours := hoursBetween(start, end)
	if !hours.IsPositive() {
		return SkipNonPositiveDuration, false
	}

	t := activity.tally(employee.ID, day, task.ID)
	t.Hours = t.Hours.Add(hours)
	return "", true
}

func (a aggregator) addPiecework(activity Activity, p *model.Piecework) (SkipReason, bool) {
	participants := p.Participants()
	if len(participants) == 0 || strings.TrimSpace(p.TaskID) == "" || strings.TrimSpace(p.Timestamp) == "" {
		return SkipMalformed, false
	}
	if p.PieceCount.IsNegative() {
		return SkipMalformed, false
	}

	at, err := parseInstant(p.Timestamp, a.loc)
	if err != nil {
		return SkipMalformed, false
	}
	day := calendarDay(at, a.loc)
	if !a.window.Contains(day) {
		return SkipOutOfWindow, false
	}
	task, ok := a.dir.Task(p.TaskID)
	if !ok {
		return SkipUnknownTask, false
	}

	employees := a.dir.ResolveParticipants(participants)
	if len(employees) == 0 {
		return SkipNoParticipants, false
	}

	share := p.PieceCount.Div(decimal.NewFromInt(int64(len(employees))))
	for _, employee := range employees {
		t := activity.tally(employee.ID, day, task.ID)
		t.Pieces = t.Pieces.Add(share)
	}
	return "", true
}
