package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/roster"
)

// TaskEarnings is one task's work and pay on one day.
type TaskEarnings struct {
	Task       model.Task
	ClientName string
	Hours      decimal.Decimal
	Pieces     decimal.Decimal
	Earnings   decimal.Decimal
}

// DayEarnings sums a day's task lines.
type DayEarnings struct {
	Date     string
	Tasks    []TaskEarnings
	Hours    decimal.Decimal
	Earnings decimal.Decimal
}

// WeekEarnings is the unrounded pay computation for one employee-week.
type WeekEarnings struct {
	Year        int
	Number      int
	Days        []DayEarnings
	Hours       decimal.Decimal
	RawEarnings decimal.Decimal
	MinimumWage decimal.Decimal // applicable hourly floor
	TopUp       decimal.Decimal
	RegularRate decimal.Decimal
	BreakHours  decimal.Decimal
	BreakPay    decimal.Decimal
	FinalPay    decimal.Decimal
}

// CalculateWeek prices one employee-week: task earnings, the minimum-wage
// top-up and paid rest breaks.
func CalculateWeek(w Week, dir *roster.Directory, rules Rules) WeekEarnings {
	out := WeekEarnings{
		Year:        w.Year,
		Number:      w.Number,
		Days:        make([]DayEarnings, 0, len(w.Days)),
		MinimumWage: rules.StatewideMinimumWage,
	}

	for _, day := range w.Days {
		de := DayEarnings{Date: day.Date}
		for taskID, tally := range day.Tasks {
			task, ok := dir.Task(taskID)
			if !ok {
				continue
			}
			line := TaskEarnings{
				Task:     task,
				Hours:    tally.Hours,
				Pieces:   tally.Pieces,
				Earnings: taskEarnings(task, tally),
			}
			if client, ok := dir.Client(task.ClientID); ok {
				line.ClientName = client.Name
				if client.MinimumWage.Valid && client.MinimumWage.Decimal.GreaterThan(out.MinimumWage) {
					out.MinimumWage = client.MinimumWage.Decimal
				}
			}
			de.Tasks = append(de.Tasks, line)
			de.Hours = de.Hours.Add(line.Hours)
			de.Earnings = de.Earnings.Add(line.Earnings)
		}
		sortTaskLines(de.Tasks)

		out.Days = append(out.Days, de)
		out.Hours = out.Hours.Add(de.Hours)
		out.RawEarnings = out.RawEarnings.Add(de.Earnings)
	}

	if !out.Hours.IsPositive() {
		out.FinalPay = out.RawEarnings
		return out
	}

	minimumGross := out.Hours.Mul(out.MinimumWage)
	if shortfall := minimumGross.Sub(out.RawEarnings); shortfall.IsPositive() {
		out.TopUp = shortfall
	}

	guaranteed := out.RawEarnings.Add(out.TopUp)
	out.RegularRate = guaranteed.Div(out.Hours)

	breaks := out.Hours.Div(rules.RestBreakInterval).Floor()
	breakMinutes := breaks.Mul(rules.RestBreakMinutes)
	out.BreakHours = breakMinutes.Div(minutesPerHour)
	// multiply before dividing so 10/60 never gets truncated
	out.BreakPay = breakMinutes.Mul(guaranteed).Div(out.Hours.Mul(minutesPerHour))

	out.FinalPay = guaranteed.Add(out.BreakPay)
	return out
}

// taskEarnings prices a tally. Misconfigured tasks earn nothing; see
// checkTask for the matching warning.
func taskEarnings(task model.Task, t *Tally) decimal.Decimal {
	if checkTask(task) != nil {
		return decimal.Zero
	}
	rate := task.EmployeeRate.Decimal
	switch task.EmployeePayType {
	case model.PayHourly:
		return t.Hours.Mul(rate)
	case model.PayPiecework:
		return t.Pieces.Mul(rate)
	}
	return decimal.Zero
}

// checkTask returns the configuration problem that prevents pricing task,
// or nil.
func checkTask(task model.Task) *Warning {
	switch {
	case !task.EmployeePayType.Valid():
		return &Warning{
			Code:    WarnUnknownPayType,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %q has unknown employee pay type %q", task.Name, task.EmployeePayType),
		}
	case !task.EmployeeRate.Valid:
		return &Warning{
			Code:    WarnMissingRate,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %q has no %s employee rate", task.Name, task.EmployeePayType),
		}
	case task.EmployeeRate.Decimal.IsNegative():
		return &Warning{
			Code:    WarnNegativeRate,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %q has negative employee rate %s", task.Name, task.EmployeeRate.Decimal),
		}
	}
	return nil
}

func sortTaskLines(lines []TaskEarnings) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Task.Name != lines[j].Task.Name {
			return lines[i].Task.Name < lines[j].Task.Name
		}
		return lines[i].Task.ID < lines[j].Task.ID
	})
}
