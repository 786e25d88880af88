package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/model"
)

// Report is the processed payroll for one pay period.
type Report struct {
	StartDate         string            `json:"startDate"`
	EndDate           string            `json:"endDate"`
	PayDate           string            `json:"payDate"`
	EmployeeSummaries []EmployeeSummary `json:"employeeSummaries"`
	Warnings          []Warning         `json:"warnings,omitempty"`
}

// EmployeeSummary is one employee's pay for the period.
type EmployeeSummary struct {
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	WeeklySummaries []WeeklySummary `json:"weeklySummaries"`
	FinalPay        float64         `json:"finalPay"`
}

// WeeklySummary is the rounded presentation of WeekEarnings.
type WeeklySummary struct {
	WeekNumber            int            `json:"weekNumber"`
	Year                  int            `json:"year"`
	WeekStart             string         `json:"weekStart"`
	WeekEnd               string         `json:"weekEnd"`
	TotalHours            float64        `json:"totalHours"`
	TotalEarnings         float64        `json:"totalEarnings"`
	ApplicableMinimumWage float64        `json:"applicableMinimumWage"`
	MinimumWageTopUp      float64        `json:"minimumWageTopUp"`
	RegularRateOfPay      float64        `json:"regularRateOfPay"`
	RestBreakHours        float64        `json:"restBreakHours"`
	PaidRestBreaks        float64        `json:"paidRestBreaks"`
	FinalPay              float64        `json:"finalPay"`
	DailyBreakdown        []DailySummary `json:"dailyBreakdown"`
}

// DailySummary lists a day's task lines.
type DailySummary struct {
	Date               string        `json:"date"`
	Tasks              []TaskSummary `json:"tasks"`
	TotalDailyHours    float64       `json:"totalDailyHours"`
	TotalDailyEarnings float64       `json:"totalDailyEarnings"`
}

// TaskSummary is one task line of a day.
type TaskSummary struct {
	TaskID         string        `json:"taskId"`
	TaskName       string        `json:"taskName"`
	ClientName     string        `json:"clientName"`
	Variety        string        `json:"variety,omitempty"`
	Ranch          string        `json:"ranch,omitempty"`
	Block          string        `json:"block,omitempty"`
	PayType        model.PayType `json:"payType"`
	Hours          float64       `json:"hours"`
	PieceworkCount float64       `json:"pieceworkCount"`
	TotalEarnings  float64       `json:"totalEarnings"`
}

// EmployeeWeeks pairs an employee with the priced weeks they worked.
type EmployeeWeeks struct {
	Employee model.Employee
	Weeks    []WeekEarnings
}

// Period identifies the pay period a report covers.
type Period struct {
	StartDate string
	EndDate   string
	PayDate   string
}

// Assemble rounds and orders the priced weeks into a Report. Employees
// without weeks are left out.
func Assemble(period Period, employees []EmployeeWeeks, warnings []Warning) Report {
	r := Report{
		StartDate:         period.StartDate,
		EndDate:           period.EndDate,
		PayDate:           period.PayDate,
		EmployeeSummaries: make([]EmployeeSummary, 0, len(employees)),
	}

	for _, ew := range employees {
		if len(ew.Weeks) == 0 {
			continue
		}
		weeks := append([]WeekEarnings(nil), ew.Weeks...)
		sort.SliceStable(weeks, func(i, j int) bool {
			if weeks[i].Year != weeks[j].Year {
				return weeks[i].Year < weeks[j].Year
			}
			return weeks[i].Number < weeks[j].Number
		})

		summary := EmployeeSummary{
			EmployeeID:      ew.Employee.ID,
			EmployeeName:    ew.Employee.Name,
			WeeklySummaries: make([]WeeklySummary, 0, len(weeks)),
		}
		total := decimal.Zero
		for _, w := range weeks {
			ws := summarizeWeek(w)
			summary.WeeklySummaries = append(summary.WeeklySummaries, ws)
			// the period total is the sum of what the weekly lines show
			total = total.Add(round2(w.FinalPay))
		}
		summary.FinalPay = total.InexactFloat64()
		r.EmployeeSummaries = append(r.EmployeeSummaries, summary)
	}

	sort.SliceStable(r.EmployeeSummaries, func(i, j int) bool {
		a, b := r.EmployeeSummaries[i], r.EmployeeSummaries[j]
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		return a.EmployeeID < b.EmployeeID
	})

	if len(warnings) > 0 {
		r.Warnings = append([]Warning(nil), warnings...)
		sort.Slice(r.Warnings, func(i, j int) bool {
			if r.Warnings[i].TaskID != r.Warnings[j].TaskID {
				return r.Warnings[i].TaskID < r.Warnings[j].TaskID
			}
			return r.Warnings[i].Code < r.Warnings[j].Code
		})
	}
	return r
}

func summarizeWeek(w WeekEarnings) WeeklySummary {
	ws := WeeklySummary{
		WeekNumber:            w.Number,
		Year:                  w.Year,
		TotalHours:            money(w.Hours),
		TotalEarnings:         money(w.RawEarnings),
		ApplicableMinimumWage: money(w.MinimumWage),
		MinimumWageTopUp:      money(w.TopUp),
		RegularRateOfPay:      money(w.RegularRate),
		RestBreakHours:        money(w.BreakHours),
		PaidRestBreaks:        money(w.BreakPay),
		FinalPay:              money(w.FinalPay),
		DailyBreakdown:        make([]DailySummary, 0, len(w.Days)),
	}
	if len(w.Days) > 0 {
		if t, err := time.Parse(dateLayout, w.Days[0].Date); err == nil {
			start, end := WeekRange(t)
			ws.WeekStart = start.Format(dateLayout)
			ws.WeekEnd = end.Format(dateLayout)
		}
	}

	for _, d := range w.Days {
		ds := DailySummary{
			Date:               d.Date,
			Tasks:              make([]TaskSummary, 0, len(d.Tasks)),
			TotalDailyHours:    money(d.Hours),
			TotalDailyEarnings: money(d.Earnings),
		}
		for _, line := range d.Tasks {
			ds.Tasks = append(ds.Tasks, TaskSummary{
				TaskID:         line.Task.ID,
				TaskName:       line.Task.Name,
				ClientName:     line.ClientName,
				Variety:        line.Task.Variety,
				Ranch:          line.Task.Ranch,
				Block:          line.Task.Block,
				PayType:        line.Task.EmployeePayType,
				Hours:          money(line.Hours),
				PieceworkCount: money(line.Pieces),
				TotalEarnings:  money(line.Earnings),
			})
		}
		ws.DailyBreakdown = append(ws.DailyBreakdown, ds)
	}
	return ws
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// money converts a decimal to its reported 2-place value.
func money(d decimal.Decimal) float64 {
	return round2(d).InexactFloat64()
}
