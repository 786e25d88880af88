package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/okian/harvestpay/internal/domain/payroll"
)

// WeekRow is one employee-week of the CSV export.
type WeekRow struct {
	EmployeeID       string `csv:"employee_id"`
	EmployeeName     string `csv:"employee_name"`
	Year             int    `csv:"year"`
	Week             int    `csv:"week"`
	WeekStart        string `csv:"week_start"`
	WeekEnd          string `csv:"week_end"`
	Hours            string `csv:"hours"`
	TotalEarnings    string `csv:"total_earnings"`
	MinimumWage      string `csv:"minimum_wage"`
	MinimumWageTopUp string `csv:"minimum_wage_top_up"`
	RegularRate      string `csv:"regular_rate"`
	RestBreakHours   string `csv:"rest_break_hours"`
	PaidRestBreaks   string `csv:"paid_rest_breaks"`
	FinalPay         string `csv:"final_pay"`
}

// WeekRows flattens r into employee-week rows in report order.
func WeekRows(r *payroll.Report) []WeekRow {
	var rows []WeekRow
	for _, e := range r.EmployeeSummaries {
		for _, w := range e.WeeklySummaries {
			rows = append(rows, WeekRow{
				EmployeeID:       e.EmployeeID,
				EmployeeName:     e.EmployeeName,
				Year:             w.Year,
				Week:             w.WeekNumber,
				WeekStart:        w.WeekStart,
				WeekEnd:          w.WeekEnd,
				Hours:            amount(w.TotalHours),
				TotalEarnings:    amount(w.TotalEarnings),
				MinimumWage:      amount(w.ApplicableMinimumWage),
				MinimumWageTopUp: amount(w.MinimumWageTopUp),
				RegularRate:      amount(w.RegularRateOfPay),
				RestBreakHours:   amount(w.RestBreakHours),
				PaidRestBreaks:   amount(w.PaidRestBreaks),
				FinalPay:         amount(w.FinalPay),
			})
		}
	}
	return rows
}

// WriteCSV writes one row per employee-week.
func WriteCSV(w io.Writer, r *payroll.Report) error {
	rows := WeekRows(r)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	return nil
}
