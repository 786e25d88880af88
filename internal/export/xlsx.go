package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/harvestpay/internal/domain/payroll"
)

// Workbook sheet names.
const (
	SummarySheet = "Summary"
	DailySheet   = "Daily"
)

var (
	summaryHeader = []any{
		"Employee ID", "Employee", "Year", "Week", "Week Start", "Week End",
		"Hours", "Earnings", "Minimum Wage", "Top-Up", "Regular Rate",
		"Rest Break Hours", "Rest Break Pay", "Final Pay",
	}
	dailyHeader = []any{
		"Employee ID", "Employee", "Date", "Task ID", "Task", "Client",
		"Pay Type", "Hours", "Pieces", "Earnings",
	}
)

// WriteXLSX writes a workbook with a Summary sheet (employee-weeks followed
// by a total row per employee) and a Daily sheet (one row per task line).
func WriteXLSX(w io.Writer, r *payroll.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}
	if _, err := f.NewSheet(DailySheet); err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}

	summary := &sheetWriter{f: f, sheet: SummarySheet, bold: bold}
	daily := &sheetWriter{f: f, sheet: DailySheet, bold: bold}
	summary.row(true, summaryHeader)
	daily.row(true, dailyHeader)

	for _, e := range r.EmployeeSummaries {
		for _, wk := range e.WeeklySummaries {
			summary.row(false, []any{
				e.EmployeeID, e.EmployeeName, wk.Year, wk.WeekNumber, wk.WeekStart, wk.WeekEnd,
				wk.TotalHours, wk.TotalEarnings, wk.ApplicableMinimumWage, wk.MinimumWageTopUp,
				wk.RegularRateOfPay, wk.RestBreakHours, wk.PaidRestBreaks, wk.FinalPay,
			})
			for _, d := range wk.DailyBreakdown {
				for _, t := range d.Tasks {
					daily.row(false, []any{
						e.EmployeeID, e.EmployeeName, d.Date, t.TaskID, t.TaskName, t.ClientName,
						string(t.PayType), t.Hours, t.PieceworkCount, t.TotalEarnings,
					})
				}
			}
		}
		total := make([]any, len(summaryHeader))
		total[0], total[1], total[2] = e.EmployeeID, e.EmployeeName, "Total"
		total[len(total)-1] = e.FinalPay
		summary.row(true, total)
	}

	if summary.err != nil {
		return fmt.Errorf("xlsx export: %w", summary.err)
	}
	if daily.err != nil {
		return fmt.Errorf("xlsx export: %w", daily.err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}
	return nil
}

// sheetWriter appends rows to one sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
	next  int
	err   error
}

func (s *sheetWriter) row(emphasize bool, values []any) {
	if s.err != nil {
		return
	}
	s.next++
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(s.sheet, cell, &values); err != nil {
		s.err = err
		return
	}
	if emphasize {
		s.err = s.f.SetRowStyle(s.sheet, s.next, s.next, s.bold)
	}
}
