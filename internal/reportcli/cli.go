package reportcli

import (
	"io"
)

// ShowHelp prints usage information for the payroll-report tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `harvestpay payroll report
=========================

Computes Washington agricultural payroll from a snapshot of employees,
tasks, clients, time entries and piecework tickets.

Usage:
  payroll-report -in snapshot.json [options]
  payroll-report -generate N [-start 2024-06-01 -days 14] [-out snapshot.json]

Options:
  -in string
        Snapshot JSON file to process
  -out string
        Output file for the report (or generated snapshot); stdout when empty
  -csv string
        Also write a CSV export (one row per employee-week)
  -xlsx string
        Also write an XLSX workbook (Summary and Daily sheets)
  -url string
        Submit the snapshot to a running server instead of computing locally
  -timeout duration
        HTTP request timeout (default 30s)
  -generate int
        Write a synthetic crew snapshot with N employees
  -start string
        First day of the generated window (default: Monday two weeks ago)
  -days int
        Length of the generated window in days (default 14)
  -seed uint
        Generator seed (default random)
  -verbose
        Enable debug logging
  -help
        Show this help message

Rules (minimum wage, rest breaks, time zone) come from the same
HARVESTPAY_* environment and HARVESTPAY_CONFIG file as the server.

Examples:
  payroll-report -generate 25 -out crew.json
  payroll-report -in crew.json -out report.json -xlsx report.xlsx
  payroll-report -in crew.json -url http://localhost:9080 -csv weeks.csv
`)
}
