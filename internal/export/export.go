// Package export renders payroll reports as spreadsheet downloads.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/payroll"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats other than csv and xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat normalizes s into a Format. An empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename suggests a download name for a report.
func (f Format) Filename(r *payroll.Report) string {
	return fmt.Sprintf("payroll_%s_%s.%s", r.StartDate, r.EndDate, f)
}

// Write renders r in format f to w.
func Write(w io.Writer, f Format, r *payroll.Report) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// amount prints a reported value with exactly two decimals.
func amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
