package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Washington agricultural labor defaults.
var (
	defaultMinimumWage       = decimal.RequireFromString("16.28")
	defaultRestBreakInterval = decimal.NewFromInt(4)
	defaultRestBreakMinutes  = decimal.NewFromInt(10)
)

var (
	minutesPerHour = decimal.NewFromInt(60)
	msPerHour      = decimal.NewFromInt(int64(time.Hour / time.Millisecond))
)

// Rules holds the legal parameters of a payroll run.
type Rules struct {
	// StatewideMinimumWage is the hourly floor before client overrides.
	StatewideMinimumWage decimal.Decimal
	// RestBreakInterval is the number of hours worked that earns one paid break.
	RestBreakInterval decimal.Decimal
	// RestBreakMinutes is the length of one paid break.
	RestBreakMinutes decimal.Decimal
}

// DefaultRules returns the Washington State defaults: $16.28/hr and a paid
// 10-minute break per 4 hours worked.
func DefaultRules() Rules {
	return Rules{
		StatewideMinimumWage: defaultMinimumWage,
		RestBreakInterval:    defaultRestBreakInterval,
		RestBreakMinutes:     defaultRestBreakMinutes,
	}
}

// Validate checks the rules are usable.
func (r Rules) Validate() error {
	switch {
	case r.StatewideMinimumWage.IsNegative():
		return fmt.Errorf("%w: statewide minimum wage must not be negative", ErrInvalidRules)
	case !r.RestBreakInterval.IsPositive():
		return fmt.Errorf("%w: rest break interval must be positive", ErrInvalidRules)
	case r.RestBreakMinutes.IsNegative():
		return fmt.Errorf("%w: rest break minutes must not be negative", ErrInvalidRules)
	}
	return nil
}

const dateLayout = "2006-01-02"

// instantLayouts are tried in order. Layouts without a zone are read in the
// run's location.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseDate(field, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, invalidRequest("%s is required", field)
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, invalidRequest("%s %q is not a YYYY-MM-DD date", field, s)
	}
	return t, nil
}

// Window is the inclusive, date-level reporting interval.
type Window struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// Contains reports whether the calendar day falls inside the window.
// ISO dates order lexically.
func (w Window) Contains(day string) bool {
	return day >= w.Start && day <= w.End
}

// calendarDay is the local date of an instant.
func calendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

func hoursBetween(start, end time.Time) decimal.Decimal {
	ms := end.Sub(start).Milliseconds()
	return decimal.NewFromInt(ms).Div(msPerHour)
}
