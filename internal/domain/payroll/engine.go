// Package payroll turns clock events and piecework tickets into Washington
// agricultural payroll: task earnings, the minimum-wage guarantee, paid rest
// breaks, and per-employee weekly and period totals.
//
// The pipeline is Aggregate -> GroupWeeks -> CalculateWeek -> Assemble. Every
// stage is a pure function of its arguments; an Engine only carries the
// rules and time zone, so one Engine may serve concurrent requests.
package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/roster"
	"github.com/okian/harvestpay/pkg/logger"
)

// Request is the full input snapshot of one report run.
type Request = model.Snapshot

// Result is a generated report plus how the input was consumed.
type Result struct {
	Report Report
	Stats  Stats
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules overrides the Washington defaults.
func WithRules(rules Rules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithLocation sets the time zone calendar days are taken in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger used for skipped-record diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine generates payroll reports.
type Engine struct {
	rules Rules
	loc   *time.Location
	log   logger.Logger
}

// NewEngine creates an engine with Washington default rules in UTC.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules: DefaultRules(),
		loc:   time.UTC,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's rules.
func (e *Engine) Rules() Rules { return e.rules }

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location { return e.loc }

// Generate runs the whole pipeline over req. Structural problems with the
// request (dates) fail the call; bad records are skipped.
func (e *Engine) Generate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("payroll generation not started: %w", err)
	}
	if err := e.rules.Validate(); err != nil {
		return Result{}, err
	}

	start, err := parseDate("startDate", req.StartDate, e.loc)
	if err != nil {
		return Result{}, err
	}
	end, err := parseDate("endDate", req.EndDate, e.loc)
	if err != nil {
		return Result{}, err
	}
	if _, err := parseDate("payDate", req.PayDate, e.loc); err != nil {
		return Result{}, err
	}
	if end.Before(start) {
		return Result{}, invalidRequest("endDate %s is before startDate %s", req.EndDate, req.StartDate)
	}

	dir := roster.New(req.Employees, req.Tasks, req.Clients)
	window := Window{Start: start.Format(dateLayout), End: end.Format(dateLayout)}

	agg := aggregator{dir: dir, window: window, loc: e.loc, log: e.log}
	activity, stats := agg.run(ctx, req.TimeEntries, req.Piecework)

	employeeIDs := make([]string, 0, len(activity))
	for id := range activity {
		employeeIDs = append(employeeIDs, id)
	}
	sort.Strings(employeeIDs)

	priced := make([]EmployeeWeeks, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		employee, _ := dir.Employee(id)
		ew := EmployeeWeeks{Employee: employee}
		for _, week := range GroupWeeks(activity[id]) {
			ew.Weeks = append(ew.Weeks, CalculateWeek(week, dir, e.rules))
		}
		priced = append(priced, ew)
	}

	warnings := taskWarnings(activity, dir)
	for _, w := range warnings {
		e.log.Warn(ctx, "task misconfigured; its work is paid at zero",
			logger.String("taskId", w.TaskID),
			logger.String("code", string(w.Code)),
		)
	}

	report := Assemble(Period{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		PayDate:   req.PayDate,
	}, priced, warnings)

	e.log.Debug(ctx, "payroll report generated",
		logger.Int("employees", len(report.EmployeeSummaries)),
		logger.Int("timeEntriesUsed", stats.TimeEntriesUsed),
		logger.Int("pieceworkUsed", stats.PieceworkUsed),
		logger.Int("skipped", stats.SkippedTotal()),
	)
	return Result{Report: report, Stats: stats}, nil
}

// taskWarnings checks every task that received work, once.
func taskWarnings(activity Activity, dir *roster.Directory) []Warning {
	seen := make(map[string]struct{})
	var out []Warning
	for _, days := range activity {
		for _, tasks := range days {
			for taskID := range tasks {
				if _, done := seen[taskID]; done {
					continue
				}
				seen[taskID] = struct{}{}
				task, ok := dir.Task(taskID)
				if !ok {
					continue
				}
				if w := checkTask(task); w != nil {
					out = append(out, *w)
				}
			}
		}
	}
	return out
}

// GeneratePayrollReport runs a default engine (Washington rules, UTC) over
// req and returns the report.
func GeneratePayrollReport(ctx context.Context, req Request) (Report, error) {
	res, err := NewEngine().Generate(ctx, req)
	if err != nil {
		return Report{}, err
	}
	return res.Report, nil
}
