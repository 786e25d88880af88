package reportcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/export"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// File permission constants.
const (
	filePermission      = 0o644
	defaultPollInterval = 200 * time.Millisecond
	defaultTimeout      = 30 * time.Second
)

// Run executes one command invocation. Reports and generated snapshots go
// to cfg.OutputFile, or stdout when it is empty.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) (Summary, error) {
	cfg.setDefaults()

	if cfg.Generate > 0 {
		return generate(ctx, cfg, stdout)
	}
	if cfg.InputFile == "" {
		return Summary{}, fmt.Errorf("no snapshot given; use -in or -generate")
	}

	start := time.Now()
	snap, err := readSnapshot(cfg.InputFile)
	if err != nil {
		return Summary{}, err
	}

	cfg.Logger.Info(ctx, "processing snapshot",
		logger.String("file", cfg.InputFile),
		logger.String("window", snap.StartDate+".."+snap.EndDate),
		logger.Int("employees", len(snap.Employees)),
		logger.Int("timeEntries", len(snap.TimeEntries)),
		logger.Int("piecework", len(snap.Piecework)),
	)

	var (
		report  *payroll.Report
		summary Summary
	)
	if cfg.ServerURL != "" {
		report, err = remote(ctx, cfg, snap)
		summary.Remote = true
	} else {
		report, summary.Skipped, err = local(ctx, cfg, snap)
	}
	if err != nil {
		return Summary{}, err
	}

	if err := writeJSON(cfg.OutputFile, stdout, report); err != nil {
		return Summary{}, err
	}
	if cfg.OutputFile != "" {
		summary.OutputFiles = append(summary.OutputFiles, cfg.OutputFile)
	}
	for _, out := range []struct {
		path   string
		format export.Format
	}{{cfg.CSVFile, export.FormatCSV}, {cfg.XLSXFile, export.FormatXLSX}} {
		if out.path == "" {
			continue
		}
		if err := writeExport(out.path, out.format, report); err != nil {
			return Summary{}, err
		}
		cfg.Metrics.RecordExport(string(out.format))
		summary.OutputFiles = append(summary.OutputFiles, out.path)
	}

	summary.Employees = len(report.EmployeeSummaries)
	summary.Warnings = len(report.Warnings)
	for _, e := range report.EmployeeSummaries {
		summary.Weeks += len(e.WeeklySummaries)
		summary.TotalPay += e.FinalPay
	}
	summary.Duration = time.Since(start)

	for _, w := range report.Warnings {
		cfg.Logger.Warn(ctx, "task misconfigured", logger.String("taskId", w.TaskID), logger.String("code", string(w.Code)))
	}
	cfg.Logger.Info(ctx, "payroll report written",
		logger.Int("employees", summary.Employees),
		logger.Int("weeks", summary.Weeks),
		logger.Float64("totalPay", summary.TotalPay),
		logger.Int("skipped", summary.Skipped),
		logger.Duration("took", summary.Duration),
	)
	return summary, nil
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Default()
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Rules.RestBreakInterval.IsZero() {
		c.Rules = payroll.DefaultRules()
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
}

func local(ctx context.Context, cfg *Config, snap *model.Snapshot) (*payroll.Report, int, error) {
	engine := payroll.NewEngine(
		payroll.WithRules(cfg.Rules),
		payroll.WithLocation(cfg.Location),
		payroll.WithLogger(cfg.Logger.Named("payroll")),
	)

	start := time.Now()
	res, err := engine.Generate(ctx, *snap)
	if err != nil {
		cfg.Metrics.RecordReportFailure(metrics.ModeCLI, "generate")
		return nil, 0, fmt.Errorf("generate report: %w", err)
	}
	cfg.Metrics.RecordReportGenerated(metrics.ModeCLI, float64(time.Since(start).Milliseconds()), len(res.Report.EmployeeSummaries))

	for key, n := range res.Stats.Skipped {
		cfg.Logger.Debug(ctx, "records skipped",
			logger.String("kind", string(key.Kind)),
			logger.String("reason", string(key.Reason)),
			logger.Int("count", n),
		)
	}
	return &res.Report, res.Stats.SkippedTotal(), nil
}

func remote(ctx context.Context, cfg *Config, snap *model.Snapshot) (*payroll.Report, error) {
	client := NewHTTPClient(cfg.ServerURL, cfg.Timeout, cfg.Logger)
	id, err := client.Submit(ctx, "", snap)
	if err != nil {
		return nil, fmt.Errorf("submit report job: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	report, err := client.Wait(waitCtx, id, cfg.PollInterval)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info(ctx, "report generated by server", logger.String("jobId", id), logger.String("url", cfg.ServerURL))
	return report, nil
}

func generate(ctx context.Context, cfg *Config, stdout io.Writer) (Summary, error) {
	start := DefaultGenerateStart(time.Now())
	if cfg.StartDate != "" {
		t, err := time.Parse(dateLayout, cfg.StartDate)
		if err != nil {
			return Summary{}, fmt.Errorf("invalid -start %q: %w", cfg.StartDate, err)
		}
		start = t
	}

	snap := GenerateSnapshot(GenerateOptions{
		Employees: cfg.Generate,
		Start:     start,
		Days:      cfg.Days,
		Seed:      cfg.Seed,
	})
	if err := writeJSON(cfg.OutputFile, stdout, snap); err != nil {
		return Summary{}, err
	}

	cfg.Logger.Info(ctx, "generated snapshot",
		logger.Int("employees", len(snap.Employees)),
		logger.Int("timeEntries", len(snap.TimeEntries)),
		logger.Int("piecework", len(snap.Piecework)),
		logger.String("window", snap.StartDate+".."+snap.EndDate),
	)
	summary := Summary{Employees: len(snap.Employees)}
	if cfg.OutputFile != "" {
		summary.OutputFiles = []string{cfg.OutputFile}
	}
	return summary, nil
}

func readSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func writeJSON(path string, stdout io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeExport(path string, format export.Format, report *payroll.Report) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := export.Write(f, format, report); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
