package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/harvestpay/internal/config"
	"github.com/okian/harvestpay/internal/reportcli"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// Default configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
	defaultDays       = 14
)

func main() {
	var (
		inFile   = flag.String("in", "", "Snapshot JSON file to process")
		outFile  = flag.String("out", "", "Output file for the report or generated snapshot (default: stdout)")
		csvFile  = flag.String("csv", "", "Also write a CSV export")
		xlsxFile = flag.String("xlsx", "", "Also write an XLSX workbook")
		baseURL  = flag.String("url", "", "Base URL of a running server, e.g. http://localhost:9080")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		generate = flag.Int("generate", 0, "Write a synthetic snapshot with this many employees")
		start    = flag.String("start", "", "First day of the generated window (YYYY-MM-DD)")
		days     = flag.Int("days", defaultDays, "Length of the generated window in days")
		seed     = flag.Uint64("seed", 0, "Generator seed (0 for random)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		reportcli.ShowHelp(os.Stdout)
		return
	}

	// Logs go to stderr so the report can be piped from stdout.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		fail("failed to setup logging", err)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	} else {
		_ = logger.SetLevelString("warn")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fail("failed to load configuration", err)
	}
	rules, err := cfg.Rules()
	if err != nil {
		fail("invalid payroll rules", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		fail("invalid timezone", err)
	}

	runCfg := &reportcli.Config{
		InputFile:  *inFile,
		OutputFile: *outFile,
		CSVFile:    *csvFile,
		XLSXFile:   *xlsxFile,
		ServerURL:  *baseURL,
		Timeout:    *timeout,
		Generate:   *generate,
		StartDate:  *start,
		Days:       *days,
		Seed:       *seed,
		Rules:      rules,
		Location:   loc,
		Logger:     logger.Named("payroll-report"),
		Metrics:    metrics.Default(),
	}

	summary, err := reportcli.Run(ctx, runCfg, os.Stdout)
	if err != nil {
		fail("payroll report failed", err)
	}
	for _, f := range summary.OutputFiles {
		fmt.Fprintln(os.Stderr, "wrote", f)
	}
}

func fail(msg string, err error) {
	os.Stderr.WriteString(msg + ": " + err.Error() + "\n")
	os.Exit(1)
}
