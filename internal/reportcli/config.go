// Package reportcli implements the payroll-report command: it runs the
// payroll engine over a snapshot file, locally or against a running server,
// and writes the report with optional spreadsheet exports. It can also
// generate synthetic crew snapshots for demos.
package reportcli

import (
	"time"

	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// Config holds the options of one run.
type Config struct {
	InputFile  string // snapshot to process
	OutputFile string // report or generated snapshot; stdout when empty
	CSVFile    string // optional CSV export
	XLSXFile   string // optional XLSX export

	ServerURL    string        // when set, the report is generated by a running server
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // job status polling interval

	// Generate > 0 writes a synthetic snapshot for that many employees
	// instead of producing a report.
	Generate  int
	StartDate string // generated window start, YYYY-MM-DD
	Days      int    // generated window length
	Seed      uint64 // generator seed, 0 for a random one

	Rules    payroll.Rules
	Location *time.Location

	Logger  logger.Logger
	Metrics *metrics.Manager
}

// Summary describes what a run produced.
type Summary struct {
	Employees   int
	Weeks       int
	TotalPay    float64
	Warnings    int
	Skipped     int
	Remote      bool
	Duration    time.Duration
	OutputFiles []string
}
