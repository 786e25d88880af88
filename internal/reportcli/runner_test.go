package reportcli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/harvestpay/internal/adapters/http/api"
	service "github.com/okian/harvestpay/internal/app"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/reportcli"
	"github.com/okian/harvestpay/pkg/metrics"
)

func testMetrics() *metrics.Manager {
	return metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
}

// writeSnapshot generates a snapshot file through the CLI itself.
func writeSnapshot(dir string) string {
	path := filepath.Join(dir, "crew.json")
	_, err := reportcli.Run(context.Background(), &reportcli.Config{
		Generate:   6,
		StartDate:  "2024-06-03",
		Days:       7,
		Seed:       11,
		OutputFile: path,
		Metrics:    testMetrics(),
	}, &bytes.Buffer{})
	So(err, ShouldBeNil)
	return path
}

func TestRun_Local(t *testing.T) {
	Convey("Given a generated snapshot on disk", t, func() {
		dir := t.TempDir()
		in := writeSnapshot(dir)

		Convey("When the report is computed locally with exports", func() {
			cfg := &reportcli.Config{
				InputFile: in,
				CSVFile:   filepath.Join(dir, "weeks.csv"),
				XLSXFile:  filepath.Join(dir, "report.xlsx"),
				Metrics:   testMetrics(),
			}
			var stdout bytes.Buffer
			summary, err := reportcli.Run(context.Background(), cfg, &stdout)

			Convey("Then the report is printed and the exports written", func() {
				So(err, ShouldBeNil)
				So(summary.Remote, ShouldBeFalse)
				So(summary.Skipped, ShouldEqual, 1)
				So(summary.OutputFiles, ShouldHaveLength, 2)

				var report payroll.Report
				So(json.Unmarshal(stdout.Bytes(), &report), ShouldBeNil)
				So(report.StartDate, ShouldEqual, "2024-06-03")
				So(len(report.EmployeeSummaries), ShouldEqual, summary.Employees)

				csv, err := os.ReadFile(cfg.CSVFile)
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
				So(len(lines), ShouldEqual, summary.Weeks+1)

				f, err := excelize.OpenFile(cfg.XLSXFile)
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				So(f.GetSheetList(), ShouldContain, "Daily")
			})
		})

		Convey("When the report goes to a file", func() {
			out := filepath.Join(dir, "report.json")
			var stdout bytes.Buffer
			_, err := reportcli.Run(context.Background(), &reportcli.Config{InputFile: in, OutputFile: out, Metrics: testMetrics()}, &stdout)

			Convey("Then nothing is printed", func() {
				So(err, ShouldBeNil)
				So(stdout.Len(), ShouldEqual, 0)
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"employeeSummaries"`)
			})
		})
	})

	Convey("Given bad inputs", t, func() {
		_, err := reportcli.Run(context.Background(), &reportcli.Config{}, &bytes.Buffer{})
		So(err, ShouldNotBeNil)

		_, err = reportcli.Run(context.Background(), &reportcli.Config{InputFile: "/does/not/exist.json"}, &bytes.Buffer{})
		So(err, ShouldNotBeNil)

		_, err = reportcli.Run(context.Background(), &reportcli.Config{Generate: 1, StartDate: "June"}, &bytes.Buffer{})
		So(err, ShouldNotBeNil)
	})
}

func TestRun_Remote(t *testing.T) {
	Convey("Given a running server", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		registry := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
		svc := service.New(service.WithMetrics(m), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithMetrics(m), api.WithGatherer(registry)).Register(ctx, mux)
		server := httptest.NewServer(mux)
		defer server.Close()

		dir := t.TempDir()
		in := writeSnapshot(dir)

		Convey("When the CLI submits the snapshot", func() {
			var remoteOut, localOut bytes.Buffer
			summary, err := reportcli.Run(ctx, &reportcli.Config{
				InputFile:    in,
				ServerURL:    server.URL,
				Timeout:      5 * time.Second,
				PollInterval: 10 * time.Millisecond,
				Metrics:      testMetrics(),
			}, &remoteOut)
			So(err, ShouldBeNil)
			_, err = reportcli.Run(ctx, &reportcli.Config{InputFile: in, Metrics: testMetrics()}, &localOut)
			So(err, ShouldBeNil)

			Convey("Then the server's report matches the local one", func() {
				So(summary.Remote, ShouldBeTrue)
				So(remoteOut.String(), ShouldEqual, localOut.String())
			})
		})

		Convey("When the server rejects the snapshot", func() {
			bad := filepath.Join(dir, "bad.json")
			So(os.WriteFile(bad, []byte(`{"startDate":"2024-06-30","endDate":"2024-06-01","payDate":"2024-07-05"}`), 0o600), ShouldBeNil)

			_, err := reportcli.Run(ctx, &reportcli.Config{
				InputFile:    bad,
				ServerURL:    server.URL,
				PollInterval: 10 * time.Millisecond,
				Metrics:      testMetrics(),
			}, &bytes.Buffer{})

			Convey("Then the job failure is reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "before startDate")
			})
		})
	})
}

func TestShowHelp(t *testing.T) {
	Convey("Help lists the flags", t, func() {
		var buf bytes.Buffer
		reportcli.ShowHelp(&buf)
		So(buf.String(), ShouldContainSubstring, "-generate int")
		So(buf.String(), ShouldContainSubstring, "-xlsx string")
	})
}
