package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harvestpay/internal/adapters/mq/queue"
	"github.com/okian/harvestpay/internal/adapters/repository"
	service "github.com/okian/harvestpay/internal/app"
	"github.com/okian/harvestpay/internal/config"
	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/internal/export"
	"github.com/okian/harvestpay/pkg/metrics"
)

func newService(opts ...service.Option) *service.Service {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	return service.New(append([]service.Option{service.WithMetrics(m)}, opts...)...)
}

// crewWeek is 35 hours at $15 over Monday to Friday of ISO week 23.
func crewWeek() model.Snapshot {
	req := model.Snapshot{
		StartDate: "2024-06-01",
		EndDate:   "2024-06-30",
		PayDate:   "2024-07-05",
		Employees: []model.Employee{{ID: "emp_1", Name: "Ana"}},
		Tasks: []model.Task{{
			ID: "t1", Name: "Pruning", EmployeePayType: model.PayHourly,
			EmployeeRate: decimal.NewNullDecimal(decimal.NewFromInt(15)),
		}},
	}
	for day := 3; day <= 7; day++ {
		end := fmt.Sprintf("2024-06-%02dT14:00:00", day)
		req.TimeEntries = append(req.TimeEntries, model.TimeEntry{
			EmployeeID: "emp_1",
			TaskID:     "t1",
			Timestamp:  fmt.Sprintf("2024-06-%02dT07:00:00", day),
			EndTime:    &end,
		})
	}
	return req
}

func waitFinished(svc *service.Service, id string) types.Job {
	deadline := time.Now().Add(3 * time.Second)
	for {
		job, err := svc.Report(context.Background(), id)
		if (err == nil && job.Status.Finished()) || time.Now().After(deadline) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := newService()

		Convey("Then it uses the Washington defaults in UTC", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["minimumWage"], ShouldEqual, "16.28")
			So(stats["timezone"], ShouldEqual, "UTC")
			So(stats["reportsStored"], ShouldEqual, 0)
		})
	})

	Convey("Given options taken from the default config", t, func() {
		opts, err := service.OptionsFromConfig(config.New(context.Background()))
		So(err, ShouldBeNil)
		svc := newService(opts...)

		Convey("Then the configured time zone is used", func() {
			So(svc.GetStats()["timezone"], ShouldEqual, "America/Los_Angeles")
		})
	})

	Convey("Given a config with an unusable wage", t, func() {
		cfg := config.New(context.Background())
		cfg.StatewideMinimumWage = "lots"

		_, err := service.OptionsFromConfig(cfg)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestService_Generate(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When generating a report synchronously", func() {
			res, err := svc.Generate(ctx, crewWeek())

			Convey("Then the minimum wage and rest breaks are applied", func() {
				So(err, ShouldBeNil)
				So(res.Report.EmployeeSummaries, ShouldHaveLength, 1)
				week := res.Report.EmployeeSummaries[0].WeeklySummaries[0]
				So(week.TotalEarnings, ShouldEqual, 525)
				So(week.MinimumWageTopUp, ShouldEqual, 44.8)
				So(week.PaidRestBreaks, ShouldEqual, 21.71)
				So(res.Report.EmployeeSummaries[0].FinalPay, ShouldEqual, 591.51)
				So(res.Stats.TimeEntriesUsed, ShouldEqual, 5)
			})
		})

		Convey("When the request dates are unusable", func() {
			req := crewWeek()
			req.StartDate = ""
			_, err := svc.Generate(ctx, req)

			Convey("Then an invalid request error is returned", func() {
				So(errors.Is(err, payroll.ErrInvalidRequest), ShouldBeTrue)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := newService()
		_, _, err := svc.Submit(context.Background(), "", crewWeek())
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
	})

	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc := newService(service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a report job is submitted", func() {
			id, duplicate, err := svc.Submit(ctx, "payroll-june", crewWeek())
			So(err, ShouldBeNil)
			So(duplicate, ShouldBeFalse)
			So(id, ShouldNotBeEmpty)

			job := waitFinished(svc, id)

			Convey("Then the job completes with its report", func() {
				So(job.Status, ShouldEqual, types.StatusDone)
				So(job.IdempotencyKey, ShouldEqual, "payroll-june")
				So(job.Report.EmployeeSummaries[0].FinalPay, ShouldEqual, 591.51)
				So(job.Usage.TimeEntriesUsed, ShouldEqual, 5)
			})

			Convey("And resubmitting the key returns the same job", func() {
				again, duplicate, err := svc.Submit(ctx, "payroll-june", crewWeek())
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeTrue)
				So(again, ShouldEqual, id)
			})

			Convey("And the report exports as CSV and XLSX", func() {
				csv, err := svc.Export(ctx, id, export.FormatCSV)
				So(err, ShouldBeNil)
				So(strings.Contains(string(csv), "emp_1,Ana,2024,23"), ShouldBeTrue)
				So(strings.Contains(string(csv), "591.51"), ShouldBeTrue)

				xlsx, err := svc.Export(ctx, id, export.FormatXLSX)
				So(err, ShouldBeNil)
				So(string(xlsx[:2]), ShouldEqual, "PK")
			})

			Convey("And it is listed", func() {
				jobs, err := svc.Jobs(ctx, 10)
				So(err, ShouldBeNil)
				So(jobs, ShouldHaveLength, 1)
				So(jobs[0].ID, ShouldEqual, id)
			})
		})

		Convey("When an invalid job is submitted", func() {
			req := crewWeek()
			req.PayDate = "soon"
			id, _, err := svc.Submit(ctx, "", req)
			So(err, ShouldBeNil)

			job := waitFinished(svc, id)

			Convey("Then the job fails and cannot be exported", func() {
				So(job.Status, ShouldEqual, types.StatusFailed)
				So(job.Error, ShouldContainSubstring, "payDate")

				_, err := svc.Export(ctx, id, export.FormatCSV)
				So(errors.Is(err, service.ErrReportNotReady), ShouldBeTrue)
			})
		})

		Convey("When an unknown job is requested", func() {
			_, err := svc.Report(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = svc.Export(ctx, "missing", export.FormatCSV)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service whose workers are already stopped", t, func() {
		stopped, cancel := context.WithCancel(context.Background())
		cancel()

		svc := newService(service.WithWorkerCount(1), service.WithQueueSize(1))
		So(svc.Start(stopped), ShouldBeNil)
		defer svc.Stop()

		Convey("When more jobs are submitted than the queue holds", func() {
			ctx := context.Background()
			var rejected error
			var rejectedKey string
			for i := 0; i < 3; i++ {
				key := fmt.Sprintf("key-%d", i)
				if _, _, err := svc.Submit(ctx, key, crewWeek()); err != nil {
					rejected, rejectedKey = err, key
				}
			}

			Convey("Then the overflow is rejected as busy", func() {
				So(rejected, ShouldNotBeNil)
				So(errors.Is(rejected, service.ErrBusy), ShouldBeTrue)
				So(errors.Is(rejected, queue.ErrQueueFull), ShouldBeTrue)
			})

			Convey("And the rejected key can be claimed again", func() {
				_, duplicate, _ := svc.Submit(ctx, rejectedKey, crewWeek())
				So(duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service started and stopped twice", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc := newService(service.WithWorkerCount(1))

		for i := 0; i < 2; i++ {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		}
	})
}
