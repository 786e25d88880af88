package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harvestpay/internal/adapters/repository"
	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/pkg/metrics"
)

func newStore(opts ...repository.Option) *repository.MemoryStore {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	return repository.NewMemoryStore(append([]repository.Option{repository.WithMetrics(m)}, opts...)...)
}

func reportJob(id string) model.ReportJob {
	return model.ReportJob{ID: id, IdempotencyKey: "key-" + id, SubmittedAt: time.Now()}
}

func doneResult() payroll.Result {
	return payroll.Result{
		Report: payroll.Report{StartDate: "2024-06-01", EndDate: "2024-06-30", PayDate: "2024-07-05"},
		Stats: payroll.Stats{
			TimeEntriesUsed: 4,
			Skipped:         map[payroll.SkipKey]int{{Kind: payroll.KindTimeEntry, Reason: payroll.SkipActive}: 1},
		},
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := newStore()

		Convey("When a job is created", func() {
			job, err := s.Create(ctx, reportJob("a"))

			Convey("Then it is pending", func() {
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, types.StatusPending)
				So(job.IdempotencyKey, ShouldEqual, "key-a")
				So(s.Count(ctx), ShouldEqual, 1)
			})

			Convey("And creating it again fails", func() {
				_, err := s.Create(ctx, reportJob("a"))
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})
		})

		Convey("When a job runs to completion", func() {
			_, _ = s.Create(ctx, reportJob("a"))
			So(s.MarkRunning(ctx, "a"), ShouldBeNil)
			So(s.Complete(ctx, "a", doneResult()), ShouldBeNil)

			job, err := s.Get(ctx, "a")

			Convey("Then the report and usage are stored", func() {
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, types.StatusDone)
				So(job.Report, ShouldNotBeNil)
				So(job.Report.PayDate, ShouldEqual, "2024-07-05")
				So(job.Usage.TimeEntriesUsed, ShouldEqual, 4)
				So(job.Usage.Skipped["time_entry/active"], ShouldEqual, 1)
				So(job.StartedAt, ShouldNotBeNil)
				So(job.FinishedAt, ShouldNotBeNil)
			})

			Convey("And it cannot be failed afterwards", func() {
				err := s.Fail(ctx, "a", errors.New("late"))
				So(errors.Is(err, repository.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When a job fails", func() {
			_, _ = s.Create(ctx, reportJob("a"))
			So(s.Fail(ctx, "a", errors.New("endDate is before startDate")), ShouldBeNil)
			job, _ := s.Get(ctx, "a")

			Convey("Then the cause is kept", func() {
				So(job.Status, ShouldEqual, types.StatusFailed)
				So(job.Error, ShouldEqual, "endDate is before startDate")
				So(job.Report, ShouldBeNil)
			})

			Convey("And it cannot start running", func() {
				So(errors.Is(s.MarkRunning(ctx, "a"), repository.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When an unknown id is used", func() {
			_, err := s.Get(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.MarkRunning(ctx, "nope"), repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.Complete(ctx, "nope", doneResult()), repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryStore_List(t *testing.T) {
	Convey("Given three stored jobs", t, func() {
		ctx := context.Background()
		s := newStore()
		for _, id := range []string{"a", "b", "c"} {
			_, _ = s.Create(ctx, reportJob(id))
		}
		_ = s.MarkRunning(ctx, "c")
		_ = s.Complete(ctx, "c", doneResult())

		Convey("When listing two", func() {
			jobs, err := s.List(ctx, 2)

			Convey("Then the newest come first without reports", func() {
				So(err, ShouldBeNil)
				So(jobs, ShouldHaveLength, 2)
				So(jobs[0].ID, ShouldEqual, "c")
				So(jobs[0].Report, ShouldBeNil)
				So(jobs[1].ID, ShouldEqual, "b")
			})

			Convey("And the stored report is untouched", func() {
				job, _ := s.Get(ctx, "c")
				So(job.Report, ShouldNotBeNil)
			})
		})

		Convey("When the limit is not positive", func() {
			_, err := s.List(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestMemoryStore_Retention(t *testing.T) {
	Convey("Given a store retaining two jobs", t, func() {
		ctx := context.Background()
		s := newStore(repository.WithRetention(2))

		Convey("When finished jobs push it over the limit", func() {
			for _, id := range []string{"a", "b"} {
				_, _ = s.Create(ctx, reportJob(id))
				_ = s.MarkRunning(ctx, id)
				_ = s.Complete(ctx, id, doneResult())
			}
			_, _ = s.Create(ctx, reportJob("c"))

			Convey("Then the oldest finished job is evicted", func() {
				So(s.Count(ctx), ShouldEqual, 2)
				_, err := s.Get(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = s.Get(ctx, "b")
				So(err, ShouldBeNil)
			})
		})

		Convey("When every job is still pending", func() {
			for _, id := range []string{"a", "b", "c"} {
				_, _ = s.Create(ctx, reportJob(id))
			}

			Convey("Then nothing is evicted until one finishes", func() {
				So(s.Count(ctx), ShouldEqual, 3)
				_ = s.MarkRunning(ctx, "b")
				_ = s.Complete(ctx, "b", doneResult())
				So(s.Count(ctx), ShouldEqual, 2)
				_, err := s.Get(ctx, "b")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryStore_Concurrency(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		ctx := context.Background()
		s := newStore(repository.WithRetention(0))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("job-%d", i)
				_, _ = s.Create(ctx, reportJob(id))
				_ = s.MarkRunning(ctx, id)
				_ = s.Complete(ctx, id, doneResult())
			}(i)
		}
		wg.Wait()

		Convey("Then every job is done", func() {
			So(s.Count(ctx), ShouldEqual, 20)
			jobs, err := s.List(ctx, 100)
			So(err, ShouldBeNil)
			for _, j := range jobs {
				So(j.Status, ShouldEqual, types.StatusDone)
			}
		})
	})
}
