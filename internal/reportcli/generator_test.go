package reportcli_test

import (
	"context"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/reportcli"
)

func TestGenerateSnapshot(t *testing.T) {
	Convey("Given a generated two-week crew snapshot", t, func() {
		start := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
		snap := reportcli.GenerateSnapshot(reportcli.GenerateOptions{Employees: 12, Start: start, Days: 14, Seed: 42})

		Convey("Then the window and roster are as requested", func() {
			So(snap.StartDate, ShouldEqual, "2024-06-03")
			So(snap.EndDate, ShouldEqual, "2024-06-16")
			So(snap.PayDate, ShouldEqual, "2024-06-21")
			So(snap.Employees, ShouldHaveLength, 12)
			So(snap.Tasks, ShouldHaveLength, 3)
			So(snap.Clients, ShouldHaveLength, 2)
			So(len(snap.TimeEntries), ShouldBeGreaterThan, 0)
			So(len(snap.Piecework), ShouldBeGreaterThan, 0)
		})

		Convey("Then some tickets are shared by QR code", func() {
			shared := 0
			for _, p := range snap.Piecework {
				if strings.Contains(p.EmployeeID, ",") {
					shared++
					So(p.Participants()[1], ShouldStartWith, "QR-")
				}
			}
			So(shared, ShouldBeGreaterThan, 0)
		})

		Convey("Then the engine accepts every record but the open shift", func() {
			res, err := payroll.NewEngine().Generate(context.Background(), snap)
			So(err, ShouldBeNil)
			So(res.Report.Warnings, ShouldBeEmpty)
			So(res.Stats.SkippedTotal(), ShouldEqual, 1)
			So(res.Stats.Skipped[payroll.SkipKey{Kind: payroll.KindTimeEntry, Reason: payroll.SkipActive}], ShouldEqual, 1)
			So(res.Stats.PieceworkUsed, ShouldEqual, len(snap.Piecework))

			Convey("And no week pays under its minimum wage", func() {
				for _, e := range res.Report.EmployeeSummaries {
					for _, w := range e.WeeklySummaries {
						So(w.TotalEarnings+w.MinimumWageTopUp, ShouldBeGreaterThanOrEqualTo, w.TotalHours*w.ApplicableMinimumWage-0.01)
						So(w.ApplicableMinimumWage, ShouldEqual, 17.5)
					}
				}
			})
		})
	})

	Convey("Given the same seed twice", t, func() {
		start := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
		a := reportcli.GenerateSnapshot(reportcli.GenerateOptions{Employees: 5, Start: start, Days: 7, Seed: 7})
		b := reportcli.GenerateSnapshot(reportcli.GenerateOptions{Employees: 5, Start: start, Days: 7, Seed: 7})

		Convey("Then the shifts match", func() {
			So(len(a.TimeEntries), ShouldEqual, len(b.TimeEntries))
			for i := range a.TimeEntries {
				So(a.TimeEntries[i].Timestamp, ShouldEqual, b.TimeEntries[i].Timestamp)
			}
		})
	})

	Convey("DefaultGenerateStart is a Monday two weeks back", t, func() {
		now := time.Date(2024, time.June, 19, 15, 0, 0, 0, time.UTC) // Wednesday
		got := reportcli.DefaultGenerateStart(now)
		So(got.Weekday(), ShouldEqual, time.Monday)
		So(got.Format("2006-01-02"), ShouldEqual, "2024-06-03")
	})
}
