package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harvestpay/internal/domain/payroll"
	types "github.com/okian/harvestpay/internal/domain/types"
)

func TestJobStatus(t *testing.T) {
	Convey("Given job statuses", t, func() {
		Convey("Then only done and failed are finished", func() {
			So(types.StatusPending.Finished(), ShouldBeFalse)
			So(types.StatusRunning.Finished(), ShouldBeFalse)
			So(types.StatusDone.Finished(), ShouldBeTrue)
			So(types.StatusFailed.Finished(), ShouldBeTrue)
		})
	})
}

func TestUsageFromStats(t *testing.T) {
	Convey("Given engine stats with skipped records", t, func() {
		stats := payroll.Stats{
			TimeEntriesUsed: 12,
			PieceworkUsed:   3,
			Skipped: map[payroll.SkipKey]int{
				{Kind: payroll.KindTimeEntry, Reason: payroll.SkipActive}:      2,
				{Kind: payroll.KindPiecework, Reason: payroll.SkipOutOfWindow}: 1,
			},
		}

		Convey("When they are flattened", func() {
			u := types.UsageFromStats(stats)

			Convey("Then skip keys read kind/reason", func() {
				So(u.TimeEntriesUsed, ShouldEqual, 12)
				So(u.PieceworkUsed, ShouldEqual, 3)
				So(u.Skipped["time_entry/active"], ShouldEqual, 2)
				So(u.Skipped["piecework/out_of_window"], ShouldEqual, 1)
			})
		})

		Convey("When nothing was skipped", func() {
			u := types.UsageFromStats(payroll.Stats{TimeEntriesUsed: 1})

			Convey("Then the skipped map is omitted from JSON", func() {
				b, err := json.Marshal(u)
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"timeEntriesUsed":1,"pieceworkUsed":0}`)
			})
		})
	})
}

func TestJobJSON(t *testing.T) {
	Convey("Given a pending job", t, func() {
		job := types.Job{ID: "0b5c", Status: types.StatusPending}

		Convey("When encoded", func() {
			b, err := json.Marshal(job)
			So(err, ShouldBeNil)

			Convey("Then unset optional fields are omitted", func() {
				So(string(b), ShouldNotContainSubstring, "report")
				So(string(b), ShouldNotContainSubstring, "startedAt")
				So(string(b), ShouldContainSubstring, `"status":"pending"`)
			})
		})
	})
}
