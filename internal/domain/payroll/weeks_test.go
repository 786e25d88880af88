package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/roster"
)

func TestGroupWeeks(t *testing.T) {
	Convey("Given days around the 2024/2025 year boundary", t, func() {
		days := payroll.EmployeeDays{
			"2025-01-02": payroll.DayTasks{"t1": {Hours: decimal.NewFromInt(2)}},
			"2024-12-29": payroll.DayTasks{"t1": {Hours: decimal.NewFromInt(3)}},
			"2024-12-30": payroll.DayTasks{"t1": {Hours: decimal.NewFromInt(4)}},
		}

		Convey("When they are grouped", func() {
			weeks := payroll.GroupWeeks(days)

			Convey("Then Sunday 2024-12-29 closes 2024-W52 and Monday opens 2025-W01", func() {
				So(weeks, ShouldHaveLength, 2)
				So(weeks[0].Key, ShouldEqual, "2024-W52")
				So(weeks[0].Days, ShouldHaveLength, 1)
				So(weeks[1].Key, ShouldEqual, "2025-W01")
				So(weeks[1].Year, ShouldEqual, 2025)
				So(weeks[1].Number, ShouldEqual, 1)
			})

			Convey("And days inside a week are chronological", func() {
				So(weeks[1].Days[0].Date, ShouldEqual, "2024-12-30")
				So(weeks[1].Days[1].Date, ShouldEqual, "2025-01-02")
			})
		})
	})
}

func TestWeekRange(t *testing.T) {
	Convey("WeekRange spans Monday through Sunday", t, func() {
		sunday := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)
		start, end := payroll.WeekRange(sunday)
		So(start.Format("2006-01-02"), ShouldEqual, "2024-06-03")
		So(end.Format("2006-01-02"), ShouldEqual, "2024-06-09")

		monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
		start, end = payroll.WeekRange(monday)
		So(start.Format("2006-01-02"), ShouldEqual, "2024-06-03")
		So(end.Format("2006-01-02"), ShouldEqual, "2024-06-09")
	})
}

func TestCalculateWeek(t *testing.T) {
	Convey("Given an hourly task at $20/hr", t, func() {
		dir := roster.New(employees("emp_1"), []model.Task{hourlyTask("t1", "", "20")}, nil)
		rules := payroll.DefaultRules()
		week := func(hours string) payroll.Week {
			return payroll.Week{Year: 2024, Number: 23, Days: []payroll.Day{{
				Date:  "2024-06-03",
				Tasks: payroll.DayTasks{"t1": {Hours: decimal.RequireFromString(hours)}},
			}}}
		}

		Convey("When 8 hours are worked", func() {
			w := payroll.CalculateWeek(week("8"), dir, rules)

			Convey("Then no top-up is due and two breaks are paid at the regular rate", func() {
				So(w.RawEarnings.String(), ShouldEqual, "160")
				So(w.TopUp.IsZero(), ShouldBeTrue)
				So(w.RegularRate.String(), ShouldEqual, "20")
				So(w.BreakPay.Round(2).String(), ShouldEqual, "6.67")
				So(w.FinalPay.Round(2).String(), ShouldEqual, "166.67")
			})

			Convey("And finalPay = raw + topUp + breakPay exactly", func() {
				So(w.FinalPay.Equal(w.RawEarnings.Add(w.TopUp).Add(w.BreakPay)), ShouldBeTrue)
			})
		})

		Convey("When hours grow, break pay never shrinks", func() {
			prev := decimal.Zero
			for h := 0; h <= 60; h++ {
				w := payroll.CalculateWeek(week(decimal.NewFromInt(int64(h)).String()), dir, rules)
				So(w.BreakPay.GreaterThanOrEqual(prev), ShouldBeTrue)
				prev = w.BreakPay
			}
		})

		Convey("When fewer than four hours are worked", func() {
			w := payroll.CalculateWeek(week("3.99"), dir, rules)

			Convey("Then no break is earned", func() {
				So(w.BreakHours.IsZero(), ShouldBeTrue)
				So(w.BreakPay.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the week has no hours", func() {
			w := payroll.CalculateWeek(payroll.Week{Year: 2024, Number: 23}, dir, rules)

			Convey("Then every derived figure is zero", func() {
				So(w.RegularRate.IsZero(), ShouldBeTrue)
				So(w.TopUp.IsZero(), ShouldBeTrue)
				So(w.FinalPay.IsZero(), ShouldBeTrue)
			})
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given a directory and a window", t, func() {
		dir := roster.New(employees("emp_1", "emp_2", "emp_3"), []model.Task{pieceTask("p1", "", "1")}, nil)
		window := payroll.Window{Start: "2024-06-01", End: "2024-06-30"}

		Convey("When a ticket lists the same employee twice", func() {
			activity, stats := payroll.Aggregate(nil,
				[]model.Piecework{ticket("emp_1, emp_1 ,emp_2,,emp_3", "p1", "2024-06-04", "9")},
				dir, window, time.UTC)

			Convey("Then each distinct participant gets an equal share", func() {
				So(stats.PieceworkUsed, ShouldEqual, 1)
				So(activity, ShouldHaveLength, 3)
				for _, id := range []string{"emp_1", "emp_2", "emp_3"} {
					So(activity[id]["2024-06-04"]["p1"].Pieces.String(), ShouldEqual, "3")
				}
			})
		})

		Convey("When entries for the same task fall on one day", func() {
			activity, _ := payroll.Aggregate([]model.TimeEntry{
				shift("emp_1", "p1", "2024-06-04", "06:00", "08:30"),
				shift("emp_1", "p1", "2024-06-04", "09:00", "12:00"),
			}, nil, dir, window, time.UTC)

			Convey("Then their hours are summed into one tally", func() {
				So(activity["emp_1"]["2024-06-04"]["p1"].Hours.String(), ShouldEqual, "5.5")
			})
		})
	})
}
