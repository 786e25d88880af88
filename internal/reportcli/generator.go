package reportcli

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/model"
)

const (
	clockLayout     = "2006-01-02T15:04:05"
	dateLayout      = "2006-01-02"
	payDateLag      = 5 // days between window end and pay date
	sharedTicketMod = 5 // every fifth ticket is shared with the next employee
	attendanceRate  = 0.9
)

var firstNames = []string{
	"Ana", "Luis", "Maria", "Jose", "Rosa", "Carlos", "Elena", "Miguel",
	"Sofia", "Juan", "Lucia", "Pedro", "Carmen", "Diego", "Isabel", "Raul",
}

// GenerateOptions shapes a synthetic snapshot.
type GenerateOptions struct {
	Employees int
	Start     time.Time
	Days      int
	Seed      uint64
}

// GenerateSnapshot builds a crew snapshot: hourly mornings, piecework
// afternoons, some tickets shared between two pickers (the second named by
// QR code), a client with a higher minimum wage, and one employee still
// clocked in on the last day.
func GenerateSnapshot(opts GenerateOptions) model.Snapshot {
	if opts.Employees < 1 {
		opts.Employees = 1
	}
	if opts.Days < 1 {
		opts.Days = 14
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	start := time.Date(opts.Start.Year(), opts.Start.Month(), opts.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, opts.Days-1)

	valley := model.Client{ID: uuid.NewString(), Name: "Valley Orchards"}
	ridge := model.Client{
		ID:          uuid.NewString(),
		Name:        "Ridge Farms",
		MinimumWage: decimal.NewNullDecimal(decimal.RequireFromString("17.50")),
	}
	prune := hourlyTask("Pruning", "Honeycrisp", valley.ID, "15.50")
	thin := hourlyTask("Thinning", "Gala", ridge.ID, "18.25")
	pick := model.Task{
		ID:              uuid.NewString(),
		Name:            "Picking",
		Variety:         "Gala",
		Ranch:           "North",
		Block:           "B4",
		ClientID:        ridge.ID,
		EmployeePayType: model.PayPiecework,
		EmployeeRate:    decimal.NewNullDecimal(decimal.RequireFromString("0.65")),
		ClientPayType:   model.PayPiecework,
		ClientRate:      decimal.NewNullDecimal(decimal.RequireFromString("0.90")),
	}

	snap := model.Snapshot{
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		PayDate:   end.AddDate(0, 0, payDateLag).Format(dateLayout),
		Clients:   []model.Client{valley, ridge},
		Tasks:     []model.Task{prune, thin, pick},
	}
	for i := 0; i < opts.Employees; i++ {
		snap.Employees = append(snap.Employees, model.Employee{
			ID:     uuid.NewString(),
			Name:   fmt.Sprintf("%s %03d", firstNames[i%len(firstNames)], i+1),
			QRCode: fmt.Sprintf("QR-%04d", i+1),
		})
	}

	tickets := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		for i, emp := range snap.Employees {
			if rng.Float64() > attendanceRate {
				continue
			}
			morningTask := prune
			if i%2 == 1 {
				morningTask = thin
			}
			clockIn := day.Add(6*time.Hour + time.Duration(rng.IntN(31))*time.Minute)
			lunch := clockIn.Add(4*time.Hour + time.Duration(rng.IntN(61))*time.Minute)
			snap.TimeEntries = append(snap.TimeEntries, entry(emp.ID, morningTask.ID, clockIn, lunch))

			afternoon := lunch.Add(30 * time.Minute)
			clockOut := afternoon.Add(3*time.Hour + time.Duration(rng.IntN(61))*time.Minute)
			snap.TimeEntries = append(snap.TimeEntries, entry(emp.ID, pick.ID, afternoon, clockOut))

			tickets++
			holder := emp.ID
			if tickets%sharedTicketMod == 0 && len(snap.Employees) > 1 {
				partner := snap.Employees[(i+1)%len(snap.Employees)]
				holder = emp.ID + ", " + partner.QRCode
			}
			snap.Piecework = append(snap.Piecework, model.Piecework{
				ID:         uuid.NewString(),
				EmployeeID: holder,
				TaskID:     pick.ID,
				Timestamp:  clockOut.Format(clockLayout),
				PieceCount: decimal.NewFromInt(int64(40 + rng.IntN(81))),
			})
		}
	}

	// someone is always still on the clock when the export is pulled
	lastStart := end.Add(7 * time.Hour).Format(clockLayout)
	snap.TimeEntries = append(snap.TimeEntries, model.TimeEntry{
		ID:         uuid.NewString(),
		EmployeeID: snap.Employees[0].ID,
		TaskID:     prune.ID,
		Timestamp:  lastStart,
	})
	return snap
}

func hourlyTask(name, variety, clientID, rate string) model.Task {
	return model.Task{
		ID:              uuid.NewString(),
		Name:            name,
		Variety:         variety,
		Ranch:           "South",
		Block:           "A1",
		ClientID:        clientID,
		EmployeePayType: model.PayHourly,
		EmployeeRate:    decimal.NewNullDecimal(decimal.RequireFromString(rate)),
		ClientPayType:   model.PayHourly,
		ClientRate:      decimal.NewNullDecimal(decimal.RequireFromString("24.00")),
	}
}

func entry(employeeID, taskID string, from, to time.Time) model.TimeEntry {
	end := to.Format(clockLayout)
	return model.TimeEntry{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		TaskID:     taskID,
		Timestamp:  from.Format(clockLayout),
		EndTime:    &end,
	}
}

// DefaultGenerateStart is the Monday two weeks before now.
func DefaultGenerateStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	return now.AddDate(0, 0, -offset-14)
}
