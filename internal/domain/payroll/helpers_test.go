package payroll_test

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/model"
)

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func hourlyTask(id, clientID, r string) model.Task {
	return model.Task{
		ID:              id,
		Name:            "Task " + id,
		Ranch:           "North",
		Block:           "B" + id,
		ClientID:        clientID,
		EmployeePayType: model.PayHourly,
		EmployeeRate:    rate(r),
	}
}

func pieceTask(id, clientID, r string) model.Task {
	t := hourlyTask(id, clientID, r)
	t.EmployeePayType = model.PayPiecework
	return t
}

func shift(employeeID, taskID, day, from, to string) model.TimeEntry {
	end := fmt.Sprintf("%sT%s:00", day, to)
	return model.TimeEntry{
		EmployeeID: employeeID,
		TaskID:     taskID,
		Timestamp:  fmt.Sprintf("%sT%s:00", day, from),
		EndTime:    &end,
	}
}

func ticket(employeeIDs, taskID, day, pieces string) model.Piecework {
	return model.Piecework{
		EmployeeID: employeeIDs,
		TaskID:     taskID,
		Timestamp:  day + "T10:00:00",
		PieceCount: decimal.RequireFromString(pieces),
	}
}

func employees(ids ...string) []model.Employee {
	out := make([]model.Employee, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Employee{ID: id, Name: "Worker " + id})
	}
	return out
}

// weekOfHourly builds five 7-hour shifts, Monday 2024-06-03 to Friday.
func weekOfHourly(employeeID, taskID string) []model.TimeEntry {
	days := []string{"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07"}
	out := make([]model.TimeEntry, 0, len(days))
	for _, d := range days {
		out = append(out, shift(employeeID, taskID, d, "07:00", "14:00"))
	}
	return out
}

func period(req model.Snapshot) model.Snapshot {
	req.StartDate = "2024-06-01"
	req.EndDate = "2024-06-30"
	req.PayDate = "2024-07-05"
	return req
}
