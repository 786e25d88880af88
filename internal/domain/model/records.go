// Package model contains the farm-labor records exchanged between layers.
//
// Records mirror the document-store collections (employees, clients, tasks,
// timeEntries, piecework). They are read-only inputs to payroll generation.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PayType says how a task pays the employee.
type PayType string

// Known pay types.
const (
	PayHourly    PayType = "hourly"
	PayPiecework PayType = "piecework"
)

// Valid reports whether p is a known pay type.
func (p PayType) Valid() bool {
	return p == PayHourly || p == PayPiecework
}

// Employee is a crew member on the roster.
type Employee struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	QRCode string `json:"qrCode,omitempty"` // badge alias used on piecework tickets
}

// Client owns tasks. MinimumWage raises the statewide floor for any week in
// which one of the client's tasks was worked.
type Client struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	MinimumWage decimal.NullDecimal `json:"minimumWage"`
}

// Task is a unit of billable field work (a crop block, a variety, a ranch).
type Task struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Variety         string              `json:"variety,omitempty"`
	Ranch           string              `json:"ranch,omitempty"`
	Block           string              `json:"block,omitempty"`
	ClientID        string              `json:"clientId,omitempty"`
	EmployeePayType PayType             `json:"employeePayType"`
	EmployeeRate    decimal.NullDecimal `json:"employeeRate"`

	// Client billing terms. Payroll never reads them.
	ClientPayType PayType             `json:"clientPayType,omitempty"`
	ClientRate    decimal.NullDecimal `json:"clientRate"`
}

// TimeEntry is one continuous work interval on one task. A nil EndTime means
// the employee is still clocked in.
type TimeEntry struct {
	ID         string  `json:"id,omitempty"`
	EmployeeID string  `json:"employeeId"`
	TaskID     string  `json:"taskId"`
	Timestamp  string  `json:"timestamp"`
	EndTime    *string `json:"endTime"`
}

// Active reports whether the entry has no clock-out yet.
func (e TimeEntry) Active() bool {
	return e.EndTime == nil || strings.TrimSpace(*e.EndTime) == ""
}

// Piecework is a ticket of pieces picked on a task. EmployeeID holds either a
// single identifier or a comma-separated list for a shared ticket.
type Piecework struct {
	ID         string          `json:"id,omitempty"`
	EmployeeID string          `json:"employeeId"`
	TaskID     string          `json:"taskId"`
	Timestamp  string          `json:"timestamp"`
	PieceCount decimal.Decimal `json:"pieceCount"`
}

// ParticipantList is the ordered set of employee identifiers (ids or QR
// codes) named on a ticket.
type ParticipantList []string

// Participants splits the ticket's EmployeeID field into identifiers.
// Blank entries are dropped.
func (p Piecework) Participants() ParticipantList {
	parts := strings.Split(p.EmployeeID, ",")
	out := make(ParticipantList, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
