// Package roster builds the immutable lookup tables a payroll run reads
// employees, tasks and clients from.
//
// A Directory is built once per invocation and passed explicitly through the
// pipeline; it is never mutated after New returns, so concurrent runs can
// share nothing and still read freely.
package roster

import (
	"strings"

	"github.com/okian/harvestpay/internal/domain/model"
)

// Directory resolves identifiers to records.
type Directory struct {
	employees map[string]model.Employee
	byQRCode  map[string]string // qrCode -> employee id
	tasks     map[string]model.Task
	clients   map[string]model.Client
}

// New indexes the given records. Records with a blank id are skipped; on
// duplicate ids the first record wins.
func New(employees []model.Employee, tasks []model.Task, clients []model.Client) *Directory {
	d := &Directory{
		employees: make(map[string]model.Employee, len(employees)),
		byQRCode:  make(map[string]string, len(employees)),
		tasks:     make(map[string]model.Task, len(tasks)),
		clients:   make(map[string]model.Client, len(clients)),
	}

	for _, e := range employees {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			continue
		}
		if _, dup := d.employees[id]; dup {
			continue
		}
		e.ID = id
		d.employees[id] = e
		if qr := strings.TrimSpace(e.QRCode); qr != "" {
			if _, taken := d.byQRCode[qr]; !taken {
				d.byQRCode[qr] = id
			}
		}
	}
	for _, t := range tasks {
		id := strings.TrimSpace(t.ID)
		if _, dup := d.tasks[id]; id == "" || dup {
			continue
		}
		t.ID = id
		d.tasks[id] = t
	}
	for _, c := range clients {
		id := strings.TrimSpace(c.ID)
		if _, dup := d.clients[id]; id == "" || dup {
			continue
		}
		c.ID = id
		d.clients[id] = c
	}
	return d
}

// Employee looks an employee up by id.
func (d *Directory) Employee(id string) (model.Employee, bool) {
	e, ok := d.employees[strings.TrimSpace(id)]
	return e, ok
}

// ResolveEmployee maps an identifier printed on a ticket or time entry to an
// employee. Ids take precedence over QR codes.
func (d *Directory) ResolveEmployee(identifier string) (model.Employee, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return model.Employee{}, false
	}
	if e, ok := d.employees[identifier]; ok {
		return e, true
	}
	if id, ok := d.byQRCode[identifier]; ok {
		return d.employees[id], true
	}
	return model.Employee{}, false
}

// ResolveParticipants resolves every identifier on a ticket and returns the
// distinct employees found, in ticket order. Unknown identifiers are dropped.
func (d *Directory) ResolveParticipants(list model.ParticipantList) []model.Employee {
	out := make([]model.Employee, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, identifier := range list {
		e, ok := d.ResolveEmployee(identifier)
		if !ok {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Task looks a task up by id.
func (d *Directory) Task(id string) (model.Task, bool) {
	t, ok := d.tasks[strings.TrimSpace(id)]
	return t, ok
}

// Client looks a client up by id.
func (d *Directory) Client(id string) (model.Client, bool) {
	c, ok := d.clients[strings.TrimSpace(id)]
	return c, ok
}

// EmployeeCount returns the number of indexed employees.
func (d *Directory) EmployeeCount() int {
	return len(d.employees)
}
