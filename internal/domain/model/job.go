package model

import "time"

// Snapshot is one consistent set of records for a reporting window, the
// input of a payroll run.
type Snapshot struct {
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	PayDate     string      `json:"payDate"`
	Employees   []Employee  `json:"employees"`
	Tasks       []Task      `json:"tasks"`
	Clients     []Client    `json:"clients"`
	TimeEntries []TimeEntry `json:"timeEntries"`
	Piecework   []Piecework `json:"piecework"`
}

// ReportJob is an asynchronous report request travelling through the job
// queue.
type ReportJob struct {
	ID             string    // job id, also the stored report id
	IdempotencyKey string    // caller supplied key, may be empty
	Snapshot       Snapshot  // input records
	SubmittedAt    time.Time // enqueue time
}
