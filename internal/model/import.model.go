package model

import (
	"fmt"
	"time"
)

type ImportMode string

const (
	// ImportModeCopy appends rows with COPY FROM STDIN, all-or-nothing.
	ImportModeCopy ImportMode = "copy"
	// ImportModeUpsert inserts in batches with ON CONFLICT (customer_id) DO UPDATE.
	ImportModeUpsert ImportMode = "upsert"
)

type ImportRunStatus string

const (
	ImportRunStatusRunning   ImportRunStatus = "running"
	ImportRunStatusCompleted ImportRunStatus = "completed"
	ImportRunStatusFailed    ImportRunStatus = "failed"
)

// ImportJob is the unit published onto the import queue.
type ImportJob struct {
	ID              string     `json:"id"`
	Path            string     `json:"path"`
	Mode            ImportMode `json:"mode"`
	FirstNamePrefix string     `json:"first_name_prefix,omitempty"`
	LastNamePrefix  string     `json:"last_name_prefix,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
}

func (j *ImportJob) Validate() error {
	if j.Path == "" {
		return fmt.Errorf("import job: path is required")
	}
	switch j.Mode {
	case ImportModeCopy, ImportModeUpsert:
	default:
		return fmt.Errorf("import job: unknown mode %q", j.Mode)
	}
	return nil
}

// ImportRun is the persisted audit record of one executed import job.
type ImportRun struct {
	ID          int64           `json:"id"`
	JobID       string          `json:"job_id"`
	Path        string          `json:"path"`
	Mode        ImportMode      `json:"mode"`
	Status      ImportRunStatus `json:"status"`
	RowsRead    int64           `json:"rows_read"`
	RowsLoaded  int64           `json:"rows_loaded"`
	RowsSkipped int64           `json:"rows_skipped"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at"`
}

type ImportRunFilter struct {
	JobID  *string
	Status *ImportRunStatus
	Limit  int
	Offset int
	Desc   bool
}

// ImportStats is the outcome of a single load, reported by the importer.
type ImportStats struct {
	RowsRead    int64
	RowsLoaded  int64
	RowsSkipped int64
	Duration    time.Duration
}
