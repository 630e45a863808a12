package domain

import (
	"time"
)

// AnalysisRun describes one execution of the analysis pipeline
type AnalysisRun struct {
	ID          string        `json:"id" validate:"required,uuid"`
	Source      string        `json:"source" validate:"required"`
	Status      RunStatus     `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
	Steps       []StepTiming  `json:"steps"`
	Outputs     []OutputFile  `json:"outputs,omitempty"`
	Parameters  RunParameters `json:"parameters"`
	Error       string        `json:"error,omitempty"`
}

// RunStatus represents the status of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunParameters are the analysis knobs a run was executed with
type RunParameters struct {
	Clusters      int       `json:"clusters"`
	Seed          uint64    `json:"seed"`
	ReferenceDate time.Time `json:"reference_date"`
	Parallel      bool      `json:"parallel"`
}

// StepTiming records how long a pipeline step took
type StepTiming struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// OutputFile describes a file a run produced
type OutputFile struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Format   OutputFormat `json:"format"`
	Category string       `json:"category"`
	Rows     int          `json:"rows"`
}

// OutputFormat defines the format of an output file
type OutputFormat string

const (
	OutputFormatCSV   OutputFormat = "csv"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatExcel OutputFormat = "xlsx"
)

// Table is a named row-oriented result ready for export. Cells hold
// string, int, int64, float64, bool or nil; nil marks an absent value and is
// written as an empty cell.
type Table struct {
	Name   string   `json:"name"`
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}

// Len returns the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}
