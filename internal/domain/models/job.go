package models

import "time"

// JobStatus is a point-in-time view of the analysis job.
type JobStatus struct {
	IsRunning       bool       `json:"isRunning"`
	RunID           string     `json:"runId,omitempty"`
	ProgressMessage string     `json:"progressMessage"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	ElapsedSeconds  float64    `json:"elapsedSeconds"`
	Currencies      []string   `json:"currencies,omitempty"`
	LastOutcome     RunOutcome `json:"lastOutcome,omitempty"`
}

// LaunchResult is returned as soon as a run has been accepted.
// Done is closed when the background run has finished, whatever its outcome.
type LaunchResult struct {
	RunID      string          `json:"runId"`
	Currencies []string        `json:"currencies"`
	StartedAt  time.Time       `json:"startedAt"`
	Done       <-chan struct{} `json:"-"`
}

type RunOutcome string

const (
	RunCompleted RunOutcome = "completed"
	RunFailed    RunOutcome = "failed"
	RunPanicked  RunOutcome = "panicked"
)

// RunSummary describes a finished run. It is logged, recorded as metrics and published.
type RunSummary struct {
	RunID        string        `json:"runId"`
	Date         string        `json:"date"`
	Outcome      RunOutcome    `json:"outcome"`
	Currencies   []string      `json:"currencies"`
	Scored       int           `json:"scored"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	RiskModifier int           `json:"riskModifier"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"durationMs"`
	Error        string        `json:"error,omitempty"`
}
