package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownCurrency = errors.New("unknown currency")
)

// JobConflictError is returned when a launch hits an already running job.
type JobConflictError struct {
	StartedAt time.Time
	RunID     string
}

func (e *JobConflictError) Error() string {
	return fmt.Sprintf("analysis job already running since %s", e.StartedAt.UTC().Format(time.RFC3339))
}

// ValidationError rejects caller input. Message is safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
