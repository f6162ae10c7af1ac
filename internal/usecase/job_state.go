package usecase

import (
	"sync"
	"time"

	"FxBias/internal/domain/models"
)

const idleMessage = "Idle"

// JobState is the controller's single-flight flag plus progress text.
// All transitions go through its mutex.
type JobState struct {
	mu         sync.Mutex
	running    bool
	runID      string
	progress   string
	startedAt  time.Time
	currencies []string
	last       models.RunOutcome
}

func NewJobState() *JobState {
	return &JobState{progress: idleMessage}
}

// TryStart moves Idle to Running. When a run is already active it returns
// false and that run's status.
func (s *JobState) TryStart(runID string, currencies []string, at time.Time) (bool, models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false, s.snapshotLocked(at)
	}
	s.running = true
	s.runID = runID
	s.startedAt = at
	s.currencies = append([]string(nil), currencies...)
	s.progress = "Starting analysis"
	return true, s.snapshotLocked(at)
}

func (s *JobState) SetProgress(msg string) {
	s.mu.Lock()
	s.progress = msg
	s.mu.Unlock()
}

// Finish moves Running back to Idle and resets the progress line. A non-empty
// outcome is kept as the last run's outcome; a run that never started passes "".
func (s *JobState) Finish(outcome models.RunOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.runID = ""
	s.startedAt = time.Time{}
	s.currencies = nil
	s.progress = idleMessage
	if outcome != "" {
		s.last = outcome
	}
}

func (s *JobState) Status(now time.Time) models.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now)
}

func (s *JobState) snapshotLocked(now time.Time) models.JobStatus {
	st := models.JobStatus{
		IsRunning:       s.running,
		RunID:           s.runID,
		ProgressMessage: s.progress,
		LastOutcome:     s.last,
	}
	if s.running {
		started := s.startedAt
		st.StartedAt = &started
		st.ElapsedSeconds = now.Sub(started).Seconds()
		st.Currencies = append([]string(nil), s.currencies...)
	}
	return st
}
