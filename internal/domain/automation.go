package domain

import "time"

type AutomationStatus string

const (
	AutomationActive AutomationStatus = "active"
	AutomationPaused AutomationStatus = "paused"
)

// Automation is a user-owned recurring search: which board to query, with what
// criteria, against which resume, and when. NextRunAt is nil exactly when the
// automation is paused; only the runner advances the schedule.
type Automation struct {
	ID              int64
	UserID          int64
	Name            string
	JobBoard        string // connector id, e.g. "remotive"
	Keywords        string
	Location        string
	ConnectorParams map[string]string // opaque per-board settings, stored as JSON
	ResumeID        int64
	MatchThreshold  int // 0..100, inclusive lower bound for saving a job
	ScheduleHour    int // 0..23, local clock hour of the daily run
	Status          AutomationStatus
	NextRunAt       *time.Time
	LastRunAt       *time.Time
}

type RunStatus string

const (
	RunRunning             RunStatus = "running"
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
	RunBlocked             RunStatus = "blocked"
	RunRateLimited         RunStatus = "rate_limited"
)

// RunCounts travels through the pipeline stages as a plain value so the final
// status transition stays auditable.
type RunCounts struct {
	Searched     int `json:"jobsSearched"`
	Deduplicated int `json:"jobsDeduplicated"`
	Processed    int `json:"jobsProcessed"`
	Matched      int `json:"jobsMatched"`
	Saved        int `json:"jobsSaved"`
}

// AutomationRun is one execution record. Created in "running"; gets exactly one
// terminal update when the runner finalizes, even if the run blew up.
type AutomationRun struct {
	ID            string // uuid
	AutomationID  int64
	Status        RunStatus
	Counts        RunCounts
	ErrorMessage  string
	BlockedReason string
	StartedAt     time.Time
	CompletedAt   *time.Time
}
