package domain

import "time"

type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "full_time"
	EmploymentPartTime  EmploymentType = "part_time"
	EmploymentContract  EmploymentType = "contract"
	EmploymentUndefined EmploymentType = "undefined"
)

// Vacancy is a connector-agnostic job posting as translated from a provider
// payload. It is transient: consumed by dedup/match/mapping and then discarded.
// Optional fields degrade to zero values; translators never fail on them.
type Vacancy struct {
	Title               string
	EmployerName        string
	Location            string
	Description         string // plain text, markup already stripped
	SourceURL           string
	SourceBoard         string // connector id that produced it
	ExternalID          string
	PostedAt            *time.Time
	Salary              string
	EmploymentType      EmploymentType
	ApplicationDeadline *time.Time
}

type DiscoveryStatus string

const (
	DiscoveryNew       DiscoveryStatus = "new"
	DiscoveryDismissed DiscoveryStatus = "dismissed"
	DiscoveryAccepted  DiscoveryStatus = "accepted"
)

// Job is a persisted discovered job. The automation reference is provenance
// only: deleting the automation nulls it, never the job.
type Job struct {
	ID              int64
	UserID          int64
	CompanyID       int64
	TitleID         int64
	LocationID      int64
	SourceID        int64
	StatusID        int64
	AutomationID    *int64
	URL             string // normalized form, see dedup.NormalizeURL
	Description     string
	Salary          string
	MatchScore      int
	MatchData       string // serialized rationale
	DiscoveryStatus DiscoveryStatus
	DiscoveredAt    time.Time
	PostedAt        *time.Time
}
