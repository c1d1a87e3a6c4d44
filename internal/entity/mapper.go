// Package entity resolves vacancies into normalized reference records
// (company, title, location, source, status) and builds persistable jobs.
// Resolution order per kind: exact slug match, then keyword overlap against
// existing labels, then create. The fuzzy pass deliberately merges
// similarly-named entities so "Acme Inc" and "Acme, Inc." land on one row.
package entity

import (
	"context"
	"fmt"
	"time"

	"jobscout-engine/internal/dedup"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/match"
)

type Kind string

const (
	KindCompany  Kind = "company"
	KindJobTitle Kind = "job_title"
	KindLocation Kind = "location"
	// global kinds: not scoped to a user
	KindJobSource Kind = "job_source"
	KindJobStatus Kind = "job_status"
)

// discoveredStatus is the global job status every pipeline-saved job starts in.
const discoveredStatus = "discovered"

// Ref is one resolved reference row.
type Ref struct {
	ID   int64
	Name string
	Slug string
}

// Directory is the reference-entity slice of the store. Global kinds pass
// userID 0. Create must be idempotent on (kind, userID, slug).
type Directory interface {
	FindBySlug(ctx context.Context, kind Kind, userID int64, slug string) (*Ref, error)
	ListRefs(ctx context.Context, kind Kind, userID int64) ([]Ref, error)
	CreateRef(ctx context.Context, kind Kind, userID int64, name, slug string) (Ref, error)
}

// JobStore persists the final job record.
type JobStore interface {
	InsertJob(ctx context.Context, job *domain.Job) error
}

type Mapper struct {
	dir  Directory
	jobs JobStore
	now  func() time.Time
}

func New(dir Directory, jobs JobStore) *Mapper {
	return &Mapper{dir: dir, jobs: jobs, now: time.Now}
}

// SaveJob maps a matched vacancy onto reference entities and persists the job.
// It never mutates the vacancy and touches no run counters.
func (m *Mapper) SaveJob(ctx context.Context, v domain.Vacancy, userID, automationID int64, score match.Score) error {
	company, err := m.resolve(ctx, KindCompany, userID, orUnknown(v.EmployerName, "Unknown Company"))
	if err != nil {
		return fmt.Errorf("resolve company: %w", err)
	}
	title, err := m.resolve(ctx, KindJobTitle, userID, orUnknown(v.Title, "Job Posting"))
	if err != nil {
		return fmt.Errorf("resolve title: %w", err)
	}
	location, err := m.resolve(ctx, KindLocation, userID, orUnknown(v.Location, "Unknown"))
	if err != nil {
		return fmt.Errorf("resolve location: %w", err)
	}
	source, err := m.resolveGlobal(ctx, KindJobSource, orUnknown(v.SourceBoard, "manual"))
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	status, err := m.resolveGlobal(ctx, KindJobStatus, discoveredStatus)
	if err != nil {
		return fmt.Errorf("resolve status: %w", err)
	}

	autoID := automationID
	job := &domain.Job{
		UserID:          userID,
		CompanyID:       company.ID,
		TitleID:         title.ID,
		LocationID:      location.ID,
		SourceID:        source.ID,
		StatusID:        status.ID,
		AutomationID:    &autoID,
		URL:             dedup.NormalizeURL(v.SourceURL),
		Description:     v.Description,
		Salary:          v.Salary,
		MatchScore:      score.Score,
		MatchData:       score.RationaleJSON(),
		DiscoveryStatus: domain.DiscoveryNew,
		DiscoveredAt:    m.now(),
		PostedAt:        v.PostedAt,
	}
	if err := m.jobs.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// resolve runs the exact-then-fuzzy-then-create lookup for user-scoped kinds.
func (m *Mapper) resolve(ctx context.Context, kind Kind, userID int64, name string) (Ref, error) {
	slug := Slugify(name)

	if ref, err := m.dir.FindBySlug(ctx, kind, userID, slug); err != nil {
		return Ref{}, err
	} else if ref != nil {
		return *ref, nil
	}

	if ref, err := m.fuzzyFind(ctx, kind, userID, name); err != nil {
		return Ref{}, err
	} else if ref != nil {
		return *ref, nil
	}

	return m.dir.CreateRef(ctx, kind, userID, name, slug)
}

func (m *Mapper) resolveGlobal(ctx context.Context, kind Kind, name string) (Ref, error) {
	slug := Slugify(name)
	if ref, err := m.dir.FindBySlug(ctx, kind, 0, slug); err != nil {
		return Ref{}, err
	} else if ref != nil {
		return *ref, nil
	}
	return m.dir.CreateRef(ctx, kind, 0, name, slug)
}

// fuzzyFind picks the existing record with the largest keyword overlap, first
// match winning ties. No overlap means no match.
func (m *Mapper) fuzzyFind(ctx context.Context, kind Kind, userID int64, name string) (*Ref, error) {
	want := Keywords(name)
	if len(want) == 0 {
		return nil, nil
	}
	refs, err := m.dir.ListRefs(ctx, kind, userID)
	if err != nil {
		return nil, err
	}
	var best *Ref
	bestScore := 0
	for i := range refs {
		if n := overlap(want, Keywords(refs[i].Name)); n > bestScore {
			best = &refs[i]
			bestScore = n
		}
	}
	return best, nil
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
