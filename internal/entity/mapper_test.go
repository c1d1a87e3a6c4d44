package entity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	refs    map[string][]Ref // key: kind/userID
	nextID  int64
	created []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{refs: map[string][]Ref{}, nextID: 1}
}

func (d *fakeDirectory) key(kind Kind, userID int64) string {
	return fmt.Sprintf("%s/%d", kind, userID)
}

func (d *fakeDirectory) seed(kind Kind, userID int64, name string) Ref {
	ref := Ref{ID: d.nextID, Name: name, Slug: Slugify(name)}
	d.nextID++
	k := d.key(kind, userID)
	d.refs[k] = append(d.refs[k], ref)
	return ref
}

func (d *fakeDirectory) FindBySlug(_ context.Context, kind Kind, userID int64, slug string) (*Ref, error) {
	for _, r := range d.refs[d.key(kind, userID)] {
		if r.Slug == slug {
			ref := r
			return &ref, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) ListRefs(_ context.Context, kind Kind, userID int64) ([]Ref, error) {
	return d.refs[d.key(kind, userID)], nil
}

func (d *fakeDirectory) CreateRef(_ context.Context, kind Kind, userID int64, name, slug string) (Ref, error) {
	d.created = append(d.created, fmt.Sprintf("%s:%s", kind, slug))
	return d.seed(kind, userID, name), nil
}

type fakeJobStore struct {
	jobs []*domain.Job
	err  error
}

func (s *fakeJobStore) InsertJob(_ context.Context, job *domain.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func testMapper(dir *fakeDirectory, jobs *fakeJobStore) *Mapper {
	m := New(dir, jobs)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return m
}

func TestSaveJobCreatesMissingEntities(t *testing.T) {
	dir := newFakeDirectory()
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	v := domain.Vacancy{
		Title:        "Senior Go Engineer",
		EmployerName: "Acme Robotics Inc",
		Location:     "Berlin",
		SourceURL:    "https://example.com/jobs/42?utm_source=feed",
		SourceBoard:  "remotive",
		Description:  "Build things.",
	}
	err := m.SaveJob(context.Background(), v, 7, 3, match.Score{Score: 88, Summary: "great"})
	require.NoError(t, err)
	require.Len(t, jobs.jobs, 1)

	job := jobs.jobs[0]
	assert.Equal(t, int64(7), job.UserID)
	require.NotNil(t, job.AutomationID)
	assert.Equal(t, int64(3), *job.AutomationID)
	assert.Equal(t, "https://example.com/jobs/42", job.URL, "url must be stored normalized")
	assert.Equal(t, 88, job.MatchScore)
	assert.Contains(t, job.MatchData, `"score":88`)
	assert.Equal(t, domain.DiscoveryNew, job.DiscoveryStatus)
	assert.False(t, job.DiscoveredAt.IsZero())

	assert.Contains(t, dir.created, "company:acme-robotics-inc")
	assert.Contains(t, dir.created, "job_title:senior-go-engineer")
	assert.Contains(t, dir.created, "location:berlin")
	assert.Contains(t, dir.created, "job_source:remotive")
	assert.Contains(t, dir.created, "job_status:discovered")
}

func TestSaveJobReusesExactSlugMatch(t *testing.T) {
	dir := newFakeDirectory()
	existing := dir.seed(KindCompany, 7, "Acme Robotics")
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	v := domain.Vacancy{Title: "Engineer", EmployerName: "Acme Robotics", SourceBoard: "remotive"}
	require.NoError(t, m.SaveJob(context.Background(), v, 7, 3, match.Score{Score: 75}))

	assert.Equal(t, existing.ID, jobs.jobs[0].CompanyID)
	assert.NotContains(t, dir.created, "company:acme-robotics")
}

func TestSaveJobFuzzyMatchesOnKeywordOverlap(t *testing.T) {
	dir := newFakeDirectory()
	existing := dir.seed(KindCompany, 7, "Acme Robotics")
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	// "Acme Robotics GmbH" slugs differently but shares both keywords.
	v := domain.Vacancy{Title: "Engineer", EmployerName: "Acme Robotics GmbH", SourceBoard: "remotive"}
	require.NoError(t, m.SaveJob(context.Background(), v, 7, 3, match.Score{Score: 75}))

	assert.Equal(t, existing.ID, jobs.jobs[0].CompanyID)
	assert.NotContains(t, dir.created, "company:acme-robotics-gmbh")
}

func TestSaveJobPicksLargestOverlap(t *testing.T) {
	dir := newFakeDirectory()
	dir.seed(KindCompany, 7, "Acme Consulting")
	best := dir.seed(KindCompany, 7, "Acme Robotics Europe")
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	v := domain.Vacancy{Title: "Engineer", EmployerName: "Acme Robotics Ltd", SourceBoard: "remotive"}
	require.NoError(t, m.SaveJob(context.Background(), v, 7, 3, match.Score{Score: 75}))

	assert.Equal(t, best.ID, jobs.jobs[0].CompanyID)
}

func TestSaveJobNoOverlapCreatesNew(t *testing.T) {
	dir := newFakeDirectory()
	dir.seed(KindCompany, 7, "Globex")
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	v := domain.Vacancy{Title: "Engineer", EmployerName: "Initech", SourceBoard: "remotive"}
	require.NoError(t, m.SaveJob(context.Background(), v, 7, 3, match.Score{Score: 75}))

	assert.Contains(t, dir.created, "company:initech")
}

func TestSaveJobScopesUserEntities(t *testing.T) {
	dir := newFakeDirectory()
	other := dir.seed(KindCompany, 99, "Acme Robotics")
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	v := domain.Vacancy{Title: "Engineer", EmployerName: "Acme Robotics", SourceBoard: "remotive"}
	require.NoError(t, m.SaveJob(context.Background(), v, 7, 3, match.Score{Score: 75}))

	assert.NotEqual(t, other.ID, jobs.jobs[0].CompanyID, "entities from other users must not leak")
	assert.Contains(t, dir.created, "company:acme-robotics")
}

func TestSaveJobFallbacksForMissingFields(t *testing.T) {
	dir := newFakeDirectory()
	jobs := &fakeJobStore{}
	m := testMapper(dir, jobs)

	require.NoError(t, m.SaveJob(context.Background(), domain.Vacancy{}, 7, 3, match.Score{Score: 75}))

	assert.Contains(t, dir.created, "company:unknown-company")
	assert.Contains(t, dir.created, "job_title:job-posting")
	assert.Contains(t, dir.created, "location:unknown")
	assert.Contains(t, dir.created, "job_source:manual")
}

func TestSaveJobInsertFailureSurfaces(t *testing.T) {
	dir := newFakeDirectory()
	jobs := &fakeJobStore{err: fmt.Errorf("disk full")}
	m := testMapper(dir, jobs)

	err := m.SaveJob(context.Background(), domain.Vacancy{Title: "X", SourceBoard: "remotive"}, 7, 3, match.Score{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert job")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "acme-robotics-inc", Slugify("  Acme Robotics, Inc. "))
	assert.Equal(t, "senior-go-engineer", Slugify("Senior Go Engineer"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestKeywordsDropsStopWordsAndShortTokens(t *testing.T) {
	assert.Equal(t, []string{"acme", "robotics"}, Keywords("The Acme Robotics Inc"))
	assert.Empty(t, Keywords("Inc LLC Co"))
}
