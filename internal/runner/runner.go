// Package runner executes one automation end to end: search, dedupe, score,
// save. Every run gets exactly one persisted terminal state, even when a stage
// panics, and the automation is rescheduled no matter how the run ended.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/match"
	"jobscout-engine/internal/schedule"
)

// maxJobsPerRun caps scoring calls per run; overflow candidates are dropped
// silently, not counted as errors.
const maxJobsPerRun = 10

// Store is the persistence slice the runner drives directly.
type Store interface {
	CreateRun(ctx context.Context, run *domain.AutomationRun) error
	FinalizeRun(ctx context.Context, run *domain.AutomationRun) error
	GetResume(ctx context.Context, id int64) (*domain.Resume, error)
	RescheduleAutomation(ctx context.Context, id int64, lastRunAt time.Time, nextRunAt *time.Time) error
}

type Deduper interface {
	Filter(ctx context.Context, userID int64, candidates []domain.Vacancy) ([]domain.Vacancy, error)
}

type Matcher interface {
	Match(ctx context.Context, v domain.Vacancy, r *domain.Resume) (match.Score, error)
}

type Saver interface {
	SaveJob(ctx context.Context, v domain.Vacancy, userID, automationID int64, score match.Score) error
}

type Publisher interface {
	Publish(evt events.Event)
}

type Runner struct {
	registry *connector.Registry
	store    Store
	dedup    Deduper
	matcher  Matcher
	saver    Saver
	hub      Publisher
	now      func() time.Time
}

func New(registry *connector.Registry, store Store, dedup Deduper, matcher Matcher, saver Saver, hub Publisher) *Runner {
	return &Runner{
		registry: registry,
		store:    store,
		dedup:    dedup,
		matcher:  matcher,
		saver:    saver,
		hub:      hub,
		now:      time.Now,
	}
}

// Result mirrors the persisted run record for the caller.
type Result struct {
	RunID         string
	Status        domain.RunStatus
	Counts        domain.RunCounts
	ErrorMessage  string
	BlockedReason string
}

// RunAutomation runs the full pipeline for one automation. The run record is
// created up front in "running" and finalized exactly once on every path out,
// panics included. The automation is rescheduled afterwards regardless of the
// run's outcome; a run that failed today still runs tomorrow.
func (r *Runner) RunAutomation(ctx context.Context, a *domain.Automation) (res Result) {
	startedAt := r.now()
	run := &domain.AutomationRun{
		ID:           uuid.NewString(),
		AutomationID: a.ID,
		Status:       domain.RunRunning,
		StartedAt:    startedAt,
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		log.Printf("[runner] automation=%d create run: %v", a.ID, err)
		return Result{Status: domain.RunFailed, ErrorMessage: fmt.Sprintf("create run: %v", err)}
	}
	r.hub.Publish(events.RunStarted(run))
	log.Printf("[runner] automation=%d run=%s started board=%s", a.ID, run.ID, a.JobBoard)

	defer func() {
		if p := recover(); p != nil {
			run.Status = domain.RunFailed
			run.ErrorMessage = fmt.Sprintf("panic: %v", p)
			log.Printf("[runner] automation=%d run=%s panic: %v", a.ID, run.ID, p)
		}
		completedAt := r.now()
		run.CompletedAt = &completedAt
		if err := r.store.FinalizeRun(ctx, run); err != nil {
			log.Printf("[runner] automation=%d run=%s finalize: %v", a.ID, run.ID, err)
		}
		next := schedule.NextRunAt(r.now(), a.ScheduleHour)
		if err := r.store.RescheduleAutomation(ctx, a.ID, startedAt, &next); err != nil {
			log.Printf("[runner] automation=%d reschedule: %v", a.ID, err)
		}
		r.hub.Publish(events.RunFinished(run))
		log.Printf("[runner] automation=%d run=%s finished status=%s searched=%d deduped=%d processed=%d matched=%d saved=%d",
			a.ID, run.ID, run.Status, run.Counts.Searched, run.Counts.Deduplicated,
			run.Counts.Processed, run.Counts.Matched, run.Counts.Saved)

		res = Result{
			RunID:         run.ID,
			Status:        run.Status,
			Counts:        run.Counts,
			ErrorMessage:  run.ErrorMessage,
			BlockedReason: run.BlockedReason,
		}
	}()

	r.execute(ctx, a, run)
	return
}

// execute mutates run into its terminal state.
func (r *Runner) execute(ctx context.Context, a *domain.Automation, run *domain.AutomationRun) {
	resume, err := r.store.GetResume(ctx, a.ResumeID)
	if err != nil {
		run.Status = domain.RunFailed
		run.ErrorMessage = fmt.Sprintf("resume_missing: %v", err)
		return
	}

	conn, err := r.registry.Create(a.JobBoard)
	if err != nil {
		run.Status = domain.RunFailed
		run.ErrorMessage = err.Error()
		return
	}

	vacancies, err := conn.Search(ctx, connector.SearchCriteria{
		Keywords: a.Keywords,
		Location: a.Location,
		Params:   a.ConnectorParams,
	})
	if err != nil {
		run.Status, run.ErrorMessage, run.BlockedReason = searchFailure(err)
		return
	}
	run.Counts.Searched = len(vacancies)

	fresh, err := r.dedup.Filter(ctx, a.UserID, vacancies)
	if err != nil {
		run.Status = domain.RunFailed
		run.ErrorMessage = fmt.Sprintf("dedup: %v", err)
		return
	}
	run.Counts.Deduplicated = len(fresh)

	selected := fresh
	if len(selected) > maxJobsPerRun {
		log.Printf("[runner] run=%s capping candidates %d -> %d", run.ID, len(selected), maxJobsPerRun)
		selected = selected[:maxJobsPerRun]
	}

	aborted := false
	for _, v := range selected {
		score, err := r.matcher.Match(ctx, v, resume)
		if err != nil {
			var me *match.Error
			if errors.As(err, &me) && me.Kind == match.KindBackendUnreachable {
				run.ErrorMessage = fmt.Sprintf("scoring backend unreachable: %s", me.Message)
				aborted = true
				break
			}
			log.Printf("[runner] run=%s score url=%q: %v", run.ID, v.SourceURL, err)
			continue
		}
		run.Counts.Processed++

		if score.Score < a.MatchThreshold {
			continue
		}
		run.Counts.Matched++

		if err := r.saver.SaveJob(ctx, v, a.UserID, a.ID, score); err != nil {
			log.Printf("[runner] run=%s save url=%q: %v", run.ID, v.SourceURL, err)
			continue
		}
		run.Counts.Saved++
	}

	switch {
	case aborted:
		run.Status = domain.RunFailed
	case run.Counts.Processed < len(selected) || run.Counts.Saved < run.Counts.Matched:
		run.Status = domain.RunCompletedWithErrors
	default:
		run.Status = domain.RunCompleted
	}
}

// searchFailure maps a connector error onto the run's terminal state.
func searchFailure(err error) (domain.RunStatus, string, string) {
	var ce *connector.Error
	if !errors.As(err, &ce) {
		return domain.RunFailed, fmt.Sprintf("search: %v", err), ""
	}
	switch ce.Kind {
	case connector.KindBlocked:
		return domain.RunBlocked, "", ce.Reason
	case connector.KindRateLimited:
		return domain.RunRateLimited, ce.Error(), ""
	default:
		return domain.RunFailed, ce.Error(), ""
	}
}
