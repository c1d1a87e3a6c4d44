// Package match scores a vacancy against a resume through an opaque scoring
// oracle. One oracle call per vacancy, no batching.
package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jobscout-engine/internal/domain"
)

type ErrorKind string

const (
	// KindBackendUnreachable means the scoring backend itself is down; the
	// runner aborts the whole run instead of burning calls.
	KindBackendUnreachable ErrorKind = "backend_unreachable"
	// KindCallFailed means this one scoring call failed; the runner skips the
	// candidate and moves on.
	KindCallFailed ErrorKind = "call_failed"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("match %s: %s", e.Kind, e.Message) }

func BackendUnreachable(format string, args ...any) *Error {
	return &Error{Kind: KindBackendUnreachable, Message: fmt.Sprintf(format, args...)}
}

func CallFailed(format string, args ...any) *Error {
	return &Error{Kind: KindCallFailed, Message: fmt.Sprintf(format, args...)}
}

// Score is the oracle's verdict: 0-100 plus structured rationale.
type Score struct {
	Score     int      `json:"score"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths,omitempty"`
	Gaps      []string `json:"gaps,omitempty"`
}

// RationaleJSON serializes the rationale for the job record's match_data.
func (s Score) RationaleJSON() string {
	b, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Oracle is the opaque scoring backend. Implementations return *Error for
// expected failures.
type Oracle interface {
	Score(ctx context.Context, resumeText, jobText string) (Score, error)
}

type Matcher struct {
	oracle Oracle
}

func New(oracle Oracle) *Matcher {
	return &Matcher{oracle: oracle}
}

// Match flattens the resume and vacancy to text and issues exactly one
// scoring call. The returned error, when non-nil, is always *Error.
func (m *Matcher) Match(ctx context.Context, v domain.Vacancy, r *domain.Resume) (Score, error) {
	score, err := m.oracle.Score(ctx, FlattenResume(r), VacancyText(v))
	if err != nil {
		var me *Error
		if errors.As(err, &me) {
			return Score{}, me
		}
		return Score{}, CallFailed("%v", err)
	}
	if score.Score < 0 {
		score.Score = 0
	}
	if score.Score > 100 {
		score.Score = 100
	}
	return score, nil
}

// FlattenResume renders the structured sections in a fixed order (contact,
// summary, experience, education) so an unchanged resume always produces the
// same scoring input.
func FlattenResume(r *domain.Resume) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	section := func(header, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", header, body)
	}

	section("Contact", r.Contact)
	section("Summary", r.Summary)

	var exp strings.Builder
	for _, e := range r.Experience {
		fmt.Fprintf(&exp, "%s at %s (%s)\n%s\n", e.Title, e.Company, e.Period, strings.TrimSpace(e.Description))
	}
	section("Experience", exp.String())

	var edu strings.Builder
	for _, e := range r.Education {
		fmt.Fprintf(&edu, "%s, %s (%s)\n", e.Degree, e.School, e.Period)
	}
	section("Education", edu.String())

	return strings.TrimSpace(b.String())
}

// VacancyText renders the vacancy fields the oracle should consider.
func VacancyText(v domain.Vacancy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", v.Title)
	fmt.Fprintf(&b, "Company: %s\n", v.EmployerName)
	fmt.Fprintf(&b, "Location: %s\n", v.Location)
	if v.Salary != "" {
		fmt.Fprintf(&b, "Salary: %s\n", v.Salary)
	}
	if v.EmploymentType != "" && v.EmploymentType != domain.EmploymentUndefined {
		fmt.Fprintf(&b, "Employment type: %s\n", v.EmploymentType)
	}
	if v.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", v.Description)
	}
	return b.String()
}
