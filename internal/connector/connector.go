// Package connector defines the canonical job-board contract. One connector
// per board; all expected provider failures come back as *Error values, never
// panics.
package connector

import (
	"context"
	"fmt"
	"time"

	"jobscout-engine/internal/domain"
)

type ErrorKind string

const (
	KindBlocked     ErrorKind = "blocked"      // captcha, login wall, WAF
	KindRateLimited ErrorKind = "rate_limited" // provider throttling or local capacity
	KindNetwork     ErrorKind = "network"      // transport, timeout, open circuit
	KindParse       ErrorKind = "parse"        // payload didn't look like we expect
)

// Error is the closed failure union for connectors. The runner maps each kind
// straight to a terminal run status.
type Error struct {
	Kind       ErrorKind
	Reason     string        // blocked: human-readable cause
	RetryAfter time.Duration // rate_limited: provider hint, zero if unknown
	Message    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBlocked:
		return fmt.Sprintf("connector blocked: %s", e.Reason)
	case KindRateLimited:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("connector rate limited (retry after %s)", e.RetryAfter)
		}
		return "connector rate limited"
	default:
		return fmt.Sprintf("connector %s: %s", e.Kind, e.Message)
	}
}

func Blocked(reason string) *Error          { return &Error{Kind: KindBlocked, Reason: reason} }
func RateLimited(after time.Duration) *Error { return &Error{Kind: KindRateLimited, RetryAfter: after} }
func NetworkErr(format string, args ...any) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf(format, args...)}
}
func ParseErr(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// SearchCriteria is what an automation asks a board for. Params carries
// board-specific settings the orchestrator never interprets.
type SearchCriteria struct {
	Keywords string
	Location string
	Params   map[string]string
}

// Connector adapts one job board. Implementations are stateless with respect
// to runs and safe for concurrent use. Returned errors are either *Error for
// expected provider failures or plain errors for bugs.
type Connector interface {
	ID() string
	Search(ctx context.Context, criteria SearchCriteria) ([]domain.Vacancy, error)
	GetDetails(ctx context.Context, externalID string) (domain.Vacancy, error)
}
