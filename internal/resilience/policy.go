// Package resilience wraps outbound connector HTTP calls with retry, circuit
// breaking, a cooperative timeout and a bulkhead, composed in that order so a
// retryable failure is retried before it can escalate to an open circuit.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/bulkhead"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"
)

type Config struct {
	MaxAttempts     int           // total tries per call, including the first
	RetryBackoffMin time.Duration // first retry delay; doubles up to max
	RetryBackoffMax time.Duration
	BreakerFailures uint          // consecutive qualifying failures before the circuit opens
	BreakerDelay    time.Duration // how long the circuit stays open before half-open
	CallTimeout     time.Duration
	MaxConcurrent   uint          // bulkhead width
	MaxQueueWait    time.Duration // how long excess calls may wait before rejection
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		RetryBackoffMin: 500 * time.Millisecond,
		RetryBackoffMax: 8 * time.Second,
		BreakerFailures: 5,
		BreakerDelay:    30 * time.Second,
		CallTimeout:     15 * time.Second,
		MaxConcurrent:   5,
		MaxQueueWait:    2 * time.Second,
	}
}

// StatusError marks a 5xx/429 response so the retry and breaker policies can
// treat it as a qualifying failure without callers losing the status code.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration // from the Retry-After header, zero if absent
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.StatusCode)
}

// Policy is safe for concurrent use; one instance guards one upstream host so
// breaker and bulkhead state is shared across a connector's pagination loop.
type Policy struct {
	executor failsafe.Executor[*http.Response]
}

func New(cfg Config) *Policy {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}

	retry := retrypolicy.Builder[*http.Response]().
		HandleIf(func(_ *http.Response, err error) bool { return isRetryable(err) }).
		WithBackoff(cfg.RetryBackoffMin, cfg.RetryBackoffMax).
		WithMaxRetries(cfg.MaxAttempts - 1).
		ReturnLastFailure().
		Build()

	breaker := circuitbreaker.Builder[*http.Response]().
		HandleIf(func(_ *http.Response, err error) bool { return isRetryable(err) }).
		WithFailureThreshold(cfg.BreakerFailures).
		WithDelay(cfg.BreakerDelay).
		Build()

	to := timeout.With[*http.Response](cfg.CallTimeout)

	bh := bulkhead.Builder[*http.Response](cfg.MaxConcurrent).
		WithMaxWaitTime(cfg.MaxQueueWait).
		Build()

	// outermost first: retry > breaker > timeout > bulkhead
	return &Policy{executor: failsafe.NewExecutor(retry, breaker, to, bh)}
}

// Do issues req through the policy stack using client. A 5xx or 429 response
// is consumed and surfaced as *StatusError; every other response, including
// 4xx, is returned to the caller untouched.
func (p *Policy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	return p.executor.WithContext(ctx).GetWithExecution(
		func(exec failsafe.Execution[*http.Response]) (*http.Response, error) {
			resp, err := client.Do(req.Clone(exec.Context()))
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
				_ = resp.Body.Close()
				return nil, &StatusError{
					StatusCode: resp.StatusCode,
					RetryAfter: retryAfter(resp),
				}
			}
			return resp, nil
		})
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// isRetryable covers the "5xx/429-equivalent" set: qualifying status codes and
// transport failures. Policy-level errors (open circuit, full bulkhead,
// exceeded timeout) and context cancellation never retry.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, circuitbreaker.ErrOpen) ||
		errors.Is(err, bulkhead.ErrFull) ||
		errors.Is(err, timeout.ErrExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// IsCircuitOpen reports a call rejected because the breaker is open.
func IsCircuitOpen(err error) bool { return errors.Is(err, circuitbreaker.ErrOpen) }

// IsBulkheadFull reports a call rejected for lack of capacity; callers treat
// this the same as being rate limited.
func IsBulkheadFull(err error) bool { return errors.Is(err, bulkhead.ErrFull) }

// IsTimeout reports the cooperative timeout firing (the in-flight request was
// abandoned).
func IsTimeout(err error) bool { return errors.Is(err, timeout.ErrExceeded) }
