package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"jobscout-engine/internal/resilience"
)

const userAgent = "JobScout/1.0 (+local)"

// HTTPClient is the outbound call helper every board connector shares: host
// pacing, the resilience stack, and the mapping from call failures onto the
// connector error taxonomy.
type HTTPClient struct {
	HC      *http.Client
	Policy  *resilience.Policy
	Limiter *resilience.HostLimiter
}

func NewHTTPClient(policy *resilience.Policy, limiter *resilience.HostLimiter) *HTTPClient {
	return &HTTPClient{
		HC:      &http.Client{Timeout: 20 * time.Second},
		Policy:  policy,
		Limiter: limiter,
	}
}

// GetJSON fetches rawURL through the policy stack and decodes the body into
// out. All expected failures come back as *Error.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, out any) *Error {
	if c.Limiter != nil {
		if err := c.Limiter.WaitURL(ctx, rawURL); err != nil {
			return NetworkErr("rate wait: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return NetworkErr("build request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	hc := c.HC
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := c.Policy.Do(ctx, hc, req)
	if err != nil {
		return fromCallError(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Blocked(fmt.Sprintf("provider returned http %d", resp.StatusCode))
	default:
		return NetworkErr("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ParseErr("decode response: %v", err)
	}
	return nil
}

// fromCallError translates resilience-layer failures into the closed union.
// A full bulkhead counts as rate limiting: we ran out of capacity, the board
// didn't fail.
func fromCallError(err error) *Error {
	switch {
	case resilience.IsBulkheadFull(err):
		return RateLimited(0)
	case resilience.IsTimeout(err):
		return NetworkErr("call timed out: %v", err)
	case resilience.IsCircuitOpen(err):
		return NetworkErr("circuit open: %v", err)
	}
	var se *resilience.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return RateLimited(se.RetryAfter)
		}
		return NetworkErr("upstream status %d", se.StatusCode)
	}
	return NetworkErr("%v", err)
}
