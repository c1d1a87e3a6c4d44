package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoffMin = time.Millisecond
	cfg.RetryBackoffMax = 5 * time.Millisecond
	cfg.CallTimeout = time.Second
	return cfg
}

func get(t *testing.T, p *Policy, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return p.Do(context.Background(), http.DefaultClient, req)
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := get(t, New(testConfig()), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := get(t, New(testConfig()), srv.URL)
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := get(t, New(testConfig()), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestBreakerOpensAfterFailureStreak(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreakerFailures = 5
	cfg.BreakerDelay = time.Minute
	p := New(cfg)

	// two calls x three attempts = six qualifying failures
	_, err := get(t, p, srv.URL)
	require.Error(t, err)
	_, err = get(t, p, srv.URL)
	require.Error(t, err)

	_, err = get(t, p, srv.URL)
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err), "expected open circuit, got %v", err)
}

func TestTimeoutAbandonsSlowCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.CallTimeout = 50 * time.Millisecond
	start := time.Now()
	_, err := get(t, New(cfg), srv.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBulkheadRejectsExcessCalls(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.MaxConcurrent = 1
	cfg.MaxQueueWait = time.Millisecond
	p := New(cfg)

	var rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			resp, err := p.Do(ctx, http.DefaultClient, req)
			if err != nil && IsBulkheadFull(err) {
				rejected.Add(1)
				return
			}
			if resp != nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	assert.Positive(t, rejected.Load())
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "upstream status 503", (&StatusError{StatusCode: 503}).Error())
}
