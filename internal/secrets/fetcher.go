package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/httpclient"
)

// FetchError reports that the secret table could not be retrieved after
// exhausting all attempts.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("secret table fetch from %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves the versioned secret table from its remote source with
// bounded retries and exponential backoff.
type Fetcher struct {
	logger      *zap.Logger
	client      *http.Client
	url         string
	timeout     time.Duration
	attempts    int
	backoffBase time.Duration
}

// NewFetcher creates a Fetcher for the given URL. timeout bounds each attempt;
// attempts is the total try count; backoffBase is the first retry delay,
// doubling per attempt.
func NewFetcher(logger *zap.Logger, url string, timeout time.Duration, attempts int, backoffBase time.Duration) *Fetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{
		logger:      logger,
		client:      &http.Client{},
		url:         url,
		timeout:     timeout,
		attempts:    attempts,
		backoffBase: backoffBase,
	}
}

// Fetch retrieves and decodes the secret table. Transport errors, non-2xx
// statuses, and malformed 200 bodies all count as attempt failures alike.
func (f *Fetcher) Fetch(ctx context.Context) (Table, error) {
	var lastErr error
	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			delay := httpclient.Backoff(f.backoffBase, attempt-1)
			f.logger.Warn("secrets.fetch_retry",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &FetchError{URL: f.url, Attempts: attempt, Err: ctx.Err()}
			}
		}

		table, err := f.fetchOnce(ctx)
		if err == nil {
			return table, nil
		}
		lastErr = err
	}
	return nil, &FetchError{URL: f.url, Attempts: f.attempts, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context) (Table, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("secret source returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var table Table
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("decode secret table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("secret table is empty")
	}
	return table, nil
}
