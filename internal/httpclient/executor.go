package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/rate"
)

// maxBackoff caps the per-attempt retry sleep.
const maxBackoff = 30 * time.Second

// Backoff returns the retry sleep duration for the given attempt number,
// doubling from base: base, 2*base, 4*base, ...
func Backoff(base time.Duration, attempt int) time.Duration {
	d := base << attempt
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// Executor handles rate-limited, retrying HTTP execution with JSON decoding.
type Executor struct {
	logger       *zap.Logger
	limiter      *rate.Limiter
	http         *http.Client
	retryMax     int
	backoffBase  time.Duration
	tag          string
	errorHandler func(status int, body []byte) error
}

// New creates an Executor. errorHandler is called on 4xx failure responses to
// produce an endpoint-specific error. If nil, a default error is returned.
func New(
	logger *zap.Logger,
	limiter *rate.Limiter,
	httpClient *http.Client,
	retryMax int,
	backoffBase time.Duration,
	tag string,
	errorHandler func(status int, body []byte) error,
) *Executor {
	return &Executor{
		logger:       logger,
		limiter:      limiter,
		http:         httpClient,
		retryMax:     retryMax,
		backoffBase:  backoffBase,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

// DoJSON executes req with rate limiting and retries, then JSON-decodes the
// response into out. Transport failures and 5xx responses are retried with
// exponential backoff; 4xx responses are terminal.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, out any) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var lastErr error
	var lastStatus int
	var lastBody []byte
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return err
			}
			r.Body = body
		}

		start := time.Now()
		resp, err := e.http.Do(r)
		if err != nil {
			lastErr = err
			e.logger.Warn(e.tag+".http_failed",
				zap.String("url", req.URL.String()),
				zap.Error(err),
				zap.Int("attempt", attempt))
			sleep(ctx, Backoff(e.backoffBase, attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)

		if resp.StatusCode >= 500 {
			e.logger.Warn(e.tag+".server_error",
				zap.Int("status", resp.StatusCode),
				zap.String("url", req.URL.String()),
				zap.Duration("latency", elapsed))
			lastErr = fmt.Errorf("%s server error: %d", e.tag, resp.StatusCode)
			lastStatus = resp.StatusCode
			lastBody = body
			sleep(ctx, Backoff(e.backoffBase, attempt))
			continue
		}

		if resp.StatusCode >= 400 {
			if e.errorHandler != nil {
				return e.errorHandler(resp.StatusCode, body)
			}
			return fmt.Errorf("%s returned %d", e.tag, resp.StatusCode)
		}

		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				e.logger.Warn(e.tag+".decode_failed",
					zap.Error(err),
					zap.String("url", req.URL.String()))
				return fmt.Errorf("decode failed: %w", err)
			}
		}

		e.logger.Debug(e.tag+".http_success",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))

		return nil
	}

	if lastStatus >= 500 && e.errorHandler != nil {
		return e.errorHandler(lastStatus, lastBody)
	}
	return fmt.Errorf("%s request failed after %d attempts: %w", e.tag, e.retryMax+1, lastErr)
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
