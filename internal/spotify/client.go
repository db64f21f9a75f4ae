package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/httpclient"
	"github.com/harmonia-labs/canvas-adapter/internal/metrics"
	"github.com/harmonia-labs/canvas-adapter/internal/rate"
)

const (
	serverTimePath = "/server-time"
	tokenPath      = "/api/token"
	pathfinderPath = "/pathfinder/v1/query"

	canvasOperation = "canvas"
	// Persisted-query hash identifying the canvas operation upstream.
	canvasQueryHash = "1b1e1915481c99f4349af88268c6b49a2b601cf0db7bca8749b5dd75088486fc"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	origin    = "https://open.spotify.com"
	referer   = "https://open.spotify.com/"
)

// Client wraps low-level HTTP communication with the streaming provider's
// private web API: the server clock, the token endpoint, and the canvas
// persisted query.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	webBase string
	partner string
	cookie  string
}

// NewClient constructs an upstream client. cookie is the sp_dc session cookie
// identifying the account, passed through as an opaque credential.
func NewClient(logger *zap.Logger, limiter *rate.Limiter, webBaseURL, partnerBaseURL, cookie string) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		logger:  logger,
		exec:    httpclient.New(logger, limiter, httpClient, 0, time.Second, "spotify", statusErrorHandler(logger)),
		webBase: webBaseURL,
		partner: partnerBaseURL,
		cookie:  cookie,
	}
}

// statusErrorHandler converts non-success statuses into UpstreamErrors; the
// endpoint name is attached by the caller via tagEndpoint.
func statusErrorHandler(logger *zap.Logger) func(status int, body []byte) error {
	return func(status int, body []byte) error {
		logger.Warn("spotify.client_error",
			zap.Int("status", status),
			zap.String("body", string(body)))
		return &UpstreamError{Status: status}
	}
}

// ServerTime asks upstream for its clock and returns Unix seconds. A non-2xx
// response, transport failure, or non-numeric payload all return an error;
// the caller falls back to local time.
func (c *Client) ServerTime(ctx context.Context) (int64, error) {
	defer metrics.ObserveUpstream("server_time", time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webBase+serverTimePath, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)

	var resp ServerTimeResponse
	if err := c.exec.DoJSON(ctx, req, &resp); err != nil {
		return 0, tagEndpoint(err, "server-time")
	}

	secs, err := resp.ServerTime.Int64()
	if err != nil {
		return 0, fmt.Errorf("non-numeric server time %q: %w", resp.ServerTime.String(), err)
	}
	return secs, nil
}

// Token exchanges a signed query for a bearer token.
func (c *Client) Token(ctx context.Context, q TokenQuery) (*TokenResponse, error) {
	defer metrics.ObserveUpstream("token", time.Now())

	params := url.Values{}
	params.Set("reason", q.Reason)
	params.Set("productType", q.ProductType)
	params.Set("totp", q.TOTP)
	params.Set("totpVer", q.TOTPVersion)
	params.Set("totpServer", q.TOTPServer)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webBase+tokenPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var resp TokenResponse
	if err := c.exec.DoJSON(ctx, req, &resp); err != nil {
		return nil, tagEndpoint(err, "token")
	}
	return &resp, nil
}

// CanvasURL resolves the canvas video URL for a track via the persisted
// query. ErrNotFound when the track has no canvas.
func (c *Client) CanvasURL(ctx context.Context, bearer, trackID string) (string, error) {
	defer metrics.ObserveUpstream("canvas", time.Now())

	body, err := json.Marshal(canvasRequest{
		OperationName: canvasOperation,
		Variables:     canvasVariables{URI: "spotify:track:" + trackID},
		Extensions: canvasExtensions{
			PersistedQuery: persistedQuery{Version: 1, SHA256Hash: canvasQueryHash},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.partner+pathfinderPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	var resp canvasResponse
	if err := c.exec.DoJSON(ctx, req, &resp); err != nil {
		return "", tagEndpoint(err, "canvas")
	}

	canvasURL := resp.Data.TrackUnion.Canvas.URL
	if canvasURL == "" {
		return "", ErrNotFound
	}

	c.logger.Debug("spotify.canvas_resolved", zap.String("track_id", trackID))
	return canvasURL, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sp_dc", Value: c.cookie})
	}
}

// tagEndpoint fills in the endpoint name on UpstreamErrors built by the
// executor's error handler, which only sees status and body.
func tagEndpoint(err error, endpoint string) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		ue.Endpoint = endpoint
		return ue
	}
	return err
}
