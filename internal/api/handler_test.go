package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/auth"
	"github.com/harmonia-labs/canvas-adapter/internal/spotify"
)

type stubService struct {
	url   string
	err   error
	calls int
}

func (s *stubService) Lookup(ctx context.Context, trackID string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func newTestApp(svc CanvasService) *fiber.App {
	app := fiber.New()
	h := NewCanvasHandler(zap.NewNop(), svc)
	app.Get("/canvas/:trackID", h.GetCanvas)
	return app
}

const testTrackID = "4uLU6hMCjMI75M1A2tKUQC"

func TestGetCanvas_JSONWhenAccepted(t *testing.T) {
	app := newTestApp(&stubService{url: "https://cdn/canvas.mp4"})

	req := httptest.NewRequest("GET", "/canvas/"+testTrackID, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var cr CanvasResponse
	require.NoError(t, json.Unmarshal(body, &cr))
	assert.Equal(t, testTrackID, cr.TrackID)
	assert.Equal(t, "https://cdn/canvas.mp4", cr.CanvasURL)
}

func TestGetCanvas_RedirectOtherwise(t *testing.T) {
	app := newTestApp(&stubService{url: "https://cdn/canvas.mp4"})

	req := httptest.NewRequest("GET", "/canvas/"+testTrackID, nil)
	req.Header.Set("Accept", "video/mp4")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://cdn/canvas.mp4", resp.Header.Get("Location"))
}

func TestGetCanvas_InvalidTrackID(t *testing.T) {
	svc := &stubService{url: "https://cdn/canvas.mp4"}
	app := newTestApp(svc)

	req := httptest.NewRequest("GET", "/canvas/not%20valid!", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)
}

func TestGetCanvas_NotFound(t *testing.T) {
	app := newTestApp(&stubService{err: spotify.ErrNotFound})

	req := httptest.NewRequest("GET", "/canvas/"+testTrackID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetCanvas_TokenFailureIsBadGateway(t *testing.T) {
	app := newTestApp(&stubService{err: &auth.TokenError{Msg: "exchange failed"}})

	req := httptest.NewRequest("GET", "/canvas/"+testTrackID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestGetCanvas_UpstreamFailureIsBadGateway(t *testing.T) {
	app := newTestApp(&stubService{err: &spotify.UpstreamError{Endpoint: "canvas", Status: 500}})

	req := httptest.NewRequest("GET", "/canvas/"+testTrackID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestGetCanvas_UnknownFailureIsInternal(t *testing.T) {
	app := newTestApp(&stubService{err: errors.New("boom")})

	req := httptest.NewRequest("GET", "/canvas/"+testTrackID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
