package api

import (
	"context"
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/auth"
	"github.com/harmonia-labs/canvas-adapter/internal/spotify"
)

// trackIDPattern matches base62 track identifiers.
var trackIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{10,40}$`)

// CanvasService resolves a track's canvas URL.
type CanvasService interface {
	Lookup(ctx context.Context, trackID string) (string, error)
}

// CanvasHandler handles HTTP API requests for canvas lookups.
type CanvasHandler struct {
	logger  *zap.Logger
	service CanvasService
}

// NewCanvasHandler creates a new CanvasHandler.
func NewCanvasHandler(logger *zap.Logger, service CanvasService) *CanvasHandler {
	return &CanvasHandler{
		logger:  logger,
		service: service,
	}
}

// GetCanvas resolves the canvas URL for the track in the path. Callers that
// accept application/json get a JSON body; everyone else gets a redirect to
// the resolved URL.
func (h *CanvasHandler) GetCanvas(c *fiber.Ctx) error {
	trackID := c.Params("trackID")
	if !trackIDPattern.MatchString(trackID) {
		return c.Status(fiber.StatusBadRequest).JSON(CanvasResponse{
			TrackID:  trackID,
			ErrorMsg: "invalid track id",
		})
	}

	url, err := h.service.Lookup(c.Context(), trackID)
	if err != nil {
		return h.lookupError(c, trackID, err)
	}

	if c.Accepts("application/json") != "" {
		return c.Status(fiber.StatusOK).JSON(CanvasResponse{
			TrackID:   trackID,
			CanvasURL: url,
		})
	}
	return c.Redirect(url, fiber.StatusFound)
}

func (h *CanvasHandler) lookupError(c *fiber.Ctx, trackID string, err error) error {
	if errors.Is(err, spotify.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(CanvasResponse{
			TrackID:  trackID,
			ErrorMsg: "no canvas for track",
		})
	}

	h.logger.Error("canvas.lookup_failed",
		zap.String("track_id", trackID),
		zap.Error(err))

	var tokenErr *auth.TokenError
	var upstreamErr *spotify.UpstreamError
	if errors.As(err, &tokenErr) || errors.As(err, &upstreamErr) {
		return c.Status(fiber.StatusBadGateway).JSON(CanvasResponse{
			TrackID:  trackID,
			ErrorMsg: "upstream failure",
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(CanvasResponse{
		TrackID:  trackID,
		ErrorMsg: "internal error",
	})
}
