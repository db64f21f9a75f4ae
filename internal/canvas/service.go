package canvas

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/metrics"
	"github.com/harmonia-labs/canvas-adapter/internal/spotify"
)

// TokenSource mints or serves a cached bearer token.
type TokenSource interface {
	GetToken(ctx context.Context, reason, productType string) (string, error)
}

// CanvasAPI is the slice of the upstream client the service needs.
type CanvasAPI interface {
	CanvasURL(ctx context.Context, bearer, trackID string) (string, error)
}

// Cache is the canvas cache surface; failures degrade to miss/false.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) bool
}

// Service resolves per-track canvas URLs cache-aside: a hit is authoritative
// and returned without revalidation; a miss queries upstream and populates
// the cache for the configured TTL.
type Service struct {
	logger      *zap.Logger
	tokens      TokenSource
	api         CanvasAPI
	cache       Cache
	ttl         time.Duration
	reason      string
	productType string
}

// NewService constructs the canvas lookup service.
func NewService(logger *zap.Logger, tokens TokenSource, api CanvasAPI, cache Cache, ttl time.Duration, reason, productType string) *Service {
	return &Service{
		logger:      logger,
		tokens:      tokens,
		api:         api,
		cache:       cache,
		ttl:         ttl,
		reason:      reason,
		productType: productType,
	}
}

// Lookup returns the canvas URL for trackID. spotify.ErrNotFound when the
// track has no canvas; auth and upstream failures propagate opaque to the
// inbound surface.
func (s *Service) Lookup(ctx context.Context, trackID string) (string, error) {
	key := "track:" + trackID

	if url, ok := s.cache.Get(ctx, key); ok {
		metrics.IncCanvasLookup("hit")
		return url, nil
	}

	token, err := s.tokens.GetToken(ctx, s.reason, s.productType)
	if err != nil {
		metrics.IncCanvasLookup("error")
		return "", err
	}

	url, err := s.api.CanvasURL(ctx, token, trackID)
	if errors.Is(err, spotify.ErrNotFound) {
		metrics.IncCanvasLookup("not_found")
		return "", err
	}
	if err != nil {
		metrics.IncCanvasLookup("error")
		return "", err
	}

	if !s.cache.SetWithTTL(ctx, key, url, s.ttl) {
		s.logger.Warn("canvas.cache_set_failed", zap.String("track_id", trackID))
	}

	metrics.IncCanvasLookup("miss")
	s.logger.Debug("canvas.resolved", zap.String("track_id", trackID))
	return url, nil
}
