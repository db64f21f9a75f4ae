package auth

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/metrics"
	"github.com/harmonia-labs/canvas-adapter/internal/otp"
	"github.com/harmonia-labs/canvas-adapter/internal/secrets"
	"github.com/harmonia-labs/canvas-adapter/internal/spotify"
)

// TableFetcher retrieves the remote secret table.
type TableFetcher interface {
	Fetch(ctx context.Context) (secrets.Table, error)
}

// TokenAPI is the slice of the upstream client the manager needs.
type TokenAPI interface {
	ServerTime(ctx context.Context) (int64, error)
	Token(ctx context.Context, q spotify.TokenQuery) (*spotify.TokenResponse, error)
}

// Cache is the token cache surface; failures degrade to miss/false.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) bool
}

// Options configures a Manager.
type Options struct {
	RefreshInterval time.Duration
	CacheKey        string
	// Fallback, when non-nil, is used in place of a failed initial remote
	// fetch. Leaving it nil makes a failed initial fetch fatal.
	Fallback secrets.Table
}

// Manager owns the rotating OTP secret and the bearer token lifecycle. The
// secret refreshes on a background timer; minted tokens are cached for their
// remaining validity window.
type Manager struct {
	logger  *zap.Logger
	fetcher TableFetcher
	api     TokenAPI
	cache   Cache
	opts    Options
	current atomic.Pointer[activeSecret]
}

// NewManager constructs a Manager. Call Start before GetToken.
func NewManager(logger *zap.Logger, fetcher TableFetcher, api TokenAPI, cache Cache, opts Options) *Manager {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 60 * time.Minute
	}
	if opts.CacheKey == "" {
		opts.CacheKey = "access_token"
	}
	return &Manager{
		logger:  logger,
		fetcher: fetcher,
		api:     api,
		cache:   cache,
		opts:    opts,
	}
}

// Start performs the initial secret refresh and launches the background
// refresh loop, which runs until ctx is canceled. When the initial fetch
// fails and no fallback table is configured the error is returned as fatal:
// minting tokens from a silently stale secret desyncs with upstream.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.refreshSecret(ctx); err != nil {
		if m.opts.Fallback == nil {
			return fmt.Errorf("initial secret refresh: %w", err)
		}
		version, raw, ok := m.opts.Fallback.Newest()
		if !ok {
			return fmt.Errorf("initial secret refresh failed and fallback table has no numeric versions: %w", err)
		}
		m.swap(version, raw)
		m.logger.Warn("auth.secret_fallback",
			zap.String("version", version),
			zap.Error(err))
	}

	go m.refreshLoop(ctx)
	return nil
}

// Ready reports whether an OTP secret has been established.
func (m *Manager) Ready() bool {
	return m.current.Load() != nil
}

// SecretVersion returns the active secret's version, or "" before init.
func (m *Manager) SecretVersion() string {
	if cur := m.current.Load(); cur != nil {
		return cur.version
	}
	return ""
}

func (m *Manager) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(m.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A secret is already active here, so failures are stale-but-usable.
			if err := m.refreshSecret(ctx); err != nil {
				metrics.IncSecretRefresh("error")
				m.logger.Warn("auth.secret_refresh_failed", zap.Error(err))
			}
		}
	}
}

// refreshSecret fetches the table and swaps in the newest version when it
// differs from the active one.
func (m *Manager) refreshSecret(ctx context.Context) error {
	table, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	version, raw, ok := table.Newest()
	if !ok {
		return fmt.Errorf("secret table has no numeric versions")
	}

	if cur := m.current.Load(); cur != nil && cur.version == version {
		metrics.IncSecretRefresh("unchanged")
		m.logger.Debug("auth.secret_unchanged", zap.String("version", version))
		return nil
	}

	m.swap(version, raw)
	metrics.IncSecretRefresh("rotated")
	return nil
}

func (m *Manager) swap(version string, raw []int) {
	m.current.Store(&activeSecret{
		secret:  secrets.Derive(raw),
		version: version,
	})
	m.logger.Info("auth.secret_rotated", zap.String("version", version))
}

// GetToken returns a valid bearer token, serving from cache when possible and
// otherwise minting one against the upstream token endpoint. Concurrent
// misses may mint duplicate tokens; both are valid and the last cache write
// wins.
func (m *Manager) GetToken(ctx context.Context, reason, productType string) (string, error) {
	if token, ok := m.cache.Get(ctx, m.opts.CacheKey); ok && token != "" {
		return token, nil
	}

	cur := m.current.Load()
	if cur == nil {
		return "", &TokenError{Msg: "otp secret not initialized"}
	}

	nowMs := time.Now().UnixMilli()

	serverSecs, err := m.api.ServerTime(ctx)
	if err != nil || serverSecs <= 0 {
		m.logger.Debug("auth.server_time_fallback", zap.Error(err))
		serverSecs = nowMs / 1000
	}

	code, err := otp.Generate(cur.secret, nowMs)
	if err != nil {
		metrics.IncTokenMint("error")
		return "", &TokenError{Msg: "generate local code", Err: err}
	}
	serverCode, err := otp.Generate(cur.secret, (serverSecs/30)*30*1000)
	if err != nil {
		metrics.IncTokenMint("error")
		return "", &TokenError{Msg: "generate server code", Err: err}
	}

	resp, err := m.api.Token(ctx, spotify.TokenQuery{
		Reason:      reason,
		ProductType: productType,
		TOTP:        code,
		TOTPVersion: cur.version,
		TOTPServer:  serverCode,
	})
	if err != nil {
		metrics.IncTokenMint("error")
		return "", &TokenError{Msg: "exchange failed", Err: err}
	}
	if resp.AccessToken == "" || resp.AccessTokenExpirationTimestampMs == 0 {
		metrics.IncTokenMint("error")
		return "", &TokenError{Msg: "upstream returned no usable token"}
	}

	// TTL comes from the expiry upstream actually reported, never assumed.
	ttl := (resp.AccessTokenExpirationTimestampMs - time.Now().UnixMilli()) / 1000
	if ttl > 0 {
		if !m.cache.SetWithTTL(ctx, m.opts.CacheKey, resp.AccessToken, time.Duration(ttl)*time.Second) {
			m.logger.Warn("auth.token_cache_failed")
		}
	}

	metrics.IncTokenMint("ok")
	m.logger.Info("auth.token_minted",
		zap.String("version", cur.version),
		zap.Int64("ttl_sec", ttl))

	return resp.AccessToken, nil
}
