package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/harmonia-labs/canvas-adapter/internal/api"
	"github.com/harmonia-labs/canvas-adapter/internal/auth"
	"github.com/harmonia-labs/canvas-adapter/internal/cache"
	"github.com/harmonia-labs/canvas-adapter/internal/canvas"
	"github.com/harmonia-labs/canvas-adapter/internal/config"
	"github.com/harmonia-labs/canvas-adapter/internal/rate"
	internalsecrets "github.com/harmonia-labs/canvas-adapter/internal/secrets"
	"github.com/harmonia-labs/canvas-adapter/internal/spotify"
	"github.com/harmonia-labs/canvas-adapter/pkg/logger"
	"github.com/harmonia-labs/canvas-adapter/pkg/secrets"
	"github.com/harmonia-labs/canvas-adapter/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [canvas-adapter]...")

	// --- Session cookie (direct config or AWS Secrets Manager) ---
	var provider secrets.Provider
	if cfg.SPDCCookie == "" && cfg.CookieSecretName != "" {
		var err error
		provider, err = secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
	}
	resolver := internalsecrets.NewCookieResolver(logg.Desugar(), provider)
	cookie, err := resolver.Resolve(ctx, cfg.SPDCCookie, cfg.CookieSecretName)
	if err != nil {
		logg.Fatalw("failed to resolve session cookie", "error", err)
	}
	logg.Infow("session cookie resolved", "value", utils.MaskSecret(cookie))

	// --- Cache gateway (Redis) ---
	gw := cache.New(logg.Desugar(), cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.CachePrefix)

	// --- Upstream client ---
	limiter := rate.New(rate.Config{RequestsPerSecond: 10, Burst: 20})
	client := spotify.NewClient(logg.Desugar(), limiter, cfg.WebBaseURL, cfg.PartnerBaseURL, cookie)

	// --- Secret table fetcher ---
	fetcher := internalsecrets.NewFetcher(
		logg.Desugar(),
		cfg.SecretsURL,
		cfg.SecretFetchTimeout,
		cfg.SecretFetchAttempts,
		cfg.SecretFetchBackoff,
	)

	var fallback internalsecrets.Table
	if cfg.SecretFallbackJSON != "" {
		if err := json.Unmarshal([]byte(cfg.SecretFallbackJSON), &fallback); err != nil {
			logg.Fatalw("invalid SECRET_FALLBACK_JSON", "error", err)
		}
		logg.Warnw("fallback secret table configured", "versions", len(fallback))
	}

	// --- Token manager ---
	tokenMgr := auth.NewManager(logg.Desugar(), fetcher, client, gw, auth.Options{
		RefreshInterval: cfg.SecretRefreshInterval,
		CacheKey:        cfg.TokenCacheKey,
		Fallback:        fallback,
	})
	if err := tokenMgr.Start(ctx); err != nil {
		logg.Fatalw("failed to initialize OTP secret", "error", err)
	}
	logg.Infow("OTP secret initialized", "version", tokenMgr.SecretVersion())

	// --- Canvas service ---
	canvasSvc := canvas.NewService(
		logg.Desugar(),
		tokenMgr,
		client,
		gw,
		cfg.CanvasTTL,
		cfg.TokenReason,
		cfg.TokenProductType,
	)

	// --- Fiber HTTP server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	})

	canvasHandler := api.NewCanvasHandler(logg.Desugar(), canvasSvc)
	api.RegisterRoutes(app, logg.Desugar(), gw, tokenMgr, canvasHandler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[canvas-adapter] running",
		"env", cfg.Env,
		"redis", cfg.RedisAddr,
		"refresh_interval", cfg.SecretRefreshInterval)

	<-ctx.Done()
	logg.Info("shutting down [canvas-adapter]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if err := gw.Close(); err != nil {
		logg.Warnw("cache.close_failed", "error", err)
	}
}
