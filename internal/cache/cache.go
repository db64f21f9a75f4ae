package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/harmonia-labs/canvas-adapter/internal/metrics"
)

// monitorInterval is how often a disconnected gateway probes the store.
const monitorInterval = 15 * time.Second

// Gateway is a thin key/value layer over Redis. The store is strictly an
// optimization: when it is unreachable every operation degrades to a miss or
// a false result instead of surfacing an error, so callers fall through to
// the slow path.
type Gateway struct {
	logger    *zap.Logger
	rdb       *redis.Client
	prefix    string
	connected atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// New creates a Gateway connected to the given Redis instance. All keys are
// namespaced under prefix. A failed initial ping is logged, not fatal; the
// gateway keeps probing in the background and recovers when the store does.
func New(logger *zap.Logger, addr string, db int, password, prefix string) *Gateway {
	g := &Gateway{
		logger: logger,
		prefix: prefix,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	g.rdb = redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: password,
		OnConnect: func(ctx context.Context, cn *redis.Conn) error {
			g.connected.Store(true)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := g.rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("cache.unreachable", zap.String("addr", addr), zap.Error(err))
		g.connected.Store(false)
	} else {
		g.connected.Store(true)
	}

	go g.monitor()
	return g
}

// Connected reports whether the store was reachable at last contact.
func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

// Get returns the value for key and whether it was present. Disconnection,
// expiry, and store errors all read as a miss.
func (g *Gateway) Get(ctx context.Context, key string) (string, bool) {
	if !g.connected.Load() {
		return "", false
	}
	val, err := g.rdb.Get(ctx, g.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		g.fail("get", key, err)
		return "", false
	}
	return val, true
}

// SetWithTTL stores value under key with the given TTL and reports success.
func (g *Gateway) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) bool {
	if !g.connected.Load() {
		return false
	}
	if err := g.rdb.Set(ctx, g.key(key), value, ttl).Err(); err != nil {
		g.fail("set", key, err)
		return false
	}
	return true
}

// Delete removes key and reports success.
func (g *Gateway) Delete(ctx context.Context, key string) bool {
	if !g.connected.Load() {
		return false
	}
	if err := g.rdb.Del(ctx, g.key(key)).Err(); err != nil {
		g.fail("delete", key, err)
		return false
	}
	return true
}

// Exists reports whether key is present. Absence means "unknown", not "false".
func (g *Gateway) Exists(ctx context.Context, key string) bool {
	if !g.connected.Load() {
		return false
	}
	n, err := g.rdb.Exists(ctx, g.key(key)).Result()
	if err != nil {
		g.fail("exists", key, err)
		return false
	}
	return n > 0
}

// TTL returns the remaining lifetime of key, or -1 when the store is
// unreachable or errored.
func (g *Gateway) TTL(ctx context.Context, key string) time.Duration {
	if !g.connected.Load() {
		return -1
	}
	d, err := g.rdb.TTL(ctx, g.key(key)).Result()
	if err != nil {
		g.fail("ttl", key, err)
		return -1
	}
	return d
}

// Close stops the connectivity monitor and releases the client.
func (g *Gateway) Close() error {
	close(g.stop)
	<-g.done
	return g.rdb.Close()
}

func (g *Gateway) key(k string) string {
	return g.prefix + ":" + k
}

// fail records a store error and flips the gateway to disconnected; the
// monitor flips it back once the store answers pings again.
func (g *Gateway) fail(op, key string, err error) {
	metrics.IncCacheError(op)
	g.logger.Warn("cache."+op+"_failed", zap.String("key", g.key(key)), zap.Error(err))
	g.connected.Store(false)
}

func (g *Gateway) monitor() {
	defer close(g.done)
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			if g.connected.Load() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := g.rdb.Ping(ctx).Err()
			cancel()
			if err == nil {
				g.connected.Store(true)
				g.logger.Info("cache.reconnected")
			}
		}
	}
}
