package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/cache"
	"github.com/gamex/gamex-cli/internal/config"
	"github.com/gamex/gamex-cli/internal/events"
	"github.com/gamex/gamex-cli/internal/session"
	"github.com/gamex/gamex-cli/internal/telemetry"
)

// app holds the resources of one CLI run. Everything that can fail or
// touch the network is opened on first use, so commands like "games list"
// never open the keyring or dial redis.
type app struct {
	cfg         config.Config
	metrics     *telemetry.Metrics
	metricsFile string

	mu        sync.Mutex
	rdb       redis.UniversalClient
	store     session.Store
	client    *api.Client
	cache     cache.Cache
	publisher events.Publisher
	shutdown  func(context.Context) error
}

// Replaced in tests.
var (
	openSessionStore = defaultSessionStore
	openPublisher    = defaultPublisher
)

func newApp(ctx context.Context, cfg config.Config, metricsFile string) *app {
	a := &app{cfg: cfg, metrics: telemetry.NewMetrics(), metricsFile: metricsFile}
	shutdown, err := telemetry.SetupTracing(ctx)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		a.shutdown = shutdown
	}
	return a
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(cmd *cobra.Command) (*app, error) {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok && a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("command context is not initialized")
}

func defaultSessionStore(a *app) (session.Store, error) {
	switch a.cfg.SessionBackend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendRedis:
		return session.NewRedisStore(a.redisClient(), a.cfg.Profile), nil
	default:
		ring, err := config.OpenKeyring()
		if err != nil {
			return nil, err
		}
		return session.NewKeyringStore(ring, a.cfg.Profile), nil
	}
}

func defaultPublisher(a *app) events.Publisher {
	if !a.cfg.EventsEnabled() {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
}

// redisClient must be called with mu held.
func (a *app) redisClient() redis.UniversalClient {
	if a.rdb == nil {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
	}
	return a.rdb
}

// Store returns the session store for the active profile.
func (a *app) Store() (session.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		store, err := openSessionStore(a)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		a.store = store
	}
	return a.store, nil
}

// Token implements api.TokenSource. The store is opened on the first
// authenticated call only.
func (a *app) Token() (string, error) {
	store, err := a.Store()
	if err != nil {
		return "", err
	}
	return store.Token()
}

// Client returns the API client bound to the session.
func (a *app) Client() *api.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		a.client = api.New(a.cfg.BaseURL, a,
			api.WithTimeout(a.cfg.Timeout),
			api.WithUserAgent("gamex-cli/"+version),
			api.WithMetrics(a.metrics),
		)
	}
	return a.client
}

// Cache returns the cache for the configured backend: product listings and
// the last status seen per deposit.
func (a *app) Cache() cache.Cache {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cache == nil {
		switch a.cfg.CacheBackend {
		case config.BackendNone:
			a.cache = cache.Nop{}
		case config.BackendRedis:
			a.cache = cache.NewRedisStore(a.redisClient(), a.cfg.BaseURL, a.cfg.CacheTTL)
		default:
			a.cache = cache.NewFileStore(a.cfg.CacheDir, a.cfg.BaseURL, a.cfg.CacheTTL)
		}
	}
	return a.cache
}

// Publish sends an event. Failures are logged and never fail the command:
// the order or deposit already exists on the backend.
func (a *app) Publish(ctx context.Context, e events.Event) {
	a.mu.Lock()
	if a.publisher == nil {
		a.publisher = openPublisher(a)
	}
	p := a.publisher
	a.mu.Unlock()

	e.Profile = a.cfg.Profile
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("event not published", "type", e.Type, "id", e.ID, "error", err)
	}
}

// Close releases everything the run opened and writes the metrics file.
func (a *app) Close(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		a.client.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if err := a.metrics.WriteTextfile(a.metricsFile); err != nil {
		slog.Warn("failed to write metrics file", "path", a.metricsFile, "error", err)
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			slog.Debug("trace shutdown failed", "error", err)
		}
	}
}
