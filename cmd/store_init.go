package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/metrics"
	"github.com/sells-group/pump-selector/internal/mirror"
	"github.com/sells-group/pump-selector/internal/resilience"
	"github.com/sells-group/pump-selector/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "pump-selector.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initMirror returns the mirror client, or nil when mirroring is not
// configured.
func initMirror(rec metrics.Recorder) (*mirror.Client, error) {
	m := cfg.Mirror
	if m.BaseURL == "" {
		return nil, nil
	}
	c, err := mirror.New(mirror.Options{
		BaseURL:    m.BaseURL,
		Token:      m.Token,
		RatePerSec: m.RatePerSec,
		Timeout:    time.Duration(m.TimeoutSecs) * time.Second,
		Retry:      resilience.FromRetryConfig(m.Retry.MaxAttempts, m.Retry.InitialBackoffMs, m.Retry.MaxBackoffMs),
		Circuit:    resilience.FromCircuitConfig(m.Circuit.FailureThreshold, m.Circuit.ResetTimeoutSecs),
		Recorder:   rec,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("mirror configured", zap.String("base_url", m.BaseURL))
	return c, nil
}
