package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/catalog"
	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/internal/directory"
	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/postal"
	"github.com/pitabwire/shinsei/internal/request"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/internal/session"
)

var (
	_ postal.Recorder = (*observability.Metrics)(nil)
	_ screen.Recorder = (*observability.Metrics)(nil)
)

// loadCatalog loads the configured catalog and checks it against the
// registered form controllers.
func loadCatalog(cfg config.CatalogConfig, forms *request.Registry) (*catalog.Registry, error) {
	f, err := catalog.Load(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if verrs := catalog.Validate(f, forms.Has); len(verrs) > 0 {
		return nil, fmt.Errorf("catalog: %d problem(s), first: %w", len(verrs), verrs[0])
	}
	return catalog.NewRegistry(f), nil
}

func loadDirectory(cfg config.DirectoryConfig) (*directory.Static, error) {
	if cfg.File == "" {
		return directory.Builtin(), nil
	}
	d, err := directory.Load(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return d, nil
}

// buildSessionStore creates the session store selected by cfg.Driver. The
// returned closer is nil for the memory store.
func buildSessionStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) (session.Store, func() error, error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil, nil
	case "redis":
		addr := os.Getenv(cfg.AddrEnv)
		if addr == "" {
			return nil, nil, fmt.Errorf("session store: %s environment variable not set", cfg.AddrEnv)
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("session store: ping: %w", err)
		}
		logger.Info("using redis session store", zap.String("addr", addr), zap.Int("db", cfg.DB))
		return session.NewRedisStore(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session store driver: %q", cfg.Driver)
	}
}

// buildSigner returns the session token signer. Shared stores need a shared
// secret; a memory store may run with a random one.
func buildSigner(cfg config.SessionConfig, logger *zap.Logger) (*session.Signer, error) {
	secret := cfg.Secret
	if secret == "" {
		if cfg.Driver == "redis" {
			return nil, fmt.Errorf("session: %s must be set when sessions are shared", cfg.SecretEnv)
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("session: generating secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		logger.Warn("session secret not configured, sessions will not survive a restart",
			zap.String("env", cfg.SecretEnv))
	}
	return session.NewSigner(secret, cfg.TTL), nil
}

// postalReadiness reports the lookup service unready while its breaker is
// open.
func postalReadiness(c *postal.Client) observability.CheckFunc {
	return func(context.Context) error {
		if st := c.Breaker().State(); st == postal.BreakerOpen {
			return fmt.Errorf("postal lookups suspended: circuit %s", st)
		}
		return nil
	}
}
