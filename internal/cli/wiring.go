package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"lernapp-service/internal/app"
	"lernapp-service/internal/auth"
	"lernapp-service/internal/config"
	"lernapp-service/internal/infra/memory"
	"lernapp-service/internal/infra/postgres"
	redisinfra "lernapp-service/internal/infra/redis"
	"lernapp-service/internal/logging"
	"lernapp-service/internal/mail"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
}

// backends holds the connections a command opened. Close releases them.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
	bun   *bun.DB
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.bun = openBun(cfg.Postgres.URL)
	}
	return b, nil
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.bun != nil {
		_ = b.bun.Close()
	}
}

// kvStore picks the domain store for driver. A Redis store must answer a ping.
func (b *backends) kvStore(ctx context.Context, driver string) (app.KVStore, error) {
	switch driver {
	case "memory":
		return memory.NewKVStore(), nil
	case "redis":
		if b.redis == nil {
			return nil, fmt.Errorf("store driver redis needs redis.addr")
		}
		store := redisinfra.NewKVStore(b.redis)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return store, nil
	case "postgres":
		if b.bun == nil {
			return nil, fmt.Errorf("store driver postgres needs postgres.url")
		}
		return postgres.NewKVStore(b.bun), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func (b *backends) sessions(ttl time.Duration) app.SessionRepository {
	if b.redis != nil {
		return redisinfra.NewSessionStore(b.redis, ttl)
	}
	return memory.NewSessionStore()
}

func (b *backends) accounts() auth.Repository {
	if b.pool != nil {
		return postgres.NewAccountRepository(b.pool)
	}
	return memory.NewAccountRepository()
}

func newMailer(cfg config.Config, logger *slog.Logger) auth.Mailer {
	if cfg.Mail.SendGridKey != "" {
		return mail.NewSendGrid(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromEmail, cfg.Mail.ResetURL)
	}
	return mail.NewConsole(logger, cfg.Mail.ResetURL)
}
