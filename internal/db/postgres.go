// PostgreSQL connection bootstrap.
//
// DATABASE_URL wins when set; otherwise the URL is assembled from the
// PGHOST/PGPORT/PGUSER/PGPASSWORD/PGDATABASE/PGSSLMODE values in config.

package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/thala/backend/internal/config"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{Pool: pool}
}

func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dsn, err := buildPostgresURL(cfg)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates every table the service owns.
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	if err := db.EnsureAccountSchema(ctx); err != nil {
		return fmt.Errorf("accounts schema: %w", err)
	}
	if err := db.EnsureFeedbackSchema(ctx); err != nil {
		return fmt.Errorf("feedback schema: %w", err)
	}
	if err := db.EnsureVideoSchema(ctx); err != nil {
		return fmt.Errorf("videos schema: %w", err)
	}
	return nil
}

func (db *Postgres) execAll(ctx context.Context, queries []string) error {
	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func buildPostgresURL(cfg config.PostgresConfig) (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}

	if cfg.User == "" || cfg.Database == "" {
		return "", fmt.Errorf("missing required env: DATABASE_URL or PGUSER/PGDATABASE")
	}

	host := fallback(cfg.Host, "localhost")
	port := fallback(cfg.Port, "5432")

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   cfg.Database,
	}
	if cfg.Password == "" {
		u.User = url.User(cfg.User)
	} else {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := u.Query()
	q.Set("sslmode", fallback(cfg.SSLMode, "disable"))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func fallback(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports a unique constraint failure (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
