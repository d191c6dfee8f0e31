// Package pgxdb provides a read-optimized connection pool, separate from
// the gorm handle the Revision Writer uses for transactional writes. The
// Streaming Layer uses it so a large result set can be
// iterated row-at-a-time (pgx.Rows) instead of materialized by an ORM scan,
// giving callers real backpressure.
package pgxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimatlas/bimatlas/internal/platform/envutil"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type Pool struct {
	*pgxpool.Pool
	log *logger.Logger
}

func NewFromEnv(ctx context.Context, log *logger.Logger) (*Pool, error) {
	host := envutil.Str("DB_HOST", "localhost")
	port := envutil.Str("DB_PORT", "5432")
	name := envutil.Str("DB_NAME", "bimatlas")
	user := envutil.Str("DB_USER", "postgres")
	password := envutil.Str("DB_PASSWORD", "")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxdb: parse dsn: %w", err)
	}
	cfg.MaxConns = int32(envutil.Int("DB_MAX_CONNS", 20))
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxdb: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxdb: ping: %w", err)
	}

	return &Pool{Pool: pool, log: log.With("client", "pgxdb.Pool")}, nil
}

func (p *Pool) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}
