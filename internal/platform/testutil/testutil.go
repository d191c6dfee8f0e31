// Package testutil provides the shared Postgres/Neo4j test fixtures used
// across repo, catalog, ingest, query, and stream tests — real backends, gated by env
// vars, skipped (not faked) when unavailable.
package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/bimatlas/bimatlas/internal/data/db"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/platform/pgxdb"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	pg     *gorm.DB
	pgErr  error

	pgxOnce sync.Once
	pgxPool *pgxdb.Pool
	pgxErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a process-wide migrated Postgres handle, skipping the test if
// TEST_POSTGRES_DSN is unset.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			pgErr = errMissingDSN
			return
		}
		var err error
		pg, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			pgErr = err
			return
		}
		if err := db.AutoMigrateAll(pg); err != nil {
			pgErr = err
			return
		}
		if err := db.EnsureProductIndexes(pg); err != nil {
			pgErr = err
			return
		}
	})
	if errors.Is(pgErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run Postgres-backed tests")
	}
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pg
}

// Pgx returns a process-wide pgx pool against the same TEST_POSTGRES_DSN
// database as DB, for tests that need a cursor-based reader on a
// connection independent of any gorm transaction (the Streaming Layer
// reads committed rows, not a transaction-per-test's uncommitted ones).
func Pgx(tb testing.TB) *pgxdb.Pool {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run Postgres-backed tests")
	}
	pgxOnce.Do(func() {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			pgxErr = err
			return
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			pgxErr = err
			return
		}
		pgxPool = &pgxdb.Pool{Pool: pool}
	})
	if pgxErr != nil {
		tb.Fatalf("failed to init test pgx pool: %v", pgxErr)
	}
	return pgxPool
}

// Tx begins a transaction that is rolled back in Cleanup, so tests never
// leave rows behind.
func Tx(tb testing.TB, conn *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := conn.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() { _ = tx.Rollback().Error })
	return tx
}

// Neo4j returns a driver for TEST_NEO4J_URI, skipping the test if unset.
func Neo4j(tb testing.TB) neo4j.DriverWithContext {
	tb.Helper()
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		tb.Skip("set TEST_NEO4J_URI to run Neo4j-backed tests")
	}
	user := os.Getenv("TEST_NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, os.Getenv("TEST_NEO4J_PASSWORD"), ""))
	if err != nil {
		tb.Fatalf("neo4j driver: %v", err)
	}
	tb.Cleanup(func() { _ = driver.Close(context.Background()) })
	return driver
}
