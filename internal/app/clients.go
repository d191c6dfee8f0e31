package app

import (
	"context"
	"fmt"

	"github.com/bimatlas/bimatlas/internal/platform/gcsarchive"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/platform/neo4jdb"
	"github.com/bimatlas/bimatlas/internal/platform/pgxdb"
	"github.com/bimatlas/bimatlas/internal/platform/revcache"
)

// Clients groups the external-store handles app.New wires once: the
// read-optimized pgx pool, the Neo4j driver behind the Graph Client, the
// optional Redis revision cache, and the optional GCS archiver. Any of
// Neo4j/Redis/GCS may come back nil/disabled when its env var is unset —
// every downstream consumer (graph.Client, revcache.Cache,
// gcsarchive.Archiver) already treats that as "feature off", not an error.
type Clients struct {
	Pgx      *pgxdb.Pool
	Neo4j    *neo4jdb.Client
	RevCache *revcache.Cache
	Archiver *gcsarchive.Archiver
}

func wireClients(ctx context.Context, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	pgxPool, err := pgxdb.NewFromEnv(ctx, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init pgx pool: %w", err)
	}

	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j driver: %w", err)
	}
	if neo == nil {
		log.Warn("NEO4J_URI unset: graph mirror disabled, relational store is authoritative alone")
	}

	revCache, err := revcache.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init revision cache: %w", err)
	}

	archiver := gcsarchive.New(ctx, log)

	return Clients{
		Pgx:      pgxPool,
		Neo4j:    neo,
		RevCache: revCache,
		Archiver: archiver,
	}, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Pgx != nil {
		c.Pgx.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.RevCache != nil {
		_ = c.RevCache.Close()
	}
}
