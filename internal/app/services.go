package app

import (
	"gorm.io/gorm"

	"github.com/bimatlas/bimatlas/internal/catalog"
	"github.com/bimatlas/bimatlas/internal/graph"
	"github.com/bimatlas/bimatlas/internal/ifc/extractor"
	"github.com/bimatlas/bimatlas/internal/ingest"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/query"
	"github.com/bimatlas/bimatlas/internal/stream"
)

// Services groups the component-level orchestrators: the Graph Client, the
// Revision Writer's Deps, the Query Layer, the Catalog, and the Streaming
// Layer's Deps.
type Services struct {
	Graph   *graph.Client
	Catalog *catalog.Catalog
	Query   *query.Layer
	Ingest  ingest.Deps
	Stream  stream.Deps
	Sweeper *catalog.ReconcileSweeper
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) Services {
	log.Info("Wiring services...")

	graphClient := graph.New(clients.Neo4j, log)

	ingestDeps := ingest.Deps{
		DB:         db,
		Log:        log,
		Extractor:  extractor.New(nil),
		ProductsRp: reposet.Product,
		RevisionRp: reposet.Revision,
		Graph:      graphClient,
	}

	queryLayer := query.New(db, reposet.Product, reposet.Branch, reposet.Revision, graphClient)

	catalogDeps := catalog.Deps{
		DB:         db,
		Log:        log,
		ProjectRp:  reposet.Project,
		BranchRp:   reposet.Branch,
		ProductsRp: reposet.Product,
		Graph:      graphClient,
	}
	cat := catalog.New(catalogDeps)

	streamDeps := stream.Deps{
		Pool:       clients.Pgx,
		RevisionRp: reposet.Revision,
		Log:        log,
	}

	return Services{
		Graph:   graphClient,
		Catalog: cat,
		Query:   queryLayer,
		Ingest:  ingestDeps,
		Stream:  streamDeps,
		Sweeper: catalog.NewReconcileSweeper(cat, cfg.ReconcileInterval),
	}
}
