package app

import (
	"github.com/bimatlas/bimatlas/internal/http/handlers"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

// Handlers groups the HTTP handlers the router wires.
type Handlers struct {
	Health  *handlers.HealthHandler
	Catalog *handlers.CatalogHandler
	Upload  *handlers.UploadHandler
	Query   *handlers.QueryHandler
	Stream  *handlers.StreamHandler
}

func wireHandlers(log *logger.Logger, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  handlers.NewHealthHandler(),
		Catalog: handlers.NewCatalogHandler(log, services.Catalog),
		Upload:  handlers.NewUploadHandler(log, services.Ingest, clients.Archiver),
		Query:   handlers.NewQueryHandler(log, services.Query),
		Stream:  handlers.NewStreamHandler(log, services.Stream),
	}
}
