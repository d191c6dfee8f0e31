package app

import (
	"github.com/gin-gonic/gin"

	bimatlashttp "github.com/bimatlas/bimatlas/internal/http"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, h Handlers) *gin.Engine {
	return bimatlashttp.NewRouter(bimatlashttp.RouterConfig{
		HealthHandler:  h.Health,
		CatalogHandler: h.Catalog,
		UploadHandler:  h.Upload,
		QueryHandler:   h.Query,
		StreamHandler:  h.Stream,
		Log:            log,
		ServiceName:    cfg.ServiceName,
	})
}
