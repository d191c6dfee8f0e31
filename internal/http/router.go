package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/bimatlas/bimatlas/internal/http/handlers"
	httpMW "github.com/bimatlas/bimatlas/internal/http/middleware"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

// RouterConfig groups every handler the router wires, mirroring the
// teacher's internal/http.RouterConfig shape.
type RouterConfig struct {
	HealthHandler  *httpH.HealthHandler
	CatalogHandler *httpH.CatalogHandler
	UploadHandler  *httpH.UploadHandler
	QueryHandler   *httpH.QueryHandler
	StreamHandler  *httpH.StreamHandler
	Log            *logger.Logger
	ServiceName    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.CatalogHandler != nil {
			api.POST("/projects", cfg.CatalogHandler.CreateProject)
			api.DELETE("/projects/:id", cfg.CatalogHandler.DeleteProject)
			api.POST("/projects/:id/branches", cfg.CatalogHandler.CreateBranch)
			api.DELETE("/branches/:id", cfg.CatalogHandler.DeleteBranch)
			api.POST("/branches/:id/reconcile", cfg.CatalogHandler.ReconcileBranch)
		}

		if cfg.UploadHandler != nil {
			api.POST("/upload", cfg.UploadHandler.Upload)
		}

		if cfg.QueryHandler != nil {
			api.GET("/products/:global_id", cfg.QueryHandler.Product)
			api.GET("/products", cfg.QueryHandler.Products)
			api.GET("/spatial-tree", cfg.QueryHandler.SpatialTree)
			api.GET("/revisions", cfg.QueryHandler.Revisions)
			api.GET("/revision-diff", cfg.QueryHandler.RevisionDiff)
		}

		if cfg.StreamHandler != nil {
			api.GET("/products/stream", cfg.StreamHandler.Stream)
		}
	}

	return r
}
