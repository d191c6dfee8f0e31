package app

import (
	"time"

	"github.com/bimatlas/bimatlas/internal/platform/envutil"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

// Config is the environment-driven configuration, loaded once at boot into
// the shape app.New wires every component from.
type Config struct {
	Port        string
	ServiceName string
	Environment string

	GraphName string

	ReconcileInterval time.Duration
	ShutdownTimeout   time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	log.Info("Loading environment variables...")
	return Config{
		Port:        envutil.Str("PORT", "8080"),
		ServiceName: envutil.Str("SERVICE_NAME", "bimatlas"),
		Environment: envutil.Str("APP_ENV", "development"),
		GraphName:   envutil.Str("GRAPH_NAME", "bimatlas"),

		ReconcileInterval: time.Duration(envutil.Int("RECONCILE_INTERVAL_SECONDS", 0)) * time.Second,
		ShutdownTimeout:   time.Duration(envutil.Int("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}
