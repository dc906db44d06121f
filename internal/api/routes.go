// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/filevault/filevault/internal/config"
	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/metrics"
	"github.com/filevault/filevault/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store   storage.Store
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Files  FileHandler
	Upload UploadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.Store),
		Files:  NewFileHandler(deps.Store),
		Upload: NewUploadHandler(deps.Store),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/health", handlers.Health.HandleHealth)

	e.GET("/files", handlers.Files.HandleListFiles)
	e.POST("/upload", handlers.Upload.HandleUploadFile)
	e.GET("/download/:name", handlers.Files.HandleDownloadFile)
	e.DELETE("/delete/:name", handlers.Files.HandleDeleteFile)
	e.PUT("/modify/:name", handlers.Upload.HandleModifyFile)
}

// RegisterMetricsRoute exposes Prometheus metrics on /metrics
func RegisterMetricsRoute(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg config.ServerConfig) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.EnableRequestLogging {
		e.Use(logging.Middleware(func(path string) bool {
			return path == "/health" || path == "/metrics"
		}))
	}

	if cfg.EnableMetrics {
		e.Use(metrics.Middleware())
	}

	if cfg.ReadTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: time.Duration(cfg.ReadTimeout) * time.Second,
			Skipper: func(c echo.Context) bool {
				// Transfers are bounded by the server's read/write timeouts instead.
				return c.Request().Method != http.MethodGet || strings.HasPrefix(c.Path(), "/download/")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
