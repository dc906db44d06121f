// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// FileHandler handles the file listing and transfer endpoints
type FileHandler interface {
	HandleListFiles(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// UploadHandler handles endpoints that accept file content
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleModifyFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
