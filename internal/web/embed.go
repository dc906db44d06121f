// Package web provides the embedded browser front-end.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes serves index.html on "/" and the scripts and styles
// under "/assets". Other paths are left to the API routes and the 404
// handler so the JSON error contract holds everywhere else.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}

	index, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		return err
	}

	e.GET("/", func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, index)
	})
	e.StaticFS("/assets", echo.MustSubFS(staticFS, "assets"))
	return nil
}

// HasEmbeddedFiles returns true if the front-end is present in the binary.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "dist/index.html")
	return err == nil
}
