// handlers_files.go - File listing, download and delete handlers
package api

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/metrics"
	"github.com/filevault/filevault/internal/models"
	"github.com/filevault/filevault/internal/storage"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store storage.Store
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store) FileHandler {
	return &FileHandlerImpl{store: store}
}

// HandleListFiles returns display names in upload order
func (h *FileHandlerImpl) HandleListFiles(c echo.Context) error {
	files := h.store.List()
	if files == nil {
		files = []string{}
	}
	return c.JSON(http.StatusOK, models.FileListResponse{Files: files})
}

// HandleDownloadFile decrypts a file and sends it as an attachment
func (h *FileHandlerImpl) HandleDownloadFile(c echo.Context) error {
	name, err := nameParam(c)
	if err != nil {
		return err
	}

	data, rec, err := h.store.Open(c.Request().Context(), name)
	metrics.RecordOperation("download", err == nil)
	if err != nil {
		return storeError(err, "File not found")
	}
	metrics.RecordDownload(int64(len(data)))

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": rec.Name}))
	return c.Stream(http.StatusOK, contentType(rec.Name), bytes.NewReader(data))
}

// HandleDeleteFile removes a file, its key and its mapping
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	name, err := nameParam(c)
	if err != nil {
		return err
	}

	err = h.store.Delete(c.Request().Context(), name)
	metrics.RecordOperation("delete", err == nil)
	if err != nil {
		return storeError(err, "File not found")
	}

	logging.WithContext(c.Request().Context()).Info("file deleted", logging.String("name", name))
	return c.JSON(http.StatusOK, models.OperationResponse{Message: "File deleted"})
}

// nameParam returns the display name from the :name path segment. Echo
// matches against the raw path when the request carried escapes, so the
// segment is decoded exactly once in that case.
func nameParam(c echo.Context) (string, error) {
	raw := c.Param("name")
	if c.Request().URL.RawPath == "" {
		return raw, nil
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", NewBadRequestError("Invalid file name", err)
	}
	return name, nil
}

// storeError maps storage sentinels to API errors. notFound is the text used
// for ErrNotFound, which differs between download/delete and modify.
func storeError(err error, notFound string) *APIError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError(notFound)
	case errors.Is(err, storage.ErrKeyMissing):
		return NewForbiddenError("Encryption key missing")
	case errors.Is(err, storage.ErrIntegrity):
		return NewBadRequestError("File integrity compromised", err)
	default:
		return NewInternalError(err)
	}
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return echo.MIMEOctetStream
}
