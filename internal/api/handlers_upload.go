// handlers_upload.go - File upload and modify handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/metrics"
	"github.com/filevault/filevault/internal/models"
	"github.com/filevault/filevault/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store storage.Store
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store storage.Store) UploadHandler {
	return &UploadHandlerImpl{store: store}
}

// HandleUploadFile accepts a multipart "file" part and stores it encrypted
// under its filename. Uploading an existing name replaces it.
func (h *UploadHandlerImpl) HandleUploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		if hasEmptyFilePart(c) {
			return NewBadRequestError("No selected file", err)
		}
		return NewBadRequestError("No file part", err)
	}
	if file.Filename == "" {
		return NewBadRequestError("No selected file", nil)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError(err)
	}
	defer src.Close()

	rec, err := h.store.Save(c.Request().Context(), file.Filename, src)
	metrics.RecordOperation("upload", err == nil)
	if err != nil {
		return NewInternalError(err)
	}
	metrics.RecordUpload(rec.Size)

	logging.WithContext(c.Request().Context()).Info("file uploaded",
		logging.String("name", rec.Name),
		logging.Int64("size", rec.Size),
	)

	return c.JSON(http.StatusOK, models.OperationResponse{
		Message:  "File uploaded successfully.",
		Filename: rec.Name,
	})
}

// HandleModifyFile re-encrypts new content for an existing name. The name
// is checked before the body so a missing file wins over a missing part.
func (h *UploadHandlerImpl) HandleModifyFile(c echo.Context) error {
	name, err := nameParam(c)
	if err != nil {
		return err
	}
	if !h.store.Has(name) {
		metrics.RecordOperation("modify", false)
		return NewNotFoundError("Original file not found")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("No file uploaded", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError(err)
	}
	defer src.Close()

	rec, err := h.store.Replace(c.Request().Context(), name, src)
	metrics.RecordOperation("modify", err == nil)
	if err != nil {
		return storeError(err, "Original file not found")
	}
	metrics.RecordUpload(rec.Size)

	logging.WithContext(c.Request().Context()).Info("file modified",
		logging.String("name", name),
		logging.Int64("size", rec.Size),
	)

	return c.JSON(http.StatusOK, models.OperationResponse{Message: "File modified and re-encrypted"})
}

// hasEmptyFilePart reports whether the form carried a "file" part without a
// filename. The multipart reader files such parts under Value, not File.
func hasEmptyFilePart(c echo.Context) bool {
	form := c.Request().MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}
