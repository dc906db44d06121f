package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.DELETE("/delete/:name", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/delete/:name", "404"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/delete/a.txt", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/delete/:name", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(fileOperationsTotal.WithLabelValues("upload", "success"))
	RecordOperation("upload", true)
	assert.Equal(t, before+1, testutil.ToFloat64(fileOperationsTotal.WithLabelValues("upload", "success")))

	SetStoredFiles(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(storedFiles))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordUpload(10)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "filevault_bytes_uploaded_total"))
}
