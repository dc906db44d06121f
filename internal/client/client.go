// Package client is the HTTP transport used by the front-end. Every call is a
// single round-trip: no retry, and no timeout unless one is configured.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/models"
)

// Client talks to the filevault server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // zero means no timeout
	HTTPClient *http.Client
}

// ResponseError is returned when the server answers a non-2xx status to a
// request whose body is not an operation result (list and download).
type ResponseError struct {
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// New creates a new client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
	}
}

// componentUnescaper undoes the escapes url.QueryEscape adds beyond
// encodeURIComponent, and writes space as %20.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeName percent-encodes a display name as one path segment, byte for
// byte as encodeURIComponent does. "/", "&", "+" and "%" are escaped; the
// browser front-end and this client send identical paths on every route.
func EscapeName(name string) string {
	return componentUnescaper.Replace(url.QueryEscape(name))
}

// DownloadURL returns the absolute URL a browser would navigate to.
func (c *Client) DownloadURL(name string) string {
	return c.baseURL + "/download/" + EscapeName(name)
}

// ListFiles fetches the current display names.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list files: %w", responseError(resp))
	}

	var list models.FileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode file list: %w", err)
	}
	if list.Files == nil {
		list.Files = []string{}
	}
	return list.Files, nil
}

// UploadFile posts content as the multipart part "file" named name.
func (c *Client) UploadFile(ctx context.Context, name string, content io.Reader) (*models.OperationResponse, error) {
	return c.sendFile(ctx, http.MethodPost, c.baseURL+"/upload", name, content)
}

// ModifyFile replaces the content stored under name.
func (c *Client) ModifyFile(ctx context.Context, name string, content io.Reader) (*models.OperationResponse, error) {
	return c.sendFile(ctx, http.MethodPut, c.baseURL+"/modify/"+EscapeName(name), name, content)
}

// DeleteFile removes name from the server.
func (c *Client) DeleteFile(ctx context.Context, name string) (*models.OperationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/delete/"+EscapeName(name), nil)
	if err != nil {
		return nil, err
	}
	return c.doOperation(req, "delete "+name)
}

// DownloadFile streams the decrypted content of name into w and returns the
// number of bytes written.
func (c *Client) DownloadFile(ctx context.Context, name string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(name), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: %w", name, responseError(resp))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", name, err)
	}
	return n, nil
}

// sendFile streams a single-part multipart body without buffering it.
func (c *Client) sendFile(ctx context.Context, method, target, name string, content io.Reader) (*models.OperationResponse, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doOperation(req, strings.ToLower(method)+" "+name)
}

// doOperation sends req and decodes the {message?, error?} body. The status
// code does not decide success; the presence of "error" does.
func (c *Client) doOperation(req *http.Request, op string) (*models.OperationResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var result models.OperationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", op, resp.StatusCode, err)
	}
	if result.Message == "" && result.Error == "" && resp.StatusCode >= http.StatusBadRequest {
		result.Error = http.StatusText(resp.StatusCode)
	}

	logging.Debug("operation completed",
		logging.String("operation", op),
		logging.Int("status", resp.StatusCode),
		logging.String("error", result.Error),
	)
	return &result, nil
}

func responseError(resp *http.Response) error {
	rerr := &ResponseError{Status: resp.StatusCode}
	var body models.OperationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		rerr.Message = body.Error
	}
	return rerr
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var rerr *ResponseError
	return errors.As(err, &rerr) && rerr.Status == http.StatusNotFound
}
