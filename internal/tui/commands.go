package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/models"
)

// Transport is the subset of client.Client the front-end needs.
type Transport interface {
	ListFiles(ctx context.Context) ([]string, error)
	UploadFile(ctx context.Context, name string, content io.Reader) (*models.OperationResponse, error)
	DownloadFile(ctx context.Context, name string, w io.Writer) (int64, error)
	DeleteFile(ctx context.Context, name string) (*models.OperationResponse, error)
	ModifyFile(ctx context.Context, name string, content io.Reader) (*models.OperationResponse, error)
}

// listedMsg carries a list response and the ticket of its request.
type listedMsg struct {
	ticket uint64
	names  []string
	err    error
}

// operationMsg is the outcome of a mutating request. Every one of them is
// followed by a re-list.
type operationMsg struct {
	op     string
	name   string
	result *models.OperationResponse
	err    error
}

type downloadedMsg struct {
	name  string
	path  string
	bytes int64
	err   error
}

// requester builds commands. Commands run off the event loop, so they only
// capture values, never the model.
type requester struct {
	transport Transport
	base      context.Context
	timeout   time.Duration
}

func (r requester) requestContext() (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(r.base, r.timeout)
	}
	return context.WithCancel(r.base)
}

func (r requester) list(ticket uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := r.requestContext()
		defer cancel()

		names, err := r.transport.ListFiles(ctx)
		if err != nil {
			logging.Warn("list failed", logging.Err(err))
		}
		return listedMsg{ticket: ticket, names: names, err: err}
	}
}

func (r requester) upload(name string, f io.ReadCloser) tea.Cmd {
	return func() tea.Msg {
		defer f.Close()
		ctx, cancel := r.requestContext()
		defer cancel()

		res, err := r.transport.UploadFile(ctx, name, f)
		return operationMsg{op: "upload", name: name, result: res, err: err}
	}
}

func (r requester) modify(name string, f io.ReadCloser) tea.Cmd {
	return func() tea.Msg {
		defer f.Close()
		ctx, cancel := r.requestContext()
		defer cancel()

		res, err := r.transport.ModifyFile(ctx, name, f)
		return operationMsg{op: "modify", name: name, result: res, err: err}
	}
}

func (r requester) delete(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := r.requestContext()
		defer cancel()

		res, err := r.transport.DeleteFile(ctx, name)
		return operationMsg{op: "delete", name: name, result: res, err: err}
	}
}

// download writes name into dir, removing the partial file on failure.
func (r requester) download(name, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := r.requestContext()
		defer cancel()

		dest := filepath.Join(dir, localName(name))
		f, err := os.Create(dest)
		if err != nil {
			return downloadedMsg{name: name, err: fmt.Errorf("create %s: %w", dest, err)}
		}

		n, err := r.transport.DownloadFile(ctx, name, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dest)
			return downloadedMsg{name: name, err: err}
		}
		return downloadedMsg{name: name, path: dest, bytes: n}
	}
}

// localName reduces a display name to a single safe path element.
func localName(name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	switch base {
	case ".", "..", string(filepath.Separator), "":
		return "download"
	}
	return base
}

// openLocal opens a file chosen in the upload form or the modify prompt.
func openLocal(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return os.Open(path)
}
