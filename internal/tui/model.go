// Package tui is the terminal front-end: a search box, an upload form and a
// results list with per-row download, delete and modify controls.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/view"
)

type focus int

const (
	focusSearch focus = iota
	focusUpload
	focusList
	focusCount
)

type mode int

const (
	modeBrowse mode = iota
	modeConfirmDelete
	modeModifyPath
)

// Options configures the front-end.
type Options struct {
	Transport   Transport
	Context     context.Context
	Timeout     time.Duration // per request; zero means none
	DownloadDir string
	ServerURL   string // shown in the header only
}

// Model is the bubbletea model. All state changes happen in Update.
type Model struct {
	req         requester
	vm          *view.ViewModel
	downloadDir string
	serverURL   string

	focus   focus
	mode    mode
	search  input
	upload  input
	picker  input
	pending string

	row, col int
	notice   *view.Notice
	width    int
}

// New creates the model. The initial list fetch starts in Init.
func New(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	dir := opts.DownloadDir
	if dir == "" {
		dir = "."
	}
	return &Model{
		req: requester{
			transport: opts.Transport,
			base:      ctx,
			timeout:   opts.Timeout,
		},
		vm:          view.NewViewModel(),
		downloadDir: dir,
		serverURL:   opts.ServerURL,
	}
}

// Init fetches the file list.
func (m *Model) Init() tea.Cmd {
	return m.relist()
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case listedMsg:
		if msg.err != nil {
			m.show(view.FromError(msg.err))
			return m, nil
		}
		if !m.vm.ApplyListing(msg.ticket, msg.names) {
			logging.Debug("dropped stale listing", logging.Int64("ticket", int64(msg.ticket)))
		}
		m.clampSelection()
		return m, nil

	case operationMsg:
		if msg.err != nil {
			m.show(view.FromError(msg.err))
		} else {
			m.show(view.FromResult(msg.result))
		}
		return m, m.relist()

	case downloadedMsg:
		if msg.err != nil {
			m.show(view.FromError(msg.err))
		} else {
			m.show(view.Success(fmt.Sprintf("Saved %s to %s (%d bytes)", msg.name, msg.path, msg.bytes)))
		}
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	// A notice blocks everything until it is dismissed.
	if m.notice != nil {
		m.notice = nil
		return nil
	}

	switch m.mode {
	case modeConfirmDelete:
		return m.handleConfirm(msg)
	case modeModifyPath:
		return m.handlePicker(msg)
	}

	switch msg.String() {
	case "tab":
		m.focus = (m.focus + 1) % focusCount
		return nil
	case "shift+tab":
		m.focus = (m.focus + focusCount - 1) % focusCount
		return nil
	}

	switch m.focus {
	case focusSearch:
		if m.search.update(msg) {
			m.vm.SetQuery(m.search.value)
			m.clampSelection()
		}
	case focusUpload:
		if msg.String() == "enter" {
			return m.submitUpload()
		}
		m.upload.update(msg)
	case focusList:
		return m.handleListKey(msg)
	}
	return nil
}

func (m *Model) handleListKey(msg tea.KeyPressMsg) tea.Cmd {
	rows := m.vm.Container().Rows
	switch msg.String() {
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < len(rows)-1 {
			m.row++
		}
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.col < len(view.ActionKinds)-1 {
			m.col++
		}
	case "enter", "space":
		return m.activate(view.ActionKinds[m.col])
	case "d":
		return m.activate(view.ActionDownload)
	case "x", "delete":
		return m.activate(view.ActionDelete)
	case "m":
		return m.activate(view.ActionModify)
	case "r":
		return m.relist()
	case "q":
		return tea.Quit
	}
	return nil
}

// activate runs a control of the selected row. The name comes from the
// rendered row's action, so it is exactly what the server listed.
func (m *Model) activate(kind view.ActionKind) tea.Cmd {
	rows := m.vm.Container().Rows
	if m.row < 0 || m.row >= len(rows) {
		return nil
	}
	action := rows[m.row].Actions[kind]

	switch action.Kind {
	case view.ActionDownload:
		return m.req.download(action.Name, m.downloadDir)
	case view.ActionDelete:
		m.mode = modeConfirmDelete
		m.pending = action.Name
	case view.ActionModify:
		m.mode = modeModifyPath
		m.pending = action.Name
		m.picker.reset()
	}
	return nil
}

func (m *Model) handleConfirm(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		name := m.pending
		m.mode, m.pending = modeBrowse, ""
		return m.req.delete(name)
	case "n", "N", "esc":
		m.mode, m.pending = modeBrowse, ""
	}
	return nil
}

func (m *Model) handlePicker(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode, m.pending = modeBrowse, ""
		m.picker.reset()
		return nil
	case "enter":
		name, path := m.pending, strings.TrimSpace(m.picker.value)
		m.mode, m.pending = modeBrowse, ""
		m.picker.reset()
		if path == "" {
			return nil
		}
		f, err := openLocal(path)
		if err != nil {
			m.show(view.FromError(err))
			return nil
		}
		return m.req.modify(name, f)
	}
	m.picker.update(msg)
	return nil
}

// submitUpload validates the form. A missing or unreadable file shows a
// notice and sends nothing.
func (m *Model) submitUpload() tea.Cmd {
	path := strings.TrimSpace(m.upload.value)
	if path == "" {
		m.show(view.Failure("Please select a file to upload."))
		return nil
	}

	f, err := openLocal(path)
	if err != nil {
		m.show(view.FromError(err))
		return nil
	}
	m.upload.reset()
	return m.req.upload(filepath.Base(path), f)
}

func (m *Model) relist() tea.Cmd {
	return m.req.list(m.vm.NextTicket())
}

// show raises n. A notice that has not been dismissed yet is kept and n is
// appended to it.
func (m *Model) show(n view.Notice) {
	if m.notice != nil {
		n = m.notice.Join(n)
	}
	m.notice = &n
}

func (m *Model) clampSelection() {
	n := len(m.vm.Container().Rows)
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}
