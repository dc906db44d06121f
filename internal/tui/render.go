package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/filevault/filevault/internal/view"
)

const cursor = "▏"

// View draws the screen.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	var b strings.Builder

	header := titleStyle.Render("filevault")
	if m.serverURL != "" {
		header += "  " + dimStyle.Render(m.serverURL)
	}
	b.WriteString(header + "\n\n")

	b.WriteString(m.renderField("Search", m.search.value, focusSearch) + "\n")
	b.WriteString(m.renderField("Upload", m.upload.value, focusUpload) + "\n\n")
	b.WriteString(m.renderResults() + "\n")

	switch m.mode {
	case modeConfirmDelete:
		b.WriteString("\n" + promptStyle.Render(`Are you sure you want to delete "`+m.pending+`"?`) + " " + dimStyle.Render("[y/n]") + "\n")
	case modeModifyPath:
		b.WriteString("\n" + promptStyle.Render(`Replace "`+m.pending+`" with:`) + " " + m.picker.value + cursor + "\n")
	}

	if m.notice != nil {
		b.WriteString("\n" + renderNotice(*m.notice) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render(m.help()))
	return b.String()
}

func (m *Model) renderField(label, value string, f focus) string {
	style := fieldStyle
	if m.focus == f && m.mode == modeBrowse {
		style = focusedFieldStyle
		value += cursor
	}
	width := 40
	if m.width > 20 {
		width = min(m.width-14, 80)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, labelStyle.Render(label), style.Width(width).Render(value))
}

// renderResults draws the container: one line per row or the placeholder.
func (m *Model) renderResults() string {
	frag := m.vm.Container()
	if frag.Empty() {
		return rowStyle.Render(dimStyle.Render(frag.Placeholder))
	}

	nameWidth := 0
	for _, row := range frag.Rows {
		nameWidth = max(nameWidth, lipgloss.Width(row.Name))
	}

	lines := make([]string, len(frag.Rows))
	for i, row := range frag.Rows {
		selected := m.focus == focusList && i == m.row
		name := nameStyle.Render(row.Name) + strings.Repeat(" ", nameWidth-lipgloss.Width(row.Name))

		controls := make([]string, len(row.Actions))
		for j, action := range row.Actions {
			label := "[" + action.Kind.String() + "]"
			if selected && j == m.col {
				controls[j] = activeAction.Render(label)
			} else {
				controls[j] = actionStyle.Render(label)
			}
		}

		line := name + "  " + strings.Join(controls, " ")
		if selected {
			lines[i] = selectedRowStyle.Render("> " + line)
		} else {
			lines[i] = rowStyle.Render("  " + line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderNotice(n view.Notice) string {
	style := noticeInfo
	switch n.Level {
	case view.LevelSuccess:
		style = noticeOK
	case view.LevelError:
		style = noticeErr
	}
	return style.Render(n.Text) + "\n" + dimStyle.Render("press any key to continue")
}

func (m *Model) help() string {
	switch {
	case m.notice != nil:
		return "any key: dismiss • ctrl+c: quit"
	case m.mode == modeConfirmDelete:
		return "y/enter: delete • n/esc: cancel"
	case m.mode == modeModifyPath:
		return "enter: upload replacement • esc: cancel"
	}
	switch m.focus {
	case focusUpload:
		return "type a file path • enter: upload • tab: next • ctrl+c: quit"
	case focusList:
		return "↑/↓: file • ←/→: action • enter: run • d/x/m: download/delete/modify • r: refresh • tab: next • q: quit"
	default:
		return "type to filter • tab: next • ctrl+c: quit"
	}
}
