package tui

import "charm.land/lipgloss/v2"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle = lipgloss.NewStyle().Width(8)

	fieldStyle        = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	focusedFieldStyle = fieldStyle.BorderForeground(lipgloss.Color("63"))

	rowStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedRowStyle = lipgloss.NewStyle().PaddingLeft(2).Bold(true)
	nameStyle        = lipgloss.NewStyle().Bold(true)
	actionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	activeAction     = lipgloss.NewStyle().Reverse(true).Foreground(lipgloss.Color("63"))

	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	noticeBase = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	noticeInfo = noticeBase.BorderForeground(lipgloss.Color("39"))
	noticeOK   = noticeBase.BorderForeground(lipgloss.Color("42"))
	noticeErr  = noticeBase.BorderForeground(lipgloss.Color("196")).Foreground(lipgloss.Color("196"))
)
