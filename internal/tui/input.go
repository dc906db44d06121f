package tui

import (
	tea "charm.land/bubbletea/v2"
)

// input is a single-line text field.
type input struct {
	value string
}

// update applies an editing key and reports whether the value changed.
func (in *input) update(msg tea.KeyPressMsg) bool {
	switch msg.String() {
	case "backspace":
		if in.value == "" {
			return false
		}
		r := []rune(in.value)
		in.value = string(r[:len(r)-1])
		return true
	case "ctrl+u":
		if in.value == "" {
			return false
		}
		in.value = ""
		return true
	}

	if msg.Text == "" || msg.Mod&(tea.ModCtrl|tea.ModAlt) != 0 {
		return false
	}
	in.value += msg.Text
	return true
}

func (in *input) reset() {
	in.value = ""
}
