package view

// NoFilesPlaceholder is the only content of an empty container.
const NoFilesPlaceholder = "No files found."

// ActionKind is one of the per-row controls.
type ActionKind int

const (
	ActionDownload ActionKind = iota
	ActionDelete
	ActionModify
)

// ActionKinds lists the controls in display order.
var ActionKinds = [...]ActionKind{ActionDownload, ActionDelete, ActionModify}

func (k ActionKind) String() string {
	switch k {
	case ActionDownload:
		return "Download"
	case ActionDelete:
		return "Delete"
	case ActionModify:
		return "Modify"
	default:
		return "Unknown"
	}
}

// Action binds a control to the display name it acts on. The name is data,
// never spliced into code or markup.
type Action struct {
	Kind ActionKind
	Name string
}

// Row is one rendered file.
type Row struct {
	Name    string
	Actions []Action
}

// Fragment is the full content of the results container.
type Fragment struct {
	Rows        []Row
	Placeholder string
}

// Empty reports whether the fragment shows only the placeholder.
func (f Fragment) Empty() bool {
	return len(f.Rows) == 0
}

// Render builds one row per name, each with the three actions, or the
// placeholder alone when names is empty.
func Render(names []string) Fragment {
	if len(names) == 0 {
		return Fragment{Placeholder: NoFilesPlaceholder}
	}

	rows := make([]Row, len(names))
	for i, name := range names {
		actions := make([]Action, len(ActionKinds))
		for j, kind := range ActionKinds {
			actions[j] = Action{Kind: kind, Name: name}
		}
		rows[i] = Row{Name: name, Actions: actions}
	}
	return Fragment{Rows: rows}
}
