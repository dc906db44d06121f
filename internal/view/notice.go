package view

import "github.com/filevault/filevault/internal/models"

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a message for the user. Every notice blocks until dismissed.
type Notice struct {
	Level Level
	Text  string
}

// Info returns an informational notice.
func Info(text string) Notice {
	return Notice{Level: LevelInfo, Text: text}
}

// Success returns a success notice.
func Success(text string) Notice {
	return Notice{Level: LevelSuccess, Text: text}
}

// Failure returns an error notice.
func Failure(text string) Notice {
	return Notice{Level: LevelError, Text: text}
}

// FromError wraps a transport error.
func FromError(err error) Notice {
	return Failure(err.Error())
}

// FromResult turns a server reply into a notice, showing its text verbatim.
// An "error" field makes it a failure regardless of the HTTP status.
func FromResult(res *models.OperationResponse) Notice {
	if res.Failed() {
		return Failure(res.Error)
	}
	return Success(res.Text())
}

// Join appends next to n so neither text is lost. The result takes the more
// severe of the two levels.
func (n Notice) Join(next Notice) Notice {
	return Notice{Level: max(n.Level, next.Level), Text: n.Text + "\n" + next.Text}
}
