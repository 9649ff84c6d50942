package logging

import (
	"time"

	"spry-hq/sprylog/pkg/errclass"
)

// Entry is one API log line before rendering.
type Entry struct {
	Time      time.Time
	IP        string
	RequestID string
	Path      string
	Category  string
	Message   string
}

// APIEvent is published after an API entry was written.
type APIEvent struct {
	Date      time.Time
	IP        string
	RequestID string
	Path      string
	Message   string
	Category  string
}

// ErrorEvent is published after an error entry was written.
type ErrorEvent struct {
	Date      time.Time
	IP        string
	RequestID string
	Path      string
	Message   string
	Kind      errclass.Kind
	Errno     string
	Errstr    string
	Errfile   string
	Errline   int
}

// Observer receives events about written and failed entries. Observers run
// synchronously on the logging goroutine and must not block.
type Observer interface {
	APILogWritten(APIEvent)
	ErrorLogWritten(ErrorEvent)
	WriteFailed(category string, err error)
}

// CategoryPHP is the category reported to observers for error log failures.
const CategoryPHP = "php"
