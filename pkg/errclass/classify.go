package errclass

import (
	"strconv"
	"strings"
)

// Severity is the numeric code carried by a runtime error signal. The values
// match the error constants of the hosts that report them, so existing
// %errno% consumers keep reading the same numbers.
type Severity int

const (
	SeverityError            Severity = 1
	SeverityWarning          Severity = 2
	SeverityParse            Severity = 4
	SeverityNotice           Severity = 8
	SeverityCoreError        Severity = 16
	SeverityCoreWarning      Severity = 32
	SeverityCompileError     Severity = 64
	SeverityCompileWarning   Severity = 128
	SeverityUserError        Severity = 256
	SeverityUserWarning      Severity = 512
	SeverityUserNotice       Severity = 1024
	SeverityStrict           Severity = 2048
	SeverityRecoverableError Severity = 4096
)

// Kind is the classified category of an error.
type Kind string

const (
	KindFatal   Kind = "fatal"
	KindWarning Kind = "warning"
	KindNotice  Kind = "notice"
	KindParse   Kind = "parse"
	KindStrict  Kind = "strict"
	KindSQL     Kind = "sql"
	KindUnknown Kind = "unknown"
)

// SQLMarker tags a message as a database error regardless of its severity.
const SQLMarker = "[SQL Error]"

// SQLErrno replaces the numeric code of SQL errors in %errno%.
const SQLErrno = "SQL Error"

var labels = map[Kind]string{
	KindFatal:   "PHP Fatal Error: ",
	KindSQL:     "SQL Error: ",
	KindWarning: "PHP Warning: ",
	KindNotice:  "PHP Notice: ",
	KindParse:   "PHP Parse Error: ",
	KindStrict:  "PHP Strict: ",
	KindUnknown: "PHP Unknown Error: ",
}

// Label returns the prefix written before messages of kind k.
func Label(k Kind) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return labels[KindUnknown]
}

// Signal is a raw error as reported by the host runtime.
type Signal struct {
	Code    Severity
	Message string
	File    string
	Line    int
}

// Record is a classified error ready to be rendered.
type Record struct {
	Kind Kind

	// Message is the original, unmodified message.
	Message string

	// Display is the label-prefixed message written as %errstr%.
	Display string

	// Errno is the text written as %errno%.
	Errno string

	File   string
	Line   int
	Frames []Frame
}

// Classify maps sig onto a Kind. A message containing SQLMarker is an SQL
// error whatever its code; otherwise the severity code decides, and codes
// outside the known set are KindUnknown.
func Classify(sig Signal, frames []Frame) Record {
	rec := Record{
		Message: sig.Message,
		Errno:   strconv.Itoa(int(sig.Code)),
		File:    sig.File,
		Line:    sig.Line,
		Frames:  frames,
	}

	msg := sig.Message
	if strings.Contains(msg, SQLMarker) {
		rec.Kind = KindSQL
		rec.Errno = SQLErrno
		msg = strings.ReplaceAll(msg, SQLMarker+" ", "")
		msg = strings.ReplaceAll(msg, SQLMarker, "")
	} else {
		rec.Kind = kindOf(sig.Code)
	}

	rec.Display = Label(rec.Kind) + msg
	return rec
}

func kindOf(code Severity) Kind {
	switch code {
	case SeverityError, SeverityUserError, SeverityCoreError, SeverityCompileError, SeverityRecoverableError:
		return KindFatal
	case SeverityWarning, SeverityUserWarning, SeverityCoreWarning, SeverityCompileWarning:
		return KindWarning
	case SeverityNotice, SeverityUserNotice:
		return KindNotice
	case SeverityParse:
		return KindParse
	case SeverityStrict:
		return KindStrict
	}
	return KindUnknown
}

// LineText renders a line number, "?" when unknown.
func LineText(line int) string {
	if line <= 0 {
		return "?"
	}
	return strconv.Itoa(line)
}
