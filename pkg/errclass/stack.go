package errclass

import (
	"runtime"
	"strings"
)

// DefaultDepth is the frame cap used when a depth of zero is requested.
const DefaultDepth = 10

// maxCapture bounds how far CaptureFrom looks for its trigger frame.
const maxCapture = 64

// Frame is one call-stack entry.
type Frame struct {
	File     string
	Line     int
	Function string
}

// Capture returns up to depth frames of the calling goroutine's stack, the
// caller of Capture first. skip drops that many additional frames.
func Capture(skip, depth int) []Frame {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return callers(skip+3, depth)
}

// CaptureFrom returns up to depth frames starting at the innermost frame
// whose function matches trigger. Frames above it (the capture machinery
// and the code that reported the stop) are dropped. trigger matches either
// the fully qualified function name or its trailing component, so both
// "spry-hq/sprylog/pkg/logging.(*Logger).Stop" and "(*Logger).Stop" work.
// No frames are returned when trigger is not on the stack.
func CaptureFrom(trigger string, depth int) []Frame {
	if depth <= 0 {
		depth = DefaultDepth
	}

	all := callers(3, maxCapture)
	for i, f := range all {
		if matchFunction(f.Function, trigger) {
			all = all[i:]
			if len(all) > depth {
				all = all[:depth]
			}
			return all
		}
	}
	return nil
}

func callers(skip, depth int) []Frame {
	pcs := make([]uintptr, depth)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return nil
	}

	frames := make([]Frame, 0, n)
	iter := runtime.CallersFrames(pcs[:n])
	for {
		f, more := iter.Next()
		frames = append(frames, Frame{File: f.File, Line: f.Line, Function: f.Function})
		if !more || len(frames) == depth {
			break
		}
	}
	return frames
}

func matchFunction(fn, trigger string) bool {
	if trigger == "" {
		return false
	}
	if fn == trigger {
		return true
	}
	return strings.HasSuffix(fn, "."+trigger) || strings.HasSuffix(fn, "/"+trigger)
}

// RenderBacktrace writes one line per frame that has a source file:
//
//	 - - Trace: <file> [Line: <line>] - Function: <function>
func RenderBacktrace(frames []Frame) string {
	var b strings.Builder
	for _, f := range frames {
		if f.File == "" {
			continue
		}
		b.WriteString(" - - Trace: ")
		b.WriteString(f.File)
		b.WriteString(" [Line: ")
		b.WriteString(LineText(f.Line))
		b.WriteString("] - Function: ")
		b.WriteString(f.Function)
		b.WriteString("\n")
	}
	return b.String()
}

// Backtrace renders the record's frames.
func (r Record) Backtrace() string {
	return RenderBacktrace(r.Frames)
}
