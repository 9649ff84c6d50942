// Package errclass classifies runtime error signals and renders backtraces.
//
// A Signal carries a severity code, a message and a source location. Classify
// maps it onto a small set of kinds, each with a fixed label that existing log
// consumers match on:
//
//	rec := errclass.Classify(errclass.Signal{
//	    Code:    errclass.SeverityWarning,
//	    Message: "division by zero",
//	    File:    "/app/calc.go",
//	    Line:    12,
//	}, errclass.Capture(0, 10))
//	// rec.Display == "PHP Warning: division by zero"
//
// Messages containing "[SQL Error]" are classified as SQL errors whatever
// their code, with the marker removed from the displayed text.
//
// Capture records the stack from the caller downwards. CaptureFrom starts at
// a named function instead, which keeps the trace of a hard stop focused on
// the code path that triggered it.
package errclass
