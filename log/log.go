// Package log is a minimal wrapper around an io.Writer, in the style of
// golang/dep's own log package: no levels, no structured fields, just a
// couple of formatting helpers plus a Tracef used by the query parser and
// the native resolver's search driver when trace output is requested.
package log

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer.
type Logger struct {
	io.Writer
}

// New returns a new logger which writes to w. A nil w yields a Logger
// whose methods are safe no-ops.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logln logs a line.
func (l *Logger) Logln(args ...interface{}) {
	if l == nil || l.Writer == nil {
		return
	}
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string.
func (l *Logger) Logf(f string, args ...interface{}) {
	if l == nil || l.Writer == nil {
		return
	}
	fmt.Fprintf(l, f, args...)
}

// Tracef logs a formatted line prefixed with "trace: ", used for the
// resolver's search-driver trace output and the query parser's debug
// output. It is a no-op on a nil Logger, so callers can pass a nil
// *Logger when tracing wasn't requested instead of branching everywhere.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l == nil || l.Writer == nil {
		return
	}
	fmt.Fprintf(l, "trace: "+format+"\n", args...)
}
