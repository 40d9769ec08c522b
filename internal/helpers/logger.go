package helpers

import (
	"io"
	"log"
)

// Logger provides simplified logging with prefixes
type Logger struct {
	prefix string
	out    *log.Logger
	debug  bool
}

// NewLogger creates a new logger with a prefix writing to the standard logger
func NewLogger(prefix string) *Logger {
	return &Logger{prefix: "[" + prefix + "]", out: log.Default()}
}

// NewWriterLogger creates a logger writing to w. Debug messages are only written when debug is set.
func NewWriterLogger(prefix string, w io.Writer, debug bool) *Logger {
	return &Logger{prefix: "[" + prefix + "]", out: log.New(w, "", log.LstdFlags), debug: debug}
}

// SetDebug toggles debug output
func (l *Logger) SetDebug(debug bool) {
	l.debug = debug
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.out.Printf("%s INFO: %s %v", l.prefix, msg, args)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.out.Printf("%s WARN: %s %v", l.prefix, msg, args)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, args ...interface{}) {
	l.out.Printf("%s ERROR: %s - %v %v", l.prefix, msg, err, args)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.out.Printf("%s DEBUG: %s %v", l.prefix, msg, args)
}
