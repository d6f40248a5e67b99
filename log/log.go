// Package log provides the leveled logging used across the module.
package log

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the log level.
type Level int

const (
	// DebugLevel represents the debug-level.
	DebugLevel Level = iota
	// InfoLevel represents the info-level.
	InfoLevel
	// ErrorLevel represents the error-level.
	ErrorLevel
	// DisabledLevel disables the logger entirely.
	DisabledLevel
)

var (
	// Debug is a debug-level logger.
	Debug = &logger{DebugLevel}
	// Info is an info-level logger.
	Info = &logger{InfoLevel}
	// Error is an error-level logger.
	Error = &logger{ErrorLevel}
)

var (
	mu      sync.RWMutex
	current = struct {
		level Level
		out   *log.Logger
	}{
		level: InfoLevel,
		out:   log.New(os.Stderr, "", log.Ldate|log.Ltime|log.LUTC),
	}
)

type logger struct {
	level Level
}

// Printf prints a formatted message when the logger's level is enabled.
func (l *logger) Printf(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if l.level >= current.level {
		current.out.Printf(format, v...)
	}
}

// Print prints a message when the logger's level is enabled.
func (l *logger) Print(v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if l.level >= current.level {
		current.out.Print(v...)
	}
}

// SetLevel sets the current logging level.
func SetLevel(level Level) {
	mu.Lock()
	current.level = level
	mu.Unlock()
}

// SetLevelByName sets the current logging level by name. Unknown names are
// ignored.
func SetLevelByName(name string) {
	switch strings.ToLower(name) {
	case "debug":
		SetLevel(DebugLevel)
	case "info":
		SetLevel(InfoLevel)
	case "error":
		SetLevel(ErrorLevel)
	case "disabled":
		SetLevel(DisabledLevel)
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	current.out = log.New(w, "", log.Ldate|log.Ltime|log.LUTC)
	mu.Unlock()
}
