package main

import (
	"fmt"

	log "github.com/golang/glog"
)

// Level is the severity of a log event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Logger is the only observability surface the server depends on.
// Destination and formatting belong to the implementation.
type Logger interface {
	Log(level Level, msg string)
}

// debugVerbosity is the glog -v level at which trace lines are emitted.
const debugVerbosity = 2

type glogLogger struct{}

func (glogLogger) Log(level Level, msg string) {
	switch level {
	case LevelDebug:
		if log.V(debugVerbosity) {
			log.InfoDepth(1, msg)
		}
	case LevelInfo:
		log.InfoDepth(1, msg)
	case LevelWarning:
		log.WarningDepth(1, msg)
	default:
		log.ErrorDepth(1, msg)
	}
}

func logf(l Logger, level Level, format string, args ...any) {
	l.Log(level, fmt.Sprintf(format, args...))
}
