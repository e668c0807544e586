// Package log wraps logrus with a numbered-level verbosity model, with
// LogicError entries gated behind a configurable threshold.
package log

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level mirrors the verbosity knob threaded through Settings.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelOff
)

// LevelNamed returns the log level corresponding to the given name, or
// LevelOff if the name corresponds to no known level.
func LevelNamed(name string) Level {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	case "off":
		return LevelOff
	default:
		return LevelOff
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return fmt.Sprintf("0x%X", uint(l))
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarning:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.PanicLevel // effectively silent; nothing perfgraph logs is above Error
	}
}

var (
	mu     sync.RWMutex
	logger = logrus.New()
	level  = LevelWarning
)

// SetLevel sets the process-wide verbosity threshold.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	logger.SetLevel(l.logrusLevel())
}

// SetOutputFormatter allows callers to swap the logrus formatter, e.g. to
// JSON for machine-parsed log pipelines.
func SetOutputFormatter(f logrus.Formatter) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetFormatter(f)
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func fields(component string) logrus.Fields {
	return logrus.Fields{"component": component}
}

// Logf emits a message at the given level if the current threshold allows it.
func Logf(l Level, component, format string, args ...any) {
	if !enabled(l) {
		return
	}
	entry := logger.WithFields(fields(component))
	switch l {
	case LevelTrace:
		entry.Tracef(format, args...)
	case LevelDebug:
		entry.Debugf(format, args...)
	case LevelInfo:
		entry.Infof(format, args...)
	case LevelWarning:
		entry.Warnf(format, args...)
	case LevelError:
		entry.Errorf(format, args...)
	}
}
