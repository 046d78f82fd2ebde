package structlog

import (
	"log/slog"
	"os"
	"strings"
)

// Level defines log levels. The ordering is total: Debug < Info < Warn <
// Error < Critical. NoLevel and Disabled are threshold markers, not
// severities a record is emitted at.
type Level int8

const (
	// DebugLevel defines debug log level.
	DebugLevel Level = iota
	// InfoLevel defines info log level.
	InfoLevel
	// WarnLevel defines warn log level.
	WarnLevel
	// ErrorLevel defines error log level.
	ErrorLevel
	// CriticalLevel defines critical log level.
	CriticalLevel
	// NoLevel defines an absent log level.
	NoLevel
	// Disabled disables emission entirely when used as a threshold.
	Disabled
)

// ParseLevel converts a textual level into a Level value. It accepts values
// such as "debug", "info", "warn", "warning", "error", "critical", "crit",
// "no", "nolevel", "disabled", and "off" (case insensitive).
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	case "critical", "crit":
		return CriticalLevel, true
	case "no", "nolevel", "none":
		return NoLevel, true
	case "disabled", "disable", "off":
		return Disabled, true
	default:
		return InfoLevel, false
	}
}

// LevelString returns the canonical string representation of a Level.
func LevelString(level Level) string {
	switch level {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	case NoLevel:
		return "nolevel"
	case Disabled:
		return "disabled"
	default:
		return "info"
	}
}

// LevelFromEnv looks up key in the environment and parses it into a Level.
func LevelFromEnv(key string) (Level, bool) {
	if key == "" {
		return InfoLevel, false
	}
	value, ok := os.LookupEnv(key)
	if !ok {
		return InfoLevel, false
	}
	return ParseLevel(value)
}

// slogLevelCritical is where critical maps in slog's numeric space, one step
// above slog.LevelError the same way slog.LevelWarn sits above Info.
const slogLevelCritical = slog.LevelError + 4

// SlogLevel maps a Level onto slog's numeric levels. NoLevel maps to Info,
// Disabled above every built-in slog level.
func (l Level) SlogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	case CriticalLevel:
		return slogLevelCritical
	case Disabled:
		return slogLevelCritical + 4
	default:
		return slog.LevelInfo
	}
}

// LevelFromSlog maps a slog level back onto the nearest Level. Custom slog
// levels bucket downward so filtering never promotes a record.
func LevelFromSlog(l slog.Level) Level {
	switch {
	case l >= slogLevelCritical:
		return CriticalLevel
	case l >= slog.LevelError:
		return ErrorLevel
	case l >= slog.LevelWarn:
		return WarnLevel
	case l >= slog.LevelInfo:
		return InfoLevel
	default:
		return DebugLevel
	}
}
