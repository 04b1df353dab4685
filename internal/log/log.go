package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu       sync.RWMutex
	logger   *slog.Logger
	minLevel = new(slog.LevelVar)
)

func init() {
	SetOutput(os.Stderr)
}

// SetOutput redirects all log output to w. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: minLevel})
	mu.Lock()
	logger = slog.New(h)
	mu.Unlock()
}

// SetLevel sets the minimum level that is written. Unknown values enable
// everything.
func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		minLevel.Set(slog.LevelDebug)
	case LevelInfo:
		minLevel.Set(slog.LevelInfo)
	case LevelWarn:
		minLevel.Set(slog.LevelWarn)
	case LevelError:
		minLevel.Set(slog.LevelError)
	default:
		minLevel.Set(slog.LevelDebug)
	}
}

// Logger returns the underlying slog logger for code that wants attrs.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, kv ...any) {
	Logger().Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	Logger().Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	Logger().Warn(msg, kv...)
}

// Error logs msg with err under the "err" key ahead of the other pairs.
func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	Logger().Error(msg, extended...)
}
