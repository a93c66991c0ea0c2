package log

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu         sync.RWMutex
	sugar      *zap.SugaredLogger
	loggerOnce sync.Once
	atomicLvl  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the global zap logger writing console-encoded lines to
// stderr. Callers may replace it later via Use.
func initLogger() {
	loggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.Level = atomicLvl
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true

		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		mu.Lock()
		if sugar == nil {
			sugar = l.Sugar()
		}
		mu.Unlock()
	})
}

// Use installs l as the global logger. Tests use it with zap.NewNop() or an
// observer core.
func Use(l *zap.Logger) {
	loggerOnce.Do(func() {})
	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
}

// SetLevel changes the minimum level of the default logger.
func SetLevel(l Level) {
	initLogger()
	atomicLvl.SetLevel(l.zapLevel())
}

// ParseLevel maps a config string ("debug", "info", "error") to a Level.
// Unknown values yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LevelDebug):
		return LevelDebug
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = current().Sync()
}

func current() *zap.SugaredLogger {
	initLogger()
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}
