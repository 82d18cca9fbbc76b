package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logger shared by the content services.
// - zap core with ISO-8601 timestamps and lowercase levels
// - provides Debug/Info/Warn/Error/Fatal variants and Init(level)

var (
	mu      sync.RWMutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	jsonOut bool
	logger  = newLogger(os.Stdout, false)
)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:          "ts",
	LevelKey:         "level",
	MessageKey:       "msg",
	EncodeTime:       zapcore.ISO8601TimeEncoder,
	EncodeLevel:      zapcore.LowercaseLevelEncoder,
	EncodeDuration:   zapcore.StringDurationEncoder,
	ConsoleSeparator: " ",
}

func newLogger(w io.Writer, asJSON bool) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(encoderConfig)
	if asJSON {
		enc = zapcore.NewJSONEncoder(encoderConfig)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)).Sugar()
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		level.SetLevel(zapcore.FatalLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// SetFormat switches between "console" (default) and "json" output on stdout.
func SetFormat(format string) {
	asJSON := strings.EqualFold(strings.TrimSpace(format), "json")
	mu.Lock()
	defer mu.Unlock()
	if asJSON == jsonOut {
		return
	}
	jsonOut = asJSON
	logger = newLogger(os.Stdout, asJSON)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, v ...interface{}) { current().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { current().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { current().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { current().Errorf(format, v...) }

// Fatalf logs and exits with status 1.
func Fatalf(format string, v ...interface{}) { current().Fatalf(format, v...) }

// With returns a child logger carrying structured key/value pairs, for call
// sites that log several events about one run.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return current().With(keysAndValues...)
}

// Sync flushes buffered entries; call before exit.
func Sync() { _ = current().Sync() }

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	return level.Level().String()
}
