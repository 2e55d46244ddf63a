package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"quote-bridge/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name  string
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// -----------------------------------------------------------------------------

// NewLogger creates a Logger writing to stdout and, when configured, to the
// config's log file.
func NewLogger(config *models.MConfig, name string) *Logger {
	level, logFile := "INFO", ""
	if config != nil {
		level, logFile = config.LogLevel, config.LogFile
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if f := openLogFile(logFile); f != nil {
		writers = append(writers, zapcore.AddSync(f))
	}
	return newLogger(name, level, zapcore.NewMultiWriteSyncer(writers...))
}

// -----------------------------------------------------------------------------

// NewFileLogger creates a Logger that never touches stdout. The worker uses it
// because its stdout carries the control channel.
func NewFileLogger(name, level, logFile string) *Logger {
	if f := openLogFile(logFile); f != nil {
		return newLogger(name, level, zapcore.AddSync(f))
	}
	return newLogger(name, level, zapcore.AddSync(io.Discard))
}

// -----------------------------------------------------------------------------

// NewWriterLogger creates a Logger writing JSON lines to w.
func NewWriterLogger(name, level string, w io.Writer) *Logger {
	return newLogger(name, level, zapcore.AddSync(w))
}

// -----------------------------------------------------------------------------

func newLogger(name, level string, ws zapcore.WriteSyncer) *Logger {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), ws, zapLevel)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", name))

	return &Logger{name: name, base: base, sugar: base.Sugar()}
}

// -----------------------------------------------------------------------------

func openLogFile(logFile string) *os.File {
	if logFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil
	}
	return f
}

// -----------------------------------------------------------------------------

// Named returns a child logger sharing the same outputs.
func (l *Logger) Named(name string) *Logger {
	base := l.base.With(zap.String("component", name))
	return &Logger{name: name, base: base, sugar: base.Sugar()}
}

// -----------------------------------------------------------------------------

// Debug logs debugging messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// -----------------------------------------------------------------------------

// Log writes msg at the level matching a relayed log type.
func (l *Logger) Log(logType models.LogType, format string, args ...interface{}) {
	switch logType {
	case models.LogError:
		l.Error(format, args...)
	case models.LogWarning:
		l.Warning(format, args...)
	default:
		l.Info(format, args...)
	}
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries
func (l *Logger) Sync() {
	_ = l.base.Sync()
}
