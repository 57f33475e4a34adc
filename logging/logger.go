package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	// With creates a child logger with additional fields.
	With(fields ...zap.Field) Logger
	// WithError creates a child logger with an error field.
	WithError(err error) Logger
	// Named creates a child logger with the given name.
	Named(name string) Logger

	// Zap returns the underlying *zap.Logger.
	Zap() *zap.Logger
	// Sync flushes any buffered log entries.
	Sync() error
}

type zapLogger struct {
	zl *zap.Logger
}

// NewLogger creates a Logger from the given Config. When Director is set,
// entries are also written to a lumberjack-rotated file.
func NewLogger(config Config) Logger {
	config.applyDefaults()

	var sinks []zapcore.WriteSyncer
	if config.LogInTerminal {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}
	if config.Director != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(config.Director, config.FileName),
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
			LocalTime:  true,
		}))
	}
	if len(sinks) == 0 {
		return Nop()
	}
	return newLogger(config, zapcore.NewMultiWriteSyncer(sinks...))
}

// NewWithWriter creates a Logger that writes only to w.
func NewWithWriter(config Config, w io.Writer) Logger {
	config.applyDefaults()
	return newLogger(config, zapcore.AddSync(w))
}

// FromZap wraps an existing *zap.Logger as a Logger.
func FromZap(zl *zap.Logger) Logger {
	return &zapLogger{zl: zl}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zapLogger{zl: zap.NewNop()}
}

func newLogger(config Config, ws zapcore.WriteSyncer) Logger {
	core := zapcore.NewCore(encoder(config), ws, config.ZapLevel())
	zl := zap.New(core)
	if config.ShowCaller {
		zl = zl.WithOptions(zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return &zapLogger{zl: zl}
}

func encoder(config Config) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.zl.Debug(msg, fields...) }

func (l *zapLogger) Info(msg string, fields ...zap.Field) { l.zl.Info(msg, fields...) }

func (l *zapLogger) Warn(msg string, fields ...zap.Field) { l.zl.Warn(msg, fields...) }

func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.zl.Error(msg, fields...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{zl: l.zl.With(fields...)}
}

func (l *zapLogger) WithError(err error) Logger {
	return &zapLogger{zl: l.zl.With(zap.Error(err))}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{zl: l.zl.Named(name)}
}

func (l *zapLogger) Zap() *zap.Logger { return l.zl }

func (l *zapLogger) Sync() error { return l.zl.Sync() }

var _ Logger = (*zapLogger)(nil)
