package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" json:"level" yaml:"level" default:"info" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`

	// Format is the log format (json or console).
	Format string `mapstructure:"format" json:"format" yaml:"format" default:"console" validate:"omitempty,oneof=json console"`

	// Director is the directory for rotated log files. Empty disables file output.
	Director string `mapstructure:"director" json:"director" yaml:"director"`

	// FileName is the log file name inside Director.
	FileName string `mapstructure:"file-name" json:"fileName" yaml:"file-name" default:"mediakit.log"`

	// LogInTerminal echoes entries to stderr.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal" default:"true"`

	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"100"`

	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `mapstructure:"max-age" json:"maxAge" yaml:"max-age" default:"7"`

	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups" default:"10"`

	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress" json:"compress" yaml:"compress"`

	// ShowCaller adds caller information to log entries.
	ShowCaller bool `mapstructure:"show-caller" json:"showCaller" yaml:"show-caller"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		Format:        "console",
		FileName:      "mediakit.log",
		LogInTerminal: true,
		MaxSize:       100,
		MaxAge:        7,
		MaxBackups:    10,
	}
}

// ZapLevel converts the string level to zapcore.Level.
func (c Config) ZapLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.FileName == "" {
		c.FileName = d.FileName
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = d.MaxBackups
	}
}
