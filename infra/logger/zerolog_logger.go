package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level and an optional rotated log file.
type Config struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset rotation settings.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate rejects unknown levels.
func (c Config) Validate() error {
	if c.Level == "" {
		return nil
	}
	_, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	return err
}

var (
	mu     sync.RWMutex
	output io.Writer
	level  = zerolog.InfoLevel
)

// Configure sets the level and output of loggers created afterwards. When
// cfg.File is set, output is duplicated to a size-rotated file. The
// returned func closes that file.
func Configure(cfg Config) (func() error, error) {
	cfg.SetDefaults()
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, err
	}
	var out io.Writer = consoleOrStdout()
	var lj *lumberjack.Logger
	if cfg.File != "" {
		lj = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = zerolog.MultiLevelWriter(out, lj)
	}
	mu.Lock()
	output, level = out, lvl
	mu.Unlock()
	return func() error {
		if lj == nil {
			return nil
		}
		return lj.Close()
	}, nil
}

func consoleOrStdout() io.Writer {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return os.Stdout
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger on the configured output. All
// logs include the provided component field.
func NewZerologLogger(component string) Logger {
	mu.RLock()
	out, lvl := output, level
	mu.RUnlock()
	if out == nil {
		out = consoleOrStdout()
	}
	return NewWithWriter(out, lvl, component)
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(w io.Writer, lvl zerolog.Level, component string) *ZerologLogger {
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
