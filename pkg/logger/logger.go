// Package logger provides the process-wide structured logger
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger *logrus.Logger
	once          sync.Once
)

// Config controls how a logger is built
type Config struct {
	Level  logrus.Level
	Output io.Writer
}

// DefaultConfig returns info-level logging to stderr
func DefaultConfig() Config {
	return Config{
		Level:  logrus.InfoLevel,
		Output: os.Stderr,
	}
}

// New creates a logger from cfg
func New(cfg Config) *logrus.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(cfg.Output)
	l.SetLevel(cfg.Level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Get returns the process logger, configured once from LOG_LEVEL
func Get() *logrus.Logger {
	once.Do(func() {
		cfg := DefaultConfig()
		if lvl, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
			cfg.Level = lvl
		}
		defaultLogger = New(cfg)
	})
	return defaultLogger
}

// ParseLevel maps a logrus level name to its level. Unknown names report false.
func ParseLevel(name string) (logrus.Level, bool) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return logrus.InfoLevel, false
	}
	return lvl, true
}

// SetLevel changes the level of the process logger by name
func SetLevel(name string) {
	if lvl, ok := ParseLevel(name); ok {
		Get().SetLevel(lvl)
	}
}

// SetOutput redirects the process logger, e.g. to a file while the TUI owns the terminal
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	return New(Config{Level: logrus.PanicLevel, Output: io.Discard})
}
