// Package logger configures the process-wide zerolog logger and hands out
// component-scoped children.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	FieldComponent = "component"
)

// Config configures the global logger.
type Config struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

var (
	mu     sync.RWMutex
	global = newLogger(Config{Level: "info", Format: FormatConsole}, os.Stdout)
)

// Init replaces the global logger.
func Init(cfg Config) {
	l := newLogger(cfg, os.Stdout)
	mu.Lock()
	global = l
	mu.Unlock()
}

// InitWithWriter replaces the global logger, writing to w.
func InitWithWriter(cfg Config, w io.Writer) {
	l := newLogger(cfg, w)
	mu.Lock()
	global = l
	mu.Unlock()
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// WithComponent returns a child of the global logger tagged with name.
func WithComponent(name string) *zerolog.Logger {
	l := Get().With().Str(FieldComponent, name).Logger()
	return &l
}

func newLogger(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := w
	if strings.ToLower(cfg.Format) != FormatJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
