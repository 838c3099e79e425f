// Package logger configures the process-wide logrus logger. Components log
// through WithComponent so every entry carries a "component" field.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string // logrus level name, default info
	Format string // "json" or "text"
	File   string // optional path, rotated with lumberjack
}

var (
	mu  sync.RWMutex
	std = newLogger(os.Stdout)
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return l
}

// Init replaces the global logger according to opts.
func Init(opts Options) error {
	l := newLogger(os.Stdout)

	levelStr := strings.ToLower(strings.TrimSpace(opts.Level))
	if levelStr == "" {
		levelStr = "info"
	}
	lvl, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(opts.Format) {
	case "", "text":
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.File != "" {
		l.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  100,
			MaxAge:   14,
			Compress: true,
		}))
	}

	mu.Lock()
	std = l
	mu.Unlock()
	return nil
}

// L returns the global logger.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func WithComponent(component string) *logrus.Entry {
	return L().WithField("component", component)
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w io.Writer) {
	L().SetOutput(w)
}
