package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gregtusar/pairs/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. Output goes to console and, when a file is
// configured, also to a size-rotated log file. The returned closer releases
// the file and is a no-op otherwise.
func New(cfg config.LoggingConfig, console io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, levelErr := logrus.ParseLevel(cfg.Level)
	if levelErr != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if console == nil {
		console = os.Stderr
	}
	if cfg.File == "" {
		logger.SetOutput(console)
		warnLevel(logger, cfg.Level, levelErr)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(io.MultiWriter(console, fileWriter))
	warnLevel(logger, cfg.Level, levelErr)
	return logger, fileWriter, nil
}

func warnLevel(logger *logrus.Logger, level string, err error) {
	if err != nil && level != "" {
		logger.WithError(err).Error("Invalid log level, using INFO")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
