package config

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

// NewLogger builds a logger from the logging section. An unknown level falls
// back to info. Output goes to stderr so the stdio transport keeps stdout.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
