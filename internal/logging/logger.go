// Package logging provides configured logrus logger instances.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/config"
)

// Fields represents structured logging fields.
type Fields = logrus.Fields

// NewLogger creates a new configured logger instance.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService creates a logger entry with a service field attached
// to all entries.
func NewLoggerWithService(serviceName string) *logrus.Entry {
	return NewLogger().WithField("service", serviceName)
}
