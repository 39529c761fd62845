package infrastructure

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide zap logger. Development mode switches to
// the console encoder with debug level enabled.
func NewLogger(development bool) *zap.Logger {
	var logger *zap.Logger
	if development {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	logger.Info("logger initialized", zap.Bool("development", development))
	return logger
}
