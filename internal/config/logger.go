package config

import (
	"go.uber.org/zap"
)

// NewLogger builds a production zap logger, or a development one with
// readable console output when APP_ENV=development.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
