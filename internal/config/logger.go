package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger from log.level and log.development.
// Output goes to stderr.
func NewLogger(c *Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.GetBool("log.development") {
		zc = zap.NewDevelopmentConfig()
	}
	if s := c.GetString("log.level"); s != "" {
		level, err := zapcore.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
