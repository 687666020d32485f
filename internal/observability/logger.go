package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for the given mode. "prod" and "production" select the
// JSON production encoder; anything else the human-readable development one.
// Production logs start at Info, development logs at Debug.
func NewLogger(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// IsProduction reports whether mode selects the production logger.
func IsProduction(mode string) bool {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return true
	}
	return false
}
