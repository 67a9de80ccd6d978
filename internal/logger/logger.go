// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and encoding of the logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT.  Development environments default
// to a console encoder.
func FromEnv(appEnv string) Config {
	format := "json"
	if appEnv == "dev" {
		format = "console"
	}
	return Config{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("LOG_FORMAT", format)),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// New builds a logger from cfg.  An unknown level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" || cfg.Format == "text" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if err := zc.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q, using info\n", cfg.Level)
		zc.Level.SetLevel(zapcore.InfoLevel)
	}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
