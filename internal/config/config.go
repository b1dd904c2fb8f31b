// Package config loads runtime settings from .env files and the
// environment. CLI flags override whatever is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables.
const (
	EnvDB           = "WORKFLOW_DB"
	EnvLogLevel     = "WORKFLOW_LOG_LEVEL"
	EnvAMQPURL      = "WORKFLOW_AMQP_URL"
	EnvAMQPExchange = "WORKFLOW_AMQP_EXCHANGE"
)

// Defaults.
const (
	DefaultDB           = "workflow.db"
	DefaultLogLevel     = "info"
	DefaultAMQPExchange = "workflow"
)

// Config holds runtime settings.
type Config struct {
	// DB is the SQLite database path.
	DB string

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string

	// AMQPURL enables event publishing when set.
	AMQPURL string

	// AMQPExchange is the topic exchange events are published to.
	AMQPExchange string
}

// Load reads the given .env files (or ./.env when none are given) and then
// the process environment. Variables already set in the environment win
// over .env values. A missing default .env is not an error; a missing
// explicit file is.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load %s: %w", strings.Join(envFiles, ", "), err)
	}

	cfg := &Config{
		DB:           lookup(EnvDB, DefaultDB),
		LogLevel:     lookup(EnvLogLevel, DefaultLogLevel),
		AMQPURL:      lookup(EnvAMQPURL, ""),
		AMQPExchange: lookup(EnvAMQPExchange, DefaultAMQPExchange),
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}

	return cfg, nil
}

// Logger builds a production zap logger at the configured level, or a
// development logger when verbose is set.
func (c *Config) Logger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func lookup(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
