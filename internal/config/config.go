// Package config loads ramvault settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables
const (
	EnvPassword  = "RAMVAULT_PASSWORD"
	EnvDir       = "RAMVAULT_DIR"
	EnvLogLevel  = "RAMVAULT_LOG_LEVEL"
	EnvNoKeyring = "RAMVAULT_NO_KEYRING"
)

const DefaultEnvFile = ".env"

// Config holds runtime settings.
type Config struct {
	Password  []byte // nil unless RAMVAULT_PASSWORD is set
	Dir       string
	LogLevel  logrus.Level
	NoKeyring bool
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables that are already set, then builds a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Dir:      ".",
		LogLevel: logrus.WarnLevel,
	}

	if pw := os.Getenv(EnvPassword); pw != "" {
		cfg.Password = []byte(pw)
	}
	if dir := os.Getenv(EnvDir); dir != "" {
		cfg.Dir = dir
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	if v := os.Getenv(EnvNoKeyring); v != "" {
		noKeyring, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvNoKeyring, err)
		}
		cfg.NoKeyring = noKeyring
	}
	return cfg, nil
}

// NewLogger returns a stderr logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(c.LogLevel)
	return logger
}

// PasswordCopy returns a copy of the configured password, or nil.
// The caller owns the copy and should wipe it.
func (c *Config) PasswordCopy() []byte {
	if c.Password == nil {
		return nil
	}
	return append([]byte(nil), c.Password...)
}
