package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDefaults(t *testing.T) {
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvDir, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvNoKeyring, "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Dir != "." || cfg.Password != nil || cfg.LogLevel != logrus.WarnLevel || cfg.NoKeyring {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPassword, "s3cret")
	t.Setenv(EnvDir, "/tmp/vault")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvNoKeyring, "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if string(cfg.Password) != "s3cret" {
		t.Errorf("Password = %q", cfg.Password)
	}
	if cfg.Dir != "/tmp/vault" || cfg.LogLevel != logrus.DebugLevel || !cfg.NoKeyring {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	pw := cfg.PasswordCopy()
	pw[0] = 'X'
	if string(cfg.Password) != "s3cret" {
		t.Error("PasswordCopy must not alias the config password")
	}
}

func TestInvalidValues(t *testing.T) {
	t.Setenv(EnvLogLevel, "loud")
	if _, err := FromEnv(); err == nil {
		t.Error("Expected error for invalid log level")
	}

	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvNoKeyring, "maybe")
	if _, err := FromEnv(); err == nil {
		t.Error("Expected error for invalid bool")
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(EnvDir, "")
	t.Setenv(EnvLogLevel, "error")
	// t.Setenv restores whatever godotenv.Load writes.
	t.Setenv(EnvPassword, "")
	os.Unsetenv(EnvPassword)

	path := filepath.Join(t.TempDir(), ".env")
	content := EnvPassword + "=from-file\n" + EnvDir + "=vaultdir\n" + EnvLogLevel + "=debug\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(cfg.Password) != "from-file" {
		t.Errorf("Password = %q, want from-file", cfg.Password)
	}
	// Variables already present in the environment win over the file.
	if cfg.LogLevel != logrus.ErrorLevel {
		t.Errorf("LogLevel = %v, want error (environment wins)", cfg.LogLevel)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Missing env file should be ignored, got %v", err)
	}
}
