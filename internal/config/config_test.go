package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected default environment development, got %s", cfg.Environment)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("Expected 30m idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if cfg.SessionRememberTimeout != 30*24*time.Hour {
		t.Errorf("Expected 30d remember timeout, got %s", cfg.SessionRememberTimeout)
	}
	if cfg.MaxUploadSize != 25<<20 {
		t.Errorf("Expected 25 MB upload limit, got %d", cfg.MaxUploadSize)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("Expected no kafka brokers by default, got %v", cfg.KafkaBrokers)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info log level, got %v", cfg.LogLevel)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker-1:9092" || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Errorf("Broker list parsed wrong: %v", cfg.KafkaBrokers)
	}
	if cfg.SessionIdleTimeout != 15*time.Minute {
		t.Errorf("Expected 15m idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %v", cfg.LogLevel)
	}
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "soon")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected invalid duration to fail")
	}
}

func TestLoadConfig_NonPositiveTimeout(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "-5m")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected negative timeout to fail")
	}
}
