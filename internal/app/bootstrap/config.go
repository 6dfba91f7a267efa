package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the service.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	DirectoryAddr string

	JWTSecret string

	AutoReleaseDays   int
	OwnershipWaitDays int
	ConfigCacheTTL    time.Duration
	ViewDedupWindow   time.Duration

	NotificationsEnabled bool

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL   string   `yaml:"postgres_url"`
		RedisURL      string   `yaml:"redis_url"`
		KafkaBrokers  []string `yaml:"kafka_brokers"`
		DirectoryAddr string   `yaml:"directory_addr"`
	} `yaml:"dependencies"`
	Escrow struct {
		AutoReleaseDays   int `yaml:"auto_release_days"`
		OwnershipWaitDays int `yaml:"ownership_wait_days"`
	} `yaml:"escrow"`
	Notifications struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"notifications"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "escrow-settlement-service",
		HTTPPort:             8080,
		GRPCPort:             9090,
		AutoReleaseDays:      3,
		OwnershipWaitDays:    7,
		ConfigCacheTTL:       30 * time.Second,
		ViewDedupWindow:      24 * time.Hour,
		NotificationsEnabled: true,
		MaxDBConns:           20,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.DirectoryAddr != "" {
			cfg.DirectoryAddr = f.Dependencies.DirectoryAddr
		}
		if f.Escrow.AutoReleaseDays > 0 {
			cfg.AutoReleaseDays = f.Escrow.AutoReleaseDays
		}
		if f.Escrow.OwnershipWaitDays > 0 {
			cfg.OwnershipWaitDays = f.Escrow.OwnershipWaitDays
		}
		if f.Notifications.Enabled != nil {
			cfg.NotificationsEnabled = *f.Notifications.Enabled
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.DirectoryAddr = envOrDefault("DIRECTORY_GRPC_ADDR", cfg.DirectoryAddr)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.NotificationsEnabled = envBool("NOTIFICATIONS_ENABLED", cfg.NotificationsEnabled)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.AutoReleaseDays = envInt("AUTO_RELEASE_DAYS", cfg.AutoReleaseDays)
	cfg.OwnershipWaitDays = envInt("OWNERSHIP_WAIT_DAYS", cfg.OwnershipWaitDays)
	cfg.ConfigCacheTTL = time.Duration(envInt("CONFIG_CACHE_TTL_SECONDS", int(cfg.ConfigCacheTTL.Seconds()))) * time.Second
	cfg.ViewDedupWindow = time.Duration(envInt("VIEW_DEDUP_HOURS", int(cfg.ViewDedupWindow.Hours()))) * time.Hour
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars, falling back on empty or invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
