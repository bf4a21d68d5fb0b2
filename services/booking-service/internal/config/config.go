// Package config holds the booking-service settings.
package config

import (
	"fmt"
	"strings"
	"time"

	libconfig "github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string `koanf:"service_name"`
	LogLevel    string `koanf:"log_level"`
	Port        string `koanf:"port"`
	GRPCPort    string `koanf:"grpc_port"`

	Storage     string `koanf:"storage"`
	DatabaseURL string `koanf:"database_url"`
	DBMaxConns  int32  `koanf:"db_max_conns"`

	BufferMinutes   int `koanf:"booking_buffer_minutes"`
	SlotStepMinutes int `koanf:"slot_step_minutes"`
	CommitTimeoutMS int `koanf:"commit_timeout_ms"`

	KafkaBrokers     string `koanf:"kafka_brokers"`
	NotifyTimeoutMS  int    `koanf:"notify_timeout_ms"`
	BreakerThreshold uint32 `koanf:"notify_breaker_threshold"`

	RedisAddr          string `koanf:"redis_addr"`
	RateLimitPerMinute int    `koanf:"rate_limit_per_minute"`
	CORSOrigins        string `koanf:"cors_allowed_origins"`

	ConfirmationSecret  string `koanf:"confirmation_secret"`
	CompletionSweepSpec string `koanf:"completion_sweep_spec"`
}

func Defaults() Config {
	return Config{
		ServiceName:         "booking-service",
		LogLevel:            "info",
		Port:                "8083",
		GRPCPort:            "9093",
		Storage:             StoragePostgres,
		DBMaxConns:          10,
		BufferMinutes:       booking.DefaultBufferMin,
		SlotStepMinutes:     30,
		CommitTimeoutMS:     5000,
		NotifyTimeoutMS:     3000,
		BreakerThreshold:    5,
		RateLimitPerMinute:  60,
		CORSOrigins:         "*",
		CompletionSweepSpec: "@every 5m",
	}
}

// Load layers Defaults, the YAML file named by BOOKING_CONFIG_FILE (if any)
// and the environment, then validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := libconfig.Load(Defaults(), libconfig.String("BOOKING_CONFIG_FILE", ""), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := libconfig.ValidPort("PORT", c.Port); err != nil {
		return err
	}
	if err := libconfig.ValidPort("GRPC_PORT", c.GRPCPort); err != nil {
		return err
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("STORAGE must be %q or %q (got %q)", StorageMemory, StoragePostgres, c.Storage)
	}
	if c.BufferMinutes < 0 {
		return fmt.Errorf("BOOKING_BUFFER_MINUTES must not be negative (got %d)", c.BufferMinutes)
	}
	if c.SlotStepMinutes <= 0 {
		return fmt.Errorf("SLOT_STEP_MINUTES must be positive (got %d)", c.SlotStepMinutes)
	}
	return nil
}

func (c Config) SlotStep() time.Duration      { return time.Duration(c.SlotStepMinutes) * time.Minute }
func (c Config) CommitTimeout() time.Duration { return time.Duration(c.CommitTimeoutMS) * time.Millisecond }
func (c Config) NotifyTimeout() time.Duration { return time.Duration(c.NotifyTimeoutMS) * time.Millisecond }

// AllowedOrigins splits the comma-separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
