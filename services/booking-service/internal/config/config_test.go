package config

import (
	"testing"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("BOOKING_BUFFER_MINUTES", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8083" || cfg.SlotStepMinutes != 30 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.BufferMinutes != 10 {
		t.Fatalf("expected buffer 10 from env, got %d", cfg.BufferMinutes)
	}
	if got := cfg.AllowedOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"postgres without url": func(c *Config) { c.Storage = StoragePostgres; c.DatabaseURL = "" },
		"unknown storage":      func(c *Config) { c.Storage = "sqlite" },
		"bad port":             func(c *Config) { c.Port = "0" },
		"negative buffer":      func(c *Config) { c.BufferMinutes = -1 },
		"zero step":            func(c *Config) { c.SlotStepMinutes = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Storage = StorageMemory
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultBufferMatchesCoordinator(t *testing.T) {
	if got := Defaults().BufferMinutes; got != booking.DefaultBufferMin {
		t.Fatalf("expected default buffer %d, got %d", booking.DefaultBufferMin, got)
	}
}
