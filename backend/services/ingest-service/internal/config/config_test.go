package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("INGEST_POSTGRES_DSN", "postgres://localhost/tankwatch")
	t.Setenv("FUEL_ZONE_RADIUS_METERS", "250")
	t.Setenv("ALERT_EMAIL_RETRY_DELAY", "2s")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://dash.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fuel.WindowSize != 10 || cfg.Fuel.StableThreshold != 40 {
		t.Fatalf("unexpected fuel defaults %+v", cfg.Fuel)
	}
	zone := cfg.Zone()
	if zone.RadiusMeters != 250 || zone.Center.Latitude != 30.886188 || zone.Center.Longitude != 75.929028 {
		t.Fatalf("unexpected zone %+v", zone)
	}
	if cfg.Email.RetryDelay != 2*time.Second || cfg.Email.Retries != 3 {
		t.Fatalf("unexpected email config %+v", cfg.Email)
	}
	if len(cfg.WebSocket.AllowedOrigins) != 1 {
		t.Fatalf("unexpected origins %v", cfg.WebSocket.AllowedOrigins)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.HTTPAddress())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }},
		{name: "short window", mutate: func(c *Config) { c.Fuel.WindowSize = 5 }},
		{name: "zero radius", mutate: func(c *Config) { c.Fuel.ZoneRadiusMeters = 0 }},
		{name: "smtp without recipient", mutate: func(c *Config) { c.Email.Host = "smtp.example.com" }},
		{name: "negative retries", mutate: func(c *Config) { c.Email.Retries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Database.DSN = "postgres://localhost/tankwatch"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
