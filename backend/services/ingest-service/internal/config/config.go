package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "tankwatch/backend/libs/config"
	"tankwatch/backend/services/ingest-service/internal/fuel"
)

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Port string `yaml:"port" env:"INGEST_HTTP_PORT"`
}

// DatabaseConfig configures Postgres.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"INGEST_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"INGEST_POSTGRES_MAX_OPEN_CONNS"`
	AutoMigrate  bool   `yaml:"autoMigrate" env:"INGEST_AUTO_MIGRATE"`
}

// RedisConfig configures the debounce counter store and alert publisher.
type RedisConfig struct {
	Addr       string        `yaml:"addr" env:"INGEST_REDIS_ADDR"`
	Password   string        `yaml:"password" env:"INGEST_REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"INGEST_REDIS_DB"`
	CounterTTL time.Duration `yaml:"counterTTL" env:"INGEST_REDIS_COUNTER_TTL"`
}

// FuelConfig holds the alerting policy.
type FuelConfig struct {
	WindowSize       int     `yaml:"windowSize" env:"FUEL_WINDOW_SIZE"`
	StableThreshold  int     `yaml:"stableThreshold" env:"FUEL_STABLE_THRESHOLD"`
	ZoneLatitude     float64 `yaml:"zoneLatitude" env:"FUEL_ZONE_LATITUDE"`
	ZoneLongitude    float64 `yaml:"zoneLongitude" env:"FUEL_ZONE_LONGITUDE"`
	ZoneRadiusMeters float64 `yaml:"zoneRadiusMeters" env:"FUEL_ZONE_RADIUS_METERS"`
}

// EmailConfig configures outgoing alert email. An empty Host logs emails instead of sending.
type EmailConfig struct {
	Host       string        `yaml:"host" env:"SMTP_HOST"`
	Port       int           `yaml:"port" env:"SMTP_PORT"`
	Username   string        `yaml:"username" env:"SMTP_USERNAME"`
	Password   string        `yaml:"password" env:"SMTP_PASSWORD"`
	From       string        `yaml:"from" env:"SMTP_FROM"`
	SSL        bool          `yaml:"ssl" env:"SMTP_SSL"`
	Recipient  string        `yaml:"recipient" env:"ALERT_EMAIL_RECIPIENT"`
	Retries    int           `yaml:"retries" env:"ALERT_EMAIL_RETRIES"`
	RetryDelay time.Duration `yaml:"retryDelay" env:"ALERT_EMAIL_RETRY_DELAY"`
}

// GeocoderConfig configures reverse geocoding. An empty URL disables lookups.
type GeocoderConfig struct {
	URL       string `yaml:"url" env:"GEOCODER_URL"`
	UserAgent string `yaml:"userAgent" env:"GEOCODER_USER_AGENT"`
}

// WebSocketConfig configures the live push hub.
type WebSocketConfig struct {
	PingInterval   time.Duration `yaml:"pingInterval" env:"WS_PING_INTERVAL"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" env:"WS_WRITE_TIMEOUT"`
	AllowedOrigins []string      `yaml:"allowedOrigins" env:"WS_ALLOWED_ORIGINS"`
}

// MQTTConfig configures the optional broker subscriber. An empty Broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker" env:"MQTT_BROKER"`
	ClientID string `yaml:"clientId" env:"MQTT_CLIENT_ID"`
	Username string `yaml:"username" env:"MQTT_USERNAME"`
	Password string `yaml:"password" env:"MQTT_PASSWORD"`
	Topic    string `yaml:"topic" env:"MQTT_TOPIC"`
}

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Fuel      FuelConfig      `yaml:"fuel"`
	Email     EmailConfig     `yaml:"email"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// Defaults returns the configuration used before file and env overrides.
func Defaults() *Config {
	zone := fuel.DefaultZone()
	return &Config{
		HTTP:     HTTPConfig{Port: "8080"},
		Database: DatabaseConfig{MaxOpenConns: 10},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Fuel: FuelConfig{
			WindowSize:       10,
			StableThreshold:  fuel.DefaultStableThreshold,
			ZoneLatitude:     zone.Center.Latitude,
			ZoneLongitude:    zone.Center.Longitude,
			ZoneRadiusMeters: zone.RadiusMeters,
		},
		Email: EmailConfig{
			Port:       465,
			SSL:        true,
			Retries:    fuel.DefaultEmailRetries,
			RetryDelay: 5 * time.Second,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		MQTT: MQTTConfig{
			ClientID: "tankwatch-ingest",
			Topic:    "tanker/+/data",
		},
	}
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := Defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: database DSN is required")
	}
	if c.Fuel.WindowSize < fuel.SmoothingWindow+1 {
		return fmt.Errorf("config: fuel window size must be at least %d", fuel.SmoothingWindow+1)
	}
	if c.Fuel.StableThreshold <= 0 {
		return errors.New("config: fuel stable threshold must be positive")
	}
	if c.Fuel.ZoneRadiusMeters <= 0 {
		return errors.New("config: zone radius must be positive")
	}
	if c.Email.Host != "" && c.Email.Recipient == "" {
		return errors.New("config: alert email recipient is required when SMTP is configured")
	}
	if c.Email.Retries < 0 {
		return errors.New("config: email retries must not be negative")
	}
	return nil
}

// Zone returns the configured authorized area.
func (c *Config) Zone() fuel.Zone {
	return fuel.Zone{
		Center: fuel.Coordinate{
			Latitude:  c.Fuel.ZoneLatitude,
			Longitude: c.Fuel.ZoneLongitude,
		},
		RadiusMeters: c.Fuel.ZoneRadiusMeters,
	}
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
