package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "tankwatch/backend/libs/config"
	"tankwatch/backend/services/dashboard-service/internal/password"
)

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP struct {
		Port           string   `yaml:"port" env:"DASHBOARD_HTTP_PORT"`
		AllowedOrigins []string `yaml:"allowedOrigins" env:"DASHBOARD_ALLOWED_ORIGINS"`
		SecureCookie   bool     `yaml:"secureCookie" env:"DASHBOARD_SECURE_COOKIE"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"DASHBOARD_POSTGRES_DSN"`
	} `yaml:"database"`
	Admin struct {
		Email        string `yaml:"email" env:"ADMIN_EMAIL"`
		PasswordHash string `yaml:"passwordHash" env:"ADMIN_PASSWORD_HASH"`
	} `yaml:"admin"`
	JWT struct {
		Secret           string `yaml:"secret" env:"DASHBOARD_JWT_SECRET"`
		ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"DASHBOARD_JWT_EXPIRES_MINUTES"`
	} `yaml:"jwt"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8081"
	cfg.HTTP.SecureCookie = true
	cfg.JWT.ExpiresInMinutes = 60

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
	if c.JWT.Secret == "" {
		return errors.New("config: jwt secret is required")
	}
	if c.Admin.Email == "" || c.Admin.PasswordHash == "" {
		return errors.New("config: admin email and password hash are required")
	}
	if err := password.CheckHash(c.Admin.PasswordHash); err != nil {
		return fmt.Errorf("config: admin password hash: %w", err)
	}
	return nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8081"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.JWT.ExpiresInMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}
