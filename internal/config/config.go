// Package config loads the server configuration from the environment, with
// an optional YAML file for tunables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Host string
	Port int

	DB DBConfig

	// Tunables, overridable via the YAML file named by CONFIG_FILE.
	TokenTTL        time.Duration `yaml:"token_ttl"`
	MaxTokens       int           `yaml:"max_tokens"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	InactiveMaxAge  time.Duration `yaml:"inactive_max_age"`
	LoginPerSecond  float64       `yaml:"login_per_second"`
	LoginBurst      int           `yaml:"login_burst"`
	StaticRoot      string        `yaml:"static_root"`
	AdminUser       string        `yaml:"admin_user"`
	AdminPassword   string        `yaml:"admin_password"`
}

type DBConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// Load reads the environment. Database naming accepts both the MYSQL_* and
// DB_* conventions for backward compatibility; user, password and database
// name are required.
func Load() (*Config, error) {
	cfg := &Config{
		Host:            envOr("HOST", "0.0.0.0"),
		Port:            envIntOr("PORT", 8000),
		TokenTTL:        time.Hour,
		MaxTokens:       3,
		JanitorInterval: time.Hour,
		InactiveMaxAge:  7 * 24 * time.Hour,
		LoginPerSecond:  1,
		LoginBurst:      10,
		StaticRoot:      "front",
		AdminUser:       "admin",
		AdminPassword:   "admin",
	}

	cfg.DB = DBConfig{
		Host:     firstEnv("localhost", "MYSQL_HOST", "DB_HOST"),
		Port:     envIntOr("MYSQL_PORT", envIntOr("DB_PORT", 5432)),
		Name:     firstEnv("", "MYSQL_DATABASE", "DB_NAME"),
		User:     firstEnv("", "MYSQL_USER", "DB_USERNAME"),
		Password: firstEnv("", "MYSQL_PASSWORD", "DB_PASSWORD"),
	}

	if cfg.DB.User == "" || cfg.DB.Password == "" || cfg.DB.Name == "" {
		return nil, fmt.Errorf(
			"missing database configuration: make sure DB_USERNAME/MYSQL_USER, " +
				"DB_PASSWORD/MYSQL_PASSWORD and DB_NAME/MYSQL_DATABASE are set")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Addr is the listen address.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// DSN builds the postgres connection string.
func (cfg *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func firstEnv(fallback string, keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return fallback
}
