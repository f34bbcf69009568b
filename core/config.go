package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the API process.
type Config struct {
	Port           string   // HTTP listen port (e.g., "3000")
	SessionKey     string   // Signing key for the session-cookie token echo
	CookieSecure   bool     // Whether to set Secure flag on the session cookie
	CookieSameSite string   // SameSite policy: Strict/Lax/None
	LogDir         string   // Directory to write application logs
	DatabaseURL    string   // PostgreSQL DSN (required, no default)
	RedisURL       string   // Redis URL (required, no default)
	AllowedOrigins []string // allowed origins for the CORS/origin check
}

// fileConfig mirrors Config for the optional YAML overlay file.
type fileConfig struct {
	Port           string   `yaml:"port"`
	SessionKey     string   `yaml:"session_key"`
	CookieSecure   *bool    `yaml:"cookie_secure"`
	CookieSameSite string   `yaml:"cookie_samesite"`
	LogDir         string   `yaml:"log_dir"`
	DatabaseURL    string   `yaml:"database_url"`
	RedisURL       string   `yaml:"redis_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load populates Config from a YAML file (when CONFIG_FILE is set) and
// the environment. Environment variables win over file values, file
// values win over defaults. The store URLs deliberately have no
// default; see Validate.
func Load() (Config, error) {
	cfg := Config{
		Port:           "3000",
		SessionKey:     "change-this-session-key",
		CookieSameSite: "Strict",
		LogDir:         "/var/log/auth",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = firstNonEmpty(os.Getenv("PORT"), cfg.Port)
	cfg.SessionKey = firstNonEmpty(os.Getenv("SESSION_KEY"), cfg.SessionKey)
	cfg.CookieSecure = boolFromEnv("COOKIE_SECURE", cfg.CookieSecure)
	cfg.CookieSameSite = firstNonEmpty(os.Getenv("COOKIE_SAMESITE"), cfg.CookieSameSite)
	cfg.LogDir = firstNonEmpty(os.Getenv("LOG_DIR"), cfg.LogDir)
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL"), cfg.DatabaseURL)
	cfg.RedisURL = firstNonEmpty(os.Getenv("REDIS_URL"), cfg.RedisURL)
	if origins := parseCSV(os.Getenv("ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	return cfg, nil
}

// Validate reports fatal configuration gaps. A missing store URL stops
// startup; it is never surfaced as a runtime auth failure.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.Port = firstNonEmpty(fc.Port, c.Port)
	c.SessionKey = firstNonEmpty(fc.SessionKey, c.SessionKey)
	if fc.CookieSecure != nil {
		c.CookieSecure = *fc.CookieSecure
	}
	c.CookieSameSite = firstNonEmpty(fc.CookieSameSite, c.CookieSameSite)
	c.LogDir = firstNonEmpty(fc.LogDir, c.LogDir)
	c.DatabaseURL = firstNonEmpty(fc.DatabaseURL, c.DatabaseURL)
	c.RedisURL = firstNonEmpty(fc.RedisURL, c.RedisURL)
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
