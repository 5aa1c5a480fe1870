package models

import (
	"time"
)

// Config holds the runtime configuration for the backend services.
type Config struct {
	AppName     string `json:"app_name" toml:"app_name"`
	BaseURL     string `json:"base_url" toml:"base_url" validate:"omitempty,url"`
	FrontendURL string `json:"frontend_url" toml:"frontend_url" validate:"omitempty,url"`
	Environment string `json:"environment" toml:"environment"`
	Port        string `json:"port" toml:"port" validate:"omitempty,number"`

	// Secret signs OAuth state parameters and derives the token encryption key.
	Secret string `json:"-" toml:"secret"`
	// APIKey guards internal endpoints (manual refresh, calendar admin).
	// Empty means the check is disabled (development mode).
	APIKey string `json:"-" toml:"api_key"`

	Database  DatabaseConfig  `json:"database" toml:"database"`
	Logger    LoggerConfig    `json:"logger" toml:"logger"`
	Security  SecurityConfig  `json:"security" toml:"security"`
	Scheduler SchedulerConfig `json:"scheduler" toml:"scheduler"`
	Redis     RedisConfig     `json:"redis" toml:"redis"`
	Uploads   UploadConfig    `json:"uploads" toml:"uploads"`

	Strava   ProviderConfig `json:"strava" toml:"strava"`
	WakaTime ProviderConfig `json:"wakatime" toml:"wakatime"`
}

type DatabaseConfig struct {
	Provider        string        `json:"provider" toml:"provider" validate:"omitempty,oneof=postgres sqlite"`
	URL             string        `json:"url" toml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" toml:"conn_max_lifetime"`
}

type LoggerConfig struct {
	Level string `json:"level" toml:"level"`
}

type SecurityConfig struct {
	AllowedOrigins []string `json:"allowed_origins" toml:"allowed_origins"`
	// ContentSecurityPolicy is attached to every response when non-empty.
	ContentSecurityPolicy string `json:"content_security_policy" toml:"content_security_policy"`
}

type SchedulerConfig struct {
	// Interval between refresh cycles. Zero disables the scheduler.
	Interval time.Duration `json:"interval" toml:"interval"`
}

type RedisConfig struct {
	// URL enables the Redis-backed OAuth state store when set.
	URL string `json:"url" toml:"url"`
}

// UploadConfig describes where project images land and how they are served.
type UploadConfig struct {
	// Dir is the local directory uploaded files are written to.
	Dir string `json:"dir" toml:"dir"`
	// BaseURL is the public prefix uploaded files are reachable under.
	BaseURL string `json:"base_url" toml:"base_url" validate:"omitempty,url"`
}

// ProviderConfig describes one external OAuth provider (Strava, WakaTime).
type ProviderConfig struct {
	ClientID     string `json:"client_id" toml:"client_id"`
	ClientSecret string `json:"-" toml:"client_secret"`
	RedirectURI  string `json:"redirect_uri" toml:"redirect_uri"`
	// BaseURL overrides the provider's API host, used in tests.
	BaseURL string `json:"base_url" toml:"base_url"`
}

// Configured reports whether the provider has OAuth credentials set.
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}
