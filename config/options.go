package config

import (
	"fmt"
	"os"
	"time"

	"github.com/vuhnger/backend/env"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

const defaultSecret = "vuhnger-backend-secret-0123456789"

type ConfigOption func(*models.Config)

// NewConfig builds a Config using functional options with sensible defaults.
// Panics if a required secret is missing in production.
func NewConfig(options ...ConfigOption) *models.Config {
	config := &models.Config{
		AppName:     "vuhnger.dev backend",
		BaseURL:     "http://localhost:8080",
		FrontendURL: "https://vuhnger.dev",
		Environment: "development",
		Port:        "8080",
		Secret:      defaultSecret,
		Database: models.DatabaseConfig{
			Provider:        "postgres",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute * 10,
		},
		Logger: models.LoggerConfig{},
		Security: models.SecurityConfig{
			AllowedOrigins: []string{
				"https://vuhnger.dev",
				"https://www.vuhnger.dev",
				"https://vuhnger.github.io",
			},
			ContentSecurityPolicy: defaultCSP,
		},
		Scheduler: models.SchedulerConfig{
			Interval: 6 * time.Hour,
		},
		Uploads: models.UploadConfig{
			Dir:     "data/uploads/projects",
			BaseURL: "https://api.vuhnger.dev/uploads/projects",
		},
	}

	// Options override defaults only if non-zero/non-empty
	for _, option := range options {
		option(config)
	}

	if os.Getenv(env.EnvGoEnvironment) == "production" && config.Secret == defaultSecret {
		panic(fmt.Errorf("a custom secret must be set in production mode. Please set it via configuration or the %s environment variable", env.EnvStateSecret))
	}

	if err := util.ValidateStruct(config); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}

	return config
}

const defaultCSP = "default-src 'self'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data: https:; " +
	"script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"connect-src 'self'"

func WithAppName(name string) ConfigOption {
	return func(c *models.Config) {
		if name != "" {
			c.AppName = name
		}
	}
}

func WithBaseURL(url string) ConfigOption {
	return func(c *models.Config) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

func WithFrontendURL(url string) ConfigOption {
	return func(c *models.Config) {
		if url != "" {
			c.FrontendURL = url
		}
	}
}

func WithEnvironment(environment string) ConfigOption {
	return func(c *models.Config) {
		if environment != "" {
			c.Environment = environment
		}
	}
}

func WithPort(port string) ConfigOption {
	return func(c *models.Config) {
		if port != "" {
			c.Port = port
		}
	}
}

func WithSecret(secret string) ConfigOption {
	return func(c *models.Config) {
		if secret != "" {
			c.Secret = secret
		}
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *models.Config) {
		if key != "" {
			c.APIKey = key
		}
	}
}

func WithDatabase(database models.DatabaseConfig) ConfigOption {
	return func(c *models.Config) {
		if database.Provider != "" {
			c.Database.Provider = database.Provider
		}
		if database.URL != "" {
			c.Database.URL = database.URL
		}
		if database.MaxOpenConns != 0 {
			c.Database.MaxOpenConns = database.MaxOpenConns
		}
		if database.MaxIdleConns != 0 {
			c.Database.MaxIdleConns = database.MaxIdleConns
		}
		if database.ConnMaxLifetime != 0 {
			c.Database.ConnMaxLifetime = database.ConnMaxLifetime
		}
	}
}

func WithLogger(logger models.LoggerConfig) ConfigOption {
	return func(c *models.Config) {
		if logger.Level != "" {
			c.Logger.Level = logger.Level
		}
	}
}

func WithAllowedOrigins(origins []string) ConfigOption {
	return func(c *models.Config) {
		if len(origins) > 0 {
			c.Security.AllowedOrigins = origins
		}
	}
}

func WithContentSecurityPolicy(csp string) ConfigOption {
	return func(c *models.Config) {
		if csp != "" {
			c.Security.ContentSecurityPolicy = csp
		}
	}
}

func WithRefreshInterval(interval time.Duration) ConfigOption {
	return func(c *models.Config) {
		c.Scheduler.Interval = interval
	}
}

func WithUploads(uploads models.UploadConfig) ConfigOption {
	return func(c *models.Config) {
		if uploads.Dir != "" {
			c.Uploads.Dir = uploads.Dir
		}
		if uploads.BaseURL != "" {
			c.Uploads.BaseURL = uploads.BaseURL
		}
	}
}

func WithRedis(redis models.RedisConfig) ConfigOption {
	return func(c *models.Config) {
		if redis.URL != "" {
			c.Redis.URL = redis.URL
		}
	}
}

func WithStrava(provider models.ProviderConfig) ConfigOption {
	return func(c *models.Config) {
		c.Strava = mergeProvider(c.Strava, provider)
	}
}

func WithWakaTime(provider models.ProviderConfig) ConfigOption {
	return func(c *models.Config) {
		c.WakaTime = mergeProvider(c.WakaTime, provider)
	}
}

func mergeProvider(base, override models.ProviderConfig) models.ProviderConfig {
	if override.ClientID != "" {
		base.ClientID = override.ClientID
	}
	if override.ClientSecret != "" {
		base.ClientSecret = override.ClientSecret
	}
	if override.RedirectURI != "" {
		base.RedirectURI = override.RedirectURI
	}
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	return base
}
