package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/joho/godotenv"

	"github.com/vuhnger/backend/config"
	"github.com/vuhnger/backend/env"
	"github.com/vuhnger/backend/events"
	"github.com/vuhnger/backend/internal/bootstrap"
	"github.com/vuhnger/backend/internal/clients"
	internalevents "github.com/vuhnger/backend/internal/events"
	"github.com/vuhnger/backend/internal/handlers"
	"github.com/vuhnger/backend/internal/migrations"
	"github.com/vuhnger/backend/internal/oauthstate"
	"github.com/vuhnger/backend/internal/refresher"
	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/internal/services"
	"github.com/vuhnger/backend/models"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil && os.Getenv(env.EnvGoEnvironment) != "production" {
		slog.Debug("no .env file found, using process environment")
	}

	cfg := buildConfig()

	logger := bootstrap.InitLogger(bootstrap.LoggerOptions{Level: cfg.Logger.Level})

	db, err := bootstrap.InitDatabase(bootstrap.OptionsFromConfig(cfg.Database), cfg.Logger.Level)
	if err != nil {
		logger.Error("database init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.RunCoreMigrations(ctx, logger, cfg.Logger.Level, cfg.Database.Provider, db); err != nil {
		logger.Error("migrations failed", slog.Any("error", err))
		os.Exit(1)
	}

	bus := newPubSub(cfg, logger)
	defer bus.Close()
	for _, topic := range []string{events.TopicStatsRefreshed, events.TopicCredentialsUpdated} {
		if err := internalevents.LogSubscriber(ctx, bus, logger, topic); err != nil {
			logger.Warn("event subscriber failed", slog.String("topic", topic), slog.Any("error", err))
		}
	}

	stateStore := newNonceStore(cfg, logger)
	defer stateStore.Close()
	states := oauthstate.NewManager(cfg.Secret, stateStore)

	stats := repositories.NewBunStatRepository(db)
	creds := repositories.NewBunCredentialRepository(db)
	calendar := repositories.NewBunCalendarRepository(db)
	projects := repositories.NewBunProjectRepository(db)
	cipher := repositories.NewTokenCipher(cfg.Secret)

	stravaService := services.NewStravaService(
		clients.NewStravaClient(cfg.Strava), stats, creds, cipher, bus, logger)
	wakatimeService := services.NewWakaTimeService(
		clients.NewWakaTimeClient(cfg.WakaTime), stats, creds, cipher, bus, logger)
	calendarService := services.NewCalendarService(calendar)
	projectService := services.NewProjectService(projects)

	router := handlers.NewRouter(cfg, handlers.Deps{
		Strava: &handlers.ProviderHandler{
			Source:     models.SourceStrava,
			StatsTypes: []string{services.StravaStatsYTD, services.StravaStatsRecentActivities, services.StravaStatsMonthly},
			Config:     cfg,
			Service:    stravaService,
			Stats:      stats,
			States:     states,
			DB:         db,
			Logger:     logger,
		},
		WakaTime: &handlers.ProviderHandler{
			Source:     models.SourceWakaTime,
			StatsTypes: []string{services.WakaTimeStatsToday, services.WakaTimeStatsLast7, services.WakaTimeStatsAllTime},
			Config:     cfg,
			Service:    wakatimeService,
			Stats:      stats,
			States:     states,
			DB:         db,
			Logger:     logger,
		},
		Calendar: &handlers.CalendarHandler{
			Config:  cfg,
			Service: calendarService,
			DB:      db,
			Logger:  logger,
		},
		Projects: &handlers.ProjectHandler{
			Config:  cfg,
			Service: projectService,
			Logger:  logger,
		},
	})

	go refresher.New(cfg.Scheduler.Interval, logger,
		refresher.Job{Name: "strava", Run: stravaService.RefreshAll},
		refresher.Job{Name: "wakatime", Run: wakatimeService.RefreshAll},
	).Start(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", server.Addr),
			slog.String("environment", cfg.Environment),
		)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
	}
}

// buildConfig layers defaults, the optional TOML file, and environment
// variable overrides, in that order.
func buildConfig() *models.Config {
	fileConfig := loadConfigFromFile()

	refreshInterval := fileConfig.Scheduler.Interval
	if raw := os.Getenv(env.EnvRefreshInterval); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			refreshInterval = parsed
		} else {
			slog.Warn("invalid refresh interval, using default", "value", raw)
		}
	}

	options := []config.ConfigOption{
		config.WithAppName(fileConfig.AppName),
		config.WithBaseURL(fileConfig.BaseURL),
		config.WithFrontendURL(fileConfig.FrontendURL),
		config.WithSecret(fileConfig.Secret),
		config.WithAPIKey(fileConfig.APIKey),
		config.WithDatabase(fileConfig.Database),
		config.WithLogger(fileConfig.Logger),
		config.WithAllowedOrigins(fileConfig.Security.AllowedOrigins),
		config.WithContentSecurityPolicy(fileConfig.Security.ContentSecurityPolicy),
		config.WithRedis(fileConfig.Redis),
		config.WithUploads(fileConfig.Uploads),
		config.WithStrava(fileConfig.Strava),
		config.WithWakaTime(fileConfig.WakaTime),

		config.WithEnvironment(getEnv(env.EnvGoEnvironment, fileConfig.Environment)),
		config.WithPort(getEnv(env.EnvPort, fileConfig.Port)),
		config.WithFrontendURL(os.Getenv(env.EnvFrontendURL)),
		config.WithSecret(os.Getenv(env.EnvStateSecret)),
		config.WithAPIKey(os.Getenv(env.EnvInternalAPIKey)),
		config.WithDatabase(models.DatabaseConfig{
			Provider: os.Getenv(env.EnvDatabaseProvider),
			URL:      os.Getenv(env.EnvDatabaseURL),
		}),
		config.WithRedis(models.RedisConfig{URL: os.Getenv(env.EnvRedisURL)}),
		config.WithUploads(models.UploadConfig{
			Dir:     os.Getenv(env.EnvUploadDir),
			BaseURL: os.Getenv(env.EnvUploadBaseURL),
		}),
		config.WithStrava(models.ProviderConfig{
			ClientID:     os.Getenv(env.EnvStravaClientID),
			ClientSecret: os.Getenv(env.EnvStravaClientSecret),
			RedirectURI:  os.Getenv(env.EnvStravaRedirectURI),
		}),
		config.WithWakaTime(models.ProviderConfig{
			ClientID:     os.Getenv(env.EnvWakaTimeClientID),
			ClientSecret: os.Getenv(env.EnvWakaTimeClientSecret),
			RedirectURI:  os.Getenv(env.EnvWakaTimeRedirectURI),
		}),
	}
	if refreshInterval > 0 {
		options = append(options, config.WithRefreshInterval(refreshInterval))
	}

	return config.NewConfig(options...)
}

// loadConfigFromFile reads the optional TOML config. A missing file is fine;
// everything can come from environment variables.
func loadConfigFromFile() models.Config {
	configPath := getEnv(env.EnvConfigPath, "config.toml")

	var fileConfig models.Config
	if _, err := os.Stat(configPath); err != nil {
		return fileConfig
	}
	if _, err := toml.DecodeFile(configPath, &fileConfig); err != nil {
		slog.Warn("failed to parse config file, using environment and defaults",
			"path", configPath, "error", err)
	}
	return fileConfig
}

func newNonceStore(cfg *models.Config, logger *slog.Logger) oauthstate.NonceStore {
	if cfg.Redis.URL != "" {
		store, err := oauthstate.NewRedisNonceStore(cfg.Redis.URL)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = store.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("using redis state store")
				return store
			}
			store.Close()
		}
		logger.Warn("redis unavailable, falling back to in-memory state store", slog.Any("error", err))
	}
	return oauthstate.NewMemoryNonceStore(time.Minute)
}

// newPubSub prefers the Redis Streams bus when Redis is configured so
// refresh events survive restarts; otherwise events stay in-process.
func newPubSub(cfg *models.Config, logger *slog.Logger) models.PubSub {
	wmLogger := watermill.NewSlogLogger(logger)
	if cfg.Redis.URL != "" {
		bus, err := internalevents.NewRedisStreamPubSub(cfg.Redis.URL, wmLogger)
		if err == nil {
			logger.Info("using redis stream event bus")
			return bus
		}
		logger.Warn("redis event bus unavailable, using in-process bus", slog.Any("error", err))
	}
	return internalevents.NewGoChannelPubSub(wmLogger, 100)
}
