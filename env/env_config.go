package env

const (
	// STRAVA

	EnvStravaClientID     = "STRAVA_CLIENT_ID"
	EnvStravaClientSecret = "STRAVA_CLIENT_SECRET"
	EnvStravaRedirectURI  = "STRAVA_REDIRECT_URI"

	// WAKATIME

	EnvWakaTimeClientID     = "WAKATIME_CLIENT_ID"
	EnvWakaTimeClientSecret = "WAKATIME_CLIENT_SECRET"
	EnvWakaTimeRedirectURI  = "WAKATIME_REDIRECT_URI"

	// POSTGRES

	EnvDatabaseProvider = "DATABASE_PROVIDER"
	EnvDatabaseURL      = "DATABASE_URL"

	// REDIS

	EnvRedisURL = "REDIS_URL"

	// SECURITY

	EnvStateSecret    = "STATE_SECRET"
	EnvInternalAPIKey = "INTERNAL_API_KEY"

	// BACKEND

	EnvConfigPath      = "BACKEND_CONFIG_PATH"
	EnvFrontendURL     = "FRONTEND_URL"
	EnvRefreshInterval = "REFRESH_INTERVAL"

	// UPLOADS

	EnvUploadDir     = "UPLOAD_DIR"
	EnvUploadBaseURL = "UPLOAD_BASE_URL"

	// ENVIRONMENT

	EnvGoEnvironment = "GO_ENV"
	EnvPort          = "PORT"
)
