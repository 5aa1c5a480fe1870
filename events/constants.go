package events

// Topics published on the internal event bus.
const (
	// TopicStatsRefreshed fires after a source's statistics were fetched
	// and cached.
	TopicStatsRefreshed = "stats.refreshed"

	// TopicCredentialsUpdated fires after an OAuth callback or token
	// refresh stored new credentials.
	TopicCredentialsUpdated = "credentials.updated"
)
