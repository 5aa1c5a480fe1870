package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/env"
	"github.com/vuhnger/backend/internal/bootstrap"
	"github.com/vuhnger/backend/internal/middleware"
	"github.com/vuhnger/backend/internal/migrations"
	"github.com/vuhnger/backend/internal/oauthstate"
	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/internal/services"
	"github.com/vuhnger/backend/models"
)

type fakeProviderService struct {
	authorizeURL  string
	callbackErr   error
	refreshErr    error
	callbackCalls int
	refreshCalls  int
}

func (f *fakeProviderService) AuthorizeURL(state string) string {
	return f.authorizeURL + "?state=" + state
}

func (f *fakeProviderService) HandleCallback(_ context.Context, _ string) error {
	f.callbackCalls++
	return f.callbackErr
}

func (f *fakeProviderService) RefreshAll(_ context.Context) error {
	f.refreshCalls++
	return f.refreshErr
}

func openHandlerTestDB(t *testing.T) *bun.DB {
	t.Helper()
	t.Setenv(env.EnvDatabaseURL, "")

	db, err := bootstrap.InitDatabase(bootstrap.DatabaseOptions{
		Provider:     "sqlite",
		URL:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunCoreMigrations(context.Background(), slog.Default(), "", "sqlite", db))
	return db
}

func newProviderTestServer(t *testing.T, service *fakeProviderService, apiKey string) (*httptest.Server, repositories.StatRepository, *oauthstate.Manager) {
	t.Helper()
	db := openHandlerTestDB(t)

	store := oauthstate.NewMemoryNonceStore(time.Minute)
	t.Cleanup(func() { store.Close() })
	states := oauthstate.NewManager("test-secret", store)

	stats := repositories.NewBunStatRepository(db)

	handler := &ProviderHandler{
		Source:     models.SourceStrava,
		StatsTypes: []string{services.StravaStatsYTD, services.StravaStatsRecentActivities, services.StravaStatsMonthly},
		Config: &models.Config{
			APIKey:      apiKey,
			FrontendURL: "https://vuhnger.dev",
		},
		Service: service,
		Stats:   stats,
		States:  states,
		DB:      db,
		Logger:  slog.Default(),
	}

	r := chi.NewRouter()
	r.Route("/strava", handler.Routes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, stats, states
}

// noRedirectClient keeps redirect responses observable.
var noRedirectClient = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func TestProviderHealth(t *testing.T) {
	server, _, _ := newProviderTestServer(t, &fakeProviderService{}, "")

	resp, err := http.Get(server.URL + "/strava/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "strava", body["service"])
	assert.Equal(t, "connected", body["database"])
}

func TestProviderAuthorizeRedirectsWithState(t *testing.T) {
	service := &fakeProviderService{authorizeURL: "https://provider.example/oauth/authorize"}
	server, _, states := newProviderTestServer(t, service, "")

	resp, err := noRedirectClient.Get(server.URL + "/strava/authorize")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	location, err := resp.Location()
	require.NoError(t, err)
	assert.Equal(t, "provider.example", location.Host)

	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	assert.True(t, states.Validate(context.Background(), state))
}

func TestProviderCallbackHappyPath(t *testing.T) {
	service := &fakeProviderService{}
	server, _, states := newProviderTestServer(t, service, "")

	state, err := states.Generate()
	require.NoError(t, err)

	resp, err := noRedirectClient.Get(server.URL + "/strava/callback?code=auth-code&state=" + state)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	location, err := resp.Location()
	require.NoError(t, err)
	assert.Equal(t, "https://vuhnger.dev/?strava=success", location.String())

	assert.Equal(t, 1, service.callbackCalls)
	assert.Equal(t, 1, service.refreshCalls, "callback triggers the initial data fetch")
}

func TestProviderCallbackRejectsBadState(t *testing.T) {
	service := &fakeProviderService{}
	server, _, _ := newProviderTestServer(t, service, "")

	resp, err := noRedirectClient.Get(server.URL + "/strava/callback?code=auth-code&state=forged")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, service.callbackCalls)
}

func TestProviderCallbackRejectsReusedState(t *testing.T) {
	service := &fakeProviderService{}
	server, _, states := newProviderTestServer(t, service, "")

	state, err := states.Generate()
	require.NoError(t, err)

	first, err := noRedirectClient.Get(server.URL + "/strava/callback?code=auth-code&state=" + state)
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, first.StatusCode)

	second, err := noRedirectClient.Get(server.URL + "/strava/callback?code=auth-code&state=" + state)
	require.NoError(t, err)
	defer second.Body.Close()

	assert.Equal(t, http.StatusBadRequest, second.StatusCode)
	assert.Equal(t, 1, service.callbackCalls)
}

func TestProviderCallbackSanitizesExchangeError(t *testing.T) {
	service := &fakeProviderService{callbackErr: errors.New("client_secret=super-sensitive rejected")}
	server, _, states := newProviderTestServer(t, service, "")

	state, err := states.Generate()
	require.NoError(t, err)

	resp, err := noRedirectClient.Get(server.URL + "/strava/callback?code=auth-code&state=" + state)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body["message"], "super-sensitive")
	assert.Contains(t, body["message"], "Error ID:")
}

func TestProviderGetStats(t *testing.T) {
	server, stats, _ := newProviderTestServer(t, &fakeProviderService{}, "")

	require.NoError(t, stats.Upsert(context.Background(), models.SourceStrava, services.StravaStatsYTD, json.RawMessage(`{"run":{"count":3}}`)))

	resp, err := http.Get(server.URL + "/strava/stats/ytd")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Source    string          `json:"source"`
		Type      string          `json:"type"`
		Data      json.RawMessage `json:"data"`
		FetchedAt time.Time       `json:"fetched_at"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "strava", body.Source)
	assert.Equal(t, "ytd", body.Type)
	assert.JSONEq(t, `{"run":{"count":3}}`, string(body.Data))
	assert.False(t, body.FetchedAt.IsZero())
}

func TestProviderGetStatsNotCached(t *testing.T) {
	server, _, _ := newProviderTestServer(t, &fakeProviderService{}, "")

	resp, err := http.Get(server.URL + "/strava/stats/ytd")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["message"], "not cached yet")
	assert.Contains(t, body["message"], "/strava/refresh-data")
}

func TestProviderGetStatsUnknownType(t *testing.T) {
	server, _, _ := newProviderTestServer(t, &fakeProviderService{}, "")

	resp, err := http.Get(server.URL + "/strava/stats/bogus")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProviderRefreshRequiresAPIKey(t *testing.T) {
	service := &fakeProviderService{}
	server, _, _ := newProviderTestServer(t, service, "internal-key")

	resp, err := http.Post(server.URL+"/strava/refresh-data", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, service.refreshCalls)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/strava/refresh-data", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "internal-key")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, service.refreshCalls)
}

func TestProviderRefreshNotAuthenticated(t *testing.T) {
	service := &fakeProviderService{refreshErr: services.ErrNotAuthenticated}
	server, _, _ := newProviderTestServer(t, service, "")

	resp, err := http.Post(server.URL+"/strava/refresh-data", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["message"], "/strava/authorize")
}
