package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhnger/backend/internal/middleware"
	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/internal/services"
	"github.com/vuhnger/backend/models"
)

func newCalendarTestServer(t *testing.T, apiKey string) (*httptest.Server, *services.CalendarService) {
	t.Helper()
	db := openHandlerTestDB(t)

	service := services.NewCalendarService(repositories.NewBunCalendarRepository(db))
	handler := &CalendarHandler{
		Config:  &models.Config{APIKey: apiKey},
		Service: service,
		DB:      db,
		Logger:  slog.Default(),
	}

	r := chi.NewRouter()
	r.Route("/calendar", handler.Routes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, service
}

func TestCalendarGetDay(t *testing.T) {
	server, service := newCalendarTestServer(t, "")

	require.NoError(t, service.SeedDay(context.Background(), 7, "quote", json.RawMessage(`{"text":"hei"}`)))

	resp, err := http.Get(server.URL + "/calendar/day/7")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Day  int             `json:"day"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 7, body.Day)
	assert.Equal(t, "quote", body.Type)
	assert.JSONEq(t, `{"text":"hei"}`, string(body.Data))
}

func TestCalendarGetDayValidation(t *testing.T) {
	server, _ := newCalendarTestServer(t, "")

	for path, want := range map[string]int{
		"/calendar/day/abc": http.StatusBadRequest,
		"/calendar/day/0":   http.StatusBadRequest,
		"/calendar/day/25":  http.StatusBadRequest,
		"/calendar/day/9":   http.StatusNotFound,
	} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestCalendarListDays(t *testing.T) {
	server, service := newCalendarTestServer(t, "")
	ctx := context.Background()

	require.NoError(t, service.SeedDay(ctx, 2, "quote", nil))
	require.NoError(t, service.SeedDay(ctx, 1, "image", nil))

	resp, err := http.Get(server.URL + "/calendar/days")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Days []models.CalendarDay `json:"days"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Days, 2)
	assert.Equal(t, 1, body.Days[0].Day)
	assert.Equal(t, 2, body.Days[1].Day)
}

func TestCalendarSeedRequiresAPIKey(t *testing.T) {
	server, _ := newCalendarTestServer(t, "admin-key")

	payload := strings.NewReader(`{"type":"quote","data":{"text":"jul"}}`)
	resp, err := http.Post(server.URL+"/calendar/day/3", "application/json", payload)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/calendar/day/3", strings.NewReader(`{"type":"quote","data":{"text":"jul"}}`))
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCalendarSeedValidatesBody(t *testing.T) {
	server, _ := newCalendarTestServer(t, "")

	resp, err := http.Post(server.URL+"/calendar/day/3", "application/json", strings.NewReader(`{"data":{}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalendarSeedRejectsOversizedBody(t *testing.T) {
	server, _ := newCalendarTestServer(t, "")

	huge := `{"type":"quote","data":{"text":"` + strings.Repeat("x", 2<<20) + `"}}`
	resp, err := http.Post(server.URL+"/calendar/day/3", "application/json", strings.NewReader(huge))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
