package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/internal/middleware"
	"github.com/vuhnger/backend/internal/oauthstate"
	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/internal/services"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

// ProviderService is the slice of a stats service the HTTP layer needs.
type ProviderService interface {
	AuthorizeURL(state string) string
	HandleCallback(ctx context.Context, code string) error
	RefreshAll(ctx context.Context) error
}

// ProviderHandler serves one OAuth-backed stats source (Strava, WakaTime):
// health, the OAuth redirect pair, cached stats reads and the manual
// refresh hook.
type ProviderHandler struct {
	Source     string
	StatsTypes []string
	Config     *models.Config
	Service    ProviderService
	Stats      repositories.StatRepository
	States     *oauthstate.Manager
	DB         *bun.DB
	Logger     *slog.Logger
}

func (h *ProviderHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/authorize", h.Authorize)
	r.Get("/callback", h.Callback)
	r.Get("/stats/{type}", h.GetStats)
	r.With(middleware.RequireAPIKey(h.Config.APIKey)).Post("/refresh-data", h.Refresh)
}

func (h *ProviderHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, database := "ok", "connected"
	if err := h.DB.PingContext(ctx); err != nil {
		status, database = "degraded", "disconnected"
	}

	util.JSONResponse(w, http.StatusOK, map[string]any{
		"status":   status,
		"service":  h.Source,
		"database": database,
	})
}

// Authorize starts the OAuth flow by redirecting to the provider with a
// signed state parameter.
func (h *ProviderHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	state, err := h.States.Generate()
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, h.Source+" authorize", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	http.Redirect(w, r, h.Service.AuthorizeURL(state), http.StatusTemporaryRedirect)
}

// Callback finishes the OAuth flow: state check, code exchange, token
// storage, then a best-effort initial refresh before bouncing back to the
// frontend.
func (h *ProviderHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code, state := query.Get("code"), query.Get("state")

	if code == "" || !h.States.Validate(r.Context(), state) {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{
			"message": "Invalid or expired state parameter",
		})
		return
	}

	if err := h.Service.HandleCallback(r.Context(), code); err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, h.Source+" token exchange", "OAuth authorization failed. Please try again.")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	// Initial fetch is best-effort; the scheduler catches up if it fails.
	if err := h.Service.RefreshAll(r.Context()); err != nil {
		h.Logger.Warn("initial data fetch failed",
			slog.String("source", h.Source),
			slog.Any("error", err),
		)
	}

	http.Redirect(w, r, h.Config.FrontendURL+"/?"+h.Source+"=success", http.StatusTemporaryRedirect)
}

func (h *ProviderHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	statsType := chi.URLParam(r, "type")
	if !h.knownStatsType(statsType) {
		util.JSONResponse(w, http.StatusNotFound, map[string]any{
			"message": "Unknown stats type: " + statsType,
		})
		return
	}

	snapshot, err := h.Stats.Get(r.Context(), h.Source, statsType)
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, h.Source+" stats lookup", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}
	if snapshot == nil {
		util.JSONResponse(w, http.StatusNotFound, map[string]any{
			"message": statsType + " stats not cached yet. Try /" + h.Source + "/refresh-data",
		})
		return
	}

	util.JSONResponse(w, http.StatusOK, snapshot)
}

func (h *ProviderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RefreshAll(r.Context()); err != nil {
		if errors.Is(err, services.ErrNotAuthenticated) {
			util.JSONResponse(w, http.StatusConflict, map[string]any{
				"message": "Not authenticated. Complete the OAuth flow via /" + h.Source + "/authorize",
			})
			return
		}
		message, _ := util.LogAndSanitizeError(h.Logger, err, h.Source+" refresh", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	util.JSONResponse(w, http.StatusOK, map[string]any{"status": "success"})
}

func (h *ProviderHandler) knownStatsType(statsType string) bool {
	for _, known := range h.StatsTypes {
		if known == statsType {
			return true
		}
	}
	return false
}
