package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/internal/middleware"
	"github.com/vuhnger/backend/internal/services"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

// CalendarHandler serves the advent calendar content.
type CalendarHandler struct {
	Config  *models.Config
	Service *services.CalendarService
	DB      *bun.DB
	Logger  *slog.Logger
}

func (h *CalendarHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/days", h.ListDays)
	r.Get("/day/{day}", h.GetDay)
	r.With(middleware.RequireAPIKey(h.Config.APIKey)).Post("/day/{day}", h.SeedDay)
}

func (h *CalendarHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, database := "ok", "connected"
	if err := h.DB.PingContext(ctx); err != nil {
		status, database = "degraded", "disconnected"
	}

	util.JSONResponse(w, http.StatusOK, map[string]any{
		"status":   status,
		"service":  "calendar",
		"database": database,
	})
}

func (h *CalendarHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.Service.ListDays(r.Context())
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "calendar list", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	util.JSONResponse(w, http.StatusOK, map[string]any{"days": days})
}

func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Day must be a number"})
		return
	}

	entry, svcErr := h.Service.GetDay(r.Context(), day)
	if svcErr != nil {
		if errors.Is(svcErr, services.ErrInvalidDay) {
			util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": svcErr.Error()})
			return
		}
		message, _ := util.LogAndSanitizeError(h.Logger, svcErr, "calendar lookup", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}
	if entry == nil {
		util.JSONResponse(w, http.StatusNotFound, map[string]any{
			"message": "No content for day " + strconv.Itoa(day),
		})
		return
	}

	util.JSONResponse(w, http.StatusOK, entry)
}

type seedDayRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *CalendarHandler) SeedDay(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Day must be a number"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var body seedDayRequest
	if err := util.ParseJSON(r, &body); err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	if err := h.Service.SeedDay(r.Context(), day, body.Type, body.Data); err != nil {
		if errors.Is(err, services.ErrInvalidDay) || errors.Is(err, services.ErrInvalidDayType) {
			util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		message, _ := util.LogAndSanitizeError(h.Logger, err, "calendar seed", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	util.JSONResponse(w, http.StatusOK, map[string]any{"status": "success", "day": day})
}
