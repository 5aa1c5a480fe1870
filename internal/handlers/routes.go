package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vuhnger/backend/internal/middleware"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Strava   *ProviderHandler
	WakaTime *ProviderHandler
	Calendar *CalendarHandler
	Projects *ProjectHandler
}

// NewRouter assembles the full HTTP surface: CORS, security headers,
// request logging, and one subtree per source.
func NewRouter(cfg *models.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.APIKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders(cfg.Security.ContentSecurityPolicy))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		util.JSONResponse(w, http.StatusOK, map[string]any{
			"service": cfg.AppName,
			"status":  "ok",
		})
	})

	r.Route("/strava", deps.Strava.Routes)
	r.Route("/wakatime", deps.WakaTime.Routes)
	r.Route("/calendar", deps.Calendar.Routes)
	r.Route("/projects", deps.Projects.Routes)

	return r
}
