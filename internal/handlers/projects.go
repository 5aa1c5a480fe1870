package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vuhnger/backend/internal/middleware"
	"github.com/vuhnger/backend/internal/services"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

// maxJSONBody caps admin JSON request bodies.
const maxJSONBody = 1 << 20

// maxUploadBytes caps project image uploads at 10 MB.
const maxUploadBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ProjectHandler serves the portfolio projects API. Reads are public and
// limited to published projects; writes and draft access need the internal
// API key.
type ProjectHandler struct {
	Config  *models.Config
	Service *services.ProjectService
	Logger  *slog.Logger
}

func (h *ProjectHandler) Routes(r chi.Router) {
	apiKey := middleware.RequireAPIKey(h.Config.APIKey)

	r.Get("/health", h.Health)
	r.Get("/", h.ListPublished)
	r.Get("/featured", h.ListFeatured)

	r.Route("/admin", func(r chi.Router) {
		r.Use(apiKey)
		r.Get("/all", h.ListAll)
		r.Get("/{slug}", h.GetAny)
	})

	r.With(apiKey).Post("/", h.Create)
	r.With(apiKey).Post("/upload-image", h.UploadImage)
	r.With(apiKey).Put("/{slug}", h.Update)
	r.With(apiKey).Delete("/{slug}", h.Delete)

	r.Get("/{slug}", h.GetPublished)
}

func (h *ProjectHandler) Health(w http.ResponseWriter, _ *http.Request) {
	util.JSONResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "projects",
	})
}

func (h *ProjectHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListPublished(r.Context())
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "project list", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}
	util.JSONResponse(w, http.StatusOK, projects)
}

func (h *ProjectHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListFeatured(r.Context())
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "featured project list", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}
	util.JSONResponse(w, http.StatusOK, projects)
}

func (h *ProjectHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListAll(r.Context())
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "admin project list", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}
	util.JSONResponse(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	h.getProject(w, r, false)
}

func (h *ProjectHandler) GetAny(w http.ResponseWriter, r *http.Request) {
	h.getProject(w, r, true)
}

func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request, includeUnpublished bool) {
	slug := chi.URLParam(r, "slug")

	project, err := h.Service.Get(r.Context(), slug, includeUnpublished)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			util.JSONResponse(w, http.StatusNotFound, map[string]any{"message": "Project not found"})
			return
		}
		message, _ := util.LogAndSanitizeError(h.Logger, err, "project lookup", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	util.JSONResponse(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var input services.ProjectInput
	if err := util.ParseJSON(r, &input); err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	project, err := h.Service.Create(r.Context(), input)
	if err != nil {
		h.writeProjectError(w, err, "project create")
		return
	}

	util.JSONResponse(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var patch services.ProjectPatch
	if err := util.ParseJSON(r, &patch); err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	project, err := h.Service.Update(r.Context(), chi.URLParam(r, "slug"), patch)
	if err != nil {
		h.writeProjectError(w, err, "project update")
		return
	}

	util.JSONResponse(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.writeProjectError(w, err, "project delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores a project image under a random name and returns the
// public URL it will be served from.
func (h *ProjectHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+4096)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "File too large or malformed upload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Missing file field"})
		return
	}
	defer file.Close()

	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Unsupported image type"})
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	filename := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext

	if err := os.MkdirAll(h.Config.Uploads.Dir, 0o755); err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "image upload", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	dest, err := os.Create(filepath.Join(h.Config.Uploads.Dir, filename))
	if err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "image upload", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}
	defer dest.Close()

	if _, err := dest.ReadFrom(file); err != nil {
		message, _ := util.LogAndSanitizeError(h.Logger, err, "image upload", "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
		return
	}

	util.JSONResponse(w, http.StatusOK, map[string]any{
		"url":      strings.TrimSuffix(h.Config.Uploads.BaseURL, "/") + "/" + filename,
		"filename": filename,
	})
}

func (h *ProjectHandler) writeProjectError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		util.JSONResponse(w, http.StatusNotFound, map[string]any{"message": "Project not found"})
	case errors.Is(err, services.ErrSlugTaken):
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": "Slug already exists"})
	case errors.Is(err, services.ErrInvalidProject):
		util.JSONResponse(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
	default:
		message, _ := util.LogAndSanitizeError(h.Logger, err, operation, "")
		util.JSONResponse(w, http.StatusInternalServerError, map[string]any{"message": message})
	}
}
