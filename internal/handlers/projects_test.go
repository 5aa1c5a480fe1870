package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
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

func newProjectTestServer(t *testing.T, apiKey string) (*httptest.Server, *services.ProjectService, string) {
	t.Helper()
	db := openHandlerTestDB(t)
	uploadDir := filepath.Join(t.TempDir(), "uploads")

	service := services.NewProjectService(repositories.NewBunProjectRepository(db))
	handler := &ProjectHandler{
		Config: &models.Config{
			APIKey: apiKey,
			Uploads: models.UploadConfig{
				Dir:     uploadDir,
				BaseURL: "https://api.example.com/uploads/projects",
			},
		},
		Service: service,
		Logger:  slog.Default(),
	}

	r := chi.NewRouter()
	r.Route("/projects", handler.Routes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, service, uploadDir
}

func seedProject(t *testing.T, service *services.ProjectService, slug string, published, featured bool) {
	t.Helper()
	_, err := service.Create(context.Background(), services.ProjectInput{
		Title:     "Project " + slug,
		Slug:      slug,
		Featured:  featured,
		Published: published,
	})
	require.NoError(t, err)
}

func TestProjectListPublishedOnly(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "")
	seedProject(t, service, "live-project", true, false)
	seedProject(t, service, "draft-project", false, false)

	resp, err := http.Get(server.URL + "/projects/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var projects []models.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "live-project", projects[0].Slug)
}

func TestProjectFeaturedListing(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "")
	seedProject(t, service, "plain-project", true, false)
	seedProject(t, service, "star-project", true, true)

	resp, err := http.Get(server.URL + "/projects/featured")
	require.NoError(t, err)
	defer resp.Body.Close()

	var projects []models.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "star-project", projects[0].Slug)
}

func TestProjectGetBySlug(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "")
	seedProject(t, service, "live-project", true, false)
	seedProject(t, service, "draft-project", false, false)

	resp, err := http.Get(server.URL + "/projects/live-project")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Drafts look like 404s without the API key.
	resp, err = http.Get(server.URL + "/projects/draft-project")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProjectAdminSeesDrafts(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "admin-key")
	seedProject(t, service, "draft-project", false, false)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/projects/admin/draft-project", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Without the key the admin surface is closed.
	resp, err = http.Get(server.URL + "/projects/admin/all")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProjectCreateEndpoint(t *testing.T) {
	server, _, _ := newProjectTestServer(t, "admin-key")

	payload := `{"title":"New Project","slug":"new-project","published":true}`
	req, err := http.NewRequest(http.MethodPost, server.URL+"/projects/", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "new-project", created.Slug)
	assert.NotZero(t, created.ID)
}

func TestProjectCreateDuplicateSlug(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "admin-key")
	seedProject(t, service, "taken-slug", true, false)

	payload := `{"title":"Clone","slug":"taken-slug"}`
	req, err := http.NewRequest(http.MethodPost, server.URL+"/projects/", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Slug already exists", body["message"])
}

func TestProjectCreateValidation(t *testing.T) {
	server, _, _ := newProjectTestServer(t, "admin-key")

	payload := `{"title":"","slug":"Bad Slug!"}`
	req, err := http.NewRequest(http.MethodPost, server.URL+"/projects/", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectCreateRejectsOversizedBody(t *testing.T) {
	server, _, _ := newProjectTestServer(t, "admin-key")

	huge := `{"title":"big","slug":"big-project","content":"` + strings.Repeat("x", 2<<20) + `"}`
	req, err := http.NewRequest(http.MethodPost, server.URL+"/projects/", strings.NewReader(huge))
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectUpdateEndpoint(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "admin-key")
	seedProject(t, service, "old-project", true, false)

	payload := `{"title":"Renamed"}`
	req, err := http.NewRequest(http.MethodPut, server.URL+"/projects/old-project", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "old-project", updated.Slug)
}

func TestProjectDeleteEndpoint(t *testing.T) {
	server, service, _ := newProjectTestServer(t, "admin-key")
	seedProject(t, service, "doomed-project", true, false)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/projects/doomed-project", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// A second delete reports the project as gone.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func multipartImage(t *testing.T, fieldFilename, contentType string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fieldFilename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestProjectUploadImage(t *testing.T) {
	server, _, uploadDir := newProjectTestServer(t, "admin-key")

	body, contentType := multipartImage(t, "hero.png", "image/png", []byte("fake-png-bytes"))
	req, err := http.NewRequest(http.MethodPost, server.URL+"/projects/upload-image", body)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, strings.HasSuffix(result.Filename, ".png"))
	assert.Equal(t, "https://api.example.com/uploads/projects/"+result.Filename, result.URL)

	stored, err := os.ReadFile(filepath.Join(uploadDir, result.Filename))
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(stored))
}

func TestProjectUploadRejectsUnsupportedType(t *testing.T) {
	server, _, _ := newProjectTestServer(t, "admin-key")

	body, contentType := multipartImage(t, "script.svg", "image/svg+xml", []byte("<svg/>"))
	req, err := http.NewRequest(http.MethodPost, server.URL+"/projects/upload-image", body)
	require.NoError(t, err)
	req.Header.Set(middleware.APIKeyHeader, "admin-key")
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
