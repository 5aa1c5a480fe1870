package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrSlugTaken       = errors.New("slug already exists")
	ErrInvalidProject  = errors.New("invalid project")
)

// ProjectInput carries the fields accepted when creating a project.
type ProjectInput struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Slug         string            `json:"slug" validate:"required,max=100,slug"`
	Description  string            `json:"description"`
	Content      string            `json:"content"`
	ImageURL     string            `json:"image_url" validate:"omitempty,max=500"`
	Technologies []string          `json:"technologies"`
	Links        map[string]string `json:"links"`
	Featured     bool              `json:"featured"`
	Order        int               `json:"order"`
	Published    bool              `json:"published"`
}

// ProjectPatch carries a partial update; nil fields are left untouched.
type ProjectPatch struct {
	Title        *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Slug         *string            `json:"slug" validate:"omitempty,min=1,max=100,slug"`
	Description  *string            `json:"description"`
	Content      *string            `json:"content"`
	ImageURL     *string            `json:"image_url" validate:"omitempty,max=500"`
	Technologies *[]string          `json:"technologies"`
	Links        *map[string]string `json:"links"`
	Featured     *bool              `json:"featured"`
	Order        *int               `json:"order"`
	Published    *bool              `json:"published"`
}

type ProjectService struct {
	projects repositories.ProjectRepository
}

func NewProjectService(projects repositories.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// Create validates the input and stores a new project. Slugs must be unique;
// reusing one fails with ErrSlugTaken.
func (s *ProjectService) Create(ctx context.Context, input ProjectInput) (*models.Project, error) {
	if err := util.ValidateStruct(input); err != nil {
		return nil, projectInputError(err)
	}

	existing, err := s.projects.GetBySlug(ctx, input.Slug, false)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugTaken
	}

	project := &models.Project{
		Slug:         input.Slug,
		Title:        input.Title,
		Description:  input.Description,
		Content:      input.Content,
		ImageURL:     input.ImageURL,
		Technologies: input.Technologies,
		Links:        input.Links,
		Featured:     input.Featured,
		DisplayOrder: input.Order,
		Published:    input.Published,
	}
	if project.Technologies == nil {
		project.Technologies = []string{}
	}
	if project.Links == nil {
		project.Links = map[string]string{}
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Update applies a partial update to the project behind slug. Changing the
// slug to one already in use fails with ErrSlugTaken.
func (s *ProjectService) Update(ctx context.Context, slug string, patch ProjectPatch) (*models.Project, error) {
	if err := util.ValidateStruct(patch); err != nil {
		return nil, projectInputError(err)
	}

	project, err := s.projects.GetBySlug(ctx, slug, false)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	if patch.Slug != nil && *patch.Slug != project.Slug {
		conflict, err := s.projects.GetBySlug(ctx, *patch.Slug, false)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, ErrSlugTaken
		}
		project.Slug = *patch.Slug
	}

	if patch.Title != nil {
		project.Title = *patch.Title
	}
	if patch.Description != nil {
		project.Description = *patch.Description
	}
	if patch.Content != nil {
		project.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		project.ImageURL = *patch.ImageURL
	}
	if patch.Technologies != nil {
		project.Technologies = *patch.Technologies
	}
	if patch.Links != nil {
		project.Links = *patch.Links
	}
	if patch.Featured != nil {
		project.Featured = *patch.Featured
	}
	if patch.Order != nil {
		project.DisplayOrder = *patch.Order
	}
	if patch.Published != nil {
		project.Published = *patch.Published
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, slug string) error {
	deleted, err := s.projects.Delete(ctx, slug)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrProjectNotFound
	}
	return nil
}

// Get returns a project by slug. With includeUnpublished false, drafts are
// treated as missing.
func (s *ProjectService) Get(ctx context.Context, slug string, includeUnpublished bool) (*models.Project, error) {
	project, err := s.projects.GetBySlug(ctx, slug, !includeUnpublished)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// ListPublished returns published projects in display order.
func (s *ProjectService) ListPublished(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx, repositories.ProjectFilter{PublishedOnly: true})
}

// ListFeatured returns published projects flagged as featured.
func (s *ProjectService) ListFeatured(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx, repositories.ProjectFilter{PublishedOnly: true, FeaturedOnly: true})
}

// ListAll returns every project including drafts, for the admin surface.
func (s *ProjectService) ListAll(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx, repositories.ProjectFilter{})
}

// projectInputError wraps validation failures in ErrInvalidProject with a
// readable field summary.
func projectInputError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields = append(fields, fieldErr.Field())
	}
	return fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(fields, ", "))
}
