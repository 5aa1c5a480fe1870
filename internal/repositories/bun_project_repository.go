package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/models"
)

type BunProjectRepository struct {
	db bun.IDB
}

func NewBunProjectRepository(db bun.IDB) ProjectRepository {
	return &BunProjectRepository{db: db}
}

func (r *BunProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if _, err := r.db.NewInsert().Model(project).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Update persists the full row of a previously loaded project.
func (r *BunProjectRepository) Update(ctx context.Context, project *models.Project) error {
	_, err := r.db.NewUpdate().
		Model(project).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete removes a project by slug. The second return reports whether a row
// existed.
func (r *BunProjectRepository) Delete(ctx context.Context, slug string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*models.Project)(nil)).
		Where("slug = ?", slug).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *BunProjectRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error) {
	project := new(models.Project)
	query := r.db.NewSelect().
		Model(project).
		Where("slug = ?", slug)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	err := query.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (r *BunProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	var projects []models.Project
	query := r.db.NewSelect().
		Model(&projects).
		Order("display_order ASC").
		Order("created_at DESC")
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}
	if filter.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}
