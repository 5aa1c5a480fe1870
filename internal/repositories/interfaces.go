package repositories

import (
	"context"
	"encoding/json"

	"github.com/vuhnger/backend/models"
)

// StatRepository caches externally fetched statistics keyed by
// (source, stats type). Upsert replaces the payload wholesale.
type StatRepository interface {
	Upsert(ctx context.Context, source, statsType string, data json.RawMessage) error
	Get(ctx context.Context, source, statsType string) (*models.StatSnapshot, error)
	List(ctx context.Context, source string) ([]models.StatSnapshot, error)
	Clear(ctx context.Context, source string) error
}

// CredentialRepository stores the singleton OAuth credential row per
// provider. Upsert is safe under concurrent token refreshes.
type CredentialRepository interface {
	Upsert(ctx context.Context, cred *models.ProviderCredential) error
	Get(ctx context.Context, provider string) (*models.ProviderCredential, error)
	Delete(ctx context.Context, provider string) error
}

// CalendarRepository stores advent calendar days keyed by day number.
type CalendarRepository interface {
	Upsert(ctx context.Context, day *models.CalendarDay) error
	Get(ctx context.Context, day int) (*models.CalendarDay, error)
	List(ctx context.Context) ([]models.CalendarDay, error)
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	PublishedOnly bool
	FeaturedOnly  bool
}

// ProjectRepository stores portfolio projects keyed by slug.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, slug string) (bool, error)
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
}
