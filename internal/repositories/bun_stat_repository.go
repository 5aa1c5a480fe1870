package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/models"
)

type BunStatRepository struct {
	db bun.IDB
}

func NewBunStatRepository(db bun.IDB) StatRepository {
	return &BunStatRepository{db: db}
}

// Upsert caches a freshly fetched statistic. The payload replaces any
// previous one for the same (source, stats_type) key and fetched_at is set
// by the store on both the insert and the update path.
func (r *BunStatRepository) Upsert(ctx context.Context, source, statsType string, data json.RawMessage) error {
	snapshot := &models.StatSnapshot{
		Source:    source,
		StatsType: statsType,
		Data:      data,
	}

	return AtomicUpsert(ctx, r.db, snapshot,
		[]string{"source", "stats_type"},
		[]string{"data"},
		"fetched_at",
	)
}

func (r *BunStatRepository) Get(ctx context.Context, source, statsType string) (*models.StatSnapshot, error) {
	snapshot := new(models.StatSnapshot)
	err := r.db.NewSelect().
		Model(snapshot).
		Where("source = ? AND stats_type = ?", source, statsType).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stat snapshot: %w", err)
	}
	return snapshot, nil
}

func (r *BunStatRepository) List(ctx context.Context, source string) ([]models.StatSnapshot, error) {
	var snapshots []models.StatSnapshot
	err := r.db.NewSelect().
		Model(&snapshots).
		Where("source = ?", source).
		Order("stats_type ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stat snapshots: %w", err)
	}
	return snapshots, nil
}

// Clear removes all cached snapshots for a source. Normal operation never
// deletes rows; this backs explicit cache resets only.
func (r *BunStatRepository) Clear(ctx context.Context, source string) error {
	_, err := r.db.NewDelete().
		Model((*models.StatSnapshot)(nil)).
		Where("source = ?", source).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear stat snapshots: %w", err)
	}
	return nil
}
