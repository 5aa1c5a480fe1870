package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/models"
)

type BunCalendarRepository struct {
	db bun.IDB
}

func NewBunCalendarRepository(db bun.IDB) CalendarRepository {
	return &BunCalendarRepository{db: db}
}

// Upsert seeds or replaces a calendar day. Re-seeding the same day number
// keeps a single row and bumps updated_at.
func (r *BunCalendarRepository) Upsert(ctx context.Context, day *models.CalendarDay) error {
	return AtomicUpsert(ctx, r.db, day,
		[]string{"day"},
		[]string{"type", "data"},
		"updated_at",
	)
}

func (r *BunCalendarRepository) Get(ctx context.Context, day int) (*models.CalendarDay, error) {
	entry := new(models.CalendarDay)
	err := r.db.NewSelect().
		Model(entry).
		Where("day = ?", day).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar day: %w", err)
	}
	return entry, nil
}

func (r *BunCalendarRepository) List(ctx context.Context) ([]models.CalendarDay, error) {
	var days []models.CalendarDay
	err := r.db.NewSelect().
		Model(&days).
		Order("day ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar days: %w", err)
	}
	return days, nil
}
