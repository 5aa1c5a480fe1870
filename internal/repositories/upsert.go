package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// AtomicUpsert issues a single INSERT ... ON CONFLICT DO UPDATE for model.
//
// The insert attempt and the conflict resolution happen in one statement, so
// two callers racing on the same key can never observe a duplicate-key error:
// the store's constraint machinery decides insert-vs-update, not application
// code. There is no prior read and no application-level lock; whichever
// transaction commits last determines the final row state.
//
// uniqueColumns name the conflict target (a declared unique constraint).
// updateColumns are replaced from the would-be-inserted values (EXCLUDED) on
// the update path. timestampColumn, when non-empty, is set to the database
// clock on the update path; the insert path relies on the column's
// DEFAULT CURRENT_TIMESTAMP, so both paths reflect the commit time.
//
// Store errors (connection loss, NOT NULL violations on other columns)
// propagate unchanged; retrying is the caller's concern.
func AtomicUpsert(ctx context.Context, db bun.IDB, model any, uniqueColumns, updateColumns []string, timestampColumn string) error {
	if len(uniqueColumns) == 0 {
		return fmt.Errorf("atomic upsert requires at least one unique column")
	}
	if len(updateColumns) == 0 && timestampColumn == "" {
		return fmt.Errorf("atomic upsert requires at least one column to update")
	}

	q := db.NewInsert().
		Model(model).
		On(fmt.Sprintf("CONFLICT (%s) DO UPDATE", strings.Join(uniqueColumns, ", ")))

	for _, column := range updateColumns {
		q = q.Set(fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	if timestampColumn != "" {
		q = q.Set(fmt.Sprintf("%s = CURRENT_TIMESTAMP", timestampColumn))
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("atomic upsert failed: %w", err)
	}
	return nil
}
