package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vuhnger/backend/models"
)

type BunCredentialRepository struct {
	db bun.IDB
}

func NewBunCredentialRepository(db bun.IDB) CredentialRepository {
	return &BunCredentialRepository{db: db}
}

// Upsert writes the singleton credential row for cred.Provider. Concurrent
// OAuth callbacks and token refreshes racing on the same provider resolve
// through the store's conflict handling; the last commit wins and updated_at
// reflects it.
func (r *BunCredentialRepository) Upsert(ctx context.Context, cred *models.ProviderCredential) error {
	return AtomicUpsert(ctx, r.db, cred,
		[]string{"provider"},
		[]string{"account_id", "access_token", "refresh_token", "token_type", "expires_at"},
		"updated_at",
	)
}

func (r *BunCredentialRepository) Get(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	cred := new(models.ProviderCredential)
	err := r.db.NewSelect().
		Model(cred).
		Where("provider = ?", provider).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider credential: %w", err)
	}
	return cred, nil
}

// Delete removes a provider's credential, used for explicit re-authorization
// resets. Deleting a missing row is not an error.
func (r *BunCredentialRepository) Delete(ctx context.Context, provider string) error {
	_, err := r.db.NewDelete().
		Model((*models.ProviderCredential)(nil)).
		Where("provider = ?", provider).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete provider credential: %w", err)
	}
	return nil
}
